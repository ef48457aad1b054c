package generatorfake

import (
	"context"
	"sync"

	"github.com/jrsteele09/inbox-assist/drafting"
)

var _ drafting.Generator = (*FakeGenerator)(nil)

// FakeGenerator returns canned text and records prompts.
type FakeGenerator struct {
	lock    sync.Mutex
	text    string
	err     error
	prompts []string
}

func NewFakeGenerator(text string) *FakeGenerator {
	return &FakeGenerator{text: text}
}

func (f *FakeGenerator) Fail(err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.err = err
}

func (f *FakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *FakeGenerator) Prompts() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string(nil), f.prompts...)
}
