package endpointfake

import (
	"context"
	"sync"

	"github.com/jrsteele09/inbox-assist/token/refresh"
)

var _ refresh.TokenEndpoint = (*FakeEndpoint)(nil)

// FakeEndpoint is a scripted refresh.TokenEndpoint that records every call.
type FakeEndpoint struct {
	lock      sync.Mutex
	grant     *refresh.Grant
	err       error
	calls     int
	lastToken string
	gate      chan struct{}
	entered   chan struct{}
}

func NewFakeEndpoint() *FakeEndpoint {
	return &FakeEndpoint{}
}

// Succeed makes subsequent calls return grant.
func (f *FakeEndpoint) Succeed(grant refresh.Grant) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.grant = &grant
	f.err = nil
}

// Fail makes subsequent calls return err.
func (f *FakeEndpoint) Fail(err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.grant = nil
	f.err = err
}

// Hold blocks subsequent calls until release is called. entered receives once for
// every call that reaches the gate.
func (f *FakeEndpoint) Hold() (entered <-chan struct{}, release func()) {
	f.lock.Lock()
	defer f.lock.Unlock()
	gate := make(chan struct{})
	f.gate = gate
	f.entered = make(chan struct{}, 64)
	var once sync.Once
	return f.entered, func() { once.Do(func() { close(gate) }) }
}

func (f *FakeEndpoint) Refresh(ctx context.Context, refreshToken string) (*refresh.Grant, error) {
	f.lock.Lock()
	gate, entered := f.gate, f.entered
	f.calls++
	f.lastToken = refreshToken
	f.lock.Unlock()

	if gate != nil {
		entered <- struct{}{}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	if f.grant == nil {
		return &refresh.Grant{}, nil
	}
	g := *f.grant
	return &g, nil
}

// Calls returns how many refresh calls were made.
func (f *FakeEndpoint) Calls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.calls
}

// LastRefreshToken returns the refresh token sent on the most recent call.
func (f *FakeEndpoint) LastRefreshToken() string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.lastToken
}
