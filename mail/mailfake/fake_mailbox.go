package mailfake

import (
	"context"
	"sync"

	"github.com/jrsteele09/inbox-assist/internal/errors"
	"github.com/jrsteele09/inbox-assist/mail"
)

var (
	_ mail.Opener  = (*FakeOpener)(nil)
	_ mail.Mailbox = (*FakeMailbox)(nil)
)

// FakeOpener hands out one shared FakeMailbox and records the tokens it was given.
type FakeOpener struct {
	Mailbox *FakeMailbox
	lock    sync.Mutex
	tokens  []string
}

func NewFakeOpener() *FakeOpener {
	return &FakeOpener{Mailbox: NewFakeMailbox()}
}

func (o *FakeOpener) Open(_ context.Context, accessToken string) (mail.Mailbox, error) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.tokens = append(o.tokens, accessToken)
	return o.Mailbox, nil
}

// Tokens returns every access token used to open the mailbox.
func (o *FakeOpener) Tokens() []string {
	o.lock.Lock()
	defer o.lock.Unlock()
	return append([]string(nil), o.tokens...)
}

type FakeMailbox struct {
	lock        sync.RWMutex
	messages    map[string]*mail.Detail
	attachments map[string]*mail.Content
	sent        []mail.Reply
	mods        map[string][]mail.Modification
	err         error
}

func NewFakeMailbox() *FakeMailbox {
	return &FakeMailbox{
		messages:    make(map[string]*mail.Detail),
		attachments: make(map[string]*mail.Content),
		mods:        make(map[string][]mail.Modification),
	}
}

// Add stores a message returned by List and Get.
func (f *FakeMailbox) Add(d mail.Detail) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.messages[d.ID] = &d
}

func (f *FakeMailbox) AddAttachment(messageID, attachmentID string, c mail.Content) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.attachments[messageID+"/"+attachmentID] = &c
}

// Fail makes every call return err until cleared with Fail(nil).
func (f *FakeMailbox) Fail(err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.err = err
}

func (f *FakeMailbox) List(_ context.Context, _ mail.ListOptions) (*mail.ListResult, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	if f.err != nil {
		return nil, f.err
	}
	result := &mail.ListResult{Emails: []mail.Summary{}}
	for _, d := range f.messages {
		result.Emails = append(result.Emails, d.Summary)
		if !d.IsRead {
			result.Stats.UnreadCount++
		}
		if d.IsImportant {
			result.Stats.ImportantCount++
		}
	}
	result.Stats.TotalCount = int64(len(result.Emails))
	result.TotalCount = result.Stats.TotalCount
	return result, nil
}

func (f *FakeMailbox) Get(_ context.Context, messageID string) (*mail.Detail, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	if f.err != nil {
		return nil, f.err
	}
	d, ok := f.messages[messageID]
	if !ok {
		return nil, errors.ErrMessageNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *FakeMailbox) Modify(_ context.Context, messageID string, mod mail.Modification) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.messages[messageID]; !ok {
		return errors.ErrMessageNotFound
	}
	f.mods[messageID] = append(f.mods[messageID], mod)
	return nil
}

func (f *FakeMailbox) Attachment(_ context.Context, messageID, attachmentID string) (*mail.Content, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.attachments[messageID+"/"+attachmentID]
	if !ok {
		return nil, errors.ErrAttachmentNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *FakeMailbox) SendReply(_ context.Context, reply mail.Reply) (*mail.SendResult, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, reply)
	return &mail.SendResult{MessageID: "sent-" + reply.ThreadID, ThreadID: reply.ThreadID}, nil
}

func (f *FakeMailbox) Sent() []mail.Reply {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return append([]mail.Reply(nil), f.sent...)
}

func (f *FakeMailbox) Modifications(messageID string) []mail.Modification {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return append([]mail.Modification(nil), f.mods[messageID]...)
}
