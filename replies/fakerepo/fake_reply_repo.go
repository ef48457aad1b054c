package fakereplyrepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/inbox-assist/internal/errors"
	"github.com/jrsteele09/inbox-assist/replies"
)

var _ replies.Repo = (*FakeReplyRepo)(nil)

type FakeReplyRepo struct {
	emails  map[string]*replies.StoredEmail // userID|gmailID -> email
	replies map[string]*replies.GeneratedReply
	failErr error
	lock    sync.RWMutex
}

// FailCreate makes subsequent CreateReply calls fail with err after assigning an ID,
// as the PostgreSQL store does.
func (r *FakeReplyRepo) FailCreate(err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.failErr = err
}

func NewFakeReplyRepo() *FakeReplyRepo {
	return &FakeReplyRepo{
		emails:  make(map[string]*replies.StoredEmail),
		replies: make(map[string]*replies.GeneratedReply),
	}
}

func (r *FakeReplyRepo) RecordEmail(_ context.Context, email *replies.StoredEmail) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	k := email.UserID + "|" + email.GmailID
	if existing, ok := r.emails[k]; ok {
		email.ID = existing.ID
	}
	if email.ID == "" {
		email.ID = uuid.New().String()
	}
	stored := *email
	r.emails[k] = &stored
	return nil
}

func (r *FakeReplyRepo) CreateReply(_ context.Context, reply *replies.GeneratedReply) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if reply.ID == "" {
		reply.ID = uuid.New().String()
	}
	if r.failErr != nil {
		return r.failErr
	}
	if reply.Status == "" {
		reply.Status = replies.StatusDraft
	}
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now()
	}
	stored := *reply
	r.replies[reply.ID] = &stored
	return nil
}

func (r *FakeReplyRepo) GetReply(_ context.Context, userID, replyID string) (*replies.GeneratedReply, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	reply, ok := r.replies[replyID]
	if !ok || reply.UserID != userID {
		return nil, errors.ErrNotFound
	}
	cp := *reply
	return &cp, nil
}

func (r *FakeReplyRepo) MarkSent(_ context.Context, userID, replyID string, sentAt time.Time) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	reply, ok := r.replies[replyID]
	if !ok || reply.UserID != userID {
		return errors.ErrNotFound
	}
	reply.Status = replies.StatusSent
	reply.SentAt = sentAt
	return nil
}

func (r *FakeReplyRepo) Stats(_ context.Context, userID string) (replies.Stats, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	var generated, sent, emails int
	for _, reply := range r.replies {
		if reply.UserID != userID {
			continue
		}
		generated++
		if reply.Status == replies.StatusSent {
			sent++
		}
	}
	for _, email := range r.emails {
		if email.UserID == userID {
			emails++
		}
	}
	return replies.NewStats(generated, sent, emails), nil
}
