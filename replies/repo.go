package replies

import (
	"context"
	"time"
)

// Repo stores drafted replies and the emails they answer.
type Repo interface {
	// RecordEmail upserts the email keyed by (UserID, GmailID) and sets email.ID.
	RecordEmail(ctx context.Context, email *StoredEmail) error
	CreateReply(ctx context.Context, reply *GeneratedReply) error
	GetReply(ctx context.Context, userID, replyID string) (*GeneratedReply, error)
	// MarkSent flips a reply to StatusSent. Unknown replies return errors.ErrNotFound.
	MarkSent(ctx context.Context, userID, replyID string, sentAt time.Time) error
	Stats(ctx context.Context, userID string) (Stats, error)
}
