package sessions

import (
	"context"
	"time"
)

// Repo stores login sessions. Get returns errors.ErrSessionNotFound for unknown IDs.
type Repo interface {
	Upsert(ctx context.Context, session Session) error
	Get(ctx context.Context, sessionID string) (Session, error)
	Delete(ctx context.Context, sessionID string) error
	// DeleteExpired removes sessions whose ExpiresAt is not after now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
