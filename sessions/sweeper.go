package sessions

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweep deletes expired sessions every interval until ctx is cancelled.
func Sweep(ctx context.Context, repo Repo, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := repo.DeleteExpired(ctx, now)
			if err != nil {
				log.Error().Err(err).Msg("failed to delete expired sessions")
				continue
			}
			if removed > 0 {
				log.Debug().Int64("removed", removed).Msg("expired sessions deleted")
			}
		}
	}
}
