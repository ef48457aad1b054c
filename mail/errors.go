package mail

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"
	"google.golang.org/api/googleapi"

	"github.com/jrsteele09/inbox-assist/internal/errors"
	"github.com/jrsteele09/inbox-assist/token/refresh"
)

// wrapError maps Gmail failures onto the shared sentinels. A refresh-token rejection
// surfacing through the client keeps its terminal classification.
func wrapError(err error, op string) error {
	if err == nil {
		return nil
	}
	if refresh.Classify(err) == refresh.Terminal {
		return fmt.Errorf("%s: %w: %w", op, refresh.ErrInvalidGrant, err)
	}

	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%s: %w: %w", op, errors.ErrMailAuthFailed, err)
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w: %w", op, errors.ErrMessageNotFound, err)
		}
	}
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w: %w", op, errors.ErrMailUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
