package refresh

import "errors"

var (
	// ErrSessionInvalid is the single terminal signal callers check for. Both
	// ErrInvalidGrant and ErrNoRefreshToken leave the Manager wrapped in it.
	ErrSessionInvalid = errors.New("session invalid: re-authentication required")

	ErrNoRefreshToken   = errors.New("no refresh token available")
	ErrInvalidGrant     = errors.New("invalid_grant: refresh token expired or revoked")
	ErrTransientRefresh = errors.New("transient refresh failure")
)

// IsTerminal reports whether err means the principal must sign in again.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrSessionInvalid) ||
		errors.Is(err, ErrInvalidGrant) ||
		errors.Is(err, ErrNoRefreshToken)
}
