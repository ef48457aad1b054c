package refresh

import "time"

// Tags recorded in Session.LastError.
const (
	// TagRefreshFailed marks a session whose refresh token can never succeed again.
	// Only a fresh sign-in clears it.
	TagRefreshFailed = "RefreshAccessTokenError"
	// TagRefreshRetry marks a session whose last refresh attempt failed transiently.
	TagRefreshRetry = "RefreshAccessTokenRetry"
)

// State is the position of a session in the token lifecycle.
type State int

const (
	StateFresh State = iota
	StateStale
	StateInvalid
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	case StateInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Session is the token state held for one authenticated principal. The caller owns
// loading and persisting it; the Manager only mutates it in place.
type Session struct {
	AccessToken          string    // Short-lived credential presented to the mail API
	RefreshToken         string    // Long-lived credential, empty when refresh is impossible
	AccessTokenExpiresAt time.Time // Zero when no expiry is known
	LastError            string    // Empty, TagRefreshRetry or TagRefreshFailed
}

// Invalid reports whether the session has been terminally invalidated.
func (s *Session) Invalid() bool {
	return s.LastError == TagRefreshFailed
}

// State reports the lifecycle state at now, treating the token as stale once it is
// within skew of its expiry.
func (s *Session) State(now time.Time, skew time.Duration) State {
	if s.Invalid() {
		return StateInvalid
	}
	if s.AccessToken == "" || s.AccessTokenExpiresAt.IsZero() {
		return StateStale
	}
	if now.Before(s.AccessTokenExpiresAt.Add(-skew)) {
		return StateFresh
	}
	return StateStale
}

// ExpiresAtMillis returns the expiry in milliseconds since the epoch, or 0 when unknown.
func (s *Session) ExpiresAtMillis() int64 {
	if s.AccessTokenExpiresAt.IsZero() {
		return 0
	}
	return s.AccessTokenExpiresAt.UnixMilli()
}

func (s *Session) invalidate() {
	s.AccessToken = ""
	s.RefreshToken = ""
	s.AccessTokenExpiresAt = time.Time{}
	s.LastError = TagRefreshFailed
}
