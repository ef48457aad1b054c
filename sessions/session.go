package sessions

import (
	"time"

	"github.com/jrsteele09/inbox-assist/token/refresh"
)

// Session is a signed-in browser session. The cookie carries only the session ID;
// the access token and its lifecycle state stay server side.
type Session struct {
	ID     string
	UserID string
	Email  string
	Name   string
	Image  string

	// Access token state. The matching refresh token lives on the user's account.
	AccessToken          string
	AccessTokenExpiresAt time.Time
	LastError            string // refresh.TagRefreshFailed or refresh.TagRefreshRetry

	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the browser session itself has lapsed.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// TokenSession joins the session's access token state with the account's refresh
// token for the token lifecycle manager.
func (s *Session) TokenSession(refreshToken string) *refresh.Session {
	return &refresh.Session{
		AccessToken:          s.AccessToken,
		RefreshToken:         refreshToken,
		AccessTokenExpiresAt: s.AccessTokenExpiresAt,
		LastError:            s.LastError,
	}
}

// ApplyTokenSession copies the access token state back after a refresh attempt.
func (s *Session) ApplyTokenSession(ts *refresh.Session) {
	s.AccessToken = ts.AccessToken
	s.AccessTokenExpiresAt = ts.AccessTokenExpiresAt
	s.LastError = ts.LastError
}
