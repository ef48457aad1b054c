package server

import (
	"net/http"
	"time"

	"github.com/jrsteele09/inbox-assist/server/authflowrepo"
	"github.com/rs/zerolog/log"
)

// SignInHandler starts the Google authorization code flow with PKCE.
func (s *Server) SignInHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := s.now()
		if removed := s.deps.AuthFlows.DeleteCreatedBefore(now.Add(-s.config.GetAuthFlowTimeout())); removed > 0 {
			log.Debug().Int("removed", removed).Msg("abandoned sign-in flows dropped")
		}

		state := generateRandomString(32)
		flow := &authflowrepo.AuthFlowState{
			CodeVerifier: generateRandomString(48),
			Nonce:        generateRandomString(16),
			ReturnURL:    safeReturnURL(r.URL.Query().Get("returnUrl")),
			CreatedAt:    now,
		}
		if err := s.deps.AuthFlows.Upsert(state, flow); err != nil {
			log.Error().Err(err).Msg("failed to store auth flow state")
			redirectWithError(w, r, RouteAuthError, authErrorConfig)
			return
		}

		http.Redirect(w, r, s.deps.Identity.AuthCodeURL(state, flow.Nonce, generateCodeChallenge(flow.CodeVerifier)), http.StatusFound)
	}
}

// SignOutHandler deletes the login session and clears the cookie. The Google account
// and its refresh token are kept for the next sign-in.
func (s *Server) SignOutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sessionID, err := s.sessionIDFromCookie(r); err == nil {
			if err := s.deps.Sessions.Delete(r.Context(), sessionID); err != nil {
				log.Error().Err(err).Msg("failed to delete login session")
			}
		}
		clearSessionCookie(w, r)
		redirectSuccess(w, r, "/")
	}
}

var authErrorMessages = map[string]string{
	authErrorCallback:     "Sign-in with Google could not be completed.",
	authErrorState:        "The sign-in request expired or was already used. Please try again.",
	authErrorAccessDenied: "Access was denied. Gmail permissions are required to use the dashboard.",
	authErrorConfig:       "The server is not configured for sign-in.",
}

// AuthErrorHandler describes a sign-in failure named by ?error=.
func (s *Server) AuthErrorHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("error")
		message, ok := authErrorMessages[name]
		if !ok {
			name = "Default"
			message = "An unknown sign-in error occurred."
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"error":   name,
			"message": message,
			"signIn":  RouteSignIn,
		})
	}
}

type sessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type sessionResponse struct {
	User    sessionUser `json:"user"`
	Expires time.Time   `json:"expires"`
	Error   string      `json:"error,omitempty"`
}

// SessionHandler reports the signed-in user. Error carries the refresh failure tag so
// the dashboard can sign out when the session is no longer usable.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())
		writeJSON(w, http.StatusOK, sessionResponse{
			User: sessionUser{
				ID:    session.UserID,
				Email: session.Email,
				Name:  session.Name,
				Image: session.Image,
			},
			Expires: session.ExpiresAt,
			Error:   session.LastError,
		})
	}
}
