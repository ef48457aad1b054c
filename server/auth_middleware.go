package server

import (
	"context"
	"net/http"

	"github.com/jrsteele09/inbox-assist/accounts"
	"github.com/jrsteele09/inbox-assist/internal/errors"
	"github.com/jrsteele09/inbox-assist/mail"
	"github.com/jrsteele09/inbox-assist/sessions"
	"github.com/jrsteele09/inbox-assist/token/refresh"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeySession stores the *sessions.Session of the signed-in user
	ContextKeySession ContextKey = "session"
	// ContextKeyMailbox stores the mail.Mailbox opened with a valid access token
	ContextKeyMailbox ContextKey = "mailbox"
)

func sessionFromContext(ctx context.Context) *sessions.Session {
	session, _ := ctx.Value(ContextKeySession).(*sessions.Session)
	return session
}

func mailboxFromContext(ctx context.Context) mail.Mailbox {
	mailbox, _ := ctx.Value(ContextKeyMailbox).(mail.Mailbox)
	return mailbox
}

func (s *Server) sessionIDFromCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", errors.ErrUnauthorized
	}
	return s.deps.Cookies.Decode(cookie.Value)
}

// RequireSession loads the login session named by the session cookie.
func (s *Server) RequireSession() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			sessionID, err := s.sessionIDFromCookie(r)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "Not authenticated", codeUnauthorized, "")
				return
			}

			session, err := s.deps.Sessions.Get(r.Context(), sessionID)
			if err != nil {
				if !errors.Is(err, errors.ErrSessionNotFound) {
					log.Error().Err(err).Msg("failed to load login session")
					writeJSONError(w, http.StatusInternalServerError, "Failed to load session", codeInternal, "")
					return
				}
				clearSessionCookie(w, r)
				writeJSONError(w, http.StatusUnauthorized, "Not authenticated", codeUnauthorized, "")
				return
			}

			if session.Expired(s.now()) {
				if err := s.deps.Sessions.Delete(r.Context(), sessionID); err != nil {
					log.Error().Err(err).Msg("failed to delete expired session")
				}
				clearSessionCookie(w, r)
				writeJSONError(w, http.StatusUnauthorized, "Session expired", codeUnauthorized, "")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySession, &session)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireActiveSession rejects sessions whose refresh token has been rejected. Chain
// after RequireSession on routes that do not need a Google access token.
func (s *Server) RequireActiveSession() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if session := sessionFromContext(r.Context()); session == nil || session.LastError == refresh.TagRefreshFailed {
				s.authExpired(w, r)
				return
			}
			next(w, r)
		}
	}
}

// RequireMailAccess obtains a valid Google access token for the session, refreshing
// it when needed, and opens the user's mailbox with it. Chain after RequireSession.
//
// Whatever the outcome, the mutated token state is written back: the access token
// half to the login session and the refresh token half to the Google account.
func (s *Server) RequireMailAccess() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			session := sessionFromContext(ctx)
			if session == nil {
				writeJSONError(w, http.StatusUnauthorized, "Not authenticated", codeUnauthorized, "")
				return
			}

			var refreshToken string
			account, err := s.deps.Accounts.GetByUserProvider(ctx, session.UserID, accounts.ProviderGoogle)
			switch {
			case err == nil:
				refreshToken = account.RefreshToken
			case errors.Is(err, errors.ErrAccountNotFound):
				// No account means no refresh token; the manager treats that as terminal.
			default:
				log.Error().Err(err).Msg("failed to load Google account")
				writeJSONError(w, http.StatusInternalServerError, "Failed to load account", codeInternal, "")
				return
			}

			tokens := session.TokenSession(refreshToken)
			before := *tokens
			accessToken, err := s.deps.Tokens.GetValidAccessToken(ctx, tokens)
			s.persistTokens(ctx, session, account, before, tokens)

			if err != nil {
				if refresh.IsTerminal(err) {
					s.authExpired(w, r)
					return
				}
				writeMailError(w, err, "Failed to obtain access token")
				return
			}

			mailbox, err := s.deps.Mail.Open(ctx, accessToken)
			if err != nil {
				log.Error().Err(err).Msg("failed to open mailbox")
				writeMailError(w, err, "Failed to connect to Gmail")
				return
			}

			ctx = context.WithValue(ctx, ContextKeyMailbox, mailbox)
			next(w, r.WithContext(ctx))
		}
	}
}

// persistTokens writes back whatever the token manager changed.
func (s *Server) persistTokens(ctx context.Context, session *sessions.Session, account *accounts.Account, before refresh.Session, after *refresh.Session) {
	if *after == before {
		return
	}

	session.ApplyTokenSession(after)
	if err := s.deps.Sessions.Upsert(ctx, *session); err != nil {
		log.Error().Err(err).Msg("failed to persist session token state")
	}
	if account == nil {
		return
	}

	switch {
	case after.Invalid():
		if before.RefreshToken == "" {
			return
		}
		if err := s.deps.Accounts.ClearTokens(ctx, session.UserID, accounts.ProviderGoogle); err != nil {
			log.Error().Err(err).Msg("failed to clear rejected Google tokens")
		}
	case after.AccessToken != before.AccessToken:
		rotated := ""
		if after.RefreshToken != before.RefreshToken {
			rotated = after.RefreshToken
		}
		if err := s.deps.Accounts.UpdateTokens(ctx, session.UserID, accounts.ProviderGoogle, after.AccessToken, rotated, after.AccessTokenExpiresAt); err != nil {
			log.Error().Err(err).Msg("failed to persist refreshed Google tokens")
		}
	}
}

// authExpired is the single terminal response: 401 AUTH_EXPIRED, cookie cleared and,
// for HTMX requests, a redirect to sign-in.
func (s *Server) authExpired(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, r)
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", RouteSignIn)
	}
	writeJSONError(w, http.StatusUnauthorized, msgAuthExpired, codeAuthExpired, "")
}

// handleMailError answers a failed mail call. A terminal refresh signal surfacing from
// the mail layer invalidates the session exactly as a failed refresh would.
func (s *Server) handleMailError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if !refresh.IsTerminal(err) {
		log.Error().Err(err).Str("path", r.URL.Path).Msg(fallback)
		writeMailError(w, err, fallback)
		return
	}

	ctx := r.Context()
	if session := sessionFromContext(ctx); session != nil {
		session.ApplyTokenSession(&refresh.Session{LastError: refresh.TagRefreshFailed})
		if err := s.deps.Sessions.Upsert(ctx, *session); err != nil {
			log.Error().Err(err).Msg("failed to invalidate session")
		}
		if err := s.deps.Accounts.ClearTokens(ctx, session.UserID, accounts.ProviderGoogle); err != nil && !errors.Is(err, errors.ErrAccountNotFound) {
			log.Error().Err(err).Msg("failed to clear rejected Google tokens")
		}
	}
	log.Warn().Err(err).Msg("mail provider rejected credentials, session invalidated")
	s.authExpired(w, r)
}
