package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jrsteele09/inbox-assist/accounts"
	"github.com/jrsteele09/inbox-assist/internal/errors"
	"github.com/jrsteele09/inbox-assist/sessions"
	"github.com/jrsteele09/inbox-assist/users"
	"github.com/rs/zerolog/log"
)

// Auth error names passed to RouteAuthError.
const (
	authErrorCallback     = "OAuthCallback"
	authErrorState        = "OAuthState"
	authErrorAccessDenied = "AccessDenied"
	authErrorConfig       = "Configuration"
)

func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := r.FormValue("state")
		code := r.FormValue("code")

		// Check for authorization errors
		if errorParam := r.FormValue("error"); errorParam != "" {
			log.Warn().Str("error", errorParam).Str("description", r.FormValue("error_description")).Msg("authorization failed at provider")
			redirectWithError(w, r, RouteAuthError, authErrorAccessDenied)
			return
		}

		if code == "" || state == "" {
			redirectWithError(w, r, RouteAuthError, authErrorCallback)
			return
		}

		authState, err := s.deps.AuthFlows.Get(state)
		if err != nil || authState == nil {
			redirectWithError(w, r, RouteAuthError, authErrorState)
			return
		}

		// Clean up state after use
		if err := s.deps.AuthFlows.Delete(state); err != nil {
			log.Error().Err(err).Msg("failed to delete auth flow state")
		}
		if authState.Expired(s.now(), s.config.GetAuthFlowTimeout()) {
			redirectWithError(w, r, RouteAuthError, authErrorState)
			return
		}

		signIn, err := s.deps.Identity.Exchange(r.Context(), code, authState.CodeVerifier)
		if err != nil {
			log.Error().Err(err).Msg("sign-in exchange failed")
			redirectWithError(w, r, RouteAuthError, authErrorCallback)
			return
		}

		// Validate nonce to prevent replay attacks
		if signIn.Nonce != authState.Nonce {
			log.Warn().Msg("sign-in rejected: nonce mismatch")
			redirectWithError(w, r, RouteAuthError, authErrorCallback)
			return
		}

		session, err := s.completeSignIn(r.Context(), signIn)
		if err != nil {
			log.Error().Err(err).Msg("failed to complete sign-in")
			if errors.Is(err, errors.ErrEmailNotVerified) {
				redirectWithError(w, r, RouteAuthError, authErrorAccessDenied)
				return
			}
			redirectWithError(w, r, RouteAuthError, authErrorCallback)
			return
		}

		if err := s.setSessionCookie(w, r, session.ID, session.ExpiresAt); err != nil {
			log.Error().Err(err).Msg("failed to set session cookie")
			redirectWithError(w, r, RouteAuthError, authErrorConfig)
			return
		}

		log.Info().Str("user_id", session.UserID).Msg("user signed in")
		redirectSuccess(w, r, safeReturnURL(authState.ReturnURL))
	}
}

// completeSignIn records the user and their Google account and opens a login session.
func (s *Server) completeSignIn(ctx context.Context, signIn *SignIn) (*sessions.Session, error) {
	if signIn.Email == "" || !signIn.EmailVerified {
		return nil, errors.ErrEmailNotVerified
	}

	user := &users.User{
		Email: users.NormaliseEmail(signIn.Email),
		Name:  signIn.Name,
		Image: signIn.Picture,
	}
	if err := s.deps.Users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	account := &accounts.Account{
		UserID:            user.ID,
		Provider:          accounts.ProviderGoogle,
		ProviderAccountID: signIn.Subject,
		AccessToken:       signIn.AccessToken,
		RefreshToken:      signIn.RefreshToken,
		ExpiresAt:         signIn.Expiry,
		Scope:             signIn.Scope,
	}
	if err := s.deps.Accounts.Upsert(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to save account: %w", err)
	}
	if missing := account.MissingScopes(s.config.GetGoogleScopes()); len(missing) > 0 {
		log.Warn().Strs("missing", missing).Str("user_id", user.ID).Msg("Google did not grant every requested scope")
	}
	if signIn.RefreshToken == "" {
		log.Debug().Str("user_id", user.ID).Msg("no refresh token in sign-in response, keeping the stored one")
	}

	now := s.now()
	session := sessions.Session{
		ID:                   generateRandomString(32),
		UserID:               user.ID,
		Email:                user.Email,
		Name:                 user.DisplayName(),
		Image:                user.Image,
		AccessToken:          signIn.AccessToken,
		AccessTokenExpiresAt: signIn.Expiry,
		CreatedAt:            now,
		ExpiresAt:            now.Add(s.config.GetMaxSessionAge()),
	}
	if err := s.deps.Sessions.Upsert(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &session, nil
}
