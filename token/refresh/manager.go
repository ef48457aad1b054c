package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/inbox-assist/internal/config"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Manager decides on every access whether a session's access token can be served
// from cache or must be refreshed, and classifies refresh failures.
type Manager struct {
	endpoint TokenEndpoint
	skew     time.Duration
	timeout  time.Duration
	nowFunc  func() time.Time
	flight   singleflight.Group
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// WithSkewBuffer overrides the configured safety margin before expiry.
func WithSkewBuffer(skew time.Duration) Option {
	return func(m *Manager) {
		m.skew = skew
	}
}

// NewManager creates a token lifecycle manager
func NewManager(endpoint TokenEndpoint, cfg config.OAuthConfig, opts ...Option) *Manager {
	m := &Manager{
		endpoint: endpoint,
		skew:     cfg.GetTokenSkewBuffer(),
		timeout:  cfg.GetTokenEndpointTimeout(),
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SkewBuffer returns the safety margin subtracted from a token's expiry.
func (m *Manager) SkewBuffer() time.Duration {
	return m.skew
}

// GetValidAccessToken returns an access token valid for at least the skew buffer,
// refreshing the session in place when needed. A session already marked terminal
// fails with ErrSessionInvalid without any I/O.
func (m *Manager) GetValidAccessToken(ctx context.Context, s *Session) (string, error) {
	switch s.State(m.nowFunc(), m.skew) {
	case StateInvalid:
		return "", ErrSessionInvalid
	case StateFresh:
		return s.AccessToken, nil
	}

	if err := m.Refresh(ctx, s); err != nil {
		return "", err
	}
	return s.AccessToken, nil
}

// Refresh exchanges the session's refresh token for a new access token.
//
// Terminal failures wipe the tokens from the session, set TagRefreshFailed and return
// an error wrapping ErrSessionInvalid. Transient failures set TagRefreshRetry, keep the
// refresh token and return an error wrapping ErrTransientRefresh.
func (m *Manager) Refresh(ctx context.Context, s *Session) error {
	if s.Invalid() {
		return ErrSessionInvalid
	}
	if s.RefreshToken == "" {
		s.invalidate()
		log.Warn().Msg("token refresh impossible: no refresh token stored")
		return fmt.Errorf("%w: %w", ErrSessionInvalid, ErrNoRefreshToken)
	}

	grant, err := m.exchange(ctx, s.RefreshToken)
	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		// The caller gave up; its session stays as it was.
		return fmt.Errorf("%w: %w", ErrTransientRefresh, ctxErr)
	}
	if err != nil {
		if Classify(err) == Terminal {
			s.invalidate()
			log.Warn().Err(err).Msg("refresh token rejected by provider, session invalidated")
			return fmt.Errorf("%w: %w: %v", ErrSessionInvalid, ErrInvalidGrant, err)
		}
		s.LastError = TagRefreshRetry
		log.Warn().Err(err).Msg("token refresh failed, will retry on next access")
		return fmt.Errorf("%w: %w", ErrTransientRefresh, err)
	}
	if grant.AccessToken == "" {
		s.LastError = TagRefreshRetry
		return fmt.Errorf("%w: provider response missing access_token", ErrTransientRefresh)
	}

	s.AccessToken = grant.AccessToken
	s.AccessTokenExpiresAt = m.nowFunc().Add(grant.ExpiresIn)
	if grant.RefreshToken != "" {
		s.RefreshToken = grant.RefreshToken
	}
	s.LastError = ""

	log.Debug().Time("expires_at", s.AccessTokenExpiresAt).Msg("access token refreshed")
	return nil
}

// exchange collapses concurrent refreshes of the same refresh token into one call.
// The shared call is detached from any single caller's cancellation and bounded by
// the endpoint timeout; each caller waits only as long as its own ctx allows.
func (m *Manager) exchange(ctx context.Context, refreshToken string) (Grant, error) {
	ch := m.flight.DoChan(refreshToken, func() (any, error) {
		callCtx := context.WithoutCancel(ctx)
		if m.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(callCtx, m.timeout)
			defer cancel()
		}
		grant, err := m.endpoint.Refresh(callCtx, refreshToken)
		if err != nil {
			return Grant{}, err
		}
		if grant == nil {
			return Grant{}, nil
		}
		return *grant, nil
	})

	select {
	case <-ctx.Done():
		return Grant{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Grant{}, res.Err
		}
		return res.Val.(Grant), nil
	}
}
