package refresh

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Grant is a successful refresh response.
type Grant struct {
	AccessToken  string
	RefreshToken string        // Empty when the provider did not rotate it
	ExpiresIn    time.Duration // Lifetime of AccessToken
}

// TokenEndpoint exchanges a refresh token for a new access token.
type TokenEndpoint interface {
	Refresh(ctx context.Context, refreshToken string) (*Grant, error)
}

// OAuth2Endpoint is a TokenEndpoint backed by an identity provider's token endpoint.
// Client credentials travel in the form body.
type OAuth2Endpoint struct {
	config          *oauth2.Config
	client          *http.Client
	defaultLifetime time.Duration
}

var _ TokenEndpoint = (*OAuth2Endpoint)(nil)

// NewOAuth2Endpoint creates an endpoint whose HTTP calls are bounded by timeout.
// defaultLifetime is used when the provider omits expires_in.
func NewOAuth2Endpoint(cfg *oauth2.Config, timeout, defaultLifetime time.Duration) *OAuth2Endpoint {
	endpointCfg := *cfg
	endpointCfg.Endpoint.AuthStyle = oauth2.AuthStyleInParams
	return &OAuth2Endpoint{
		config:          &endpointCfg,
		client:          &http.Client{Timeout: timeout},
		defaultLifetime: defaultLifetime,
	}
}

// Refresh performs one grant_type=refresh_token call.
func (e *OAuth2Endpoint) Refresh(ctx context.Context, refreshToken string) (*Grant, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.client)
	tok, err := e.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, err
	}

	lifetime := e.defaultLifetime
	if !tok.Expiry.IsZero() {
		if remaining := time.Until(tok.Expiry).Round(time.Second); remaining > 0 {
			lifetime = remaining
		}
	}

	return &Grant{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    lifetime,
	}, nil
}
