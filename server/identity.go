package server

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/inbox-assist/internal/config"
	"github.com/jrsteele09/inbox-assist/internal/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// SignIn is the verified result of an authorization code exchange.
type SignIn struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
	Nonce         string

	AccessToken  string
	RefreshToken string // Only sent on first consent or with prompt=consent
	Expiry       time.Time
	Scope        string
}

// IdentityProvider runs the browser side of the OAuth authorization code flow.
type IdentityProvider interface {
	AuthCodeURL(state, nonce, codeChallenge string) string
	// Exchange redeems code and verifies the returned ID token.
	Exchange(ctx context.Context, code, codeVerifier string) (*SignIn, error)
}

// NewGoogleOAuth2Config returns the client configuration shared by sign-in and the
// refresh token endpoint.
func NewGoogleOAuth2Config(cfg config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GetGoogleClientID(),
		ClientSecret: cfg.GetGoogleClientSecret(),
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.GetBaseURL() + RouteGoogleCallback,
		Scopes:       cfg.GetGoogleScopes(),
	}
}

// GoogleIdentity signs users in with Google. The OIDC discovery document is fetched
// on first use and cached.
type GoogleIdentity struct {
	oauth2Config *oauth2.Config
	issuer       string

	lock     sync.Mutex
	verifier *oidc.IDTokenVerifier
}

var _ IdentityProvider = (*GoogleIdentity)(nil)

func NewGoogleIdentity(cfg config.Config) *GoogleIdentity {
	return &GoogleIdentity{
		oauth2Config: NewGoogleOAuth2Config(cfg),
		issuer:       cfg.GetGoogleIssuer(),
	}
}

func (g *GoogleIdentity) AuthCodeURL(state, nonce, codeChallenge string) string {
	return g.oauth2Config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		oidc.Nonce(nonce),
	)
}

func (g *GoogleIdentity) Exchange(ctx context.Context, code, codeVerifier string) (*SignIn, error) {
	verifier, err := g.idTokenVerifier(ctx)
	if err != nil {
		return nil, err
	}

	token, err := g.oauth2Config.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, errors.ErrMissingIDToken
	}
	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("ID token verification failed: %w", err)
	}

	var claims struct {
		Nonce         string `json:"nonce"`
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to extract claims: %w", err)
	}

	scope, _ := token.Extra("scope").(string)
	if scope == "" {
		scope = strings.Join(g.oauth2Config.Scopes, " ")
	}

	return &SignIn{
		Subject:       claims.Sub,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		Picture:       claims.Picture,
		Nonce:         claims.Nonce,
		AccessToken:   token.AccessToken,
		RefreshToken:  token.RefreshToken,
		Expiry:        token.Expiry,
		Scope:         scope,
	}, nil
}

func (g *GoogleIdentity) idTokenVerifier(ctx context.Context) (*oidc.IDTokenVerifier, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	if g.verifier != nil {
		return g.verifier, nil
	}

	provider, err := oidc.NewProvider(ctx, g.issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}
	g.verifier = provider.Verifier(&oidc.Config{ClientID: g.oauth2Config.ClientID})
	return g.verifier, nil
}
