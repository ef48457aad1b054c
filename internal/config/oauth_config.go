package config

import "time"

const (
	tokenSkewBufferVar      = "TOKEN_SKEW_BUFFER"
	tokenEndpointTimeoutVar = "TOKEN_ENDPOINT_TIMEOUT"
)

type OAuthConfig interface {
	GetAuthFlowTimeout() time.Duration
	GetTokenSkewBuffer() time.Duration
	GetTokenEndpointTimeout() time.Duration
	GetDefaultAccessTokenExpiry() time.Duration
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

// GetAuthFlowTimeout bounds how long a sign-in redirect may take to come back.
func (OAuth) GetAuthFlowTimeout() time.Duration {
	return 15 * time.Minute
}

// GetTokenSkewBuffer is the safety margin subtracted from an access token's expiry.
func (OAuth) GetTokenSkewBuffer() time.Duration {
	return GetDurationEnv(tokenSkewBufferVar, 5*time.Minute)
}

func (OAuth) GetTokenEndpointTimeout() time.Duration {
	return GetDurationEnv(tokenEndpointTimeoutVar, 10*time.Second)
}

// GetDefaultAccessTokenExpiry is assumed when the provider omits expires_in.
func (OAuth) GetDefaultAccessTokenExpiry() time.Duration {
	return 1 * time.Hour
}
