package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/inbox-assist/internal/config"
	"github.com/stretchr/testify/require"
)

func TestEnvVars_GetPort(t *testing.T) {
	t.Setenv("PORT", "9000")
	require.Equal(t, ":9000", config.EnvVars{}.GetPort())

	t.Setenv("PORT", ":9001")
	require.Equal(t, ":9001", config.EnvVars{}.GetPort())
}

func TestOAuth_GetTokenSkewBuffer(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv("TOKEN_SKEW_BUFFER", "")
		require.Equal(t, 5*time.Minute, config.OAuth{}.GetTokenSkewBuffer())
	})

	t.Run("override", func(t *testing.T) {
		t.Setenv("TOKEN_SKEW_BUFFER", "90s")
		require.Equal(t, 90*time.Second, config.OAuth{}.GetTokenSkewBuffer())
	})

	t.Run("malformed falls back", func(t *testing.T) {
		t.Setenv("TOKEN_SKEW_BUFFER", "soon")
		require.Equal(t, 5*time.Minute, config.OAuth{}.GetTokenSkewBuffer())
	})
}

func TestCors_GetAllowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	origins := config.Cors{}.GetAllowedOrigins()
	require.True(t, origins.IsAllowedOrigin("http://a.test"))
	require.True(t, origins.IsAllowedOrigin("http://b.test"))
	require.Len(t, origins, 2)
}

func TestEnvVars_GetBaseURL_TrimsSlash(t *testing.T) {
	t.Setenv("BASE_URL", "https://mail.example.com/")
	require.Equal(t, "https://mail.example.com", config.EnvVars{}.GetBaseURL())
}
