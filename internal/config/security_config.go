package config

import "time"

type SecurityConfig interface {
	GetSessionSecret() []byte
	GetTokenEncryptionKey() string
	GetMaxSessionAge() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetSessionSecret signs the session cookie.
func (Security) GetSessionSecret() []byte {
	return []byte(GetEnv("SESSION_SECRET", "dev-session-secret-change-me"))
}

// GetTokenEncryptionKey seals refresh tokens at rest (base64, 32 bytes).
func (Security) GetTokenEncryptionKey() string {
	return GetEnv("TOKEN_ENCRYPTION_KEY", "")
}

func (Security) GetMaxSessionAge() time.Duration {
	return GetDurationEnv("SESSION_MAX_AGE", 30*24*time.Hour)
}
