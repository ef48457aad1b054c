package accounts

import (
	"strings"
	"time"
)

const ProviderGoogle = "google"

// Account links a user to an identity provider and holds the provider tokens.
// RefreshToken is the long-lived credential used to mint new access tokens.
type Account struct {
	ID                string
	UserID            string
	Provider          string
	ProviderAccountID string
	AccessToken       string
	RefreshToken      string
	ExpiresAt         time.Time
	Scope             string // Space separated scopes granted at consent
}

// HasScope checks if the provider granted a specific scope
func (a *Account) HasScope(scope string) bool {
	for _, s := range strings.Fields(a.Scope) {
		if s == scope {
			return true
		}
	}
	return false
}

// MissingScopes returns the required scopes the provider did not grant.
func (a *Account) MissingScopes(required []string) []string {
	var missing []string
	for _, scope := range required {
		if !a.HasScope(scope) {
			missing = append(missing, scope)
		}
	}
	return missing
}
