package authflowrepo

import "time"

// AuthFlowState is what the server remembers between redirecting a browser to the
// identity provider and receiving the callback. It is keyed by the OAuth state.
type AuthFlowState struct {
	CodeVerifier string
	Nonce        string
	ReturnURL    string
	CreatedAt    time.Time
}

// Expired reports whether the flow has outlived ttl at now.
func (a *AuthFlowState) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(a.CreatedAt) > ttl
}

type Repo interface {
	Upsert(state string, authState *AuthFlowState) error
	Get(state string) (*AuthFlowState, error)
	Delete(state string) error
	// DeleteCreatedBefore drops abandoned flows and returns how many were removed.
	DeleteCreatedBefore(cutoff time.Time) int
}
