package accounts

import (
	"context"
	"time"
)

// Repo persists provider accounts. Accounts are unique per (user, provider).
// Lookups that find nothing return errors.ErrAccountNotFound.
type Repo interface {
	// Upsert stores the account. An empty RefreshToken keeps the stored one, since
	// providers only return it on first consent.
	Upsert(ctx context.Context, account *Account) error
	GetByUserProvider(ctx context.Context, userID, provider string) (*Account, error)
	// UpdateTokens records the result of a successful refresh. An empty refreshToken
	// keeps the stored one.
	UpdateTokens(ctx context.Context, userID, provider, accessToken, refreshToken string, expiresAt time.Time) error
	// ClearTokens wipes every token after the provider rejected the refresh token.
	ClearTokens(ctx context.Context, userID, provider string) error
}
