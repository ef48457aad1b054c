package fakeaccountrepo

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/inbox-assist/accounts"
	"github.com/jrsteele09/inbox-assist/internal/errors"
)

var _ accounts.Repo = (*FakeAccountRepo)(nil)

type FakeAccountRepo struct {
	accounts map[string]*accounts.Account // userID|provider -> account
	lock     sync.RWMutex
}

func NewFakeAccountRepo() *FakeAccountRepo {
	return &FakeAccountRepo{
		accounts: make(map[string]*accounts.Account),
	}
}

func key(userID, provider string) string {
	return userID + "|" + provider
}

func (r *FakeAccountRepo) Upsert(_ context.Context, account *accounts.Account) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	k := key(account.UserID, account.Provider)
	if existing, ok := r.accounts[k]; ok {
		account.ID = existing.ID
		if account.RefreshToken == "" {
			account.RefreshToken = existing.RefreshToken
		}
	}
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	stored := *account
	r.accounts[k] = &stored
	return nil
}

func (r *FakeAccountRepo) GetByUserProvider(_ context.Context, userID, provider string) (*accounts.Account, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	a, ok := r.accounts[key(userID, provider)]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *FakeAccountRepo) UpdateTokens(_ context.Context, userID, provider, accessToken, refreshToken string, expiresAt time.Time) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	a, ok := r.accounts[key(userID, provider)]
	if !ok {
		return errors.ErrAccountNotFound
	}
	a.AccessToken = accessToken
	a.ExpiresAt = expiresAt
	if refreshToken != "" {
		a.RefreshToken = refreshToken
	}
	return nil
}

func (r *FakeAccountRepo) ClearTokens(_ context.Context, userID, provider string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	a, ok := r.accounts[key(userID, provider)]
	if !ok {
		return errors.ErrAccountNotFound
	}
	a.AccessToken = ""
	a.RefreshToken = ""
	a.ExpiresAt = time.Time{}
	return nil
}
