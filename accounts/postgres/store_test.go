package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/inbox-assist/accounts"
	"github.com/jrsteele09/inbox-assist/internal/errors"
	"github.com/jrsteele09/inbox-assist/internal/sealer"
)

func newMockStore(t *testing.T) (*Store, *sealer.Sealer, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	key, err := sealer.NewRandomKey()
	require.NoError(t, err)
	s, err := sealer.New(key)
	require.NoError(t, err)
	return New(db, s), s, mock
}

func TestStore_Upsert(t *testing.T) {
	store, _, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO accounts").
		WithArgs("a-1", "u-1", accounts.ProviderGoogle, "sub-1", sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), "openid email", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a-existing"))

	a := &accounts.Account{
		ID:                "a-1",
		UserID:            "u-1",
		Provider:          accounts.ProviderGoogle,
		ProviderAccountID: "sub-1",
		AccessToken:       "A1",
		RefreshToken:      "R1",
		ExpiresAt:         time.Now().Add(time.Hour),
		Scope:             "openid email",
	}
	require.NoError(t, store.Upsert(context.Background(), a))
	assert.Equal(t, "a-existing", a.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetByUserProvider_OpensSealedTokens(t *testing.T) {
	store, s, mock := newMockStore(t)
	expires := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	sealedAccess, err := s.Seal("A1")
	require.NoError(t, err)
	sealedRefresh, err := s.Seal("R1")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM accounts WHERE provider = \\$1 AND user_id = \\$2").
		WithArgs(accounts.ProviderGoogle, "u-1").
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow("a-1", "u-1", accounts.ProviderGoogle, "sub-1", sealedAccess, sealedRefresh, expires, "openid"))

	a, err := store.GetByUserProvider(context.Background(), "u-1", accounts.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, "A1", a.AccessToken)
	assert.Equal(t, "R1", a.RefreshToken)
	assert.Equal(t, expires, a.ExpiresAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetByUserProvider_NotFound(t *testing.T) {
	store, _, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM accounts").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetByUserProvider(context.Background(), "u-1", accounts.ProviderGoogle)
	assert.ErrorIs(t, err, errors.ErrAccountNotFound)
}

func TestStore_GetByUserProvider_SealedUnderOtherKeyDropsTokens(t *testing.T) {
	store, _, mock := newMockStore(t)
	_, other, _ := newMockStore(t)

	sealedAccess, err := other.Seal("A1")
	require.NoError(t, err)
	sealedRefresh, err := other.Seal("R1")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM accounts").
		WithArgs(accounts.ProviderGoogle, "u-1").
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow("a-1", "u-1", accounts.ProviderGoogle, "sub-1", sealedAccess, sealedRefresh, nil, "openid"))

	a, err := store.GetByUserProvider(context.Background(), "u-1", accounts.ProviderGoogle)
	require.NoError(t, err)
	assert.Empty(t, a.AccessToken)
	assert.Empty(t, a.RefreshToken)
}

func TestStore_UpdateTokens(t *testing.T) {
	t.Run("rotated refresh token is written", func(t *testing.T) {
		store, _, mock := newMockStore(t)
		mock.ExpectExec("UPDATE accounts SET access_token = \\$1, expires_at = \\$2, updated_at = \\$3, refresh_token = \\$4 WHERE provider = \\$5 AND user_id = \\$6").
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), accounts.ProviderGoogle, "u-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.UpdateTokens(context.Background(), "u-1", accounts.ProviderGoogle, "A2", "R2", time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stored refresh token is kept when not rotated", func(t *testing.T) {
		store, _, mock := newMockStore(t)
		mock.ExpectExec("UPDATE accounts SET access_token = \\$1, expires_at = \\$2, updated_at = \\$3 WHERE").
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), accounts.ProviderGoogle, "u-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.UpdateTokens(context.Background(), "u-1", accounts.ProviderGoogle, "A2", "", time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_ClearTokens(t *testing.T) {
	store, _, mock := newMockStore(t)

	mock.ExpectExec("UPDATE accounts SET access_token = \\$1, refresh_token = \\$2, expires_at = \\$3").
		WithArgs("", "", sqlmock.AnyArg(), sqlmock.AnyArg(), accounts.ProviderGoogle, "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.ClearTokens(context.Background(), "u-1", accounts.ProviderGoogle))

	mock.ExpectExec("UPDATE accounts").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, store.ClearTokens(context.Background(), "u-9", accounts.ProviderGoogle), errors.ErrAccountNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
