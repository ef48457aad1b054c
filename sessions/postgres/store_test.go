package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/inbox-assist/internal/errors"
	"github.com/jrsteele09/inbox-assist/internal/sealer"
	"github.com/jrsteele09/inbox-assist/sessions"
	"github.com/jrsteele09/inbox-assist/token/refresh"
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
	expires := time.Now().Add(24 * time.Hour)

	mock.ExpectExec("INSERT INTO login_sessions").
		WithArgs("s-1", "u-1", "jane@example.com", "Jane", "", sqlmock.AnyArg(),
			sqlmock.AnyArg(), refresh.TagRefreshRetry, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Upsert(context.Background(), sessions.Session{
		ID:                   "s-1",
		UserID:               "u-1",
		Email:                "jane@example.com",
		Name:                 "Jane",
		AccessToken:          "A1",
		AccessTokenExpiresAt: time.Now(),
		LastError:            refresh.TagRefreshRetry,
		ExpiresAt:            expires,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Upsert_RequiresID(t *testing.T) {
	store, _, _ := newMockStore(t)
	require.Error(t, store.Upsert(context.Background(), sessions.Session{}))
}

func TestStore_Get(t *testing.T) {
	store, s, mock := newMockStore(t)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	sealed, err := s.Seal("A1")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM login_sessions WHERE id = \\$1").
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows(sessionColumns).
			AddRow("s-1", "u-1", "jane@example.com", "Jane", "", sealed, nil, refresh.TagRefreshFailed, now, now.Add(time.Hour)))

	session, err := store.Get(context.Background(), "s-1")
	require.NoError(t, err)
	assert.Equal(t, "A1", session.AccessToken)
	assert.True(t, session.AccessTokenExpiresAt.IsZero())
	assert.Equal(t, refresh.TagRefreshFailed, session.LastError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Get_NotFound(t *testing.T) {
	store, _, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM login_sessions").WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, errors.ErrSessionNotFound)
}

func TestStore_Get_SealedUnderOtherKeyIsNotFound(t *testing.T) {
	store, _, mock := newMockStore(t)
	_, other, _ := newMockStore(t)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	sealed, err := other.Seal("A1")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM login_sessions").
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows(sessionColumns).
			AddRow("s-1", "u-1", "jane@example.com", "Jane", "", sealed, now, "", now, now.Add(time.Hour)))

	_, err = store.Get(context.Background(), "s-1")
	assert.ErrorIs(t, err, errors.ErrSessionNotFound)
}

func TestStore_DeleteExpired(t *testing.T) {
	store, _, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM login_sessions WHERE expires_at <= \\$1").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.DeleteExpired(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
