package database

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/require"
)

type mockMigrator struct {
	upErr      error
	versionVal uint
	dirty      bool
	versionErr error
}

func (m *mockMigrator) Up() error { return m.upErr }
func (m *mockMigrator) Version() (uint, bool, error) {
	return m.versionVal, m.dirty, m.versionErr
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Contains(t, names, "000001_users_accounts.up.sql")
	require.Contains(t, names, "000001_users_accounts.down.sql")
	require.Contains(t, names, "000002_login_sessions.up.sql")
	require.Contains(t, names, "000003_emails_replies.up.sql")
	require.Len(t, names, 6)
}

func TestRunUp(t *testing.T) {
	t.Run("applies", func(t *testing.T) {
		require.NoError(t, runUp(&mockMigrator{versionVal: 3}))
	})

	t.Run("no change is not an error", func(t *testing.T) {
		require.NoError(t, runUp(&mockMigrator{upErr: migrate.ErrNoChange, versionVal: 3}))
	})

	t.Run("nil version is not an error", func(t *testing.T) {
		require.NoError(t, runUp(&mockMigrator{versionErr: migrate.ErrNilVersion}))
	})

	t.Run("dirty state still succeeds", func(t *testing.T) {
		require.NoError(t, runUp(&mockMigrator{versionVal: 2, dirty: true}))
	})

	t.Run("up failure", func(t *testing.T) {
		err := runUp(&mockMigrator{upErr: errors.New("syntax error")})
		require.Error(t, err)
		require.Contains(t, err.Error(), "running migrations")
	})

	t.Run("version failure", func(t *testing.T) {
		err := runUp(&mockMigrator{versionErr: errors.New("boom")})
		require.Error(t, err)
		require.Contains(t, err.Error(), "getting migration version")
	})
}
