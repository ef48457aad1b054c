package authflowrepo_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/inbox-assist/server/authflowrepo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepo_RoundTrip(t *testing.T) {
	repo := authflowrepo.NewInMemoryRepo()
	created := time.Now()

	require.NoError(t, repo.Upsert("state-1", &authflowrepo.AuthFlowState{
		CodeVerifier: "verifier",
		Nonce:        "nonce",
		ReturnURL:    "/",
		CreatedAt:    created,
	}))

	got, err := repo.Get("state-1")
	require.NoError(t, err)
	assert.Equal(t, "verifier", got.CodeVerifier)
	assert.Equal(t, "nonce", got.Nonce)

	// Callers get a copy.
	got.Nonce = "changed"
	again, err := repo.Get("state-1")
	require.NoError(t, err)
	assert.Equal(t, "nonce", again.Nonce)

	require.NoError(t, repo.Delete("state-1"))
	_, err = repo.Get("state-1")
	assert.Error(t, err)
}

func TestInMemoryRepo_RejectsEmptyState(t *testing.T) {
	repo := authflowrepo.NewInMemoryRepo()
	assert.Error(t, repo.Upsert("", &authflowrepo.AuthFlowState{}))
	assert.Error(t, repo.Upsert("s", nil))
	_, err := repo.Get("")
	assert.Error(t, err)
}

func TestInMemoryRepo_DeleteCreatedBefore(t *testing.T) {
	repo := authflowrepo.NewInMemoryRepo()
	now := time.Now()
	require.NoError(t, repo.Upsert("old", &authflowrepo.AuthFlowState{CreatedAt: now.Add(-time.Hour)}))
	require.NoError(t, repo.Upsert("new", &authflowrepo.AuthFlowState{CreatedAt: now}))

	assert.Equal(t, 1, repo.DeleteCreatedBefore(now.Add(-15*time.Minute)))
	_, err := repo.Get("old")
	assert.Error(t, err)
	_, err = repo.Get("new")
	assert.NoError(t, err)
}

func TestAuthFlowState_Expired(t *testing.T) {
	now := time.Now()
	s := &authflowrepo.AuthFlowState{CreatedAt: now.Add(-20 * time.Minute)}
	assert.True(t, s.Expired(now, 15*time.Minute))
	assert.False(t, s.Expired(now, time.Hour))
	assert.False(t, s.Expired(now, 0))
}
