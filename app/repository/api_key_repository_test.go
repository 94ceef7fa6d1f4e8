package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsbridge/docsbridge/internal/pkg/kvstore"
)

func newTestAPIKeyRepo(t *testing.T) APIKeyRepository {
	t.Helper()
	return NewAPIKeyRepository(kvstore.NewMemoryStore())
}

func TestIssue_KeyShapeAndValidate(t *testing.T) {
	t.Parallel()

	repo := newTestAPIKeyRepo(t)
	ctx := context.Background()

	issuedAt := time.Now()
	key, secret, err := repo.Issue(ctx, "user-1", "laptop")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(secret, "gmd_"), "secret carries the recognizable prefix")
	assert.Len(t, strings.TrimPrefix(secret, "gmd_"), 64)
	assert.True(t, key.Active)
	assert.Nil(t, key.LastUsed)

	validated, err := repo.Validate(ctx, secret)
	require.NoError(t, err)
	assert.Equal(t, key.ID, validated.ID)
	assert.Equal(t, "user-1", validated.UserID)
	require.NotNil(t, validated.LastUsed)
	assert.False(t, validated.LastUsed.Before(issuedAt), "lastUsed must be at or after issuance")
}

func TestValidate_NeverIssued(t *testing.T) {
	t.Parallel()

	repo := newTestAPIKeyRepo(t)
	_, err := repo.Validate(context.Background(), "gmd_0000000000000000000000000000000000000000000000000000000000000000")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Validate(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidate_InactiveLooksLikeMissing(t *testing.T) {
	t.Parallel()

	store := kvstore.NewMemoryStore()
	repo := NewAPIKeyRepository(store)
	ctx := context.Background()

	key, secret, err := repo.Issue(ctx, "user-1", "ci")
	require.NoError(t, err)

	// Flip the stored record inactive directly; validation must not
	// distinguish this from a key that never existed.
	deactivated := *key
	deactivated.Active = false
	require.NoError(t, store.Put(ctx, apiKeyKey(key.ID), &deactivated))

	_, err = repo.Validate(ctx, secret)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_NewestFirstAndRedacted(t *testing.T) {
	t.Parallel()

	repo := newTestAPIKeyRepo(t)
	ctx := context.Background()

	first, _, err := repo.Issue(ctx, "user-1", "first")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, _, err := repo.Issue(ctx, "user-1", "second")
	require.NoError(t, err)

	_, _, err = repo.Issue(ctx, "user-2", "other-owner")
	require.NoError(t, err)

	keys, err := repo.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, second.ID, keys[0].ID)
	assert.Equal(t, first.ID, keys[1].ID)
	for _, k := range keys {
		assert.Empty(t, k.HashedKey, "listed keys must not expose hashes")
	}
}

func TestRevoke(t *testing.T) {
	t.Parallel()

	repo := newTestAPIKeyRepo(t)
	ctx := context.Background()

	key, secret, err := repo.Issue(ctx, "user-1", "to-revoke")
	require.NoError(t, err)

	// A foreign owner cannot revoke.
	require.NoError(t, repo.Revoke(ctx, key.ID, "user-2"))
	_, err = repo.Validate(ctx, secret)
	require.NoError(t, err)

	require.NoError(t, repo.Revoke(ctx, key.ID, "user-1"))

	_, err = repo.Validate(ctx, secret)
	assert.ErrorIs(t, err, ErrNotFound)

	keys, err := repo.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, keys)

	// Revoking again is a no-op.
	assert.NoError(t, repo.Revoke(ctx, key.ID, "user-1"))
}
