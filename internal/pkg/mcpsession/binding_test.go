package mcpsession

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsbridge/docsbridge/internal/pkg/kvstore"
)

func TestBindingStore_BindLookupUnbind(t *testing.T) {
	t.Parallel()

	bindings := NewBindingStore(kvstore.NewMemoryStore())
	ctx := context.Background()

	_, err := bindings.Lookup(ctx, "conn-1")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)

	require.NoError(t, bindings.Bind(ctx, "conn-1", "session-a"))
	sessionID, err := bindings.Lookup(ctx, "conn-1")
	require.NoError(t, err)
	assert.Equal(t, "session-a", sessionID)

	// Last write wins on re-bind.
	require.NoError(t, bindings.Bind(ctx, "conn-1", "session-b"))
	sessionID, err = bindings.Lookup(ctx, "conn-1")
	require.NoError(t, err)
	assert.Equal(t, "session-b", sessionID)

	require.NoError(t, bindings.Unbind(ctx, "conn-1"))
	_, err = bindings.Lookup(ctx, "conn-1")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}

func TestBindingStore_TTL(t *testing.T) {
	t.Parallel()

	store := kvstore.NewMemoryStore()
	now := time.Now()
	store.Now = func() time.Time { return now }
	bindings := NewBindingStore(store)
	ctx := context.Background()

	require.NoError(t, bindings.Bind(ctx, "conn-1", "session-a"))

	now = now.Add(SessionTTL + time.Minute)
	_, err := bindings.Lookup(ctx, "conn-1")
	assert.ErrorIs(t, err, kvstore.ErrNotFound)
}
