package mcpsession

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsbridge/docsbridge/app/models"
	"github.com/docsbridge/docsbridge/internal/pkg/kvstore"
)

// newTestManager returns a manager whose clock (and the backing store's
// clock) can be advanced by the test.
func newTestManager(t *testing.T) (*Manager, *kvstore.MemoryStore, *time.Time) {
	t.Helper()
	store := kvstore.NewMemoryStore()
	now := time.Now()
	store.Now = func() time.Time { return now }
	m := NewManager(store)
	m.now = func() time.Time { return now }
	return m, store, &now
}

func TestCreate_PendingWithDeadline(t *testing.T) {
	t.Parallel()

	m, _, now := newTestManager(t)
	ctx := context.Background()

	session, err := m.Create(ctx)
	require.NoError(t, err)

	assert.Equal(t, models.McpStatusPending, session.Status)
	assert.Len(t, session.SessionID, 64)
	assert.Empty(t, session.UserID)
	assert.True(t, session.ExpiresAt.Equal(now.Add(SessionTTL)))

	got, err := m.Get(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.True(t, session.ExpiresAt.Equal(got.ExpiresAt), "expiry instant must round-trip exactly")
}

func TestCreate_UniqueSessionIDs(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestManager(t)
	ctx := context.Background()

	a, err := m.Create(ctx)
	require.NoError(t, err)
	b, err := m.Create(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, a.SessionID, b.SessionID)
}

func TestAuthorize_AttachesIdentity(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestManager(t)
	ctx := context.Background()

	session, err := m.Create(ctx)
	require.NoError(t, err)

	authorized, userID, err := m.IsAuthorized(ctx, session.SessionID)
	require.NoError(t, err)
	assert.False(t, authorized)
	assert.Empty(t, userID)

	require.NoError(t, m.Authorize(ctx, session.SessionID, "user-1"))

	authorized, userID, err = m.IsAuthorized(ctx, session.SessionID)
	require.NoError(t, err)
	assert.True(t, authorized)
	assert.Equal(t, "user-1", userID)

	got, err := m.Get(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.McpStatusAuthorized, got.Status)
	assert.Equal(t, "user-1", got.UserID)
}

func TestAuthorize_NoopOnceAuthorized(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestManager(t)
	ctx := context.Background()

	session, err := m.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, m.Authorize(ctx, session.SessionID, "user-1"))

	// A replayed callback with a different identity must not re-bind.
	require.NoError(t, m.Authorize(ctx, session.SessionID, "user-2"))

	_, userID, err := m.IsAuthorized(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestAuthorize_UnknownSessionIsNoop(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestManager(t)
	assert.NoError(t, m.Authorize(context.Background(), "no-such-session", "user-1"))
}

func TestAuthorize_PreservesDeadline(t *testing.T) {
	t.Parallel()

	m, store, nowP := newTestManager(t)
	ctx := context.Background()

	session, err := m.Create(ctx)
	require.NoError(t, err)

	// Authorize 6 hours in; the original deadline stays authoritative.
	*nowP = nowP.Add(6 * time.Hour)
	require.NoError(t, m.Authorize(ctx, session.SessionID, "user-1"))

	remaining, err := store.TTL(ctx, sessionKey(session.SessionID))
	require.NoError(t, err)
	assert.Equal(t, 18*time.Hour, remaining)

	got, err := m.Get(ctx, session.SessionID)
	require.NoError(t, err)
	assert.True(t, session.ExpiresAt.Equal(got.ExpiresAt))
}

func TestGet_LazyExpiry(t *testing.T) {
	t.Parallel()

	m, store, nowP := newTestManager(t)
	ctx := context.Background()

	session, err := m.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, m.Authorize(ctx, session.SessionID, "user-1"))

	// Advance the manager's clock past the deadline while holding the
	// store's clock just behind it, so the record is still present in the
	// store but reads as past its stored deadline.
	*nowP = nowP.Add(SessionTTL + time.Second)
	store.Now = func() time.Time { return nowP.Add(-time.Minute) }

	_, err = m.Get(ctx, session.SessionID)
	assert.ErrorIs(t, err, ErrNotFound)

	// The record was downgraded in place and stays visible briefly.
	key := sessionKey(session.SessionID)
	var raw models.McpSession
	require.NoError(t, store.Get(ctx, key, &raw))
	assert.Equal(t, models.McpStatusExpired, raw.Status)

	authorized, _, err := m.IsAuthorized(ctx, session.SessionID)
	require.NoError(t, err)
	assert.False(t, authorized, "a freshly expired read reports unauthorized")
}

func TestExpire_Forced(t *testing.T) {
	t.Parallel()

	m, store, _ := newTestManager(t)
	ctx := context.Background()

	session, err := m.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, m.Expire(ctx, session.SessionID))

	_, err = m.Get(ctx, session.SessionID)
	assert.ErrorIs(t, err, ErrNotFound)

	remaining, err := store.TTL(ctx, sessionKey(session.SessionID))
	require.NoError(t, err)
	assert.LessOrEqual(t, remaining, time.Minute)

	// Expiring an absent session is a no-op.
	assert.NoError(t, m.Expire(ctx, "no-such-session"))
}

func TestAuthURL(t *testing.T) {
	t.Parallel()

	url := AuthURL("abc123", "https://docs.example.com")
	assert.Equal(t, "https://docs.example.com/auth/mcp?session=abc123", url)
}
