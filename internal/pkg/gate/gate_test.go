package gate

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsbridge/docsbridge/internal/pkg/kvstore"
	"github.com/docsbridge/docsbridge/internal/pkg/mcpsession"
)

const testBaseURL = "https://docs.example.com"

func newTestGate(t *testing.T) (*Gate, *mcpsession.BindingStore, *kvstore.MemoryStore, *time.Time) {
	t.Helper()
	store := kvstore.NewMemoryStore()
	now := time.Now()
	store.Now = func() time.Time { return now }
	sessions := mcpsession.NewManager(store)
	bindings := mcpsession.NewBindingStore(store)
	return New(sessions, bindings, testBaseURL), bindings, store, &now
}

// sessionIDFromInstruction pulls the external session id back out of an
// authorization URL embedded in an instruction.
func sessionIDFromInstruction(t *testing.T, instruction string) string {
	t.Helper()
	marker := testBaseURL + "/auth/mcp?session="
	idx := strings.Index(instruction, marker)
	require.NotEqual(t, -1, idx, "instruction must carry an auth URL: %q", instruction)
	rest := instruction[idx+len(marker):]
	if end := strings.IndexAny(rest, "\n "); end != -1 {
		rest = rest[:end]
	}
	return rest
}

func TestBeginAuthorization_BindsFreshSession(t *testing.T) {
	t.Parallel()

	g, bindings, _, _ := newTestGate(t)
	ctx := context.Background()

	instruction, err := g.BeginAuthorization(ctx, "conn-1")
	require.NoError(t, err)
	sessionID := sessionIDFromInstruction(t, instruction)
	assert.Len(t, sessionID, 64)

	bound, err := bindings.Lookup(ctx, "conn-1")
	require.NoError(t, err)
	assert.Equal(t, sessionID, bound)

	// Repeating supersedes the old pending session.
	instruction2, err := g.BeginAuthorization(ctx, "conn-1")
	require.NoError(t, err)
	sessionID2 := sessionIDFromInstruction(t, instruction2)
	assert.NotEqual(t, sessionID, sessionID2)

	bound, err = bindings.Lookup(ctx, "conn-1")
	require.NoError(t, err)
	assert.Equal(t, sessionID2, bound)
}

func TestCheckAndResolveIdentity_NoBinding(t *testing.T) {
	t.Parallel()

	g, _, _, _ := newTestGate(t)

	result, err := g.CheckAndResolveIdentity(context.Background(), "conn-unknown")
	require.NoError(t, err)
	assert.False(t, result.Authorized)
	assert.Contains(t, result.Instruction, "authorize_google")
}

func TestCheckAndResolveIdentity_PendingKeepsURL(t *testing.T) {
	t.Parallel()

	g, _, _, _ := newTestGate(t)
	ctx := context.Background()

	instruction, err := g.BeginAuthorization(ctx, "conn-1")
	require.NoError(t, err)
	sessionID := sessionIDFromInstruction(t, instruction)

	result, err := g.CheckAndResolveIdentity(ctx, "conn-1")
	require.NoError(t, err)
	assert.False(t, result.Authorized)
	assert.Contains(t, result.Instruction, "Authorization pending")
	assert.Equal(t, sessionID, sessionIDFromInstruction(t, result.Instruction),
		"a still-pending session keeps its original URL")
}

func TestCheckAndResolveIdentity_ExpiredSelfHeals(t *testing.T) {
	t.Parallel()

	g, bindings, _, nowP := newTestGate(t)
	ctx := context.Background()

	instruction, err := g.BeginAuthorization(ctx, "conn-1")
	require.NoError(t, err)
	oldSessionID := sessionIDFromInstruction(t, instruction)

	// Let the session lapse but keep the binding alive by re-binding the
	// stale session id just before the deadline.
	*nowP = nowP.Add(mcpsession.SessionTTL - time.Minute)
	require.NoError(t, bindings.Bind(ctx, "conn-1", oldSessionID))
	*nowP = nowP.Add(2 * time.Minute)

	result, err := g.CheckAndResolveIdentity(ctx, "conn-1")
	require.NoError(t, err)
	assert.False(t, result.Authorized)
	assert.Contains(t, result.Instruction, "Session expired")

	newSessionID := sessionIDFromInstruction(t, result.Instruction)
	assert.NotEqual(t, oldSessionID, newSessionID)

	bound, err := bindings.Lookup(ctx, "conn-1")
	require.NoError(t, err)
	assert.Equal(t, newSessionID, bound)
}

// Full handshake: create + bind, instruction,
// human completes sign-in, identity resolves.
func TestScenario_AuthorizeThenResolve(t *testing.T) {
	t.Parallel()

	g, _, _, _ := newTestGate(t)
	ctx := context.Background()

	instruction, err := g.BeginAuthorization(ctx, "conn-1")
	require.NoError(t, err)
	sessionID := sessionIDFromInstruction(t, instruction)

	result, err := g.CheckAndResolveIdentity(ctx, "conn-1")
	require.NoError(t, err)
	require.False(t, result.Authorized)
	require.NotEmpty(t, result.Instruction)

	require.NoError(t, g.CompleteAuthorization(ctx, sessionID, "user-1"))

	result, err = g.CheckAndResolveIdentity(ctx, "conn-1")
	require.NoError(t, err)
	assert.True(t, result.Authorized)
	assert.Equal(t, "user-1", result.UserID)
}

// A second begin-authorization re-binds the
// connection while the human is completing sign-in against the first
// session. Authorization acts on the callback's session id, so the
// in-flight sign-in lands on the superseded session, and the connection
// follows whatever is currently bound.
func TestScenario_RebindDoesNotInvalidateInFlightAuthorization(t *testing.T) {
	t.Parallel()

	g, bindings, _, _ := newTestGate(t)
	ctx := context.Background()

	first, err := g.BeginAuthorization(ctx, "conn-1")
	require.NoError(t, err)
	firstSessionID := sessionIDFromInstruction(t, first)

	second, err := g.BeginAuthorization(ctx, "conn-1")
	require.NoError(t, err)
	secondSessionID := sessionIDFromInstruction(t, second)

	// Human completes sign-in against the first link.
	require.NoError(t, g.CompleteAuthorization(ctx, firstSessionID, "user-1"))

	// The first session carries the identity even though superseded.
	require.NoError(t, bindings.Bind(ctx, "conn-1", firstSessionID))
	result, err := g.CheckAndResolveIdentity(ctx, "conn-1")
	require.NoError(t, err)
	assert.True(t, result.Authorized)
	assert.Equal(t, "user-1", result.UserID)

	// The second (currently pending) session is untouched.
	require.NoError(t, bindings.Bind(ctx, "conn-1", secondSessionID))
	result, err = g.CheckAndResolveIdentity(ctx, "conn-1")
	require.NoError(t, err)
	assert.False(t, result.Authorized)
}

func TestCompleteAuthorization_InvalidInput(t *testing.T) {
	t.Parallel()

	g, _, _, _ := newTestGate(t)
	assert.Error(t, g.CompleteAuthorization(context.Background(), "", "user-1"))
	assert.Error(t, g.CompleteAuthorization(context.Background(), "session", ""))
}
