// Package gate orchestrates per-tool-call authorization: it resolves a
// caller connection to a bound MCP session, reports the resolved identity
// when that session is authorized, and otherwise hands back the next
// instruction (an authorization URL) instead of an error.
package gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/docsbridge/docsbridge/app/models"
	"github.com/docsbridge/docsbridge/internal/pkg/kvstore"
	"github.com/docsbridge/docsbridge/internal/pkg/mcpsession"
)

// Gate is the orchestration layer invoked for every tool call.
type Gate struct {
	sessions *mcpsession.Manager
	bindings *mcpsession.BindingStore
	baseURL  string
}

// New returns a gate over the given session manager and binding store.
// baseURL is the public origin authorization URLs are built against.
func New(sessions *mcpsession.Manager, bindings *mcpsession.BindingStore, baseURL string) *Gate {
	return &Gate{sessions: sessions, bindings: bindings, baseURL: baseURL}
}

// Result is the outcome of resolving a connection. Either Authorized is
// true and UserID carries the resolved identity, or Instruction tells the
// caller what to do next.
type Result struct {
	Authorized  bool
	UserID      string
	Instruction string
}

// BeginAuthorization always creates a fresh pending session, binds it to
// the connection (superseding any previous binding), and returns the
// instruction carrying its authorization URL. Safe to repeat.
func (g *Gate) BeginAuthorization(ctx context.Context, connectionID string) (string, error) {
	if connectionID == "" {
		return "", fmt.Errorf("gate: empty connection id")
	}
	session, err := g.sessions.Create(ctx)
	if err != nil {
		return "", err
	}
	if err := g.bindings.Bind(ctx, connectionID, session.SessionID); err != nil {
		return "", err
	}
	authURL := mcpsession.AuthURL(session.SessionID, g.baseURL)
	return fmt.Sprintf("Please authorize Google Docs access by visiting this URL:\n\n%s\n\nAfter authorization, you can use the other Google Docs tools.", authURL), nil
}

// CheckAndResolveIdentity resolves connection -> session -> status. An
// absent binding, a still-pending session, or an expired session all
// degrade to an instruction, never a hard failure; only store errors
// propagate.
func (g *Gate) CheckAndResolveIdentity(ctx context.Context, connectionID string) (*Result, error) {
	if connectionID == "" {
		return nil, fmt.Errorf("gate: empty connection id")
	}

	sessionID, err := g.bindings.Lookup(ctx, connectionID)
	if errors.Is(err, kvstore.ErrNotFound) {
		return &Result{Instruction: `Please run the "authorize_google" tool first to authorize Google Docs access.`}, nil
	}
	if err != nil {
		return nil, err
	}

	authorized, userID, err := g.sessions.IsAuthorized(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if authorized {
		return &Result{Authorized: true, UserID: userID}, nil
	}

	// Not authorized yet: a live pending session keeps its URL; anything
	// else self-heals into a fresh session.
	session, err := g.sessions.Get(ctx, sessionID)
	if err == nil && session.Status == models.McpStatusPending {
		authURL := mcpsession.AuthURL(sessionID, g.baseURL)
		return &Result{Instruction: fmt.Sprintf("Authorization pending. Please complete authorization at:\n\n%s", authURL)}, nil
	}
	if err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return nil, err
	}

	fresh, err := g.sessions.Create(ctx)
	if err != nil {
		return nil, err
	}
	if err := g.bindings.Bind(ctx, connectionID, fresh.SessionID); err != nil {
		return nil, err
	}
	authURL := mcpsession.AuthURL(fresh.SessionID, g.baseURL)
	return &Result{Instruction: fmt.Sprintf("Session expired. Please authorize again:\n\n%s", authURL)}, nil
}

// CompleteAuthorization is called by the sign-in UI once a human finishes
// signing in. It acts on the external session id embedded in the callback
// URL, never on whatever the connection is currently bound to, so a
// superseding re-bind cannot invalidate an in-flight authorization.
func (g *Gate) CompleteAuthorization(ctx context.Context, externalSessionID, userID string) error {
	if externalSessionID == "" || userID == "" {
		return fmt.Errorf("gate: session id and user id are required")
	}
	return g.sessions.Authorize(ctx, externalSessionID, userID)
}
