package mcpsession

import (
	"context"

	"github.com/docsbridge/docsbridge/internal/pkg/kvstore"
)

const bindingKeyPrefix = "mcp:connection:"

// BindingStore maps an ephemeral caller connection id to the external MCP
// session id currently associated with it. Connection ids come from the
// transport and are not assumed unguessable; the bound value is worthless
// until that session is separately authorized server-side.
//
// Bindings share the 24-hour session TTL and are refreshed on each
// authorization event. Last write wins when a connection re-binds.
type BindingStore struct {
	store kvstore.Store
}

// NewBindingStore returns a binding store over the given store.
func NewBindingStore(store kvstore.Store) *BindingStore {
	return &BindingStore{store: store}
}

func bindingKey(connectionID string) string {
	return bindingKeyPrefix + connectionID
}

// Bind associates connectionID with sessionID, superseding any previous
// binding for that connection.
func (b *BindingStore) Bind(ctx context.Context, connectionID, sessionID string) error {
	return b.store.PutTTL(ctx, bindingKey(connectionID), sessionID, SessionTTL)
}

// Lookup returns the bound external session id, or ErrNotFound.
func (b *BindingStore) Lookup(ctx context.Context, connectionID string) (string, error) {
	var sessionID string
	if err := b.store.Get(ctx, bindingKey(connectionID), &sessionID); err != nil {
		return "", err
	}
	return sessionID, nil
}

// Unbind drops the binding for connectionID.
func (b *BindingStore) Unbind(ctx context.Context, connectionID string) error {
	return b.store.Delete(ctx, bindingKey(connectionID))
}
