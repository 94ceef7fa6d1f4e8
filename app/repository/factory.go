package repository

import (
	"github.com/docsbridge/docsbridge/internal/pkg/kvstore"
)

// Factory bundles the repositories built on one injected store handle.
type Factory struct {
	store kvstore.Store

	users   UserRepository
	apiKeys APIKeyRepository
}

// NewFactory creates a repository factory over the given store.
func NewFactory(store kvstore.Store) *Factory {
	return &Factory{
		store:   store,
		users:   NewUserRepository(store),
		apiKeys: NewAPIKeyRepository(store),
	}
}

// GetUserRepository returns the identity store.
func (f *Factory) GetUserRepository() UserRepository {
	return f.users
}

// GetAPIKeyRepository returns the API key subsystem.
func (f *Factory) GetAPIKeyRepository() APIKeyRepository {
	return f.apiKeys
}
