package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/docsbridge/docsbridge/app/models"
	"github.com/docsbridge/docsbridge/internal/pkg/kvstore"
)

type kvAPIKeyRepository struct {
	store kvstore.Store
}

// NewAPIKeyRepository returns an APIKeyRepository backed by the given store.
func NewAPIKeyRepository(store kvstore.Store) APIKeyRepository {
	return &kvAPIKeyRepository{store: store}
}

func (r *kvAPIKeyRepository) Issue(ctx context.Context, userID, name string) (*models.APIKey, string, error) {
	if userID == "" || name == "" {
		return nil, "", ErrInvalidInput
	}

	rawKey, hashedKey, err := models.GenerateAPIKey()
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	key := &models.APIKey{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		HashedKey: hashedKey,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := r.store.Put(ctx, apiKeyKey(key.ID), key); err != nil {
		return nil, "", err
	}
	if err := r.store.Put(ctx, apiKeyHashKey(hashedKey), key.ID); err != nil {
		return nil, "", err
	}
	if err := r.store.AddToSet(ctx, apiKeysByUserKey(userID), key.ID); err != nil {
		return nil, "", err
	}

	return key, rawKey, nil
}

func (r *kvAPIKeyRepository) Validate(ctx context.Context, secret string) (*models.APIKey, error) {
	if secret == "" {
		return nil, ErrNotFound
	}

	hash := models.HashAPIKey(secret)
	var id string
	if err := r.store.Get(ctx, apiKeyHashKey(hash), &id); err != nil {
		return nil, err
	}

	var key models.APIKey
	if err := r.store.Get(ctx, apiKeyKey(id), &key); err != nil {
		return nil, err
	}

	// An inactive record must look exactly like a missing one to the caller.
	if !key.Active {
		return nil, ErrNotFound
	}

	// Refresh last-used best-effort; the key stays valid if this write is
	// lost to a crash or a store hiccup.
	now := time.Now()
	key.LastUsed = &now
	key.UpdatedAt = now
	if err := r.store.Put(ctx, apiKeyKey(id), &key); err != nil {
		log.Warnf("api key %s: failed to update usage timestamp: %v", id, err)
	}

	return &key, nil
}

func (r *kvAPIKeyRepository) List(ctx context.Context, userID string) ([]models.APIKey, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}

	ids, err := r.store.MembersOf(ctx, apiKeysByUserKey(userID))
	if err != nil {
		return nil, err
	}

	keys := make([]models.APIKey, 0, len(ids))
	for _, id := range ids {
		var key models.APIKey
		if err := r.store.Get(ctx, apiKeyKey(id), &key); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		keys = append(keys, key.Redacted())
	}

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].CreatedAt.After(keys[j].CreatedAt)
	})
	return keys, nil
}

func (r *kvAPIKeyRepository) Revoke(ctx context.Context, id, userID string) error {
	if id == "" || userID == "" {
		return ErrInvalidInput
	}

	var key models.APIKey
	err := r.store.Get(ctx, apiKeyKey(id), &key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	// Ownership check precedes any mutation.
	if key.UserID != userID {
		return nil
	}

	if err := r.store.Delete(ctx, apiKeyHashKey(key.HashedKey)); err != nil {
		return err
	}
	if err := r.store.Delete(ctx, apiKeyKey(id)); err != nil {
		return err
	}
	return r.store.RemoveFromSet(ctx, apiKeysByUserKey(userID), id)
}
