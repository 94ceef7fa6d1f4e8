package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key (or set) does not exist in the store.
// Absence is an expected outcome for every lookup path, never a failure.
var ErrNotFound = errors.New("kvstore: not found")

// Store is the durable key-value contract everything else is built on.
// Values are JSON-encoded records; time.Time fields round-trip exactly
// (RFC 3339 with nanoseconds), which downstream expiry comparisons rely on.
//
// Implementations surface store errors unchanged instead of retrying:
// a blind retry of a Put risks duplicate secondary-index writes.
type Store interface {
	// Put stores value under key without an expiry.
	Put(ctx context.Context, key string, value any) error

	// PutTTL stores value under key with the given time-to-live.
	PutTTL(ctx context.Context, key string, value any, ttl time.Duration) error

	// Get decodes the value stored under key into dest.
	// Returns ErrNotFound when the key is absent.
	Get(ctx context.Context, key string, dest any) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// AddToSet adds member to the set stored under key.
	AddToSet(ctx context.Context, key, member string) error

	// RemoveFromSet removes member from the set stored under key.
	RemoveFromSet(ctx context.Context, key, member string) error

	// MembersOf returns all members of the set under key.
	// An absent set yields an empty slice, not ErrNotFound.
	MembersOf(ctx context.Context, key string) ([]string, error)

	// TTL returns the remaining time-to-live for key. Keys stored without
	// an expiry report 0. Returns ErrNotFound when the key is absent.
	TTL(ctx context.Context, key string) (time.Duration, error)
}
