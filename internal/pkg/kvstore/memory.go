package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time // zero means no expiry
}

// MemoryStore is an in-process Store used by tests. It mirrors the Redis
// implementation's behavior, including JSON encoding and lazy TTL eviction,
// so components exercise the exact same contract either way.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	sets    map[string]map[string]struct{}

	// Now is the clock used for TTL checks; tests may override it.
	Now func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		sets:    make(map[string]map[string]struct{}),
		Now:     time.Now,
	}
}

func (s *MemoryStore) Put(ctx context.Context, key string, value any) error {
	return s.PutTTL(ctx, key, value, 0)
}

func (s *MemoryStore) PutTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kvstore: encode %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = s.Now().Add(ttl)
	}
	s.entries[key] = entry
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string, dest any) error {
	s.mu.Lock()
	entry, ok := s.liveEntry(key)
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(entry.data, dest); err != nil {
		return fmt.Errorf("kvstore: decode %s: %w", key, err)
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) AddToSet(ctx context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	set[member] = struct{}{}
	return nil
}

func (s *MemoryStore) RemoveFromSet(ctx context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.sets[key]; ok {
		delete(set, member)
		if len(set) == 0 {
			delete(s.sets, key)
		}
	}
	return nil
}

func (s *MemoryStore) MembersOf(ctx context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := make([]string, 0, len(s.sets[key]))
	for member := range s.sets[key] {
		members = append(members, member)
	}
	return members, nil
}

func (s *MemoryStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.liveEntry(key)
	if !ok {
		return 0, ErrNotFound
	}
	if entry.expiresAt.IsZero() {
		return 0, nil
	}
	return entry.expiresAt.Sub(s.Now()), nil
}

// liveEntry returns the entry for key, evicting it first if its TTL has
// lapsed. Callers must hold s.mu.
func (s *MemoryStore) liveEntry(key string) (memoryEntry, bool) {
	entry, ok := s.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expiresAt.IsZero() && !entry.expiresAt.After(s.Now()) {
		delete(s.entries, key)
		return memoryEntry{}, false
	}
	return entry, true
}
