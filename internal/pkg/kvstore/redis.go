package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/docsbridge/docsbridge/internal/pkg/env"
)

// RedisStore implements Store on top of a shared Redis connection.
// The client is constructed once at startup and injected; components never
// reach for a process-wide singleton.
type RedisStore struct {
	client *redis.Client
}

// NewRedisClient builds a Redis client from CACHE_HOST / CACHE_PORT /
// CACHE_PASSWORD and verifies the connection with a ping.
func NewRedisClient() *redis.Client {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       0,
	})

	pong, err := client.Ping(context.Background()).Result()
	if err != nil {
		log.Printf("Warning: Could not connect to Redis: %v", err)
	} else {
		log.Printf("Successfully connected to Redis: %s", pong)
	}

	return client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Client exposes the underlying connection for collaborators that need
// Redis-specific commands (usage counters, the fiber session storage).
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

func (s *RedisStore) Put(ctx context.Context, key string, value any) error {
	return s.PutTTL(ctx, key, value, 0)
}

func (s *RedisStore) PutTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kvstore: encode %s: %w", key, err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, key string, dest any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("kvstore: decode %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *RedisStore) AddToSet(ctx context.Context, key, member string) error {
	return s.client.SAdd(ctx, key, member).Err()
}

func (s *RedisStore) RemoveFromSet(ctx context.Context, key, member string) error {
	return s.client.SRem(ctx, key, member).Err()
}

func (s *RedisStore) MembersOf(ctx context.Context, key string) ([]string, error) {
	return s.client.SMembers(ctx, key).Result()
}

func (s *RedisStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	// go-redis passes the TTL sentinel replies through as raw durations:
	// -2 key does not exist, -1 key exists without an expiry.
	switch ttl {
	case -2:
		return 0, ErrNotFound
	case -1:
		return 0, nil
	}
	return ttl, nil
}
