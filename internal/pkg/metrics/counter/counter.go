// Package counter keeps lightweight usage counters in Redis hashes:
// tool invocations and API key validations. Counts are advisory
// telemetry; failures are logged and never fail the calling operation.
package counter

import (
	"context"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

const (
	toolCallsKey      = "metrics:counters:tool-calls"
	keyValidationsKey = "metrics:counters:key-validations"
)

// Counter increments and reads usage counters on a shared Redis client.
type Counter struct {
	client *redis.Client
}

// New returns a counter over the given client.
func New(client *redis.Client) *Counter {
	return &Counter{client: client}
}

// AddToolCall increments the invocation count for a tool.
func (c *Counter) AddToolCall(tool string) {
	if err := c.client.HIncrBy(context.Background(), toolCallsKey, tool, 1).Err(); err != nil {
		log.Warnf("[Counter] tool call increment failed: %v", err)
	}
}

// AddKeyValidation increments the API key validation counter. ok
// distinguishes accepted from rejected presentations.
func (c *Counter) AddKeyValidation(ok bool) {
	field := "rejected"
	if ok {
		field = "accepted"
	}
	if err := c.client.HIncrBy(context.Background(), keyValidationsKey, field, 1).Err(); err != nil {
		log.Warnf("[Counter] key validation increment failed: %v", err)
	}
}

// Snapshot returns the current tool-call and key-validation counts.
func (c *Counter) Snapshot(ctx context.Context) (toolCalls map[string]string, keyValidations map[string]string, err error) {
	toolCalls, err = c.client.HGetAll(ctx, toolCallsKey).Result()
	if err != nil {
		return nil, nil, err
	}
	keyValidations, err = c.client.HGetAll(ctx, keyValidationsKey).Result()
	if err != nil {
		return nil, nil, err
	}
	return toolCalls, keyValidations, nil
}
