package facts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores finished texts per symbol.
type Cache interface {
	Get(ctx context.Context, symbol string) (text string, ok bool, err error)
	Set(ctx context.Context, symbol, text string) error
}

// RedisCache keeps finished texts in Redis hashes with a TTL. A nil *RedisCache
// is a cache that never hits.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a RedisCache.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func cacheKey(symbol string) string {
	return fmt.Sprintf("fact:{%s}", symbol)
}

// Get returns the cached text for symbol.
func (c *RedisCache) Get(ctx context.Context, symbol string) (string, bool, error) {
	if c == nil || c.client == nil {
		return "", false, nil
	}
	text, err := c.client.HGet(ctx, cacheKey(symbol), "text").Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read cached fact: %w", err)
	}
	return text, true, nil
}

// Set stores text for symbol and refreshes the TTL.
func (c *RedisCache) Set(ctx context.Context, symbol, text string) error {
	if c == nil || c.client == nil {
		return nil
	}
	key := cacheKey(symbol)
	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, "text", text, "created_at", time.Now().UTC().Format(time.RFC3339))
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write cached fact: %w", err)
	}
	return nil
}

var _ Cache = (*RedisCache)(nil)
