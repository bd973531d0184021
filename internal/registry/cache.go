package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jkromann/virkdata/internal/config"
)

// Cache is a Redis backed store for raw registry payloads. Timeline views
// recompute from the cached payload instead of re-hitting the upstream
// search index on every page load.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache connects to Redis. An empty address returns a nil cache, which
// every caller treats as "cache disabled".
func NewCache(ctx context.Context, cfg config.RedisConfig) (*Cache, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}

	return &Cache{client: client, ttl: ttl}, nil
}

func payloadKey(cvr int64) string {
	return fmt.Sprintf("cvr:payload:%d", cvr)
}

// GetPayload returns the cached raw payload for a CVR number, or nil when
// the key is absent. Redis errors are returned so callers can decide to
// fall through to the upstream fetch.
func (c *Cache) GetPayload(ctx context.Context, cvr int64) ([]byte, error) {
	if c == nil {
		return nil, nil
	}
	data, err := c.client.Get(ctx, payloadKey(cvr)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get: %w", err)
	}
	return data, nil
}

// SetPayload stores the raw payload with the configured TTL.
func (c *Cache) SetPayload(ctx context.Context, cvr int64, payload []byte) error {
	if c == nil {
		return nil
	}
	if err := c.client.Set(ctx, payloadKey(cvr), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
