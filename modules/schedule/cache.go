package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventCache stores serialized event lists by key.
type EventCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
}

// RedisCache is a cache-aside store on Redis with a key prefix and a TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	stats  Stats
}

// Stats tracks cache statistics.
type Stats struct {
	Hits    atomic.Uint64
	Misses  atomic.Uint64
	Sets    atomic.Uint64
	Deletes atomic.Uint64
	Errors  atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	Sets    uint64  `json:"sets"`
	Deletes uint64  `json:"deletes"`
	Errors  uint64  `json:"errors"`
	HitRate float64 `json:"hit_rate"`
}

// NewRedisCache creates a cache over client.
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Get loads key into dest. It reports false on a miss.
func (c *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.stats.Misses.Add(1)
			return false, nil
		}
		c.stats.Errors.Add(1)
		return false, fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.stats.Errors.Add(1)
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}

	c.stats.Hits.Add(1)
	return true, nil
}

// Set stores value under key with the default TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		c.stats.Errors.Add(1)
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.stats.Errors.Add(1)
		return fmt.Errorf("cache set error: %w", err)
	}

	c.stats.Sets.Add(1)
	return nil
}

// Delete removes keys.
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}

	n, err := c.client.Del(ctx, full...).Result()
	if err != nil {
		c.stats.Errors.Add(1)
		return fmt.Errorf("cache delete error: %w", err)
	}

	c.stats.Deletes.Add(uint64(n))
	return nil
}

// Snapshot returns the current statistics.
func (c *RedisCache) Snapshot() StatsSnapshot {
	hits := c.stats.Hits.Load()
	misses := c.stats.Misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	return StatsSnapshot{
		Hits:    hits,
		Misses:  misses,
		Sets:    c.stats.Sets.Load(),
		Deletes: c.stats.Deletes.Load(),
		Errors:  c.stats.Errors.Load(),
		HitRate: hitRate,
	}
}

// Ping checks if the Redis connection is healthy.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
