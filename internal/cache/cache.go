// Package cache memoizes expensive neighbor-match results and materialized
// lattice atom counts in Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/arxos/crystalgeo/internal/applog"
	"github.com/arxos/crystalgeo/internal/config"
)

const keyPrefix = "crystalgeo:"

// Cache wraps a Redis client with Get/Set/Delete primitives plus typed
// helpers for the two memoized query shapes crystalgeo needs.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    *applog.Logger
}

// New connects to Redis per cfg and verifies the connection with a ping.
func New(cfg config.RedisConfig, log *applog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address(),
		Password:     cfg.Password,
		DB:           cfg.Database,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: failed to connect to redis: %w", err)
	}

	log.Event("redis cache initialized", "addr", cfg.Address(), "db", cfg.Database)
	return &Cache{client: client, ttl: cfg.TTL, log: log}, nil
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error { return c.client.Close() }

// Get fetches a raw value, reporting redis.Nil as (nil, false, nil).
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: get %q: %w", key, err)
	}
	return val, true, nil
}

// Set stores a raw value under the cache's configured TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, keyPrefix+key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %q: %w", key, err)
	}
	return nil
}

// Delete removes a key, ignoring a miss.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("cache: delete %q: %w", key, err)
	}
	return nil
}

// MatchResult is the JSON-serializable shape of a memoized neighbor-match
// call, keyed by (atom-set fingerprint, radius spec, maxNeighbors).
type MatchResult struct {
	Indices    [][]uint32 `json:"indices"`
	Counts     []int      `json:"counts"`
	Overflowed []bool     `json:"overflowed"`
}

// GetMatchResult fetches a previously memoized match result, if present.
func (c *Cache) GetMatchResult(ctx context.Context, key string) (*MatchResult, bool, error) {
	raw, ok, err := c.Get(ctx, "match:"+key)
	if err != nil || !ok {
		return nil, ok, err
	}
	var result MatchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, fmt.Errorf("cache: decode match result %q: %w", key, err)
	}
	return &result, true, nil
}

// SetMatchResult memoizes a match result.
func (c *Cache) SetMatchResult(ctx context.Context, key string, result MatchResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache: encode match result %q: %w", key, err)
	}
	return c.Set(ctx, "match:"+key, raw)
}

// GetAtomCount fetches a previously memoized materialized-lattice atom
// count keyed by (bounds, material, script hash).
func (c *Cache) GetAtomCount(ctx context.Context, key string) (int, bool, error) {
	raw, ok, err := c.Get(ctx, "atomcount:"+key)
	if err != nil || !ok {
		return 0, ok, err
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false, fmt.Errorf("cache: decode atom count %q: %w", key, err)
	}
	return n, true, nil
}

// SetAtomCount memoizes a materialized-lattice atom count.
func (c *Cache) SetAtomCount(ctx context.Context, key string, n int) error {
	raw, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("cache: encode atom count %q: %w", key, err)
	}
	return c.Set(ctx, "atomcount:"+key, raw)
}
