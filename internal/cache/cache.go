// Package cache stores catalog reads in Redis as JSON.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/pcshop/pkg/metrics"
)

const scanBatch = 100

type Cache struct {
	rdb     redis.UniversalClient
	prefix  string
	ttl     time.Duration
	metrics *metrics.Metrics
}

func New(rdb redis.UniversalClient, prefix string, ttl time.Duration, m *metrics.Metrics) *Cache {
	return &Cache{rdb: rdb, prefix: prefix + ":", ttl: ttl, metrics: m}
}

func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return rdb, nil
}

func (c *Cache) key(k string) string { return c.prefix + k }

// Get decodes the cached value of key into dst and reports whether it was
// present.
func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.observe("miss")
		return false, nil
	}
	if err != nil {
		c.observe("error")
		return false, fmt.Errorf("redis: get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.observe("error")
		return false, fmt.Errorf("redis: decode %s: %w", key, err)
	}
	c.observe("hit")
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("redis: encode %s: %w", key, err)
	}
	return c.rdb.Set(ctx, c.key(key), raw, c.ttl).Err()
}

// Invalidate drops every key under the cache prefix.
func (c *Cache) Invalidate(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, c.prefix+"*", scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis: del: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis: scan: %w", err)
	}
	if len(batch) > 0 {
		if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis: del: %w", err)
		}
	}
	return nil
}

func (c *Cache) observe(result string) {
	if c.metrics != nil {
		c.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}
