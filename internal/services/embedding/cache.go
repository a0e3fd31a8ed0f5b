// File: internal/services/embedding/cache.go
package embedding

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"

	"github.com/iyunix/go-triage/internal/domain"
)

// Cache stores embeddings by key. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, vec []float32) error
}

// MemoryCache is a bounded in-process LRU whose entries expire after ttl.
// It is the default when no Redis address is configured.
type MemoryCache struct {
	lru *expirable.LRU[string, []float32]
}

// NewMemoryCache holds at most size entries; ttl <= 0 disables expiry.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size < 1 {
		size = DefaultConfig().CacheSize
	}
	return &MemoryCache{lru: expirable.NewLRU[string, []float32](size, nil, ttl)}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	v, ok := c.lru.Get(key)
	return v, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, vec []float32) error {
	c.lru.Add(key, vec)
	return nil
}

func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

// RedisCache keeps embeddings in Redis as little-endian float32 bytes.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, NewError(ErrTypeCache, "cache_get", "failed to get from cache", err)
	}
	var vec domain.Vector
	if err := vec.Scan(raw); err != nil {
		return nil, false, NewError(ErrTypeCache, "cache_get", "corrupt cache entry", err)
	}
	return vec, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, vec []float32) error {
	raw, _ := domain.Vector(vec).Value()
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return NewError(ErrTypeCache, "cache_set", "failed to set in cache", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
