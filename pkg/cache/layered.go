package cache

import (
	"context"
	"time"
)

// LayeredCache reads through an in-process L1 to Redis and writes to
// Redis first, so Redis stays the source of truth across instances.
type LayeredCache struct {
	l1    *MemoryCache
	l2    Service
	l1TTL time.Duration
}

var _ Service = (*LayeredCache)(nil)

// NewLayeredCache puts a memory layer in front of l2, normally a
// *RedisCache.
func NewLayeredCache(l2 Service, opts ...LayeredOption) *LayeredCache {
	cfg := LayeredConfig{MemoryMaxSize: 1000, MemoryTTL: 30 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &LayeredCache{
		l1:    NewMemoryCache(WithMemoryMaxSize(cfg.MemoryMaxSize)),
		l2:    l2,
		l1TTL: cfg.MemoryTTL,
	}
}

func (lc *LayeredCache) Get(ctx context.Context, key string) (string, error) {
	if v, err := lc.l1.Get(ctx, key); err == nil {
		return v, nil
	}
	v, err := lc.l2.Get(ctx, key)
	if err != nil {
		return "", err
	}
	_ = lc.l1.Set(ctx, key, v, lc.l1TTL)
	return v, nil
}

func (lc *LayeredCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := lc.l2.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	l1 := lc.l1TTL
	if ttl > 0 && ttl < l1 {
		l1 = ttl
	}
	return lc.l1.Set(ctx, key, value, l1)
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.l1.Delete(ctx, keys...)
	return lc.l2.Delete(ctx, keys...)
}

func (lc *LayeredCache) Close() error {
	_ = lc.l1.Close()
	return lc.l2.Close()
}
