package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	key      string
	value    string
	expireAt time.Time // zero never expires
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// MemoryCache is an in-process LRU with per-entry expiry.
type MemoryCache struct {
	mu      sync.Mutex
	maxSize int
	order   *list.List // front is most recently used
	items   map[string]*list.Element
	now     func() time.Time

	ticker    *time.Ticker
	done      chan struct{}
	closeOnce sync.Once
}

var _ Service = (*MemoryCache)(nil)

func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := MemoryConfig{MaxSize: 1000, CleanupInterval: 5 * time.Minute}
	for _, opt := range opts {
		opt(&cfg)
	}

	mc := &MemoryCache{
		maxSize: cfg.MaxSize,
		order:   list.New(),
		items:   make(map[string]*list.Element),
		now:     time.Now,
		ticker:  time.NewTicker(cfg.CleanupInterval),
		done:    make(chan struct{}),
	}
	go mc.sweepLoop()
	return mc
}

func (mc *MemoryCache) Get(_ context.Context, key string) (string, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	el, ok := mc.items[key]
	if !ok {
		return "", ErrCacheMiss
	}
	e := el.Value.(*memoryEntry)
	if e.expired(mc.now()) {
		mc.remove(el)
		return "", ErrCacheMiss
	}
	mc.order.MoveToFront(el)
	return e.value, nil
}

func (mc *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	var expireAt time.Time
	if ttl > 0 {
		expireAt = mc.now().Add(ttl)
	}

	if el, ok := mc.items[key]; ok {
		e := el.Value.(*memoryEntry)
		e.value, e.expireAt = value, expireAt
		mc.order.MoveToFront(el)
		return nil
	}

	mc.items[key] = mc.order.PushFront(&memoryEntry{key: key, value: value, expireAt: expireAt})
	for mc.order.Len() > mc.maxSize {
		mc.remove(mc.order.Back())
	}
	return nil
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for _, k := range keys {
		if el, ok := mc.items[k]; ok {
			mc.remove(el)
		}
	}
	return nil
}

// Len returns the number of stored entries, expired or not.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.order.Len()
}

// remove drops el. Caller holds mu.
func (mc *MemoryCache) remove(el *list.Element) {
	e := mc.order.Remove(el).(*memoryEntry)
	delete(mc.items, e.key)
}

func (mc *MemoryCache) sweep() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	now := mc.now()
	for el := mc.order.Front(); el != nil; {
		next := el.Next()
		if el.Value.(*memoryEntry).expired(now) {
			mc.remove(el)
		}
		el = next
	}
}

func (mc *MemoryCache) sweepLoop() {
	for {
		select {
		case <-mc.done:
			return
		case <-mc.ticker.C:
			mc.sweep()
		}
	}
}

// Close stops the sweeper. Stored values stay readable.
func (mc *MemoryCache) Close() error {
	mc.closeOnce.Do(func() {
		mc.ticker.Stop()
		close(mc.done)
	})
	return nil
}
