package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	require.NoError(t, c.Set(ctx, "k", "w", 0))
	got, _ = c.Get(ctx, "k")
	assert.Equal(t, "w", got)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete(ctx, "missing", "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "short", "v", time.Second))
	require.NoError(t, c.Set(ctx, "forever", "v", 0))
	require.NoError(t, c.Set(ctx, "negative", "v", -time.Second))

	now = now.Add(2 * time.Second)
	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)
	for _, k := range []string{"forever", "negative"} {
		_, err := c.Get(ctx, k)
		assert.NoError(t, err, k)
	}
}

func TestMemoryCacheSweepDropsExpired(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }
	require.NoError(t, c.Set(ctx, "a", "1", time.Second))
	require.NoError(t, c.Set(ctx, "b", "2", 0))

	now = now.Add(time.Minute)
	c.sweep()
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewMemoryCache(WithMemoryMaxSize(2))
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", "1", 0))
	require.NoError(t, c.Set(ctx, "b", "2", 0))
	_, err := c.Get(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "c", "3", 0))

	_, err = c.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "a")
	assert.NoError(t, err)
	assert.Equal(t, 2, c.Len())
}

func TestMemoryCacheCloseIsIdempotent(t *testing.T) {
	c := NewMemoryCache()
	require.NoError(t, c.Set(context.Background(), "k", "v", 0))
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())

	got, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

type failingStore struct {
	*MemoryCache
	err error
}

func (f *failingStore) Set(context.Context, string, string, time.Duration) error { return f.err }

func TestLayeredCacheReadsThroughAndWritesL2First(t *testing.T) {
	ctx := context.Background()
	l2 := NewMemoryCache()
	lc := NewLayeredCache(l2, WithLayeredMemoryTTL(time.Minute))
	defer lc.Close()

	require.NoError(t, l2.Set(ctx, "k", "from-l2", 0))
	got, err := lc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "from-l2", got)
	assert.Equal(t, 1, lc.l1.Len(), "read promotes into memory")

	require.NoError(t, lc.Set(ctx, "n", "x", 0))
	got, err = l2.Get(ctx, "n")
	require.NoError(t, err)
	assert.Equal(t, "x", got)

	require.NoError(t, lc.Delete(ctx, "k"))
	_, err = lc.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestLayeredCacheSkipsL1WhenL2Fails(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("down")
	l2 := &failingStore{MemoryCache: NewMemoryCache(), err: boom}
	lc := NewLayeredCache(l2)
	defer lc.Close()

	assert.ErrorIs(t, lc.Set(ctx, "k", "v", 0), boom)
	_, err := lc.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCacheFailsFastOnBadAddress(t *testing.T) {
	_, err := NewRedisCache(WithRedisAddr("127.0.0.1:1"), WithRedisPingTimeout(200*time.Millisecond))
	assert.Error(t, err)
}

func TestJoinKey(t *testing.T) {
	assert.Equal(t, "findash:stock_api_key", JoinKey("findash", "stock_api_key"))
	assert.Equal(t, "k", JoinKey("", "k"))
}
