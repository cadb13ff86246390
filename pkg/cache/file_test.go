package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCacheSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "credentials.yaml")

	fc, err := NewFileCache(path)
	require.NoError(t, err)
	_, err = fc.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, fc.Set(ctx, "k", "v1", 0))
	require.NoError(t, fc.Set(ctx, "gone", "x", 0))
	require.NoError(t, fc.Delete(ctx, "gone"))
	require.NoError(t, fc.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := NewFileCache(path)
	require.NoError(t, err)
	got, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v1", got)
	_, err = reopened.Get(ctx, "gone")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.yaml")

	fc, err := NewFileCache(path)
	require.NoError(t, err)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	fc.now = func() time.Time { return now }

	require.NoError(t, fc.Set(ctx, "short", "v", time.Minute))
	require.NoError(t, fc.Set(ctx, "forever", "v", 0))

	now = now.Add(2 * time.Minute)
	_, err = fc.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)

	reopened, err := NewFileCache(path)
	require.NoError(t, err)
	reopened.now = func() time.Time { return now }
	_, err = reopened.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrCacheMiss)
	got, err := reopened.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestFileCacheRejectsBadInput(t *testing.T) {
	_, err := NewFileCache("")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("k: [unclosed"), 0o600))
	_, err = NewFileCache(path)
	assert.Error(t, err)
}
