package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const filePerm = 0o600

type fileEntry struct {
	Value    string    `yaml:"value"`
	ExpireAt time.Time `yaml:"expire_at,omitempty"`
}

func (e fileEntry) expired(now time.Time) bool {
	return !e.ExpireAt.IsZero() && now.After(e.ExpireAt)
}

// FileCache keeps its entries in a YAML file that is rewritten on every
// change, so values survive a restart. It suits a handful of small values
// such as credentials.
type FileCache struct {
	mu      sync.Mutex
	path    string
	entries map[string]fileEntry
	now     func() time.Time
}

var _ Service = (*FileCache)(nil)

// NewFileCache opens the cache stored at path. A missing file is an empty
// cache; the file and its directory are created on the first write.
func NewFileCache(path string) (*FileCache, error) {
	if path == "" {
		return nil, errors.New("cache: file path is required")
	}
	fc := &FileCache{path: path, entries: make(map[string]fileEntry), now: time.Now}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fc, nil
	case err != nil:
		return nil, fmt.Errorf("cache: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &fc.entries); err != nil {
		return nil, fmt.Errorf("cache: parse %s: %w", path, err)
	}
	if fc.entries == nil {
		fc.entries = make(map[string]fileEntry)
	}
	return fc, nil
}

// Path returns the backing file.
func (fc *FileCache) Path() string { return fc.path }

func (fc *FileCache) Get(_ context.Context, key string) (string, error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	e, ok := fc.entries[key]
	if !ok || e.expired(fc.now()) {
		return "", ErrCacheMiss
	}
	return e.Value, nil
}

func (fc *FileCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	e := fileEntry{Value: value}
	if ttl > 0 {
		e.ExpireAt = fc.now().Add(ttl).UTC()
	}
	prev, had := fc.entries[key]
	fc.entries[key] = e
	if err := fc.persistLocked(); err != nil {
		if had {
			fc.entries[key] = prev
		} else {
			delete(fc.entries, key)
		}
		return err
	}
	return nil
}

func (fc *FileCache) Delete(_ context.Context, keys ...string) error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	removed := make(map[string]fileEntry, len(keys))
	for _, k := range keys {
		if e, ok := fc.entries[k]; ok {
			removed[k] = e
			delete(fc.entries, k)
		}
	}
	if len(removed) == 0 {
		return nil
	}
	if err := fc.persistLocked(); err != nil {
		for k, e := range removed {
			fc.entries[k] = e
		}
		return err
	}
	return nil
}

// Close is a no-op; every write is already on disk.
func (fc *FileCache) Close() error { return nil }

// persistLocked writes the live entries to a temp file and renames it over
// the target. Caller holds mu.
func (fc *FileCache) persistLocked() error {
	now := fc.now()
	live := make(map[string]fileEntry, len(fc.entries))
	for k, e := range fc.entries {
		if !e.expired(now) {
			live[k] = e
		}
	}
	raw, err := yaml.Marshal(live)
	if err != nil {
		return fmt.Errorf("cache: encode: %w", err)
	}

	dir := filepath.Dir(fc.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("cache: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(fc.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("cache: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("cache: write: %w", err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		return fmt.Errorf("cache: chmod: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("cache: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cache: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), fc.path); err != nil {
		return fmt.Errorf("cache: replace %s: %w", fc.path, err)
	}
	return nil
}
