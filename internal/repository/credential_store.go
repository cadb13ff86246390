package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"FinDash/internal/domain/repository"
	"FinDash/pkg/cache"
)

// CredentialKey is the cache key the quote API key is stored under.
const CredentialKey = "stock_api_key"

// CacheCredentialStore keeps the quote API key in a cache.Service with no
// expiry.
type CacheCredentialStore struct {
	cache cache.Service
}

// NewCredentialStore creates a credential store on c.
func NewCredentialStore(c cache.Service) *CacheCredentialStore {
	return &CacheCredentialStore{cache: c}
}

var _ repository.CredentialStore = (*CacheCredentialStore)(nil)

// Get returns the stored key or repository.ErrNoCredential.
func (s *CacheCredentialStore) Get(ctx context.Context) (string, error) {
	key, err := s.cache.Get(ctx, CredentialKey)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return "", repository.ErrNoCredential
		}
		return "", fmt.Errorf("read credential: %w", err)
	}
	if key == "" {
		return "", repository.ErrNoCredential
	}
	return key, nil
}

// Set stores key after trimming surrounding whitespace.
func (s *CacheCredentialStore) Set(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("credential must not be empty")
	}
	if err := s.cache.Set(ctx, CredentialKey, key, 0); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}
