// Package cache stores small string values, such as credentials, in
// process memory, in a YAML file, in Redis, or in Redis with memory in
// front.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get for absent or expired keys.
var ErrCacheMiss = errors.New("cache: key not found")

// Service is a string key/value store. A non-positive ttl keeps the value
// until it is deleted or evicted.
type Service interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// JoinKey prefixes key with namespace, separated by a colon. An empty
// namespace leaves key unchanged.
func JoinKey(namespace, key string) string {
	if namespace == "" {
		return key
	}
	return namespace + ":" + key
}
