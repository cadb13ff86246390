package cache

import "time"

// RedisOption configures NewRedisCache.
type RedisOption func(*RedisConfig)

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	// Prefix namespaces every key, so several deployments can share a DB.
	Prefix      string
	PingTimeout time.Duration
}

func defaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		PoolSize:     4,
		MinIdleConns: 1,
		Prefix:       "findash",
		PingTimeout:  5 * time.Second,
	}
}

func WithRedisAddr(addr string) RedisOption {
	return func(c *RedisConfig) {
		if addr != "" {
			c.Addr = addr
		}
	}
}

func WithRedisPassword(password string) RedisOption {
	return func(c *RedisConfig) { c.Password = password }
}

func WithRedisDB(db int) RedisOption {
	return func(c *RedisConfig) { c.DB = db }
}

// WithRedisPrefix sets the key namespace; an empty prefix disables it.
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) { c.Prefix = prefix }
}

func WithRedisPingTimeout(d time.Duration) RedisOption {
	return func(c *RedisConfig) {
		if d > 0 {
			c.PingTimeout = d
		}
	}
}

// MemoryOption configures NewMemoryCache.
type MemoryOption func(*MemoryConfig)

type MemoryConfig struct {
	MaxSize         int           // entries kept before the least recently used is evicted
	CleanupInterval time.Duration // how often expired entries are swept
}

func WithMemoryMaxSize(size int) MemoryOption {
	return func(c *MemoryConfig) {
		if size > 0 {
			c.MaxSize = size
		}
	}
}

func WithMemoryCleanup(interval time.Duration) MemoryOption {
	return func(c *MemoryConfig) {
		if interval > 0 {
			c.CleanupInterval = interval
		}
	}
}

// LayeredOption configures NewLayeredCache.
type LayeredOption func(*LayeredConfig)

type LayeredConfig struct {
	MemoryMaxSize int
	// MemoryTTL bounds how long a value read from Redis is served from
	// memory, and so how stale another instance's write can look.
	MemoryTTL time.Duration
}

func WithLayeredMemorySize(size int) LayeredOption {
	return func(c *LayeredConfig) {
		if size > 0 {
			c.MemoryMaxSize = size
		}
	}
}

func WithLayeredMemoryTTL(ttl time.Duration) LayeredOption {
	return func(c *LayeredConfig) {
		if ttl > 0 {
			c.MemoryTTL = ttl
		}
	}
}
