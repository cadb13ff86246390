package clickhouse

import "time"

type ClientOption func(*ClientConfig)

type ClientConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	// UseHTTP talks to the HTTP interface (usually port 8123) instead of
	// the native protocol.
	UseHTTP bool
	// AsyncInsert lets the server buffer inserts. With WaitForAsync the
	// insert returns only after the buffer is flushed.
	AsyncInsert  bool
	WaitForAsync bool

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	PingTimeout     time.Duration
}

func defaultConfig() ClientConfig {
	return ClientConfig{
		Port:            9000,
		Database:        "default",
		User:            "default",
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 10 * time.Minute,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     10 * time.Second,
		PingTimeout:     5 * time.Second,
	}
}

func WithHost(host string) ClientOption {
	return func(c *ClientConfig) { c.Host = host }
}

func WithPort(port int) ClientOption {
	return func(c *ClientConfig) {
		if port > 0 {
			c.Port = port
		}
	}
}

func WithDatabase(database string) ClientOption {
	return func(c *ClientConfig) {
		if database != "" {
			c.Database = database
		}
	}
}

func WithCredentials(user, password string) ClientOption {
	return func(c *ClientConfig) {
		if user != "" {
			c.User = user
		}
		c.Password = password
	}
}

// WithTimeouts sets the dial and read timeouts; zero keeps a default.
func WithTimeouts(dial, read time.Duration) ClientOption {
	return func(c *ClientConfig) {
		if dial > 0 {
			c.DialTimeout = dial
		}
		if read > 0 {
			c.ReadTimeout = read
		}
	}
}

func WithHTTP(useHTTP bool) ClientOption {
	return func(c *ClientConfig) { c.UseHTTP = useHTTP }
}

func WithAsyncInsert(enabled, wait bool) ClientOption {
	return func(c *ClientConfig) {
		c.AsyncInsert = enabled
		c.WaitForAsync = wait
	}
}
