package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
)

func TestOptionsNative(t *testing.T) {
	cfg := defaultConfig()
	for _, opt := range []ClientOption{
		WithHost("ch.local"),
		WithPort(9440),
		WithDatabase("findash"),
		WithCredentials("svc", "p@ss:word"),
		WithTimeouts(2*time.Second, 0),
		WithAsyncInsert(true, true),
	} {
		opt(&cfg)
	}

	o := options(cfg)
	assert.Equal(t, []string{"ch.local:9440"}, o.Addr)
	assert.Equal(t, clickhouse.Native, o.Protocol)
	assert.Equal(t, clickhouse.Auth{Database: "findash", Username: "svc", Password: "p@ss:word"}, o.Auth)
	assert.Equal(t, 2*time.Second, o.DialTimeout)
	assert.Equal(t, 10*time.Second, o.ReadTimeout, "zero keeps the default")
	assert.Equal(t, 1, o.Settings["async_insert"])
	assert.Equal(t, 1, o.Settings["wait_for_async_insert"])
}

func TestOptionsHTTP(t *testing.T) {
	cfg := defaultConfig()
	WithHost("::1")(&cfg)
	WithHTTP(true)(&cfg)
	WithPort(8123)(&cfg)
	WithCredentials("", "")(&cfg)

	o := options(cfg)
	assert.Equal(t, clickhouse.HTTP, o.Protocol)
	assert.Equal(t, []string{"[::1]:8123"}, o.Addr)
	assert.Equal(t, "default", o.Auth.Username)
	assert.NotContains(t, o.Settings, "async_insert")
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient(context.Background())
	assert.Error(t, err)
}
