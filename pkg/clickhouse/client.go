// Package clickhouse opens a database/sql pool on ClickHouse and applies
// schema DDL.
package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/ClickHouse/clickhouse-go/v2"
)

type Client struct {
	db       *sql.DB
	database string
}

// NewClient opens the pool and pings once, so an unreachable server fails
// at startup rather than on the first insert.
func NewClient(ctx context.Context, opts ...ClientOption) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Host == "" {
		return nil, errors.New("clickhouse: host is required")
	}

	db := clickhouse.OpenDB(options(cfg))
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pctx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("clickhouse ping %s: %w", cfg.Host, err)
	}
	return &Client{db: db, database: cfg.Database}, nil
}

func options(cfg ClientConfig) *clickhouse.Options {
	o := &clickhouse.Options{
		Addr: []string{net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Protocol:    clickhouse.Native,
		DialTimeout: cfg.DialTimeout,
		ReadTimeout: cfg.ReadTimeout,
		Settings:    clickhouse.Settings{},
	}
	if cfg.UseHTTP {
		o.Protocol = clickhouse.HTTP
	}
	if cfg.AsyncInsert {
		o.Settings["async_insert"] = 1
		if cfg.WaitForAsync {
			o.Settings["wait_for_async_insert"] = 1
		}
	}
	return o
}

func (c *Client) DB() *sql.DB {
	return c.db
}

func (c *Client) Database() string {
	return c.database
}

// InitSchema executes idempotent DDL statements in order.
func (c *Client) InitSchema(ctx context.Context, stmts []string) error {
	for i, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clickhouse schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

func (c *Client) Close() error {
	return c.db.Close()
}
