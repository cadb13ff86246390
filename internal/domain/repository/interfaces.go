package repository

import (
	"context"
	"errors"

	"FinDash/internal/domain/models"
)

// ErrNoCredential is returned when no quote API key has been stored.
var ErrNoCredential = errors.New("credential not configured")

// SnapshotSource fetches the latest strategy snapshot.
type SnapshotSource interface {
	Fetch(ctx context.Context) (*models.Snapshot, error)
	Location() string
}

// QuoteProvider returns one quote per requested symbol, in input order.
type QuoteProvider interface {
	GetQuotes(ctx context.Context, symbols []string) []models.StockQuote
	Mode() string
}

// CredentialStore persists the quote API key.
type CredentialStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, key string) error
}

// SnapshotArchive keeps a copy of every applied snapshot.
type SnapshotArchive interface {
	Archive(ctx context.Context, s *models.Snapshot) error
	Close() error
}

// MarketHistory reads back archived market stats, newest first.
type MarketHistory interface {
	RecentMarket(ctx context.Context, limit int) ([]models.ArchivedMarket, error)
}

type Metrics interface {
	RecordRefresh(result string, seconds float64)
	RecordStaleDrop()
	RecordQuoteFetch(mode, result string)
	RecordQuoteFallback(symbol string)
	RecordPanicScore(score float64)
	RecordError(kind string)
}
