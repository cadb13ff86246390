package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"FinDash/internal/domain/models"
	domrepo "FinDash/internal/domain/repository"
	"FinDash/pkg/cache"
)

func TestCredentialStoreRoundTrip(t *testing.T) {
	c := cache.NewMemoryCache()
	defer c.Close()
	store := NewCredentialStore(c)
	ctx := context.Background()

	_, err := store.Get(ctx)
	assert.ErrorIs(t, err, domrepo.ErrNoCredential)

	require.NoError(t, store.Set(ctx, "  abcdef123  "))
	key, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abcdef123", key)

	assert.Error(t, store.Set(ctx, "   "))
	key, err = store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abcdef123", key, "rejected value must not overwrite")
}

func TestCredentialStoreEmptyValueIsMissing(t *testing.T) {
	c := cache.NewMemoryCache()
	defer c.Close()
	require.NoError(t, c.Set(context.Background(), CredentialKey, "", 0))

	_, err := NewCredentialStore(c).Get(context.Background())
	assert.ErrorIs(t, err, domrepo.ErrNoCredential)
}

type fakeResult struct{}

func (fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (fakeResult) RowsAffected() (int64, error) { return 1, nil }

type execCall struct {
	query string
	args  []any
}

type fakeDB struct {
	calls []execCall
	err   error
}

func (f *fakeDB) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	f.calls = append(f.calls, execCall{query: query, args: args})
	if f.err != nil {
		return nil, f.err
	}
	return fakeResult{}, nil
}

func (f *fakeDB) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, errors.New("not supported")
}

func sampleSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Timestamp:   "2025-01-10T14:30:00Z",
		Symbol:      "SPY",
		MarketStats: &models.MarketStats{Price: 481.2, ChangePct: -0.4, Volume: 12_000_000, PanicScore: 0.62},
		BestBet:     &models.StrategyBet{StrategyName: "mean_reversion", Prediction: models.Prediction{Confidence: 71}},
		Verdict:     &models.Verdict{Text: "BLOCKED: panic too high", Blocked: true},
	}
}

func TestClickHouseArchiveInsertsRow(t *testing.T) {
	db := &fakeDB{}
	a := NewClickHouseArchive(db, "findash", nil)

	require.NoError(t, a.Archive(context.Background(), sampleSnapshot()))
	require.Len(t, db.calls, 1)

	call := db.calls[0]
	assert.Contains(t, call.query, "INSERT INTO findash.market_snapshots")
	require.Len(t, call.args, 12)
	assert.Equal(t, time.Date(2025, 1, 10, 14, 30, 0, 0, time.UTC), call.args[0])
	assert.Equal(t, "SPY", call.args[1])
	assert.Equal(t, 0.62, call.args[5])
	assert.Equal(t, "HIGH (Fear)", call.args[6])
	assert.Equal(t, "BLOCKED: panic too high", call.args[7])
	assert.Equal(t, uint8(1), call.args[8])
	assert.Equal(t, "mean_reversion", call.args[9])
	assert.Equal(t, 71.0, call.args[10])

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(call.args[11].(string)), &payload))
	assert.Equal(t, "SPY", payload["symbol"])
}

func TestClickHouseArchiveDefaults(t *testing.T) {
	db := &fakeDB{}
	a := NewClickHouseArchive(db, "findash", nil)
	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	require.NoError(t, a.Archive(context.Background(), &models.Snapshot{}))
	assert.Empty(t, db.calls, "no market stats, nothing to store")

	require.NoError(t, a.Archive(context.Background(), &models.Snapshot{
		Timestamp:   "not a time",
		MarketStats: &models.MarketStats{PanicScore: 0.1},
	}))
	require.Len(t, db.calls, 1)
	args := db.calls[0].args
	assert.Equal(t, now, args[0])
	assert.Equal(t, models.DefaultVerdict, args[7])
	assert.Equal(t, uint8(0), args[8])
	assert.Equal(t, "", args[9])
}

func TestClickHouseArchiveInsertError(t *testing.T) {
	db := &fakeDB{err: errors.New("connection refused")}
	err := NewClickHouseArchive(db, "findash", nil).Archive(context.Background(), sampleSnapshot())
	assert.ErrorContains(t, err, "connection refused")
}

func TestClickHouseRecentMarketLimit(t *testing.T) {
	a := NewClickHouseArchive(&fakeDB{}, "findash", nil)
	rows, err := a.RecentMarket(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = a.RecentMarket(context.Background(), 10)
	assert.Error(t, err)
}

func TestMarketSchema(t *testing.T) {
	stmts := MarketSchema("findash")
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "CREATE DATABASE IF NOT EXISTS findash")
	assert.Contains(t, stmts[1], "findash.market_snapshots")
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	return m.Called(topic, string(key), value).Error(0)
}

func TestKafkaArchivePublishesBySymbol(t *testing.T) {
	snap := sampleSnapshot()
	p := &mockPublisher{}
	p.On("Publish", "findash.snapshots", "SPY", snap).Return(nil).Once()

	a := NewKafkaArchive(p, "findash.snapshots")
	require.NoError(t, a.Archive(context.Background(), snap))
	require.NoError(t, a.Archive(context.Background(), nil))
	require.NoError(t, a.Close())
	p.AssertExpectations(t)
}

func TestKafkaArchivePropagatesError(t *testing.T) {
	p := &mockPublisher{}
	p.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	err := NewKafkaArchive(p, "t").Archive(context.Background(), sampleSnapshot())
	assert.EqualError(t, err, "broker down")
}
