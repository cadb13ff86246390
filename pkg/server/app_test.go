package server

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinDash/internal/domain/models"
	"FinDash/internal/service/quotes"
	"FinDash/internal/usecase"
	"FinDash/pkg/cache"
	xhttp "FinDash/pkg/http"
	pkgkafka "FinDash/pkg/kafka"
	applogger "FinDash/pkg/logger"
	"FinDash/pkg/metrics"
)

type staticSource struct{}

func (staticSource) Fetch(context.Context) (*models.Snapshot, error) {
	return &models.Snapshot{Timestamp: "2025-01-10T14:30:00Z", Symbol: "SPY"}, nil
}

func (staticSource) Location() string { return "static" }

func newTestApp(t *testing.T, comp Components) (*App, *usecase.SnapshotLoader, *usecase.WatchlistService) {
	t.Helper()
	return newLoggedTestApp(t, comp, applogger.Nop())
}

func newLoggedTestApp(t *testing.T, comp Components, log *applogger.Logger) (*App, *usecase.SnapshotLoader, *usecase.WatchlistService) {
	t.Helper()
	loader := usecase.NewSnapshotLoader(staticSource{}, metrics.Noop{}, log, usecase.WithInterval(time.Hour))
	wl := usecase.NewWatchlistService(quotes.NewMockProvider(quotes.WithSeed(3), quotes.WithLatency(0)), []string{"AAPL"}, log)
	archiver := usecase.NewArchiver(nil, usecase.ArchiveNone, metrics.Noop{}, log)
	srv := xhttp.NewServer(log, nil, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0))
	return New(log, srv, loader, wl, archiver, comp), loader, wl
}

func TestAppStartAndShutdown(t *testing.T) {
	mem := cache.NewMemoryCache()
	app, loader, wl := newTestApp(t, Components{Cache: mem})

	require.NoError(t, app.Start(context.Background()))

	assert.Eventually(t, func() bool { return loader.Current().Revision >= 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return wl.Current() != nil }, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, app.Shutdown(ctx))

	assert.NoError(t, mem.Close(), "close is idempotent")
}

func TestAppLogsWatchlistWarmupOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, err := applogger.New(&applogger.Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	app, _, wl := newLoggedTestApp(t, Components{}, log)
	require.NoError(t, app.Start(context.Background()))
	assert.Eventually(t, func() bool { return wl.Current() != nil }, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, app.Shutdown(ctx))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(raw), `"watchlist loaded"`))
}

func TestAppStartFailsWithoutConsumerHandlers(t *testing.T) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers([]string{"127.0.0.1:9092"}),
		pkgkafka.WithConsumerRegisterer(prometheus.NewRegistry()),
	)
	require.NoError(t, err)

	app, _, _ := newTestApp(t, Components{Consumer: consumer})
	assert.Error(t, app.Start(context.Background()))
}

func TestShutdownTimeoutDefault(t *testing.T) {
	log := applogger.Nop()
	app := &App{httpServer: xhttp.NewServer(log, nil, xhttp.WithTimeouts(time.Second, time.Second, 0))}
	assert.Equal(t, defaultShutdownTimeout, app.shutdownTimeout())
}
