package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinDash/internal/domain/models"
	domrepo "FinDash/internal/domain/repository"
	"FinDash/internal/repository"
	"FinDash/internal/service/quotes"
	"FinDash/internal/service/ratelimit"
	"FinDash/internal/usecase"
	"FinDash/pkg/cache"
	xhttp "FinDash/pkg/http"
	applogger "FinDash/pkg/logger"
	"FinDash/pkg/metrics"
)

type stubSource struct {
	snap atomic.Pointer[models.Snapshot]
	fail atomic.Bool
}

func (s *stubSource) Fetch(context.Context) (*models.Snapshot, error) {
	if s.fail.Load() {
		return nil, errors.New("source unreachable")
	}
	return s.snap.Load(), nil
}

func (s *stubSource) Location() string { return "test://snapshot" }

type stubHistory struct {
	rows []models.ArchivedMarket
	err  error
}

func (h stubHistory) RecentMarket(_ context.Context, limit int) ([]models.ArchivedMarket, error) {
	if h.err != nil {
		return nil, h.err
	}
	if limit < len(h.rows) {
		return h.rows[:limit], nil
	}
	return h.rows, nil
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type fixture struct {
	e      *echo.Echo
	source *stubSource
	loader *usecase.SnapshotLoader
	store  domrepo.CredentialStore
}

func sampleSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Timestamp:   "2025-01-10T14:30:00Z",
		Symbol:      "SPY",
		MarketStats: &models.MarketStats{Price: 480.5, ChangePct: 0.8, Volume: 2_500_000, PanicScore: 0.2},
		Verdict:     &models.Verdict{Text: "APPROVED"},
	}
}

func newFixture(t *testing.T, history domrepo.MarketHistory, limiter *ratelimit.Limiter) *fixture {
	t.Helper()
	log := applogger.Nop()
	src := &stubSource{}
	src.snap.Store(sampleSnapshot())

	loader := usecase.NewSnapshotLoader(src, metrics.Noop{}, log)
	t.Cleanup(loader.Stop)

	fc, err := cache.NewFileCache(filepath.Join(t.TempDir(), "credentials.yaml"))
	require.NoError(t, err)
	store := repository.NewCredentialStore(fc)

	provider := quotes.NewMockProvider(quotes.WithSeed(7), quotes.WithLatency(0))
	wl := usecase.NewWatchlistService(provider, []string{"AAPL", "MSFT"}, log)

	s := xhttp.NewServer(log, []xhttp.Handler{
		NewHealthHandler(loader, provider.Mode(), usecase.ArchiveNone),
		NewDashboardHandler(log, loader, history),
		NewWatchlistHandler(log, wl, limiter, cache.NewMemoryCache(cache.WithMemoryMaxSize(8))),
		NewSettingsHandler(log, store, provider.Mode(), true),
		NewStreamHandler(log, loader),
	})
	return &fixture{e: s.Echo(), source: src, loader: loader, store: store}
}

func (f *fixture) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req.Header.Set(echo.HeaderXRealIP, "192.0.2.10")
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil, nil)
	rec, env := f.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var h models.Health
	require.NoError(t, json.Unmarshal(env.Data, &h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "mock", h.QuoteMode)
	assert.Equal(t, "test://snapshot", h.Source)
	assert.Equal(t, uint64(0), h.Revision)
	assert.Equal(t, "none", h.Archive)
}

func TestDashboardTabs(t *testing.T) {
	f := newFixture(t, nil, nil)

	rec, env := f.do(t, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var state models.DashboardState
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.Equal(t, "CALM", state.Market.PanicLevel)
	assert.Equal(t, "no-store", rec.Header().Get(echo.HeaderCacheControl))

	rec, env = f.do(t, http.MethodGet, "/api/dashboard?tab=BRAIN", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var brain map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &brain))
	assert.Contains(t, brain, "logs")
	assert.NotContains(t, brain, "market")

	rec, env = f.do(t, http.MethodGet, "/api/dashboard?tab=SETTINGS", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env.Data), "ERR_ONEOF")
}

func TestRefreshAndSnapshot(t *testing.T) {
	f := newFixture(t, nil, nil)

	rec, _ := f.do(t, http.MethodGet, "/api/snapshot", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env := f.do(t, http.MethodPost, "/api/dashboard/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var state models.DashboardState
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.Equal(t, uint64(1), state.Revision)
	assert.Equal(t, "APPROVED", state.Consultant.Verdict)

	rec, env = f.do(t, http.MethodGet, "/api/snapshot", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap models.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, "SPY", snap.Symbol)

	f.source.fail.Store(true)
	rec, env = f.do(t, http.MethodPost, "/api/dashboard/refresh", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, string(env.Data), "ERR_UPSTREAM")
	assert.NotContains(t, string(env.Data), "source unreachable")
	assert.Equal(t, uint64(1), f.loader.Current().Revision, "failed refresh keeps the state")
}

func TestHistory(t *testing.T) {
	rec, _ := newFixture(t, nil, nil).do(t, http.MethodGet, "/api/history", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rows := []models.ArchivedMarket{{Symbol: "SPY", Price: 1}, {Symbol: "SPY", Price: 2}, {Symbol: "SPY", Price: 3}}
	f := newFixture(t, stubHistory{rows: rows}, nil)
	rec, env := f.do(t, http.MethodGet, "/api/history?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Rows  []models.ArchivedMarket `json:"rows"`
		Total int64                   `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list.Rows, 2)
	assert.Equal(t, int64(2), list.Total)

	rec, _ = f.do(t, http.MethodGet, "/api/history?limit=5000", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f = newFixture(t, stubHistory{err: errors.New("ch down")}, nil)
	rec, _ = f.do(t, http.MethodGet, "/api/history", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestWatchlistLoadReloadAndLimit(t *testing.T) {
	f := newFixture(t, nil, ratelimit.PerMinute(1))

	rec, env := f.do(t, http.MethodGet, "/api/watchlist", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var wl usecase.Watchlist
	require.NoError(t, json.Unmarshal(env.Data, &wl))
	require.Len(t, wl.Cards, 2)
	assert.Equal(t, "AAPL", wl.Cards[0].Symbol)
	assert.Equal(t, "mock", wl.Mode)
	assert.NotEmpty(t, wl.Cards[0].Badge)

	rec, env = f.do(t, http.MethodGet, "/api/watchlist?reload=true&symbols=nvda,%20tsla", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &wl))
	require.Len(t, wl.Cards, 2)
	assert.Equal(t, "NVDA", wl.Cards[0].Symbol)
	assert.Equal(t, "TSLA", wl.Cards[1].Symbol)

	rec, env = f.do(t, http.MethodGet, "/api/watchlist?reload=true", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, string(env.Data), "ERR_RATE_LIMITED")

	rec, _ = f.do(t, http.MethodGet, "/api/watchlist", "")
	assert.Equal(t, http.StatusOK, rec.Code, "plain reads are not limited")
}

func TestWatchlistRejectsBadSymbols(t *testing.T) {
	f := newFixture(t, nil, nil)

	rec, env := f.do(t, http.MethodGet, "/api/watchlist?reload=true&symbols=AAPL,%24%24%24", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env.Data), "symbols")
}

func TestChart(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.do(t, http.MethodGet, "/api/watchlist", "")

	rec, _ := f.do(t, http.MethodGet, "/watchlist/chart/aapl", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMETextHTML))
	first := rec.Body.String()
	assert.Contains(t, first, "echarts")

	rec, _ = f.do(t, http.MethodGet, "/watchlist/chart/AAPL", "")
	assert.Equal(t, first, rec.Body.String())

	rec, _ = f.do(t, http.MethodGet, "/watchlist/chart/ZZZZ", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSettingsAPIKey(t *testing.T) {
	f := newFixture(t, nil, nil)

	rec, env := f.do(t, http.MethodGet, "/api/settings/api-key", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status models.APIKeyStatus
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.False(t, status.Configured)
	assert.Equal(t, "mock", status.Mode)

	rec, env = f.do(t, http.MethodPut, "/api/settings/api-key", `{"key":"short"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env.Data), "ERR_MIN")

	rec, env = f.do(t, http.MethodPut, "/api/settings/api-key", `{"key":"         "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	const key = "c0ffee-secret-key"
	rec, env = f.do(t, http.MethodPut, "/api/settings/api-key", `{"key":"`+key+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.True(t, status.Configured)
	assert.True(t, status.RestartRequired)
	assert.True(t, status.Persisted)
	assert.NotContains(t, rec.Body.String(), key)

	stored, err := f.store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, key, stored)

	rec, env = f.do(t, http.MethodGet, "/api/settings/api-key", "")
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.True(t, status.Configured)
	assert.NotContains(t, rec.Body.String(), key)
}

func TestSettingsAPIKeyInMemoryIsNotPersisted(t *testing.T) {
	mem := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mem.Close() })
	s := xhttp.NewServer(applogger.Nop(), []xhttp.Handler{
		NewSettingsHandler(applogger.Nop(), repository.NewCredentialStore(mem), "mock", false),
	})

	req := httptest.NewRequest(http.MethodPut, "/api/settings/api-key", strings.NewReader(`{"key":"c0ffee-secret-key"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var status models.APIKeyStatus
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.True(t, status.Configured)
	assert.False(t, status.Persisted)
	assert.False(t, status.RestartRequired, "a restart would discard the key")
}

func TestStreamPushesStates(t *testing.T) {
	f := newFixture(t, nil, nil)
	srv := httptest.NewServer(f.e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/dashboard"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var state models.DashboardState
	require.NoError(t, conn.ReadJSON(&state))
	assert.Equal(t, uint64(0), state.Revision)

	// The handler subscribes before sending the first state, so this
	// refresh is always delivered.
	_, err = f.loader.Refresh(context.Background())
	require.NoError(t, err)

	require.NoError(t, conn.ReadJSON(&state))
	assert.Equal(t, uint64(1), state.Revision)
	assert.Equal(t, "SPY", state.Symbol)
}
