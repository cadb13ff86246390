package usecase

import (
	"context"
	"sync/atomic"
	"time"

	"FinDash/internal/domain/models"
	drepo "FinDash/internal/domain/repository"
	"FinDash/internal/service/catalog"
	applogger "FinDash/pkg/logger"
)

// WatchlistCard is one rendered watchlist entry.
type WatchlistCard struct {
	models.StockQuote
	Badge      string `json:"badge"`
	ChartColor string `json:"chart_color"`
}

// Watchlist is the result of one load.
type Watchlist struct {
	Mode     string          `json:"mode"`
	LoadedAt time.Time       `json:"loaded_at"`
	Cards    []WatchlistCard `json:"cards"`
}

// WatchlistService loads quotes for the legacy watchlist view and keeps
// the latest result.
type WatchlistService struct {
	provider drepo.QuoteProvider
	symbols  []string
	logger   *applogger.Logger
	current  atomic.Pointer[Watchlist]
}

// NewWatchlistService creates the service. An empty symbols list uses the
// catalog default.
func NewWatchlistService(provider drepo.QuoteProvider, symbols []string, logger *applogger.Logger) *WatchlistService {
	if len(symbols) == 0 {
		symbols = catalog.DefaultWatchlist
	}
	return &WatchlistService{provider: provider, symbols: symbols, logger: logger}
}

// Symbols returns the configured watchlist.
func (s *WatchlistService) Symbols() []string { return s.symbols }

// Mode reports whether quotes are mock or live.
func (s *WatchlistService) Mode() string { return s.provider.Mode() }

// Load fetches quotes for symbols, or for the configured list when symbols
// is empty, and replaces the current watchlist.
func (s *WatchlistService) Load(ctx context.Context, symbols []string) *Watchlist {
	if len(symbols) == 0 {
		symbols = s.symbols
	}
	quotes := s.provider.GetQuotes(ctx, symbols)

	wl := &Watchlist{
		Mode:     s.provider.Mode(),
		LoadedAt: time.Now(),
		Cards:    make([]WatchlistCard, 0, len(quotes)),
	}
	for _, q := range quotes {
		wl.Cards = append(wl.Cards, WatchlistCard{
			StockQuote: q,
			Badge:      q.Guidance.Rating.BadgeClass(),
			ChartColor: q.Guidance.Rating.ChartColor(),
		})
	}
	s.current.Store(wl)
	s.logger.Info("watchlist loaded",
		applogger.String("mode", wl.Mode),
		applogger.Int("symbols", len(wl.Cards)),
	)
	return wl
}

// Current returns the last loaded watchlist, or nil before the first load.
func (s *WatchlistService) Current() *Watchlist {
	return s.current.Load()
}

// Quote finds a symbol in the current watchlist.
func (s *WatchlistService) Quote(symbol string) (models.StockQuote, bool) {
	wl := s.current.Load()
	if wl == nil {
		return models.StockQuote{}, false
	}
	for _, c := range wl.Cards {
		if c.Symbol == symbol {
			return c.StockQuote, true
		}
	}
	return models.StockQuote{}, false
}
