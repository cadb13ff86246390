package quotes

import (
	"context"

	"golang.org/x/sync/errgroup"

	"FinDash/internal/domain/models"
	"FinDash/internal/domain/repository"
	"FinDash/internal/service/catalog"
	"FinDash/internal/service/finnhub"
	applogger "FinDash/pkg/logger"
)

// QuoteFetcher is the slice of the Finnhub client the live provider needs.
type QuoteFetcher interface {
	Quote(ctx context.Context, symbol, token string) (*finnhub.Quote, error)
}

// LiveProvider fetches quotes from Finnhub, one request per symbol.
type LiveProvider struct {
	client   QuoteFetcher
	creds    repository.CredentialStore
	fallback *MockProvider
	metrics  repository.Metrics
	logger   *applogger.Logger
}

// NewLiveProvider creates a live provider. fallback serves the whole batch
// when no credential is stored and single symbols whose fetch failed.
func NewLiveProvider(
	client QuoteFetcher,
	creds repository.CredentialStore,
	fallback *MockProvider,
	metrics repository.Metrics,
	logger *applogger.Logger,
) *LiveProvider {
	return &LiveProvider{
		client:   client,
		creds:    creds,
		fallback: fallback,
		metrics:  metrics,
		logger:   logger,
	}
}

// Mode implements repository.QuoteProvider.
func (p *LiveProvider) Mode() string { return "live" }

// GetQuotes fetches all symbols in parallel and joins before returning.
// A failed symbol is replaced by a mock quote; siblings are unaffected.
func (p *LiveProvider) GetQuotes(ctx context.Context, symbols []string) []models.StockQuote {
	token, err := p.creds.Get(ctx)
	if err != nil || token == "" {
		p.logger.Warn("no API key found, reverting to mock")
		p.metrics.RecordQuoteFetch("live", "no_credential")
		return p.fallback.GetQuotes(ctx, symbols)
	}

	out := make([]models.StockQuote, len(symbols))
	var g errgroup.Group
	for i, sym := range symbols {
		i, sym := i, sym
		g.Go(func() error {
			out[i] = p.fetchOne(ctx, sym, token)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (p *LiveProvider) fetchOne(ctx context.Context, symbol, token string) models.StockQuote {
	q, err := p.client.Quote(ctx, symbol, token)
	if err != nil {
		p.logger.Warn("quote fetch failed, using mock",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		p.metrics.RecordQuoteFetch("live", "error")
		p.metrics.RecordQuoteFallback(symbol)
		return p.fallback.GetQuotes(ctx, []string{symbol})[0]
	}
	p.metrics.RecordQuoteFetch("live", "ok")
	return FromFinnhub(symbol, q)
}

// FromFinnhub derives a watchlist quote from a Finnhub quote. There is no
// historical endpoint wired, so History is always empty.
func FromFinnhub(symbol string, q *finnhub.Quote) models.StockQuote {
	g := models.Guidance{Rating: models.RatingWatch, Action: "Price is Pulling Back"}
	if q.Current >= q.PrevClose {
		g = models.Guidance{Rating: models.RatingSafe, Action: "Trend is Positive"}
	}
	return models.StockQuote{
		Symbol:      symbol,
		Name:        catalog.Name(symbol),
		Price:       q.Current,
		LongTermAvg: q.PrevClose,
		Guidance:    g,
		History:     []float64{},
	}
}
