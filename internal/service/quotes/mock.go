package quotes

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"FinDash/internal/domain/models"
	"FinDash/internal/service/catalog"
)

const (
	// HistoryWindow is the number of daily closes in a mock history.
	HistoryWindow = 30

	// DefaultMockLatency emulates a network round trip.
	DefaultMockLatency = 600 * time.Millisecond

	mockMinPrice    = 50.0
	mockPriceSpan   = 200.0
	mockMaxDailyMov = 0.02
	mockSafeCut     = 0.3 // P(Safe) = 1 - mockSafeCut
	longTermFactor  = 0.95
)

// MockProvider synthesizes quotes from a seedable pseudo-random source.
type MockProvider struct {
	mu      sync.Mutex
	rnd     *rand.Rand
	latency time.Duration
}

// MockOption configures MockProvider.
type MockOption func(*mockConfig)

type mockConfig struct {
	seed    int64
	latency time.Duration
}

// WithSeed fixes the random seed. Zero keeps the time based seed.
func WithSeed(seed int64) MockOption {
	return func(c *mockConfig) {
		if seed != 0 {
			c.seed = seed
		}
	}
}

// WithLatency sets the artificial delay per batch. Zero disables it.
func WithLatency(d time.Duration) MockOption {
	return func(c *mockConfig) {
		c.latency = d
	}
}

// NewMockProvider creates a mock quote provider.
func NewMockProvider(opts ...MockOption) *MockProvider {
	cfg := &mockConfig{
		seed:    time.Now().UnixNano(),
		latency: DefaultMockLatency,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &MockProvider{
		rnd:     rand.New(rand.NewSource(cfg.seed)),
		latency: cfg.latency,
	}
}

// Mode implements repository.QuoteProvider.
func (m *MockProvider) Mode() string { return "mock" }

// GetQuotes returns one synthetic quote per symbol, in input order. The
// delay is cut short when ctx is done; quotes are still returned.
func (m *MockProvider) GetQuotes(ctx context.Context, symbols []string) []models.StockQuote {
	if m.latency > 0 {
		t := time.NewTimer(m.latency)
		select {
		case <-ctx.Done():
		case <-t.C:
		}
		t.Stop()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.StockQuote, 0, len(symbols))
	for _, sym := range symbols {
		out = append(out, m.quote(sym))
	}
	return out
}

func (m *MockProvider) quote(symbol string) models.StockQuote {
	isSafe := m.rnd.Float64() > mockSafeCut
	price := m.rnd.Float64()*mockPriceSpan + mockMinPrice

	// Walk backwards from today: prev = next / (1+U), U in [-2%, 2%].
	history := make([]float64, HistoryWindow)
	cur := price
	for i := HistoryWindow - 1; i >= 0; i-- {
		history[i] = cur
		u := m.rnd.Float64()*2*mockMaxDailyMov - mockMaxDailyMov
		cur = cur / (1 + u)
	}

	g := models.Guidance{Rating: models.RatingSafe, Action: "Good to hold"}
	if !isSafe {
		g.Action = "Wait for dip"
		if m.rnd.Float64() > 0.5 {
			g.Rating = models.RatingWatch
		} else {
			g.Rating = models.RatingAvoid
		}
	}

	return models.StockQuote{
		Symbol:      symbol,
		Name:        catalog.Name(symbol),
		Price:       price,
		LongTermAvg: price * longTermFactor,
		Guidance:    g,
		History:     history,
	}
}
