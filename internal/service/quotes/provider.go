// Package quotes implements the watchlist data adapters: a seeded mock
// generator and a live Finnhub adapter that degrades to the mock.
package quotes

import (
	"context"

	"FinDash/internal/domain/repository"
	applogger "FinDash/pkg/logger"
)

// NewProvider selects live or mock mode once, from whether a credential is
// stored at startup. The choice holds until the process restarts.
func NewProvider(
	ctx context.Context,
	creds repository.CredentialStore,
	client QuoteFetcher,
	mock *MockProvider,
	metrics repository.Metrics,
	logger *applogger.Logger,
) repository.QuoteProvider {
	key, err := creds.Get(ctx)
	if err != nil || key == "" {
		logger.Info("quote mode selected", applogger.String("mode", mock.Mode()))
		return mock
	}
	live := NewLiveProvider(client, creds, mock, metrics, logger)
	logger.Info("quote mode selected", applogger.String("mode", live.Mode()))
	return live
}
