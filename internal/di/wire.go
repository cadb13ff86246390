//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"FinDash/pkg/config"
	"FinDash/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideRegistry,
		ProvideMetrics,
		ProvideKafkaProducer,
		ProvideLogger,

		// Credentials and quotes
		ProvideCache,
		ProvideCredentialStore,
		ProvideQuoteProvider,

		// Snapshot pipeline
		ProvideKafkaSource,
		ProvideSnapshotSource,
		ProvideKafkaConsumer,
		ProvideClickHouseClient,
		ProvideArchiver,
		ProvideMarketHistory,
		ProvideSnapshotLoader,
		ProvideWatcher,

		// HTTP
		ProvideWatchlist,
		ProvideReloadLimiter,
		ProvideHandlers,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
