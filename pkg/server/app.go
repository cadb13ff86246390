package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FinDash/internal/service/snapshot"
	"FinDash/internal/usecase"
	"FinDash/pkg/cache"
	pkgch "FinDash/pkg/clickhouse"
	xhttp "FinDash/pkg/http"
	pkgkafka "FinDash/pkg/kafka"
	applogger "FinDash/pkg/logger"
)

const defaultShutdownTimeout = 15 * time.Second

// App encapsulates the entire application lifecycle.
type App struct {
	logger     *applogger.Logger
	httpServer *xhttp.Server
	loader     *usecase.SnapshotLoader
	watchlist  *usecase.WatchlistService
	archiver   *usecase.Archiver

	// Optional; nil when not configured.
	watcher  *snapshot.Watcher
	consumer *pkgkafka.Consumer
	producer *pkgkafka.Producer
	chClient *pkgch.Client
	cache    cache.Service

	cancel context.CancelFunc
}

// Components groups the optional infrastructure owned by the App. The App
// closes each of them on shutdown.
type Components struct {
	Watcher    *snapshot.Watcher
	Consumer   *pkgkafka.Consumer
	Producer   *pkgkafka.Producer
	ClickHouse *pkgch.Client
	Cache      cache.Service
}

// New creates a new App instance with all dependencies.
func New(
	logger *applogger.Logger,
	httpServer *xhttp.Server,
	loader *usecase.SnapshotLoader,
	watchlist *usecase.WatchlistService,
	archiver *usecase.Archiver,
	comp Components,
) *App {
	return &App{
		logger:     logger,
		httpServer: httpServer,
		loader:     loader,
		watchlist:  watchlist,
		archiver:   archiver,
		watcher:    comp.Watcher,
		consumer:   comp.Consumer,
		producer:   comp.Producer,
		chClient:   comp.ClickHouse,
		cache:      comp.Cache,
	}
}

// Run starts the application and blocks until interrupted or the HTTP
// server fails.
func (a *App) Run() error {
	if err := a.Start(context.Background()); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		a.logger.Info("shutdown signal received", applogger.String("signal", sig.String()))
	case runErr = <-a.httpServer.Errors():
		a.logger.Error("http server error", applogger.Error(runErr))
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()
	return errors.Join(runErr, a.Shutdown(ctx))
}

// Start launches the background workers and the HTTP server.
func (a *App) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)

	a.loader.Start(ctx)

	if a.watcher != nil {
		a.watcher.Start(ctx)
	}

	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			a.logger.Error("kafka consumer start error", applogger.Error(err))
			a.cancel()
			a.loader.Stop()
			return err
		}
	}

	// Warm the watchlist so the first page view does not wait on quotes.
	go a.watchlist.Load(ctx, nil)

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("findash started",
		applogger.String("addr", a.httpServer.Addr()),
		applogger.String("source", a.loader.Source()),
		applogger.String("archive", a.archiver.Backend()),
	)
	return nil
}

// Shutdown gracefully stops all services. Producers of work stop before
// the sinks they write to are closed.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")
	var errs []error

	if err := a.httpServer.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}

	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			a.logger.Warn("snapshot watcher close error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.logger.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.cancel != nil {
		a.cancel()
	}
	a.loader.Stop()

	if err := a.archiver.Close(); err != nil {
		a.logger.Warn("archiver close error", applogger.Error(err))
	}

	// Flushes aggregated log lines through the producer closed below.
	a.logger.RemoveCollector()

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("cache close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return errors.Join(errs...)
}

func (a *App) shutdownTimeout() time.Duration {
	if d := a.httpServer.ShutdownTimeout(); d > 0 {
		return d
	}
	return defaultShutdownTimeout
}
