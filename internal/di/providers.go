package di

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	drepo "FinDash/internal/domain/repository"
	"FinDash/internal/handler/api"
	"FinDash/internal/repository"
	"FinDash/internal/service/finnhub"
	"FinDash/internal/service/quotes"
	"FinDash/internal/service/ratelimit"
	"FinDash/internal/service/snapshot"
	"FinDash/internal/usecase"
	"FinDash/pkg/cache"
	pkgch "FinDash/pkg/clickhouse"
	"FinDash/pkg/config"
	xhttp "FinDash/pkg/http"
	pkgkafka "FinDash/pkg/kafka"
	applogger "FinDash/pkg/logger"
	"FinDash/pkg/metrics"
	"FinDash/pkg/server"
)

const startupTimeout = 10 * time.Second

// ProvideRegistry creates the process-wide Prometheus registry.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) drepo.Metrics {
	return metrics.New(reg)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when no brokers
// are configured.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithAutoCreateTopic(cfg.Environment != "production"),
		pkgkafka.WithProducerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogger builds the application logger. Warn and error lines are
// aggregated and shipped to logging.collect_topic when a producer exists.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil && cfg.Logging.CollectTopic != "" {
		host, _ := os.Hostname()
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Logging.CollectTopic,
			Source:         "findash@" + host,
			Publisher:      producer,
		})
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideCache creates the credential cache: a YAML file, in-process only,
// or Redis with an in-process L1 in front.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, error) {
	switch cfg.Credentials.Backend {
	case "memory":
		l.Warn("credential store in memory, a stored api key is lost on restart")
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(64)), nil
	case "redis":
	default:
		fc, err := cache.NewFileCache(cfg.Credentials.Path)
		if err != nil {
			return nil, fmt.Errorf("file cache: %w", err)
		}
		l.Info("credential store on file", applogger.String("path", fc.Path()))
		return fc, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("credential store on redis", applogger.String("addr", cfg.Redis.Addr))
	return cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(64)), nil
}

// ProvideCredentialStore wraps the cache and stores the configured seed
// key, if any.
func ProvideCredentialStore(cfg *config.Config, c cache.Service) (drepo.CredentialStore, error) {
	store := repository.NewCredentialStore(c)
	if key := strings.TrimSpace(cfg.Credentials.Key); key != "" {
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()
		if err := store.Set(ctx, key); err != nil {
			return nil, fmt.Errorf("seed api key: %w", err)
		}
	}
	return store, nil
}

// ProvideQuoteProvider picks live or mock quotes once, at startup.
func ProvideQuoteProvider(
	cfg *config.Config,
	creds drepo.CredentialStore,
	m drepo.Metrics,
	l *applogger.Logger,
) drepo.QuoteProvider {
	mock := quotes.NewMockProvider(
		quotes.WithSeed(cfg.Quotes.MockSeed),
		quotes.WithLatency(cfg.Quotes.MockLatency),
	)
	client := finnhub.New(cfg.Quotes.Finnhub.BaseURL, cfg.Quotes.Timeout)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	return quotes.NewProvider(ctx, creds, client, mock, m, l)
}

// ProvideKafkaSource returns the topic-backed snapshot source, or nil
// unless snapshot.source is a kafka:// location.
func ProvideKafkaSource(cfg *config.Config) *snapshot.KafkaSource {
	kind, topic := snapshot.ParseLocation(cfg.Snapshot.Source)
	if kind != snapshot.KindKafka {
		return nil
	}
	return snapshot.NewKafkaSource(topic)
}

// ProvideSnapshotSource selects the source the loader polls.
func ProvideSnapshotSource(cfg *config.Config, ks *snapshot.KafkaSource) (drepo.SnapshotSource, error) {
	if ks != nil {
		return ks, nil
	}
	src, err := snapshot.NewSource(cfg.Snapshot.Source, cfg.Snapshot.Timeout)
	if err != nil {
		return nil, fmt.Errorf("snapshot source: %w", err)
	}
	return src, nil
}

// ProvideKafkaConsumer creates a consumer feeding the kafka snapshot
// source, or nil when snapshots are not read from kafka.
func ProvideKafkaConsumer(
	cfg *config.Config,
	ks *snapshot.KafkaSource,
	reg *prometheus.Registry,
	m drepo.Metrics,
	l *applogger.Logger,
) (*pkgkafka.Consumer, error) {
	if ks == nil {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerRegisterer(reg),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(
		pkgkafka.TracingHook(),
		pkgkafka.LoggingHook(l, func(string) { m.RecordError("kafka_consume") }),
	))
	consumer.RegisterHandler(ks)
	return consumer, nil
}

// ProvideClickHouseClient connects and prepares the archive schema, or
// returns nil unless archive.backend is clickhouse.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Archive.Backend != usecase.ArchiveClickHouse {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, true),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	if err := client.InitSchema(ctx, repository.MarketSchema(client.Database())); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideArchiver selects the archive sink for archive.backend.
func ProvideArchiver(
	cfg *config.Config,
	producer *pkgkafka.Producer,
	ch *pkgch.Client,
	m drepo.Metrics,
	l *applogger.Logger,
) (*usecase.Archiver, error) {
	var sink drepo.SnapshotArchive
	switch cfg.Archive.Backend {
	case usecase.ArchiveKafka:
		if producer == nil {
			return nil, fmt.Errorf("archive backend kafka needs kafka.brokers")
		}
		sink = repository.NewKafkaArchive(producer, cfg.Kafka.Topic)
	case usecase.ArchiveClickHouse:
		sink = repository.NewClickHouseArchive(ch.DB(), ch.Database(), l)
	}
	return usecase.NewArchiver(sink, cfg.Archive.Backend, m, l), nil
}

// ProvideMarketHistory exposes archived market rows when the archive is
// queryable.
func ProvideMarketHistory(ch *pkgch.Client, l *applogger.Logger) drepo.MarketHistory {
	if ch == nil {
		return nil
	}
	return repository.NewClickHouseArchive(ch.DB(), ch.Database(), l)
}

// ProvideSnapshotLoader creates the loader and lets a kafka source push
// refreshes as messages arrive.
func ProvideSnapshotLoader(
	cfg *config.Config,
	src drepo.SnapshotSource,
	ks *snapshot.KafkaSource,
	archiver *usecase.Archiver,
	m drepo.Metrics,
	l *applogger.Logger,
) *usecase.SnapshotLoader {
	loader := usecase.NewSnapshotLoader(src, m, l,
		usecase.WithInterval(cfg.Snapshot.RefreshInterval),
		usecase.WithRefreshTimeout(cfg.Snapshot.Timeout),
		usecase.WithArchiver(archiver),
	)
	if ks != nil {
		ks.OnUpdate(loader.Trigger)
	}
	return loader
}

// ProvideWatcher watches a file source for changes. A watcher that cannot
// be created only costs latency, so it is logged and skipped.
func ProvideWatcher(cfg *config.Config, loader *usecase.SnapshotLoader, l *applogger.Logger) *snapshot.Watcher {
	kind, path := snapshot.ParseLocation(cfg.Snapshot.Source)
	if !cfg.Snapshot.Watch || kind != snapshot.KindFile {
		return nil
	}
	w, err := snapshot.NewWatcher(path, loader.Trigger, l)
	if err != nil {
		l.Warn("snapshot watcher disabled, polling only", applogger.String("path", path), applogger.Error(err))
		return nil
	}
	return w
}

// ProvideWatchlist creates the watchlist service.
func ProvideWatchlist(cfg *config.Config, provider drepo.QuoteProvider, l *applogger.Logger) *usecase.WatchlistService {
	return usecase.NewWatchlistService(provider, cfg.Quotes.Watchlist, l)
}

// ProvideReloadLimiter limits watchlist reloads, or returns nil when the
// limit is disabled.
func ProvideReloadLimiter(cfg *config.Config) *ratelimit.Limiter {
	if cfg.RateLimit.ReloadsPerMinute <= 0 {
		return nil
	}
	return ratelimit.PerMinute(cfg.RateLimit.ReloadsPerMinute)
}

// ProvideHandlers builds every HTTP handler.
func ProvideHandlers(
	cfg *config.Config,
	l *applogger.Logger,
	loader *usecase.SnapshotLoader,
	history drepo.MarketHistory,
	watchlist *usecase.WatchlistService,
	limiter *ratelimit.Limiter,
	creds drepo.CredentialStore,
	provider drepo.QuoteProvider,
	archiver *usecase.Archiver,
) []xhttp.Handler {
	return []xhttp.Handler{
		api.NewHealthHandler(loader, provider.Mode(), archiver.Backend()),
		api.NewDashboardHandler(l, loader, history),
		api.NewWatchlistHandler(l, watchlist, limiter, cache.NewMemoryCache(cache.WithMemoryMaxSize(256))),
		api.NewSettingsHandler(l, creds, provider.Mode(), cfg.Credentials.Backend != "memory"),
		api.NewStreamHandler(l, loader),
	}
}

// ProvideHTTPServer creates the HTTP server.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, handlers []xhttp.Handler, reg *prometheus.Registry) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(true, cfg.Server.AllowOrigins),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(reg, cfg.Metrics.Path))
	}
	return xhttp.NewServer(l, handlers, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	l *applogger.Logger,
	srv *xhttp.Server,
	loader *usecase.SnapshotLoader,
	watchlist *usecase.WatchlistService,
	archiver *usecase.Archiver,
	watcher *snapshot.Watcher,
	consumer *pkgkafka.Consumer,
	producer *pkgkafka.Producer,
	ch *pkgch.Client,
	c cache.Service,
) *server.App {
	return server.New(l, srv, loader, watchlist, archiver, server.Components{
		Watcher:    watcher,
		Consumer:   consumer,
		Producer:   producer,
		ClickHouse: ch,
		Cache:      c,
	})
}
