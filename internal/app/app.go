// Package app provides the main application lifecycle management for the
// ingest worker service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/newsdesk/ingest-router/internal/archive"
	"github.com/newsdesk/ingest-router/internal/config"
	"github.com/newsdesk/ingest-router/internal/database"
	"github.com/newsdesk/ingest-router/internal/dedup"
	"github.com/newsdesk/ingest-router/internal/filters"
	"github.com/newsdesk/ingest-router/internal/ingest"
	"github.com/newsdesk/ingest-router/internal/logger"
	"github.com/newsdesk/ingest-router/internal/metrics"
	"github.com/newsdesk/ingest-router/internal/routing"
)

const (
	// DefaultShutdownTimeout is the default timeout for graceful shutdown
	DefaultShutdownTimeout = 30 * time.Second

	connectTimeout = 5 * time.Second
)

// App represents the ingest worker application with all its dependencies
type App struct {
	config      *config.Config
	logger      logger.Logger
	db          *sqlx.DB
	redisClient *redis.Client
	registry    *prometheus.Registry
	worker      *ingest.Worker
	version     string
	configPath  string
}

// Options contains configuration for creating a new App
type Options struct {
	ConfigPath string
	Version    string
}

// New creates a new App instance with all dependencies initialized
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	appLogger, err := logger.New(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	appLogger = appLogger.With(
		logger.String("service", "ingest-router"),
		logger.String("version", opts.Version),
	)

	db, err := database.NewPostgresConnection(database.Config{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		DBName:   cfg.Postgres.DBName,
		SSLMode:  cfg.Postgres.SSLMode,
	})
	if err != nil {
		_ = appLogger.Sync()
		return nil, fmt.Errorf("connect to Postgres: %w", err)
	}

	esClient, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.Elasticsearch.URL},
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
	})
	if err != nil {
		database.Close(db)
		_ = appLogger.Sync()
		return nil, fmt.Errorf("create Elasticsearch client: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if pingErr := redisClient.Ping(ctx).Err(); pingErr != nil {
		database.Close(db)
		_ = appLogger.Sync()
		return nil, fmt.Errorf("connect to Redis: %w", pingErr)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	appMetrics := metrics.New(registry)

	repo := database.NewRepository(db)
	store := archive.NewStore(esClient, redisClient, archive.Config{
		IngestIndex:  cfg.Elasticsearch.IngestIndex,
		ArchiveIndex: cfg.Elasticsearch.ArchiveIndex,
	}, appLogger)
	tracker := dedup.NewTracker(redisClient, cfg.Ingest.DedupTTL, appLogger)

	engine := routing.NewEngine(routing.Deps{
		Filters:    filters.NewService(appLogger),
		Fetcher:    store,
		Publisher:  store,
		Archive:    store,
		Desks:      repo,
		Categories: repo,
		History:    repo,
		Metrics:    appMetrics,
		Logger:     appLogger,
	}, routing.Config{
		DefaultCategoryQCodes: cfg.Routing.DefaultCategoryQCodes,
	})

	feeds := ingest.NewRegistry()
	feeds.Register("http", ingest.NewHTTPFeedService(nil))

	worker := ingest.NewWorker(ingest.WorkerDeps{
		Providers: repo,
		Items:     store,
		Dedup:     tracker,
		Feeds:     feeds,
		Resolver:  ingest.NewSchemeResolver(repo),
		Engine:    engine,
		Metrics:   appMetrics,
		Logger:    appLogger,
	}, ingest.WorkerConfig{
		SweepInterval: cfg.Ingest.SweepInterval,
		UpdateTimeout: cfg.Ingest.UpdateTimeout,
	})

	return &App{
		config:      cfg,
		logger:      appLogger,
		db:          db,
		redisClient: redisClient,
		registry:    registry,
		worker:      worker,
		version:     opts.Version,
		configPath:  opts.ConfigPath,
	}, nil
}

// Run starts the worker and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	workerCtx, workerCancel := context.WithCancel(ctx)
	defer workerCancel()

	a.logger.Info("Starting ingest worker",
		logger.String("config_path", a.configPath),
		logger.Bool("debug", a.config.Debug),
	)
	a.worker.Start(workerCtx)

	metricsServer := a.startMetricsServer()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("Shutting down gracefully",
			logger.String("signal", sig.String()),
		)
	case <-ctx.Done():
	}

	workerCancel()
	a.worker.Stop()

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Metrics server shutdown error", logger.Error(err))
		}
	}

	a.logger.Info("Service stopped")
	return nil
}

// startMetricsServer exposes /metrics when ROUTER_METRICS_ADDR is set.
func (a *App) startMetricsServer() *http.Server {
	addr := os.Getenv("ROUTER_METRICS_ADDR")
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: a.config.Server.ReadTimeout,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Metrics server error", logger.Error(err))
		}
	}()
	a.logger.Info("Metrics server started", logger.String("addr", addr))
	return server
}

// FlushDedupCache clears the Redis deduplication cache
func (a *App) FlushDedupCache(ctx context.Context) error {
	tracker := dedup.NewTracker(a.redisClient, a.config.Ingest.DedupTTL, a.logger)
	return tracker.FlushAll(ctx)
}

// Close cleans up resources
func (a *App) Close() error {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("Failed to close Redis client", logger.Error(err))
		}
	}
	if err := database.Close(a.db); err != nil {
		a.logger.Warn("Failed to close database", logger.Error(err))
	}
	return a.logger.Sync()
}

// Logger returns the application logger
func (a *App) Logger() logger.Logger {
	return a.logger
}
