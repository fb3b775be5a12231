package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"spacetraveling/internal/cache"
	"spacetraveling/internal/config"
	"spacetraveling/internal/invalidation"
	"spacetraveling/internal/metrics"
	"spacetraveling/internal/pages"
	"spacetraveling/internal/richtext"
	"spacetraveling/internal/scheduler"
	"spacetraveling/internal/server"
	"spacetraveling/internal/service"
	"spacetraveling/internal/source/prismic"
	"spacetraveling/internal/storage/sqlstore"
	"spacetraveling/internal/views"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("blog stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	store, state, closeStore, err := openCacheStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	renderCache := cache.New(store, logger, m, cache.WithRegenerateTimeout(cfg.Content.Timeout*2))
	defer renderCache.Wait()

	source := prismic.New(prismic.Config{
		Endpoint:       cfg.Content.Endpoint,
		AccessToken:    cfg.Content.AccessToken,
		DocumentType:   cfg.Content.DocumentType,
		Timeout:        cfg.Content.Timeout,
		MaxAttempts:    cfg.Content.Retry.MaxAttempts,
		InitialBackoff: cfg.Content.Retry.InitialBackoff,
		MaxBackoff:     cfg.Content.Retry.MaxBackoff,
	}, logger, m)

	blog := service.NewBlogService(source, richtext.NewRenderer(), renderCache, state, logger, m, service.Config{
		DocumentType: cfg.Content.DocumentType,
		PageSize:     cfg.Content.PageSize,
		FeedSize:     cfg.Content.FeedSize,
		ListingTTL:   cfg.Cache.ListingTTL,
		PostTTL:      cfg.Cache.PostTTL,
	})

	viewStore, closeViews, err := openViewStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeViews()

	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	invalidator, err := setupInvalidation(ctx, cfg.RabbitMQ, renderCache, logger, &wg)
	if err != nil {
		return err
	}

	p, err := pages.New()
	if err != nil {
		return err
	}

	srv := server.New(blog, viewStore, invalidator, p, logger, m, server.Options{
		BaseURL:          cfg.Server.BaseURL,
		ListingTTL:       cfg.Cache.ListingTTL,
		PostTTL:          cfg.Cache.PostTTL,
		RevalidateSecret: cfg.Revalidate.Secret,
		LoadTimeout:      cfg.Server.WriteTimeout,
		Metrics:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	sched := scheduler.NewScheduler(blog, cfg.Revalidate.Interval, cfg.Revalidate.Timeout, logger)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler error", "error", err)
		}
	}()

	logger.Info("starting blog",
		"addr", cfg.Server.Addr,
		"document_type", cfg.Content.DocumentType,
		"page_size", cfg.Content.PageSize,
		"cache_store", cfg.Cache.Store,
		"views_store", cfg.Views.Store,
	)

	err = srv.Run(ctx, cfg.Server)
	cancel()
	return err
}

// openCacheStore returns the render cache store and, for SQL stores, the
// prerender state store.
func openCacheStore(ctx context.Context, cfg *config.Config) (cache.Store, service.PrerenderStateStore, func(), error) {
	var driver, dsn string
	switch cfg.Cache.Store {
	case "postgres":
		driver, dsn = sqlstore.DriverPostgres, cfg.Database.DSN()
	case "sqlite":
		driver, dsn = sqlstore.DriverSQLite, cfg.Cache.SQLitePath
	default:
		return cache.NewMemoryStore(), nil, func() {}, nil
	}

	db, err := sqlstore.Open(ctx, driver, dsn)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open cache store: %w", err)
	}

	return sqlstore.NewPageStore(db), sqlstore.NewPrerenderStateStore(db), func() { db.Close() }, nil
}

func openViewStore(ctx context.Context, cfg *config.Config) (views.Store, func(), error) {
	if cfg.Views.Store != "redis" {
		return views.NewMemoryStore(cfg.Views.TTL), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}

	return views.NewRedisStore(client, cfg.Views.TTL), func() { client.Close() }, nil
}

// setupInvalidation broadcasts invalidations over RabbitMQ when a broker is
// configured and applies them to the local cache otherwise.
func setupInvalidation(
	ctx context.Context,
	cfg config.RabbitMQConfig,
	target invalidation.Target,
	logger *slog.Logger,
	wg *sync.WaitGroup,
) (server.Invalidator, error) {
	if cfg.URL == "" {
		return invalidation.NewLocal(target), nil
	}

	busCfg := invalidation.Config{URL: cfg.URL, Exchange: cfg.Exchange}

	publisher, err := invalidation.NewPublisher(busCfg, logger)
	if err != nil {
		return nil, err
	}

	subscriber, err := invalidation.NewSubscriber(busCfg, target, logger)
	if err != nil {
		publisher.Close()
		return nil, err
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer publisher.Close()
		defer subscriber.Close()

		if err := subscriber.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("invalidation subscriber stopped", "error", err)
		}
	}()

	return publisher, nil
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
