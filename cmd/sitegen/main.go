package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"spacetraveling/internal/cache"
	"spacetraveling/internal/config"
	"spacetraveling/internal/export"
	"spacetraveling/internal/pages"
	"spacetraveling/internal/richtext"
	"spacetraveling/internal/service"
	"spacetraveling/internal/source/prismic"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	outDir := flag.String("out", "", "output directory, overrides export.dir")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	if *outDir != "" {
		cfg.Export.Dir = *outDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source := prismic.New(prismic.Config{
		Endpoint:       cfg.Content.Endpoint,
		AccessToken:    cfg.Content.AccessToken,
		DocumentType:   cfg.Content.DocumentType,
		Timeout:        cfg.Content.Timeout,
		MaxAttempts:    cfg.Content.Retry.MaxAttempts,
		InitialBackoff: cfg.Content.Retry.InitialBackoff,
		MaxBackoff:     cfg.Content.Retry.MaxBackoff,
	}, logger, nil)

	blog := service.NewBlogService(
		source,
		richtext.NewRenderer(),
		cache.New(cache.NewMemoryStore(), logger, nil),
		nil,
		logger,
		nil,
		service.Config{
			DocumentType: cfg.Content.DocumentType,
			PageSize:     cfg.Content.PageSize,
			FeedSize:     cfg.Content.FeedSize,
			ListingTTL:   cfg.Cache.ListingTTL,
			PostTTL:      cfg.Cache.PostTTL,
		},
	)

	p, err := pages.New()
	if err != nil {
		logger.Error("failed to parse templates", "error", err)
		os.Exit(1)
	}

	var sink export.Sink = export.NewDirSink(cfg.Export.Dir)
	target := cfg.Export.Dir
	if cfg.Export.S3.Bucket != "" {
		client, err := export.NewS3Client(cfg.Export.S3)
		if err != nil {
			logger.Error("failed to create s3 client", "error", err)
			os.Exit(1)
		}
		sink = export.NewS3Sink(client, cfg.Export.S3.Bucket, cfg.Export.S3.Prefix)
		target = "s3://" + cfg.Export.S3.Bucket + "/" + cfg.Export.S3.Prefix
	}

	logger.Info("starting export", "target", target)

	stats, err := export.New(blog, sink, p, logger, cfg.Server.BaseURL).Export(ctx)
	if err != nil {
		logger.Error("export failed", "error", err, "files", stats.Files)
		os.Exit(1)
	}
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
