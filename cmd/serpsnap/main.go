// Package main wires together the snapshot service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gcsclient "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/Mile1005/seo-audit-sub010/internal/api"
	gcsblob "github.com/Mile1005/seo-audit-sub010/internal/blob/gcs"
	memoryblob "github.com/Mile1005/seo-audit-sub010/internal/blob/memory"
	memorycache "github.com/Mile1005/seo-audit-sub010/internal/cache/memory"
	postgrescache "github.com/Mile1005/seo-audit-sub010/internal/cache/postgres"
	"github.com/Mile1005/seo-audit-sub010/internal/clock/system"
	"github.com/Mile1005/seo-audit-sub010/internal/config"
	"github.com/Mile1005/seo-audit-sub010/internal/engine"
	"github.com/Mile1005/seo-audit-sub010/internal/fallback"
	"github.com/Mile1005/seo-audit-sub010/internal/hash/sha256"
	"github.com/Mile1005/seo-audit-sub010/internal/logging"
	"github.com/Mile1005/seo-audit-sub010/internal/metrics"
	memorypublisher "github.com/Mile1005/seo-audit-sub010/internal/publisher/memory"
	pubsubpublisher "github.com/Mile1005/seo-audit-sub010/internal/publisher/pubsub"
	"github.com/Mile1005/seo-audit-sub010/internal/scraper"
	"github.com/Mile1005/seo-audit-sub010/internal/serp"
	"github.com/Mile1005/seo-audit-sub010/internal/strategy"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)
	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := system.New()

	cache, cacheClose, err := buildCache(ctx, cfg, clock)
	if err != nil {
		logger.Fatal("cache init failed", zap.Error(err))
	}
	defer cacheClose()

	archiver, err := buildArchiver(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("archive init failed", zap.Error(err))
	}

	publisher, topic, pubClose, err := buildPublisher(ctx, cfg)
	if err != nil {
		logger.Fatal("publisher init failed", zap.Error(err))
	}
	defer pubClose()

	chain, chainClose, err := buildChain(cfg, clock, archiver, logger)
	if err != nil {
		logger.Fatal("provider init failed", zap.Error(err))
	}
	defer chainClose()

	eng := engine.New(cache, chain, publisher, clock, engine.Config{
		Concurrency: cfg.Engine.Concurrency,
		Topic:       topic,
	}, logger.Named("engine"))

	apiServer := api.NewServer(eng, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func buildCache(ctx context.Context, cfg config.Config, clock serp.Clock) (serp.CacheStore, func(), error) {
	switch cfg.Cache.Backend {
	case "postgres":
		cache, err := postgrescache.New(ctx, postgrescache.Config{
			DSN:      cfg.Cache.Postgres.DSN,
			Table:    cfg.Cache.Postgres.Table,
			MaxConns: int32(cfg.Cache.Postgres.MaxOpenConns),
			MinConns: int32(cfg.Cache.Postgres.MinConns),
		}, cfg.TTL(), clock)
		if err != nil {
			return nil, nil, err
		}
		return cache, cache.Close, nil
	default:
		return memorycache.New(cfg.TTL(), clock), func() {}, nil
	}
}

func buildArchiver(ctx context.Context, cfg config.Config, logger *zap.Logger) (*scraper.Archiver, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}
	var (
		store serp.BlobStore
		err   error
	)
	switch cfg.Archive.Backend {
	case "gcs":
		client, clientErr := gcsclient.NewClient(ctx)
		if clientErr != nil {
			return nil, fmt.Errorf("create storage client: %w", clientErr)
		}
		store, err = gcsblob.New(client, gcsblob.Config{Bucket: cfg.Archive.GCSBucket})
		if err != nil {
			return nil, err
		}
	default:
		store = memoryblob.NewBlobStore()
	}
	return scraper.NewArchiver(
		store,
		sha256.New(),
		cfg.Archive.Prefix,
		cfg.Archive.ContentType,
		logger.Named("archive"),
	), nil
}

func buildPublisher(ctx context.Context, cfg config.Config) (serp.Publisher, string, func(), error) {
	if cfg.PubSub.ProjectID == "" || cfg.PubSub.TopicName == "" {
		return memorypublisher.New(), "", func() {}, nil
	}
	pub, err := pubsubpublisher.New(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicName)
	if err != nil {
		return nil, "", nil, err
	}
	closeFn := func() {
		if closeErr := pub.Close(); closeErr != nil {
			zap.L().Warn("pubsub close failed", zap.Error(closeErr))
		}
	}
	return pub, cfg.PubSub.TopicName, closeFn, nil
}

func buildChain(
	cfg config.Config,
	clock serp.Clock,
	archiver *scraper.Archiver,
	logger *zap.Logger,
) (serp.Provider, func(), error) {
	var (
		providers []serp.Provider
		closeFn   = func() {}
	)

	if cfg.Scraper.Enabled {
		browser, err := scraper.NewBrowser(scraper.BrowserConfig{
			MaxParallel:       cfg.Scraper.MaxParallel,
			NavigationTimeout: time.Duration(cfg.Scraper.NavTimeoutSec) * time.Second,
			WaitMin:           time.Duration(cfg.Scraper.WaitMinMs) * time.Millisecond,
			WaitMax:           time.Duration(cfg.Scraper.WaitMaxMs) * time.Millisecond,
		}, clock, archiver, logger.Named("browser"))
		if err != nil {
			return nil, nil, err
		}
		providers = append(providers, browser)
		closeFn = browser.Close
	}

	if cfg.Static.Enabled {
		providers = append(providers, scraper.NewStatic(scraper.StaticConfig{
			Timeout: time.Duration(cfg.Static.TimeoutSeconds) * time.Second,
			BaseURL: cfg.Static.BaseURL,
		}, clock, archiver, logger.Named("static")))
	}

	if cfg.Fallback.APIKey != "" {
		client, err := fallback.New(fallback.Config{
			APIKey:   cfg.Fallback.APIKey,
			Endpoint: cfg.Fallback.Endpoint,
			Timeout:  time.Duration(cfg.Fallback.TimeoutSeconds) * time.Second,
		}, clock, logger.Named("fallback"))
		if err != nil {
			return nil, nil, err
		}
		providers = append(providers, client)
	} else {
		logger.Warn("fallback api key not configured, scrape failures will be terminal")
	}

	chain, err := strategy.New(logger.Named("strategy"), providers...)
	if err != nil {
		return nil, nil, err
	}
	return chain, closeFn, nil
}
