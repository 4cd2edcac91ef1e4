package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/maltedev/occasion-scraper/internal/browser"
	"github.com/maltedev/occasion-scraper/internal/catalog"
	"github.com/maltedev/occasion-scraper/internal/config"
	"github.com/maltedev/occasion-scraper/internal/database"
	"github.com/maltedev/occasion-scraper/internal/events"
	"github.com/maltedev/occasion-scraper/internal/fetch"
	"github.com/maltedev/occasion-scraper/internal/parser"
	"github.com/maltedev/occasion-scraper/internal/scraper"
	"github.com/maltedev/occasion-scraper/internal/storage"
	"github.com/maltedev/occasion-scraper/pkg/logger"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		pages   = flag.Int("pages", 0, "Number of index pages to crawl (overrides SCRAPER_PAGES)")
		output  = flag.String("output", "", "CSV output path (overrides OUTPUT_PATH)")
		workers = flag.Int("workers", -1, "Max concurrent detail fetches, 0 for unbounded (overrides SCRAPER_CONCURRENT_LIMIT)")
		envFile = flag.String("env", ".env", "Env file to load before reading the environment")
	)
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *pages > 0 {
		cfg.Scraper.Pages = *pages
	}
	if *output != "" {
		cfg.Output.Path = *output
	}
	if *workers >= 0 {
		cfg.Scraper.ConcurrentLimit = *workers
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting occasion scraper",
		"base_url", cfg.Scraper.BaseURL,
		"pages", cfg.Scraper.Pages,
		"fetch_mode", cfg.Fetch.Mode,
		"concurrent_limit", cfg.Scraper.ConcurrentLimit)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Run failed", "error", err)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	originURL := cfg.Scraper.SiteOrigin
	if originURL == "" {
		originURL = cfg.Scraper.BaseURL
	}
	origin, err := scraper.Origin(originURL)
	if err != nil {
		return err
	}

	fetcher, closeFetcher, err := newFetcher(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFetcher()

	secondary, closeSinks, err := newSecondarySinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSinks()

	p := parser.NewAutomobileParser(catalog.Default())
	runner := scraper.NewRunner(
		scraper.NewIndexCrawler(fetcher, p, origin, logger),
		scraper.NewPipeline(fetcher, p, cfg.Scraper.ConcurrentLimit, logger),
		storage.NewCSVSink(cfg.Output.Path, logger),
		secondary,
		logger,
	)

	summary, err := runner.Run(ctx, cfg.Scraper.BaseURL, cfg.Scraper.Pages)
	if err != nil {
		return err
	}

	fmt.Printf("Scraped %d listings (%d failed) into %s\n", summary.RecordsWritten, summary.Failures(), cfg.Output.Path)
	return nil
}

func newFetcher(cfg *config.Config, logger *slog.Logger) (fetch.Fetcher, func(), error) {
	if cfg.Fetch.Mode != config.FetchModeBrowser {
		f := fetch.NewHTTPFetcher(fetch.Options{
			Timeout:   cfg.Fetch.Timeout,
			UserAgent: cfg.Fetch.UserAgent,
		}, logger)
		return f, func() {}, nil
	}

	opts := browser.DefaultOptions()
	opts.Headless = cfg.Browser.Headless
	opts.Timeout = cfg.Fetch.Timeout
	opts.UserAgent = cfg.Fetch.UserAgent
	opts.ViewportWidth = cfg.Browser.ViewportWidth
	opts.ViewportHeight = cfg.Browser.ViewportHeight
	opts.AcceptLanguage = cfg.Browser.AcceptLanguage
	opts.TimezoneID = cfg.Browser.TimezoneID
	opts.Locale = cfg.Browser.Locale
	opts.ProxyServer = cfg.Browser.ProxyServer

	b, err := browser.New(opts, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize browser: %w", err)
	}
	return b, func() {
		if err := b.Close(); err != nil {
			logger.Warn("Failed to close browser", "error", err)
		}
	}, nil
}

func newSecondarySinks(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]storage.Sink, func(), error) {
	var (
		sinks   []storage.Sink
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Database.Enabled {
		db, err := database.New(ctx, database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Database: cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
			MaxConns: int32(cfg.Database.MaxConns),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		closers = append(closers, db.Close)

		sink := database.NewListingSink(db, logger)
		if err := sink.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, sink)
		logger.Info("Postgres sink enabled", "host", cfg.Database.Host, "database", cfg.Database.DBName)
	}

	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { client.Close() })

		if err := client.Ping(ctx).Err(); err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		sinks = append(sinks, events.NewStreamSink(client, cfg.Redis.Stream, logger))
		logger.Info("Redis stream sink enabled", "addr", cfg.Redis.Addr, "stream", cfg.Redis.Stream)
	}

	return sinks, closeAll, nil
}
