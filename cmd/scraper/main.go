package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maltedev/price-ledger/internal/browser"
	"github.com/maltedev/price-ledger/internal/config"
	"github.com/maltedev/price-ledger/internal/database"
	"github.com/maltedev/price-ledger/internal/events"
	"github.com/maltedev/price-ledger/internal/history"
	"github.com/maltedev/price-ledger/internal/models"
	"github.com/maltedev/price-ledger/internal/parser"
	"github.com/maltedev/price-ledger/internal/ratelimit"
	"github.com/maltedev/price-ledger/internal/scraper"
	"github.com/maltedev/price-ledger/internal/sheet"
	"github.com/maltedev/price-ledger/pkg/logger"
)

func main() {
	var (
		historyFile = flag.String("history", "", "History spreadsheet (defaults to HISTORY_FILE)")
		fetchMode   = flag.String("mode", "", "Fetch mode: http or browser (defaults to FETCH_MODE)")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [products.xlsx]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *fetchMode != "" {
		cfg.Scraper.FetchMode = *fetchMode
	}
	if *historyFile != "" {
		cfg.Files.History = *historyFile
	}
	if flag.NArg() > 0 {
		cfg.Files.Products = flag.Arg(0)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)

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
		logger.Error("Scrape failed, history not saved", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	products, err := sheet.Read(cfg.Files.Products)
	if err != nil {
		return fmt.Errorf("failed to read products: %w", err)
	}
	urls, err := scraper.ProductURLs(products)
	if err != nil {
		return fmt.Errorf("%s: %w", cfg.Files.Products, err)
	}

	store, err := history.Open(cfg.Files.History, cfg.Scraper.FreshnessWindow, logger)
	if err != nil {
		return err
	}

	getter, closeGetter, err := newGetter(cfg, logger)
	if err != nil {
		return err
	}
	defer closeGetter()

	fetcher := scraper.NewFetcher(getter, parser.NewProductParser(), logger,
		scraper.WithRateLimiter(ratelimit.NewSimpleRateLimiter(cfg.Scraper.RateLimitMin, cfg.Scraper.RateLimitMax)))

	logger.Info("Starting scrape", "products", len(urls), "mode", cfg.Scraper.FetchMode, "history", store.Path())

	added, err := fetcher.Collect(ctx, urls, store)
	if err != nil {
		return err
	}

	if len(added) == 0 {
		fmt.Printf("No new data to add (all products scraped within the last %s).\n",
			windowText(cfg.Scraper.FreshnessWindow))
		return nil
	}

	if err := store.Save(); err != nil {
		return err
	}
	fmt.Printf("Added %d new records to %s with auto-fit columns\n", len(added), store.Path())

	// The spreadsheet is saved; mirrors and events are best effort.
	if cfg.Database.URL != "" {
		mirror(ctx, cfg, added, logger)
	}
	if cfg.Redis.Addr != "" {
		publish(ctx, cfg, added, logger)
	}
	return nil
}

func newGetter(cfg *config.Config, logger *slog.Logger) (scraper.PageGetter, func(), error) {
	if cfg.Scraper.FetchMode != config.FetchModeBrowser {
		return scraper.NewHTTPGetter(cfg.Scraper.UserAgent, cfg.Scraper.RequestTimeout), func() {}, nil
	}

	b, err := browser.New(&browser.Options{
		Headless:  cfg.Browser.Headless,
		Timeout:   cfg.Browser.Timeout,
		UserAgent: cfg.Scraper.UserAgent,
		Locale:    cfg.Browser.Locale,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize browser: %w", err)
	}
	return b, func() {
		if err := b.Close(); err != nil {
			logger.Warn("Failed to close browser", "error", err)
		}
	}, nil
}

func mirror(ctx context.Context, cfg *config.Config, added []*models.HistoryRecord, logger *slog.Logger) {
	db, err := database.New(ctx, database.Config{URL: cfg.Database.URL, MaxConns: cfg.Database.MaxConns})
	if err != nil {
		logger.Warn("Skipping price history mirror", "error", err)
		return
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Warn("Skipping price history mirror", "error", err)
		return
	}
	if _, err := database.NewPriceHistoryRepository(db, logger).Insert(ctx, added); err != nil {
		logger.Warn("Price history mirror failed", "error", err)
	}
}

func publish(ctx context.Context, cfg *config.Config, added []*models.HistoryRecord, logger *slog.Logger) {
	client, err := events.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn("Skipping price events", "error", err)
		return
	}
	defer client.Close()

	publisher := events.NewPublisher(client, logger, events.WithPriceStream(cfg.Redis.Stream))
	for _, rec := range added {
		if err := publisher.PublishPriceObserved(ctx, rec); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			logger.Warn("Failed to publish price event", "name", rec.Name, "error", err)
		}
	}
}

func windowText(d time.Duration) string {
	if days := d / (24 * time.Hour); days > 0 && d%(24*time.Hour) == 0 {
		if days == 1 {
			return "day"
		}
		return fmt.Sprintf("%d days", days)
	}
	return d.String()
}
