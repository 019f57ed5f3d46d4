package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/maltedev/price-ledger/internal/config"
	"github.com/maltedev/price-ledger/internal/database"
	"github.com/maltedev/price-ledger/internal/lookup"
	"github.com/maltedev/price-ledger/pkg/logger"
)

func main() {
	strict := flag.Bool("strict", false, "Exit with status 2 when conflicts are found")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [lookup.xlsx]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if flag.NArg() > 0 {
		cfg.Files.Lookup = flag.Arg(0)
		cfg.Lookup.Backend = config.LookupBackendSheet
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conflicts, err := load(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to check lookup", "error", err)
		os.Exit(1)
	}

	if len(conflicts) == 0 {
		fmt.Println("No conflicting codes found.")
		return
	}

	fmt.Printf("%d (store, item) pairs map to more than one code:\n\n", len(conflicts))
	for _, c := range conflicts {
		codes := make([]string, len(c.Codes))
		for i, code := range c.Codes {
			codes[i] = fmt.Sprint(code)
		}
		fmt.Printf("  %-20s %-30s %s\n", c.Store, c.ItemKey, strings.Join(codes, ", "))
	}
	fmt.Printf("\nStores affected: %s\n", strings.Join(lookup.ConflictingStores(conflicts), ", "))

	if *strict {
		os.Exit(2)
	}
}

func load(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]lookup.Conflict, error) {
	var repo lookup.Repository = lookup.NewSheetRepository(cfg.Files.Lookup, logger)
	if cfg.Lookup.Backend == config.LookupBackendPostgres {
		db, err := database.New(ctx, database.Config{URL: cfg.Database.URL, MaxConns: cfg.Database.MaxConns})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		repo = database.NewLookupRepository(db, logger)
	}

	entries, err := repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	return lookup.Conflicts(entries), nil
}
