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

	"github.com/maltedev/price-ledger/internal/cleaner"
	"github.com/maltedev/price-ledger/internal/config"
	"github.com/maltedev/price-ledger/internal/database"
	"github.com/maltedev/price-ledger/internal/events"
	"github.com/maltedev/price-ledger/internal/lookup"
	"github.com/maltedev/price-ledger/internal/models"
	"github.com/maltedev/price-ledger/internal/prompt"
	"github.com/maltedev/price-ledger/internal/sheet"
	"github.com/maltedev/price-ledger/pkg/logger"
)

func main() {
	var (
		receipts = flag.Bool("receipts", false, "Receipts mode: merge lookup codes onto rows and leave conflicting pairs uncoded")
		output   = flag.String("output", "", "Cleaned output file (defaults to CLEANED_FILE)")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [statements.xlsx]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *output != "" {
		cfg.Files.Cleaned = *output
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	input, err := prompt.NewResolver(os.Stdin, os.Stdout).Path(flag.Args())
	if errors.Is(err, prompt.ErrNoSelection) {
		fmt.Println(prompt.NoSelectionMessage)
		return
	}
	if err != nil {
		logger.Error("Failed to resolve input", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, input, *receipts, logger); err != nil {
		var missing *cleaner.MissingColumnError
		if errors.As(err, &missing) {
			logger.Error("Input is missing a required column", "column", missing.Column, "file", input)
		} else {
			logger.Error("Build lookup failed", "error", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, input string, receipts bool, logger *slog.Logger) error {
	fmt.Println("=== STEP 1: Load and clean statements ===")
	cleaned, err := cleaner.CleanFile(input, cleaner.Options{ExcludeStates: cfg.Cleaner.ExcludeStates})
	if err != nil {
		return err
	}
	for _, w := range cleaned.Warnings {
		logger.Warn(w, "file", input)
	}
	fmt.Printf("Cleaned %d rows (%d read, %d dropped, %d excluded)\n",
		len(cleaned.Transactions), cleaned.Read, cleaned.Dropped, cleaned.Excluded)

	repo, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	fmt.Println("\n=== STEP 2: Create/update lookup table and assign codes ===")
	existing, err := repo.Load(ctx)
	if err != nil {
		return err
	}

	reconciler := lookup.NewReconciler(existing, lookup.Options{
		CodeBase:  cfg.Lookup.CodeBase,
		CodeRange: cfg.Lookup.CodeRange,
	}, logger)
	result := reconciler.Reconcile(cleaned.Transactions)

	if err := repo.Save(ctx, result.Entries); err != nil {
		return err
	}
	fmt.Printf("Lookup table now has %d entries (%d added)\n", len(result.Entries), result.Added)

	conflicts := lookup.Conflicts(result.Entries)
	if len(conflicts) > 0 {
		logger.Warn("Lookup has conflicting codes",
			"pairs", len(conflicts),
			"stores", lookup.ConflictingStores(conflicts))
	}

	fmt.Println("\n=== STEP 3: Save cleaned statements with codes ===")
	sheets := outputSheets(cleaned.Transactions, result, receipts, logger)
	if err := sheet.WriteWorkbook(cfg.Files.Cleaned, sheets...); err != nil {
		return fmt.Errorf("failed to save cleaned file: %w", err)
	}
	fmt.Printf("Cleaned statements saved to %s\n", cfg.Files.Cleaned)

	if cfg.Redis.Addr != "" {
		publish(ctx, cfg, result, conflicts, logger)
	}
	return nil
}

// outputSheets builds the cleaned workbook. Receipts keep their own codes and
// take lookup codes only for pairs that map to exactly one code.
func outputSheets(clean []models.Transaction, result *lookup.Result, receipts bool, logger *slog.Logger) []sheet.Sheet {
	if !receipts {
		return []sheet.Sheet{cleaner.ToSheet("Cleaned", result.Transactions)}
	}

	merged, unresolved := lookup.MergeCodes(clean, result.Entries)
	if unresolved > 0 {
		logger.Warn("Receipts left without a code", "rows", unresolved)
	}

	codes := lookup.FillCodesByItem(merged)
	rows := make([][]any, 0, len(codes))
	for _, c := range codes {
		rows = append(rows, []any{c.ItemKey, c.Code})
	}

	return []sheet.Sheet{
		cleaner.ToSheet("Receipts", merged),
		{Name: "Item Codes", Headers: []string{cleaner.ColItemKey, cleaner.ColProductCode}, Rows: rows},
	}
}

func openRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (lookup.Repository, func(), error) {
	if cfg.Lookup.Backend != config.LookupBackendPostgres {
		return lookup.NewSheetRepository(cfg.Files.Lookup, logger), func() {}, nil
	}

	db, err := database.New(ctx, database.Config{URL: cfg.Database.URL, MaxConns: cfg.Database.MaxConns})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return database.NewLookupRepository(db, logger), db.Close, nil
}

func publish(ctx context.Context, cfg *config.Config, result *lookup.Result, conflicts []lookup.Conflict, logger *slog.Logger) {
	client, err := events.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn("Skipping lookup event", "error", err)
		return
	}
	defer client.Close()

	err = events.NewPublisher(client, logger).PublishLookupReconciled(ctx, events.LookupReconciledPayload{
		Entries:   len(result.Entries),
		Added:     result.Added,
		Conflicts: len(conflicts),
		Stores:    lookup.ConflictingStores(conflicts),
	})
	if err != nil {
		logger.Warn("Failed to publish lookup event", "error", err)
	}
}
