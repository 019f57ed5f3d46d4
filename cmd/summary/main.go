package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/maltedev/price-ledger/internal/analysis"
	"github.com/maltedev/price-ledger/internal/chart"
	"github.com/maltedev/price-ledger/internal/cleaner"
	"github.com/maltedev/price-ledger/internal/config"
	"github.com/maltedev/price-ledger/internal/prompt"
	"github.com/maltedev/price-ledger/internal/sheet"
	"github.com/maltedev/price-ledger/pkg/logger"
)

func main() {
	var (
		top       = flag.Int("top", 5, "Number of items in each ranking")
		raw       = flag.Bool("raw", false, "Clean the given statements file instead of reading CLEANED_FILE")
		chartMode = flag.String("chart", "xlsx", "Trend output: xlsx (writes CHART_FILE) or text")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] [file.xlsx]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	resolver := prompt.NewResolver(os.Stdin, os.Stdout)

	input := cfg.Files.Cleaned
	opts := cleaner.Options{}
	if *raw {
		input, err = resolver.Path(flag.Args())
		if errors.Is(err, prompt.ErrNoSelection) {
			fmt.Println(prompt.NoSelectionMessage)
			return
		}
		if err != nil {
			logger.Error("Failed to resolve input", "error", err)
			os.Exit(1)
		}
		opts.ExcludeStates = cfg.Cleaner.ExcludeStates
	} else if flag.NArg() > 0 {
		input = flag.Arg(0)
	}

	if err := run(cfg, resolver, input, opts, *top, *chartMode, logger); err != nil {
		logger.Error("Summary failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, resolver *prompt.Resolver, input string, opts cleaner.Options, top int, chartMode string, logger *slog.Logger) error {
	cleaned, err := cleaner.CleanFile(input, opts)
	if errors.Is(err, sheet.ErrNotFound) {
		return fmt.Errorf("%s not found, run build-lookup first: %w", input, err)
	}
	if err != nil {
		return err
	}
	for _, w := range cleaned.Warnings {
		logger.Warn(w, "file", input)
	}

	txns := cleaned.Transactions
	summary := analysis.Summarize(txns, top)

	fmt.Println("=== STATEMENTS SUMMARY ===")
	fmt.Printf("\nTotal rows: %d\n", summary.TotalRows)
	fmt.Printf("Number of Unique Items Traded: %d\n", summary.UniqueItems)

	fmt.Printf("\nTop %d Most Frequently Traded Items (with Quantity & Value):\n", top)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Item\tTrades\tQuantity\tTotal Value")
	for _, s := range summary.TopItems {
		fmt.Fprintf(w, "%s\t%d\t%g\t%s\n", s.ItemKey, s.TradeCount, s.TotalQuantity, analysis.FormatMoney(s.TotalValue))
	}
	w.Flush()

	fmt.Printf("\nTop %d Items by Total Sales (£):\n", top)
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, s := range summary.TopSales {
		fmt.Fprintf(w, "%s\t%s\n", s.ItemKey, analysis.FormatMoney(s.TotalSales))
	}
	w.Flush()

	term, err := resolver.SearchTerm()
	if err != nil {
		return err
	}
	if term == "" {
		fmt.Println("No item entered. Skipping plot.")
		return nil
	}

	trends := analysis.WeightedMonthlyAverages(txns)
	if strings.ToLower(chartMode) == "text" {
		_, err := chart.RenderMatches(chart.NewTextRenderer(os.Stdout), os.Stdout, trends, term)
		return err
	}

	renderer := chart.NewXLSXRenderer(cfg.Files.Chart, logger)
	found, err := chart.RenderMatches(renderer, os.Stdout, trends, term)
	if err != nil {
		return err
	}
	if err := renderer.Save(); err != nil {
		return err
	}
	if found {
		fmt.Printf("Price trends for %d item(s) written to %s\n", renderer.Rendered(), cfg.Files.Chart)
	}
	return nil
}
