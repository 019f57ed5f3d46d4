package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maltedev/price-ledger/internal/api"
	"github.com/maltedev/price-ledger/internal/config"
	"github.com/maltedev/price-ledger/internal/database"
	"github.com/maltedev/price-ledger/internal/lookup"
	"github.com/maltedev/price-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		repo lookup.Repository = lookup.NewSheetRepository(cfg.Files.Lookup, logger)
		opts []api.Option
	)

	// Database connection
	if cfg.Database.URL != "" {
		db, err := database.New(ctx, database.Config{URL: cfg.Database.URL, MaxConns: cfg.Database.MaxConns})
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}

		if cfg.Lookup.Backend == config.LookupBackendPostgres {
			repo = database.NewLookupRepository(db, logger)
		}
		opts = append(opts, api.WithPriceHistory(database.NewPriceHistoryRepository(db, logger), db))
	}

	handlers := api.NewHandlers(api.NewFileSource(cfg.Files.Cleaned, repo), logger, opts...)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(handlers),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "port", cfg.Server.Port, "cleaned", cfg.Files.Cleaned, "lookup_backend", cfg.Lookup.Backend)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
