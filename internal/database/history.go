package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/maltedev/price-ledger/internal/models"
)

// PriceHistoryRepository mirrors appended history records into Postgres.
// The spreadsheet stays the source of truth for the freshness gate.
type PriceHistoryRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewPriceHistoryRepository(db *DB, logger *slog.Logger) *PriceHistoryRepository {
	return &PriceHistoryRepository{
		db:     db,
		logger: logger.With("component", "price_history_repository"),
	}
}

// Insert writes records in one batch. Records already mirrored are skipped.
func (r *PriceHistoryRepository) Insert(ctx context.Context, records []*models.HistoryRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO price_history (name, pack_weight, overall_price, price_per_unit, unit, url, scraped_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)
		ON CONFLICT (name, scraped_at) DO NOTHING`

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(query,
			rec.Name, rec.PackWeight, rec.OverallPrice, rec.PricePerUnit,
			rec.Unit, rec.URL, rec.ScrapedAt,
		)
	}

	results := r.db.pool.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int64
	for range records {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to insert price history: %w", err)
		}
		inserted += tag.RowsAffected()
	}

	r.logger.Info("price history mirrored", "records", len(records), "inserted", inserted)
	return inserted, nil
}

// Latest returns the most recent record per product name, newest first.
func (r *PriceHistoryRepository) Latest(ctx context.Context, limit int) ([]models.HistoryRecord, error) {
	query := `
		SELECT DISTINCT ON (name)
			name, COALESCE(pack_weight, ''), overall_price::float8, price_per_unit::float8,
			COALESCE(unit, ''), COALESCE(url, ''), scraped_at
		FROM price_history
		ORDER BY name, scraped_at DESC`

	rows, err := r.db.pool.Query(ctx, `SELECT * FROM (`+query+`) latest ORDER BY scraped_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.HistoryRecord, error) {
		var rec models.HistoryRecord
		err := row.Scan(&rec.Name, &rec.PackWeight, &rec.OverallPrice, &rec.PricePerUnit,
			&rec.Unit, &rec.URL, &rec.ScrapedAt)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan price history: %w", err)
	}

	return records, nil
}
