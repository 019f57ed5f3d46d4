package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/maltedev/price-ledger/internal/models"
)

// LookupRepository keeps the lookup table in Postgres. It satisfies
// lookup.Repository.
type LookupRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewLookupRepository(db *DB, logger *slog.Logger) *LookupRepository {
	return &LookupRepository{
		db:     db,
		logger: logger.With("component", "lookup_repository"),
	}
}

func (r *LookupRepository) Load(ctx context.Context) ([]models.LookupEntry, error) {
	query := `
		SELECT store, item_key, item, product_code
		FROM lookup_entries
		ORDER BY store, item_key, product_code`

	rows, err := r.db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query lookup entries: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.LookupEntry, error) {
		var e models.LookupEntry
		err := row.Scan(&e.Store, &e.ItemKey, &e.Item, &e.ProductCode)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan lookup entries: %w", err)
	}

	return entries, nil
}

// Save replaces the whole table with entries in one transaction.
func (r *LookupRepository) Save(ctx context.Context, entries []models.LookupEntry) error {
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM lookup_entries`); err != nil {
			return fmt.Errorf("failed to clear lookup entries: %w", err)
		}

		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"lookup_entries"},
			[]string{"store", "item_key", "item", "product_code"},
			pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
				e := entries[i]
				return []any{e.Store, e.ItemKey, e.Item, e.ProductCode}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to copy lookup entries: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Info("lookup saved", "entries", len(entries))
	return nil
}
