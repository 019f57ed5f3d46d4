package database

import (
	"context"
	"fmt"
)

// Lookup triples are unique; a pair with two codes is a conflict the operator
// resolves by hand, so (store, item_key) alone is not.
const schema = `
CREATE TABLE IF NOT EXISTS lookup_entries (
	store        TEXT   NOT NULL,
	item_key     TEXT   NOT NULL,
	item         TEXT   NOT NULL,
	product_code BIGINT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (store, item_key, product_code)
);

CREATE TABLE IF NOT EXISTS price_history (
	id             BIGSERIAL PRIMARY KEY,
	name           TEXT        NOT NULL,
	pack_weight    TEXT,
	overall_price  NUMERIC(12, 2),
	price_per_unit NUMERIC(12, 4),
	unit           TEXT,
	url            TEXT,
	scraped_at     TIMESTAMPTZ NOT NULL,
	UNIQUE (name, scraped_at)
);

CREATE INDEX IF NOT EXISTS idx_price_history_name_scraped
	ON price_history (name, scraped_at DESC);
`

// Migrate creates the tables if they do not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
