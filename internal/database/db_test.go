package database

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/price-ledger/internal/models"
)

// setupTestDB connects to TEST_DATABASE_URL and skips when it is unset.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Test database not configured")
	}

	ctx := context.Background()
	db, err := New(ctx, Config{URL: url, MaxConns: 2})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))

	_, err = db.pool.Exec(ctx, `TRUNCATE lookup_entries, price_history`)
	require.NoError(t, err)

	t.Cleanup(db.Close)
	return db
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(context.Background(), Config{URL: "postgres://%zz"})
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestLookupRepository_SaveLoad(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewLookupRepository(db, slog.Default())

	entries := []models.LookupEntry{
		{Store: "Tesco", ItemKey: "bread", Item: "Bread", ProductCode: 2},
		{Store: "Tesco", ItemKey: "bread", Item: "Bread", ProductCode: 1},
		{Store: "Aldi", ItemKey: "milk", Item: "Milk", ProductCode: 900000001},
	}
	require.NoError(t, repo.Save(ctx, entries))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Aldi", got[0].Store)
	assert.Equal(t, int64(1), got[1].ProductCode)

	t.Run("save replaces the table", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, entries[:1]))

		got, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("duplicate triple rolls back", func(t *testing.T) {
		err := repo.Save(ctx, []models.LookupEntry{entries[2], entries[2]})
		assert.Error(t, err)

		got, err := repo.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 1, "previous table kept")
	})
}

func TestPriceHistoryRepository_Insert(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewPriceHistoryRepository(db, slog.Default())

	price := 2.5
	now := time.Now().UTC().Truncate(time.Second)
	records := []*models.HistoryRecord{
		{Name: "Oat Milk", OverallPrice: &price, URL: "https://shop.example/oat", ScrapedAt: now.Add(-time.Hour)},
		{Name: "Oat Milk", PackWeight: "1L", ScrapedAt: now},
		{Name: "Bread", ScrapedAt: now.Add(-2 * time.Hour)},
	}

	inserted, err := repo.Insert(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, int64(3), inserted)

	inserted, err = repo.Insert(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, int64(0), inserted, "already mirrored")

	latest, err := repo.Latest(ctx, 10)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "Oat Milk", latest[0].Name)
	assert.Equal(t, "1L", latest[0].PackWeight)
	assert.Nil(t, latest[0].OverallPrice)
	assert.Equal(t, "Bread", latest[1].Name)
}

func TestPriceHistoryRepository_InsertNothing(t *testing.T) {
	repo := NewPriceHistoryRepository(nil, slog.Default())

	inserted, err := repo.Insert(context.Background(), nil)
	assert.NoError(t, err)
	assert.Zero(t, inserted)
}
