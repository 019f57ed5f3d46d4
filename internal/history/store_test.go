package history

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/maltedev/price-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(name string, at time.Time) *models.HistoryRecord {
	price := 1.25
	return &models.HistoryRecord{Name: name, OverallPrice: &price, ScrapedAt: at}
}

func TestStore_FreshnessGate(t *testing.T) {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)

	tests := []struct {
		name     string
		after    time.Duration
		appended bool
	}{
		{"six days later is skipped", 6 * 24 * time.Hour, false},
		{"just under the window is skipped", 7*24*time.Hour - time.Second, false},
		{"exactly the window is appended", 7 * 24 * time.Hour, true},
		{"eight days later is appended", 8 * 24 * time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(filepath.Join(t.TempDir(), "history.xlsx"), DefaultWindow, slog.Default())
			require.NoError(t, err)

			require.True(t, s.Offer(record("Milk", base), base))

			now := base.Add(tt.after)
			assert.Equal(t, tt.appended, s.Offer(record("Milk", now), now))
			assert.Equal(t, !tt.appended, s.IsFresh("Milk", now))
		})
	}
}

func TestStore_OtherNamesAreIndependent(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)
	s, err := Open(filepath.Join(t.TempDir(), "history.xlsx"), DefaultWindow, slog.Default())
	require.NoError(t, err)

	require.True(t, s.Offer(record("Milk", now), now))
	assert.True(t, s.Offer(record("Bread", now), now))
	assert.Equal(t, 2, s.Appended())
}

func TestStore_SaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.xlsx")
	first := time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)
	second := first.Add(9 * 24 * time.Hour)

	s, err := Open(path, DefaultWindow, slog.Default())
	require.NoError(t, err)
	require.True(t, s.Offer(record("Milk", first), first))
	require.True(t, s.Offer(&models.HistoryRecord{Name: "Eggs", PackWeight: "6EA", Unit: "1 EA", ScrapedAt: first}, first))
	require.True(t, s.Offer(record("Milk", second), second))
	require.NoError(t, s.Save())

	reloaded, err := Open(path, DefaultWindow, slog.Default())
	require.NoError(t, err)

	records := reloaded.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "Milk", records[0].Name)
	require.NotNil(t, records[0].OverallPrice)
	assert.Equal(t, 1.25, *records[0].OverallPrice)
	assert.Equal(t, "6EA", records[1].PackWeight)
	assert.Nil(t, records[1].OverallPrice)
	assert.Equal(t, 0, reloaded.Appended())

	last, ok := reloaded.LastScraped("Milk")
	require.True(t, ok)
	assert.True(t, last.Equal(second), "max timestamp wins")

	assert.True(t, reloaded.IsFresh("Milk", second.Add(24*time.Hour)))
	assert.False(t, reloaded.IsFresh("Bread", second))
}

func TestParseTimestamp(t *testing.T) {
	got, ok := ParseTimestamp("2024-03-05 08:30:00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 5, 8, 30, 0, 0, time.Local), got)

	got, ok = ParseTimestamp("45296")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.Local), got)

	_, ok = ParseTimestamp("yesterday")
	assert.False(t, ok)
}
