// Package history keeps the scraped price history spreadsheet and decides
// whether a fresh scrape of a product should be recorded.
package history

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maltedev/price-ledger/internal/models"
	"github.com/maltedev/price-ledger/internal/sheet"
)

const (
	SheetName       = "History"
	TimestampLayout = "2006-01-02 15:04:05"
	DefaultWindow   = 7 * 24 * time.Hour
)

var Columns = []string{"name", "pack_weight", "overall_price", "price_per_unit", "unit", "scraped_at", "url"}

// Store holds the whole history in memory. It is not safe for concurrent
// writers; one run owns the file at a time.
type Store struct {
	path     string
	window   time.Duration
	records  []models.HistoryRecord
	last     map[string]time.Time
	appended int
	logger   *slog.Logger
}

// Open loads path, treating a missing file as an empty history.
func Open(path string, window time.Duration, logger *slog.Logger) (*Store, error) {
	if window <= 0 {
		window = DefaultWindow
	}

	s := &Store{
		path:   path,
		window: window,
		last:   make(map[string]time.Time),
		logger: logger.With("component", "history"),
	}

	table, err := sheet.Read(path)
	if errors.Is(err, sheet.ErrNotFound) {
		s.logger.Info("no history yet", "path", path)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	table.TrimHeaders()
	for _, row := range table.Rows {
		rec, ok := recordFromRow(table, row)
		if !ok {
			s.logger.Warn("skipping history row without timestamp", "name", sheet.Cell(row, table.Index("name")))
			continue
		}
		s.records = append(s.records, rec)
		s.touch(rec.Name, rec.ScrapedAt)
	}

	s.logger.Debug("history loaded", "records", len(s.records))
	return s, nil
}

func recordFromRow(t *sheet.Table, row []string) (models.HistoryRecord, bool) {
	col := func(name string) string { return strings.TrimSpace(sheet.Cell(row, t.Index(name))) }

	scrapedAt, ok := ParseTimestamp(col("scraped_at"))
	if !ok {
		return models.HistoryRecord{}, false
	}

	return models.HistoryRecord{
		Name:         col("name"),
		PackWeight:   col("pack_weight"),
		OverallPrice: sheet.OptionalFloat(col("overall_price")),
		PricePerUnit: sheet.OptionalFloat(col("price_per_unit")),
		Unit:         col("unit"),
		URL:          col("url"),
		ScrapedAt:    scrapedAt,
	}, true
}

// ParseTimestamp accepts the layout the store writes, a date-only value or
// a spreadsheet serial.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{TimestampLayout, time.RFC3339, "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	if t, ok := sheet.ParseSerialDate(s); ok {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local), true
	}
	return time.Time{}, false
}

func (s *Store) touch(name string, at time.Time) {
	if prev, ok := s.last[name]; !ok || at.After(prev) {
		s.last[name] = at
	}
}

// LastScraped returns the newest timestamp recorded for name.
func (s *Store) LastScraped(name string) (time.Time, bool) {
	t, ok := s.last[name]
	return t, ok
}

// IsFresh reports whether name was scraped less than the window before now.
func (s *Store) IsFresh(name string, now time.Time) bool {
	last, ok := s.last[name]
	if !ok {
		return false
	}
	return now.Sub(last) < s.window
}

// Offer appends record unless the product is still fresh. The returned bool
// tells whether it was appended.
func (s *Store) Offer(record *models.HistoryRecord, now time.Time) bool {
	if last, ok := s.last[record.Name]; ok && now.Sub(last) < s.window {
		s.logger.Info("skipping recently scraped product",
			"name", record.Name,
			"last_scraped", last.Format("2006-01-02"))
		return false
	}

	s.records = append(s.records, *record)
	s.touch(record.Name, record.ScrapedAt)
	s.appended++
	return true
}

func (s *Store) Records() []models.HistoryRecord {
	out := make([]models.HistoryRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Appended is the number of records added since Open.
func (s *Store) Appended() int {
	return s.appended
}

func (s *Store) Path() string {
	return s.path
}

// Save rewrites the history file with every record.
func (s *Store) Save() error {
	rows := make([][]any, 0, len(s.records))
	for _, r := range s.records {
		rows = append(rows, []any{
			r.Name,
			r.PackWeight,
			sheet.Nullable(r.OverallPrice),
			sheet.Nullable(r.PricePerUnit),
			r.Unit,
			r.ScrapedAt.Format(TimestampLayout),
			r.URL,
		})
	}

	if err := sheet.WriteWorkbook(s.path, sheet.Sheet{Name: SheetName, Headers: Columns, Rows: rows}); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}

	s.logger.Info("history saved", "path", s.path, "records", len(s.records), "appended", s.appended)
	return nil
}
