package scraper

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/maltedev/price-ledger/internal/models"
	"github.com/maltedev/price-ledger/internal/sheet"
)

var (
	ErrNoURLColumn = errors.New("products sheet has no url column")
	ErrNoProducts  = errors.New("products sheet lists no urls")
)

// Gate decides whether a freshly fetched record is kept.
type Gate interface {
	Offer(record *models.HistoryRecord, now time.Time) bool
}

// Collect fetches every URL in order and offers each record to gate. The
// first fetch error aborts the run and nothing collected so far is returned.
func (f *Fetcher) Collect(ctx context.Context, urls []string, gate Gate) ([]*models.HistoryRecord, error) {
	var kept []*models.HistoryRecord
	for _, url := range urls {
		record, err := f.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		if gate.Offer(record, record.ScrapedAt) {
			kept = append(kept, record)
		}
	}
	return kept, nil
}

// ProductURLs returns the non-blank cells of the url column.
func ProductURLs(t *sheet.Table) ([]string, error) {
	t.TrimHeaders()
	idx := t.Index("url")
	if idx < 0 {
		return nil, ErrNoURLColumn
	}

	var urls []string
	for _, row := range t.Rows {
		if u := strings.TrimSpace(sheet.Cell(row, idx)); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return nil, ErrNoProducts
	}
	return urls, nil
}
