package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maltedev/price-ledger/internal/models"
	"github.com/maltedev/price-ledger/internal/parser"
	"github.com/maltedev/price-ledger/internal/ratelimit"
)

// Fetcher downloads one product page per call and parses it into a history
// record stamped with the current time. It never retries.
type Fetcher struct {
	getter  PageGetter
	parser  parser.Parser
	limiter ratelimit.RateLimiter
	now     func() time.Time
	logger  *slog.Logger
}

type Option func(*Fetcher)

// WithRateLimiter spaces consecutive fetches.
func WithRateLimiter(l ratelimit.RateLimiter) Option {
	return func(f *Fetcher) { f.limiter = l }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

func NewFetcher(getter PageGetter, p parser.Parser, logger *slog.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		getter: getter,
		parser: p,
		now:    time.Now,
		logger: logger.With("component", "fetcher"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*models.HistoryRecord, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrEmptyURL
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	f.logger.Info("fetching product", "url", url)

	html, err := f.getter.GetPage(ctx, url)
	if err != nil {
		return nil, err
	}

	record := models.NewHistoryRecord(url, f.now())
	if err := f.parser.ParseProductPage(html, record); err != nil {
		return nil, fmt.Errorf("failed to parse product page %s: %w", url, err)
	}

	f.logger.Debug("parsed product",
		"name", record.Name,
		"pack_weight", record.PackWeight,
		"has_price", record.HasPrice())

	return record, nil
}
