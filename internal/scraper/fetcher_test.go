package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/maltedev/price-ledger/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productPage = `<html><body>
<h1 class="product-details__title">Free Range Eggs</h1>
<span class="base-price__regular">£2.10</span>
<span data-test="product-details__unit-of-measurement">6EA £0.35/1EA</span>
</body></html>`

func TestFetcher_Fetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(productPage))
	}))
	defer srv.Close()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f := NewFetcher(NewHTTPGetter("Mozilla/5.0", 5*time.Second), parser.NewProductParser(), slog.Default(),
		WithClock(func() time.Time { return now }))

	record, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Mozilla/5.0", gotUA)
	assert.Equal(t, "Free Range Eggs", record.Name)
	assert.Equal(t, "6EA", record.PackWeight)
	assert.Equal(t, "1 EA", record.Unit)
	assert.Equal(t, now, record.ScrapedAt)
	assert.Equal(t, srv.URL, record.URL)
	require.NotNil(t, record.OverallPrice)
	assert.Equal(t, 2.10, *record.OverallPrice)
}

func TestFetcher_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewFetcher(NewHTTPGetter("Mozilla/5.0", 5*time.Second), parser.NewProductParser(), slog.Default())

	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadStatus)
	assert.Contains(t, err.Error(), "503")
}

func TestFetcher_GetterErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	calls := 0
	getter := PageGetterFunc(func(ctx context.Context, url string) (string, error) {
		calls++
		return "", boom
	})

	f := NewFetcher(getter, parser.NewProductParser(), slog.Default())

	_, err := f.Fetch(context.Background(), "https://shop.example/p/1")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls, "failures are not retried")
}

func TestFetcher_EmptyURL(t *testing.T) {
	f := NewFetcher(PageGetterFunc(func(ctx context.Context, url string) (string, error) {
		t.Fatal("getter must not be called")
		return "", nil
	}), parser.NewProductParser(), slog.Default())

	_, err := f.Fetch(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyURL)
}

type countingLimiter struct{ waits int }

func (c *countingLimiter) Wait(ctx context.Context) error {
	c.waits++
	return nil
}

func (c *countingLimiter) SetDelay(min, max time.Duration) {}

func TestFetcher_UsesRateLimiter(t *testing.T) {
	limiter := &countingLimiter{}
	getter := PageGetterFunc(func(ctx context.Context, url string) (string, error) {
		return productPage, nil
	})

	f := NewFetcher(getter, parser.NewProductParser(), slog.Default(), WithRateLimiter(limiter))

	for i := 0; i < 3; i++ {
		_, err := f.Fetch(context.Background(), "https://shop.example/p/1")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, limiter.waits)
}
