package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/price-ledger/internal/models"
	"github.com/maltedev/price-ledger/internal/sheet"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) Transactions(ctx context.Context) ([]models.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *MockSource) LookupEntries(ctx context.Context) ([]models.LookupEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LookupEntry), args.Error(1)
}

type MockPrices struct {
	mock.Mock
}

func (m *MockPrices) Latest(ctx context.Context, limit int) ([]models.HistoryRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.HistoryRecord), args.Error(1)
}

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func txn(item string, state models.State, month time.Month, price, qty float64) models.Transaction {
	return models.Transaction{
		Item:     item,
		ItemKey:  models.ItemKey(item),
		State:    state,
		Date:     time.Date(2024, month, 10, 0, 0, 0, 0, time.UTC),
		Price:    price,
		Quantity: qty,
	}
}

func sampleTransactions() []models.Transaction {
	return []models.Transaction{
		txn("Widget", models.StateBought, time.January, 10, 2),
		txn("Widget", models.StateBought, time.January, 14, 1),
		txn("Widget", models.StateSold, time.February, 1000, 2),
		txn("Gadget", models.StateSold, time.January, 5, 1),
	}
}

func do(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealth(t *testing.T) {
	t.Run("without database", func(t *testing.T) {
		router := NewRouter(NewHandlers(new(MockSource), slog.Default()))

		rec := do(t, router, "/health")

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp HealthResponse
		decode(t, rec, &resp)
		assert.Equal(t, "ok", resp.Status)
		assert.Empty(t, resp.Database)
	})

	t.Run("database unreachable", func(t *testing.T) {
		pinger := new(MockPinger)
		pinger.On("Ping", mock.Anything).Return(errors.New("dial tcp: refused"))
		router := NewRouter(NewHandlers(new(MockSource), slog.Default(), WithPriceHistory(new(MockPrices), pinger)))

		rec := do(t, router, "/health")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var resp HealthResponse
		decode(t, rec, &resp)
		assert.Equal(t, "unreachable", resp.Database)
	})
}

func TestGetSummary(t *testing.T) {
	source := new(MockSource)
	source.On("Transactions", mock.Anything).Return(sampleTransactions(), nil)
	router := NewRouter(NewHandlers(source, slog.Default()))

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantTop    int
	}{
		{"default top", "/api/v1/summary", http.StatusOK, 2},
		{"top one", "/api/v1/summary?top=1", http.StatusOK, 1},
		{"invalid top", "/api/v1/summary?top=zero", http.StatusBadRequest, 0},
		{"negative top", "/api/v1/summary?top=-2", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.target)
			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp SummaryResponse
			decode(t, rec, &resp)
			assert.Equal(t, 4, resp.TotalRows)
			assert.Equal(t, 2, resp.UniqueItems)
			assert.Len(t, resp.TopItems, tt.wantTop)
			assert.Equal(t, "widget", resp.TopItemsDisplay[0].ItemKey)
			assert.Equal(t, "£2,034.00", resp.TopItemsDisplay[0].Value)
			assert.Equal(t, "£2,000.00", resp.TopSalesDisplay[0].Value)
		})
	}
}

func TestGetSummary_MissingCleanedFile(t *testing.T) {
	source := new(MockSource)
	source.On("Transactions", mock.Anything).Return(nil, fmt.Errorf("%w: cleaned.xlsx", sheet.ErrNotFound))
	router := NewRouter(NewHandlers(source, slog.Default()))

	rec := do(t, router, "/api/v1/summary")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "run build-lookup first")
}

func TestGetTrends(t *testing.T) {
	source := new(MockSource)
	source.On("Transactions", mock.Anything).Return(sampleTransactions(), nil)
	router := NewRouter(NewHandlers(source, slog.Default()))

	t.Run("matching item", func(t *testing.T) {
		rec := do(t, router, "/api/v1/trends?item=WID")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp []struct {
			ItemKey string              `json:"item_key"`
			Points  []models.PriceTrend `json:"points"`
		}
		decode(t, rec, &resp)
		require.Len(t, resp, 1)
		assert.Equal(t, "widget", resp[0].ItemKey)
		require.Len(t, resp[0].Points, 2)
		require.NotNil(t, resp[0].Points[0].AvgBought)
		assert.InDelta(t, 11.3333, *resp[0].Points[0].AvgBought, 1e-4)
		assert.Nil(t, resp[0].Points[0].AvgSold)
	})

	t.Run("no match", func(t *testing.T) {
		rec := do(t, router, "/api/v1/trends?item=cheese")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "No items found matching: cheese")
	})

	t.Run("missing item", func(t *testing.T) {
		rec := do(t, router, "/api/v1/trends")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetLookupAndConflicts(t *testing.T) {
	source := new(MockSource)
	source.On("LookupEntries", mock.Anything).Return([]models.LookupEntry{
		{Store: "Tesco", ItemKey: "bread", Item: "Bread", ProductCode: 1},
		{Store: "Tesco", ItemKey: "bread", Item: "Bread", ProductCode: 2},
		{Store: "Aldi", ItemKey: "milk", Item: "Milk", ProductCode: 3},
	}, nil)
	router := NewRouter(NewHandlers(source, slog.Default()))

	rec := do(t, router, "/api/v1/lookup")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []models.LookupEntry
	decode(t, rec, &entries)
	assert.Len(t, entries, 3)

	rec = do(t, router, "/api/v1/lookup/conflicts")
	require.Equal(t, http.StatusOK, rec.Code)
	var conflicts ConflictsResponse
	decode(t, rec, &conflicts)
	require.Len(t, conflicts.Conflicts, 1)
	assert.Equal(t, []int64{1, 2}, conflicts.Conflicts[0].Codes)
	assert.Equal(t, []string{"Tesco"}, conflicts.Stores)
}

func TestGetConflicts_NoneIsEmptyList(t *testing.T) {
	source := new(MockSource)
	source.On("LookupEntries", mock.Anything).Return(nil, nil)
	router := NewRouter(NewHandlers(source, slog.Default()))

	rec := do(t, router, "/api/v1/lookup/conflicts")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"conflicts":[],"stores":[]}`, rec.Body.String())
}

func TestGetLatestPrices(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		router := NewRouter(NewHandlers(new(MockSource), slog.Default()))
		rec := do(t, router, "/api/v1/prices/latest")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("lists latest", func(t *testing.T) {
		prices := new(MockPrices)
		price := 1.5
		prices.On("Latest", mock.Anything, 3).Return([]models.HistoryRecord{
			{Name: "Oat Milk", OverallPrice: &price, ScrapedAt: time.Now()},
		}, nil)
		router := NewRouter(NewHandlers(new(MockSource), slog.Default(), WithPriceHistory(prices, new(MockPinger))))

		rec := do(t, router, "/api/v1/prices/latest?limit=3")

		require.Equal(t, http.StatusOK, rec.Code)
		var records []models.HistoryRecord
		decode(t, rec, &records)
		require.Len(t, records, 1)
		assert.Equal(t, "Oat Milk", records[0].Name)
		prices.AssertExpectations(t)
	})
}
