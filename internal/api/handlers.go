package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/maltedev/price-ledger/internal/analysis"
	"github.com/maltedev/price-ledger/internal/lookup"
	"github.com/maltedev/price-ledger/internal/models"
	"github.com/maltedev/price-ledger/internal/sheet"
)

const (
	defaultTop   = 5
	defaultLimit = 20
)

// Source supplies the data the reports are computed from.
type Source interface {
	Transactions(ctx context.Context) ([]models.Transaction, error)
	LookupEntries(ctx context.Context) ([]models.LookupEntry, error)
}

type PriceLister interface {
	Latest(ctx context.Context, limit int) ([]models.HistoryRecord, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	source Source
	prices PriceLister
	db     Pinger
	logger *slog.Logger
}

type Option func(*Handlers)

// WithPriceHistory enables /prices/latest and the database health check.
func WithPriceHistory(prices PriceLister, db Pinger) Option {
	return func(h *Handlers) {
		h.prices = prices
		h.db = db
	}
}

func NewHandlers(source Source, logger *slog.Logger, opts ...Option) *Handlers {
	h := &Handlers{
		source: source,
		logger: logger.With("component", "api"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HealthResponse reports the server and, when configured, database status
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	status := http.StatusOK

	if h.db != nil {
		resp.Database = "ok"
		if err := h.db.Ping(r.Context()); err != nil {
			h.logger.Error("database ping failed", "error", err)
			resp.Status = "error"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}

	h.respondJSON(w, status, resp)
}

// SummaryResponse is the summary with display-formatted money columns
type SummaryResponse struct {
	analysis.Summary
	TopItemsDisplay []DisplayRow `json:"top_items_display"`
	TopSalesDisplay []DisplayRow `json:"top_sales_display"`
}

type DisplayRow struct {
	ItemKey string `json:"item_key"`
	Count   int    `json:"trade_count,omitempty"`
	Value   string `json:"value"`
}

func (h *Handlers) GetSummary(w http.ResponseWriter, r *http.Request) {
	top, err := positiveQueryInt(r, "top", defaultTop)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	txns, ok := h.transactions(w, r)
	if !ok {
		return
	}

	summary := analysis.Summarize(txns, top)
	resp := SummaryResponse{Summary: summary}
	for _, s := range summary.TopItems {
		resp.TopItemsDisplay = append(resp.TopItemsDisplay, DisplayRow{
			ItemKey: s.ItemKey, Count: s.TradeCount, Value: analysis.FormatMoney(s.TotalValue),
		})
	}
	for _, s := range summary.TopSales {
		resp.TopSalesDisplay = append(resp.TopSalesDisplay, DisplayRow{
			ItemKey: s.ItemKey, Value: analysis.FormatMoney(s.TotalSales),
		})
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *Handlers) GetTrends(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("item")
	if term == "" {
		h.respondError(w, http.StatusBadRequest, "item is required")
		return
	}

	txns, ok := h.transactions(w, r)
	if !ok {
		return
	}

	matches := analysis.MatchTrends(analysis.WeightedMonthlyAverages(txns), term)
	if len(matches) == 0 {
		h.respondError(w, http.StatusNotFound, fmt.Sprintf("No items found matching: %s", term))
		return
	}

	h.respondJSON(w, http.StatusOK, matches)
}

func (h *Handlers) GetLookup(w http.ResponseWriter, r *http.Request) {
	entries, err := h.source.LookupEntries(r.Context())
	if err != nil {
		h.logger.Error("failed to load lookup", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load lookup")
		return
	}
	if entries == nil {
		entries = []models.LookupEntry{}
	}

	h.respondJSON(w, http.StatusOK, entries)
}

// ConflictsResponse lists pairs with more than one code
type ConflictsResponse struct {
	Conflicts []lookup.Conflict `json:"conflicts"`
	Stores    []string          `json:"stores"`
}

func (h *Handlers) GetConflicts(w http.ResponseWriter, r *http.Request) {
	entries, err := h.source.LookupEntries(r.Context())
	if err != nil {
		h.logger.Error("failed to load lookup", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load lookup")
		return
	}

	conflicts := lookup.Conflicts(entries)
	resp := ConflictsResponse{
		Conflicts: conflicts,
		Stores:    lookup.ConflictingStores(conflicts),
	}
	if resp.Conflicts == nil {
		resp.Conflicts = []lookup.Conflict{}
		resp.Stores = []string{}
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *Handlers) GetLatestPrices(w http.ResponseWriter, r *http.Request) {
	if h.prices == nil {
		h.respondError(w, http.StatusNotFound, "price history mirror not configured")
		return
	}

	limit, err := positiveQueryInt(r, "limit", defaultLimit)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.prices.Latest(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list prices", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list prices")
		return
	}
	if records == nil {
		records = []models.HistoryRecord{}
	}

	h.respondJSON(w, http.StatusOK, records)
}

func (h *Handlers) transactions(w http.ResponseWriter, r *http.Request) ([]models.Transaction, bool) {
	txns, err := h.source.Transactions(r.Context())
	if errors.Is(err, sheet.ErrNotFound) {
		h.respondError(w, http.StatusNotFound, "cleaned file not found, run build-lookup first")
		return nil, false
	}
	if err != nil {
		h.logger.Error("failed to load transactions", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load transactions")
		return nil, false
	}
	return txns, true
}

func positiveQueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return n, nil
}

// Helper methods
func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
