package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maltedev/price-ledger/internal/models"
	"github.com/maltedev/price-ledger/internal/sheet"
)

// Repository persists the lookup table between runs.
type Repository interface {
	Load(ctx context.Context) ([]models.LookupEntry, error)
	Save(ctx context.Context, entries []models.LookupEntry) error
}

const (
	LookupSheet    = "Lookup"
	ConflictsSheet = "Conflicts"
)

var Columns = []string{"store", "item_key", "item", "productCode"}

// SheetRepository keeps the lookup in an .xlsx workbook. Conflicts, when
// present, are written to a second sheet for the operator to review.
type SheetRepository struct {
	path   string
	logger *slog.Logger
}

func NewSheetRepository(path string, logger *slog.Logger) *SheetRepository {
	return &SheetRepository{
		path:   path,
		logger: logger.With("component", "lookup_sheet"),
	}
}

func (r *SheetRepository) Load(ctx context.Context) ([]models.LookupEntry, error) {
	table, err := sheet.ReadSheet(r.path, LookupSheet)
	if errors.Is(err, sheet.ErrNotFound) {
		r.logger.Info("no lookup table yet", "path", r.path)
		return nil, nil
	}
	if errors.Is(err, sheet.ErrSheetNotFound) {
		table, err = sheet.Read(r.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load lookup: %w", err)
	}

	table.TrimHeaders()
	store, itemKey, item, code := table.Index("store"), table.Index("item_key"), table.Index("item"), table.Index("productCode")
	if store < 0 || code < 0 || (itemKey < 0 && item < 0) {
		return nil, fmt.Errorf("lookup %s must have store, item_key or item, and productCode columns", r.path)
	}

	var entries []models.LookupEntry
	for _, row := range table.Rows {
		e := models.LookupEntry{
			Store: strings.TrimSpace(sheet.Cell(row, store)),
			Item:  strings.TrimSpace(sheet.Cell(row, item)),
		}
		e.ItemKey = models.ItemKey(sheet.Cell(row, itemKey))
		if e.ItemKey == "" {
			e.ItemKey = models.ItemKey(e.Item)
		}
		if e.Item == "" {
			e.Item = e.ItemKey
		}

		c, ok := ParseCode(sheet.Cell(row, code))
		if !ok || e.ItemKey == "" {
			r.logger.Warn("skipping lookup row", "store", e.Store, "item_key", e.ItemKey, "code", sheet.Cell(row, code))
			continue
		}
		e.ProductCode = c
		entries = append(entries, e)
	}

	return entries, nil
}

func (r *SheetRepository) Save(ctx context.Context, entries []models.LookupEntry) error {
	entries = Normalize(entries)
	sheets := []sheet.Sheet{EntriesSheet(entries)}
	if conflicts := Conflicts(entries); len(conflicts) > 0 {
		sheets = append(sheets, ConflictsToSheet(conflicts))
	}

	if err := sheet.WriteWorkbook(r.path, sheets...); err != nil {
		return fmt.Errorf("failed to save lookup: %w", err)
	}

	r.logger.Info("lookup saved", "path", r.path, "entries", len(entries))
	return nil
}

func EntriesSheet(entries []models.LookupEntry) sheet.Sheet {
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{e.Store, e.ItemKey, e.Item, e.ProductCode})
	}
	return sheet.Sheet{Name: LookupSheet, Headers: Columns, Rows: rows}
}

func ConflictsToSheet(conflicts []Conflict) sheet.Sheet {
	rows := make([][]any, 0, len(conflicts))
	for _, c := range conflicts {
		codes := make([]string, len(c.Codes))
		for i, code := range c.Codes {
			codes[i] = formatCode(code)
		}
		rows = append(rows, []any{c.Store, c.ItemKey, strings.Join(codes, ", ")})
	}
	return sheet.Sheet{Name: ConflictsSheet, Headers: []string{"store", "item_key", "codes"}, Rows: rows}
}
