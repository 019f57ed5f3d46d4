// Package cleaner turns an arbitrary transaction spreadsheet into canonical
// transactions.
package cleaner

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/maltedev/price-ledger/internal/models"
	"github.com/maltedev/price-ledger/internal/sheet"
)

const (
	ColStore       = "store"
	ColLocation    = "location"
	ColItem        = "item"
	ColPrice       = "price"
	ColQuantity    = "quantity"
	ColDate        = "date"
	ColCategory    = "category"
	ColName        = "name"
	ColState       = "state"
	ColProductCode = "productCode"
	ColItemKey     = "item_key"
	ColTotalValue  = "total_value"

	DefaultCategory = "Uncategorized"
)

// RequiredColumns are checked in this order; the first missing one is
// reported.
var RequiredColumns = []string{ColStore, ColLocation, ColItem, ColPrice, ColQuantity, ColDate}

// DefaultExcludeStates are open or cancelled orders that never settled.
var DefaultExcludeStates = []string{"SELLING", "BUYING", "CANCELLED_BUY", "CANCELLED_SELL"}

type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column %q", e.Column)
}

type Options struct {
	// ExcludeStates drops rows whose normalized state is listed.
	ExcludeStates []string
}

type Result struct {
	Transactions []models.Transaction
	Read         int
	Dropped      int
	Excluded     int
	Warnings     []string
}

// Clean validates and normalizes t. The table headers are trimmed in place.
func Clean(t *sheet.Table, opts Options) (*Result, error) {
	t.TrimHeaders()

	for _, col := range RequiredColumns {
		if !t.Has(col) {
			return nil, &MissingColumnError{Column: col}
		}
	}

	excluded := make(map[models.State]bool, len(opts.ExcludeStates))
	for _, s := range opts.ExcludeStates {
		excluded[models.NormalizeState(s)] = true
	}

	idx := func(name string) int { return t.Index(name) }
	var (
		store, location, item = idx(ColStore), idx(ColLocation), idx(ColItem)
		price, quantity, date = idx(ColPrice), idx(ColQuantity), idx(ColDate)
		category, name        = idx(ColCategory), idx(ColName)
		state, code           = idx(ColState), idx(ColProductCode)
	)

	res := &Result{Read: len(t.Rows)}
	for _, row := range t.Rows {
		itemName := strings.TrimSpace(sheet.Cell(row, item))
		d, dateOK := ParseDate(sheet.Cell(row, date))
		p, priceOK := ParsePrice(sheet.Cell(row, price))
		q, qtyOK := sheet.ParseFloat(sheet.Cell(row, quantity))

		if itemName == "" || !dateOK || !priceOK || !qtyOK || math.IsInf(p*q, 0) {
			res.Dropped++
			continue
		}

		st := models.NormalizeState(sheet.Cell(row, state))
		if excluded[st] {
			res.Excluded++
			continue
		}

		tx := models.Transaction{
			Item:        itemName,
			ItemKey:     models.ItemKey(itemName),
			Name:        strings.TrimSpace(sheet.Cell(row, name)),
			Store:       strings.TrimSpace(sheet.Cell(row, store)),
			Location:    strings.TrimSpace(sheet.Cell(row, location)),
			Category:    strings.TrimSpace(sheet.Cell(row, category)),
			Price:       p,
			Quantity:    q,
			Date:        d,
			State:       st,
			ProductCode: strings.TrimSpace(sheet.Cell(row, code)),
			TotalValue:  p * q,
		}
		if tx.Category == "" {
			tx.Category = DefaultCategory
		}
		if tx.Name == "" {
			tx.Name = itemName
		}

		res.Transactions = append(res.Transactions, tx)
	}

	sort.SliceStable(res.Transactions, func(i, j int) bool {
		return res.Transactions[i].Date.Before(res.Transactions[j].Date)
	})

	res.Warnings = qualityWarnings(res.Transactions)
	return res, nil
}

func qualityWarnings(txns []models.Transaction) []string {
	var badQty, badPrice int
	for _, tx := range txns {
		if tx.Quantity <= 0 {
			badQty++
		}
		if tx.Price <= 0 {
			badPrice++
		}
	}

	var warnings []string
	if badQty > 0 {
		warnings = append(warnings, fmt.Sprintf("%d rows with quantity <= 0", badQty))
	}
	if badPrice > 0 {
		warnings = append(warnings, fmt.Sprintf("%d rows with price <= 0", badPrice))
	}
	return warnings
}

// ParsePrice accepts plain numbers and pound amounts such as "£1,250.00".
func ParsePrice(s string) (float64, bool) {
	s = strings.NewReplacer("£", "", ",", "").Replace(s)
	return sheet.ParseFloat(s)
}

// CleanFile reads the first sheet of path and cleans it.
func CleanFile(path string, opts Options) (*Result, error) {
	table, err := sheet.Read(path)
	if err != nil {
		return nil, err
	}
	return Clean(table, opts)
}
