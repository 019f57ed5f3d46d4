// Package analysis aggregates cleaned transactions into the figures the
// summary tools print: unique items, top-N rankings and monthly weighted
// average prices.
package analysis

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/maltedev/price-ledger/internal/models"
)

// ItemStats is one row of the most-frequently-traded table.
type ItemStats struct {
	ItemKey       string          `json:"item_key"`
	TradeCount    int             `json:"trade_count"`
	TotalQuantity float64         `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// ItemSales is one row of the top-sellers table.
type ItemSales struct {
	ItemKey    string          `json:"item_key"`
	TotalSales decimal.Decimal `json:"total_sales"`
}

func lineValue(tx models.Transaction) decimal.Decimal {
	return decimal.NewFromFloat(tx.Price).Mul(decimal.NewFromFloat(tx.Quantity))
}

func UniqueItems(txns []models.Transaction) int {
	seen := make(map[string]struct{}, len(txns))
	for _, tx := range txns {
		seen[tx.ItemKey] = struct{}{}
	}
	return len(seen)
}

// TopByFrequency ranks items by trade count. Items with equal counts keep
// the order in which they first appear in txns.
func TopByFrequency(txns []models.Transaction, n int) []ItemStats {
	index := make(map[string]int)
	var stats []ItemStats
	for _, tx := range txns {
		i, ok := index[tx.ItemKey]
		if !ok {
			i = len(stats)
			index[tx.ItemKey] = i
			stats = append(stats, ItemStats{ItemKey: tx.ItemKey})
		}
		s := &stats[i]
		s.TradeCount++
		s.TotalQuantity += tx.Quantity
		s.TotalValue = s.TotalValue.Add(lineValue(tx))
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].TradeCount > stats[j].TradeCount
	})
	return head(stats, n)
}

// TopBySales ranks items by revenue over SOLD rows only.
func TopBySales(txns []models.Transaction, n int) []ItemSales {
	index := make(map[string]int)
	var sales []ItemSales
	for _, tx := range txns {
		if tx.State != models.StateSold {
			continue
		}
		i, ok := index[tx.ItemKey]
		if !ok {
			i = len(sales)
			index[tx.ItemKey] = i
			sales = append(sales, ItemSales{ItemKey: tx.ItemKey})
		}
		sales[i].TotalSales = sales[i].TotalSales.Add(lineValue(tx))
	}

	sort.SliceStable(sales, func(i, j int) bool {
		return sales[i].TotalSales.GreaterThan(sales[j].TotalSales)
	})
	return head(sales, n)
}

func head[T any](s []T, n int) []T {
	if n >= 0 && len(s) > n {
		return s[:n]
	}
	return s
}

// Summary is the report printed by the summary tool and served by the API.
type Summary struct {
	TotalRows   int         `json:"total_rows"`
	UniqueItems int         `json:"unique_items"`
	TopItems    []ItemStats `json:"top_items"`
	TopSales    []ItemSales `json:"top_sales"`
}

func Summarize(txns []models.Transaction, n int) Summary {
	return Summary{
		TotalRows:   len(txns),
		UniqueItems: UniqueItems(txns),
		TopItems:    TopByFrequency(txns, n),
		TopSales:    TopBySales(txns, n),
	}
}
