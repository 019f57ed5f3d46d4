package analysis

import (
	"sort"
	"strings"
	"time"

	"github.com/maltedev/price-ledger/internal/models"
)

type monthKey struct {
	item  string
	year  int
	month time.Month
}

type weighted struct {
	value    float64
	quantity float64
}

func (w weighted) average() *float64 {
	if w.quantity == 0 {
		return nil
	}
	avg := w.value / w.quantity
	return &avg
}

// WeightedMonthlyAverages computes Σ(price×quantity)/Σquantity per item and
// calendar month, separately for BOUGHT and SOLD rows, and joins the two
// sides. A month traded on one side only has a nil average on the other.
func WeightedMonthlyAverages(txns []models.Transaction) []models.PriceTrend {
	bought := make(map[monthKey]weighted)
	sold := make(map[monthKey]weighted)
	months := make(map[monthKey]time.Time)

	for _, tx := range txns {
		var side map[monthKey]weighted
		switch tx.State {
		case models.StateBought:
			side = bought
		case models.StateSold:
			side = sold
		default:
			continue
		}

		y, m, _ := tx.Date.Date()
		k := monthKey{item: tx.ItemKey, year: y, month: m}
		w := side[k]
		w.value += tx.Price * tx.Quantity
		w.quantity += tx.Quantity
		side[k] = w

		if _, ok := months[k]; !ok {
			months[k] = time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		}
	}

	trends := make([]models.PriceTrend, 0, len(months))
	for k, month := range months {
		t := models.PriceTrend{ItemKey: k.item, Month: month}
		if w, ok := bought[k]; ok {
			t.AvgBought = w.average()
		}
		if w, ok := sold[k]; ok {
			t.AvgSold = w.average()
		}
		trends = append(trends, t)
	}

	sort.Slice(trends, func(i, j int) bool {
		if trends[i].ItemKey != trends[j].ItemKey {
			return trends[i].ItemKey < trends[j].ItemKey
		}
		return trends[i].Month.Before(trends[j].Month)
	})
	return trends
}

// ItemTrend is the month-ordered series of one item.
type ItemTrend struct {
	ItemKey string              `json:"item_key"`
	Points  []models.PriceTrend `json:"points"`
}

// MatchTrends groups the trends of every item whose key contains term,
// case-insensitively. trends must be sorted as WeightedMonthlyAverages
// returns them.
func MatchTrends(trends []models.PriceTrend, term string) []ItemTrend {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}

	var out []ItemTrend
	for _, t := range trends {
		if !strings.Contains(strings.ToLower(t.ItemKey), term) {
			continue
		}
		if len(out) == 0 || out[len(out)-1].ItemKey != t.ItemKey {
			out = append(out, ItemTrend{ItemKey: t.ItemKey})
		}
		last := &out[len(out)-1]
		last.Points = append(last.Points, t)
	}
	return out
}
