package lookup

import (
	"sort"
	"strconv"

	"github.com/maltedev/price-ledger/internal/models"
)

// ItemCode is one row of the item → code table built from receipts.
type ItemCode struct {
	ItemKey string `json:"item_key"`
	Code    int64  `json:"product_code"`
}

// FillCodesByItem builds the distinct item → code table from transactions.
// Uncoded rows add nothing: they take their item's code when it has exactly
// one, and items with no code at all are dropped.
func FillCodesByItem(txns []models.Transaction) []ItemCode {
	type group struct {
		codes []int64
		known map[int64]bool
	}

	groups := make(map[string]*group)
	var order []string
	for _, tx := range txns {
		g, ok := groups[tx.ItemKey]
		if !ok {
			g = &group{known: make(map[int64]bool)}
			groups[tx.ItemKey] = g
			order = append(order, tx.ItemKey)
		}

		code, ok := ParseCode(tx.ProductCode)
		if ok && !g.known[code] {
			g.known[code] = true
			g.codes = append(g.codes, code)
		}
	}

	sort.Strings(order)

	var out []ItemCode
	for _, item := range order {
		for _, code := range groups[item].codes {
			out = append(out, ItemCode{ItemKey: item, Code: code})
		}
	}
	return out
}

// MergeCodes copies codes from the lookup onto uncoded transactions. Pairs
// that are unknown, or that have more than one code, stay uncoded and are
// counted as unresolved.
func MergeCodes(txns []models.Transaction, entries []models.LookupEntry) ([]models.Transaction, int) {
	byKey := make(map[models.LookupKey][]int64)
	for _, e := range Normalize(entries) {
		byKey[e.Key()] = append(byKey[e.Key()], e.ProductCode)
	}

	out := make([]models.Transaction, len(txns))
	unresolved := 0
	for i, tx := range txns {
		if _, ok := ParseCode(tx.ProductCode); !ok {
			codes := byKey[models.LookupKey{Store: tx.Store, ItemKey: tx.ItemKey}]
			if len(codes) == 1 {
				tx.ProductCode = formatCode(codes[0])
			} else {
				unresolved++
			}
		}
		out[i] = tx
	}
	return out, unresolved
}

func formatCode(code int64) string {
	return strconv.FormatInt(code, 10)
}
