package lookup

import (
	"sort"

	"github.com/maltedev/price-ledger/internal/models"
)

// Conflict is a (store, item key) pair that maps to more than one code.
type Conflict struct {
	Store   string  `json:"store"`
	ItemKey string  `json:"item_key"`
	Codes   []int64 `json:"codes"`
}

// Conflicts reports every pair with more than one distinct code. It never
// changes the table.
func Conflicts(entries []models.LookupEntry) []Conflict {
	codes := make(map[models.LookupKey]map[int64]bool)
	for _, e := range entries {
		k := e.Key()
		if codes[k] == nil {
			codes[k] = make(map[int64]bool)
		}
		codes[k][e.ProductCode] = true
	}

	var out []Conflict
	for k, set := range codes {
		if len(set) < 2 {
			continue
		}
		c := Conflict{Store: k.Store, ItemKey: k.ItemKey}
		for code := range set {
			c.Codes = append(c.Codes, code)
		}
		sort.Slice(c.Codes, func(i, j int) bool { return c.Codes[i] < c.Codes[j] })
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Store != out[j].Store {
			return out[i].Store < out[j].Store
		}
		return out[i].ItemKey < out[j].ItemKey
	})
	return out
}

// ConflictingStores lists the stores that have at least one conflict.
func ConflictingStores(conflicts []Conflict) []string {
	var stores []string
	for i, c := range conflicts {
		if i == 0 || conflicts[i-1].Store != c.Store {
			stores = append(stores, c.Store)
		}
	}
	return stores
}
