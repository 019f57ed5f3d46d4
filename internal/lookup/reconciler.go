// Package lookup maintains the persisted (store, item) → product code table.
package lookup

import (
	"hash/fnv"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/maltedev/price-ledger/internal/models"
)

const (
	DefaultCodeBase  int64 = 900_000_000
	DefaultCodeRange int64 = 10_000_000
)

type Options struct {
	CodeBase  int64
	CodeRange int64
}

func (o Options) withDefaults() Options {
	if o.CodeBase <= 0 {
		o.CodeBase = DefaultCodeBase
	}
	if o.CodeRange <= 0 {
		o.CodeRange = DefaultCodeRange
	}
	return o
}

// SyntheticCode hashes a (store, item key) pair into [base, base+span).
// FNV-1a keeps the value stable across runs and builds. A unit separator
// between the parts keeps ("AB", "c") and ("A", "Bc") apart.
func SyntheticCode(base, span int64, store, itemKey string) int64 {
	h := fnv.New64a()
	h.Write([]byte(store))
	h.Write([]byte{0x1f})
	h.Write([]byte(itemKey))
	return base + int64(h.Sum64()%uint64(span))
}

// ParseCode accepts integral product codes, including spreadsheet floats
// such as "1234.0".
func ParseCode(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

type triple struct {
	store   string
	itemKey string
	code    int64
}

func tripleOf(e models.LookupEntry) triple {
	return triple{store: e.Store, itemKey: e.ItemKey, code: e.ProductCode}
}

// Reconciler merges transactions into an existing lookup table.
type Reconciler struct {
	opts      Options
	entries   []models.LookupEntry
	seen      map[triple]bool
	codeOwner map[int64]models.LookupKey
	synthetic map[models.LookupKey]int64
	logger    *slog.Logger
}

func NewReconciler(existing []models.LookupEntry, opts Options, logger *slog.Logger) *Reconciler {
	r := &Reconciler{
		opts:      opts.withDefaults(),
		seen:      make(map[triple]bool, len(existing)),
		codeOwner: make(map[int64]models.LookupKey, len(existing)),
		synthetic: make(map[models.LookupKey]int64),
		logger:    logger.With("component", "lookup"),
	}
	for _, e := range existing {
		r.add(e)
	}
	return r
}

func (r *Reconciler) add(e models.LookupEntry) bool {
	t := tripleOf(e)
	if r.seen[t] {
		return false
	}
	r.seen[t] = true
	r.entries = append(r.entries, e)
	if _, taken := r.codeOwner[e.ProductCode]; !taken {
		r.codeOwner[e.ProductCode] = e.Key()
	}
	return true
}

// syntheticFor returns the pair's hashed code, stepping forward inside the
// range while the code belongs to a different pair.
func (r *Reconciler) syntheticFor(key models.LookupKey) int64 {
	if code, ok := r.synthetic[key]; ok {
		return code
	}

	base, span := r.opts.CodeBase, r.opts.CodeRange
	code := SyntheticCode(base, span, key.Store, key.ItemKey)
	for i := int64(0); i < span; i++ {
		owner, taken := r.codeOwner[code]
		if !taken || owner == key {
			break
		}
		r.logger.Warn("synthetic code collision, probing",
			"store", key.Store, "item_key", key.ItemKey, "code", code,
			"owner_store", owner.Store, "owner_item_key", owner.ItemKey)
		code = base + (code-base+1)%span
	}

	r.synthetic[key] = code
	return code
}

type Result struct {
	Entries      []models.LookupEntry
	Transactions []models.Transaction
	Added        int
}

// Reconcile resolves a code for every transaction, adds novel
// (store, item key, code) triples and returns the sorted table together with
// copies of the transactions carrying their resolved codes.
func (r *Reconciler) Reconcile(txns []models.Transaction) *Result {
	res := &Result{Transactions: make([]models.Transaction, len(txns))}

	for i, tx := range txns {
		key := models.LookupKey{Store: tx.Store, ItemKey: tx.ItemKey}

		code, ok := ParseCode(tx.ProductCode)
		if !ok {
			code = r.syntheticFor(key)
		}

		if r.add(models.LookupEntry{Store: tx.Store, ItemKey: tx.ItemKey, Item: tx.Item, ProductCode: code}) {
			res.Added++
		}

		tx.ProductCode = formatCode(code)
		res.Transactions[i] = tx
	}

	res.Entries = Normalize(r.entries)
	r.logger.Info("lookup reconciled",
		"transactions", len(txns),
		"added", res.Added,
		"entries", len(res.Entries))
	return res
}

// Normalize drops repeated triples, keeping the first display name, and
// sorts by store, item key and code.
func Normalize(entries []models.LookupEntry) []models.LookupEntry {
	seen := make(map[triple]bool, len(entries))
	out := make([]models.LookupEntry, 0, len(entries))
	for _, e := range entries {
		t := tripleOf(e)
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Store != b.Store {
			return a.Store < b.Store
		}
		if a.ItemKey != b.ItemKey {
			return a.ItemKey < b.ItemKey
		}
		return a.ProductCode < b.ProductCode
	})
	return out
}
