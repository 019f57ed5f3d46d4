// Package chart renders monthly weighted price trends for the items that
// match a search term.
package chart

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/maltedev/price-ledger/internal/analysis"
	"github.com/maltedev/price-ledger/internal/models"
)

type Renderer interface {
	Render(item string, points []models.PriceTrend) error
}

// RenderMatches renders every item matching term. It reports whether any
// item matched; when none does it prints a notice to out and renders nothing.
func RenderMatches(r Renderer, out io.Writer, trends []models.PriceTrend, term string) (bool, error) {
	matches := analysis.MatchTrends(trends, term)
	if len(matches) == 0 {
		fmt.Fprintf(out, "No items found matching: %s\n", term)
		return false, nil
	}

	for _, m := range matches {
		if err := r.Render(m.ItemKey, m.Points); err != nil {
			return true, fmt.Errorf("failed to render %q: %w", m.ItemKey, err)
		}
	}
	return true, nil
}

const monthLayout = "2006-01"

// TextRenderer prints each series as an aligned console table.
type TextRenderer struct {
	out io.Writer
}

func NewTextRenderer(out io.Writer) *TextRenderer {
	return &TextRenderer{out: out}
}

func (r *TextRenderer) Render(item string, points []models.PriceTrend) error {
	fmt.Fprintf(r.out, "\nMonthly Weighted Avg Prices for %s\n", item)

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Month\tAvg Bought\tAvg Sold")
	for _, p := range points {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Month.Format(monthLayout), price(p.AvgBought), price(p.AvgSold))
	}
	return w.Flush()
}

func price(v *float64) string {
	if v == nil {
		return "-"
	}
	return analysis.FormatCurrency(*v)
}
