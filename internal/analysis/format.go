package analysis

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount as pounds with thousands separators and two
// decimals, e.g. £1,234.56 or -£3.10.
func FormatMoney(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	whole := d.Truncate(0)
	pence := d.Sub(whole).Shift(2).IntPart()
	return fmt.Sprintf("%s£%s.%02d", sign, humanize.Comma(whole.IntPart()), pence)
}

func FormatCurrency(v float64) string {
	return FormatMoney(decimal.NewFromFloat(v))
}
