package cleaner

import (
	"strings"
	"time"

	"github.com/maltedev/price-ledger/internal/sheet"
)

// Day-first layouts, tried in order after ISO dates. A bare year is
// January 1st of that year.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"2/1/2006 15:04",
	"02/01/06",
	"2/1/06",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"2.1.2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"2006",
}

// ParseDate reads a date cell day-first. Text layouts win over spreadsheet
// serials, so "2024" is a year and not serial day 2024.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return sheet.ParseSerialDate(s)
}
