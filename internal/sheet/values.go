package sheet

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ParseFloat reads a numeric cell. Empty, non-numeric, NaN and infinite
// values are not ok.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// OptionalFloat is ParseFloat returning nil for a missing value.
func OptionalFloat(s string) *float64 {
	if v, ok := ParseFloat(s); ok {
		return &v
	}
	return nil
}

// ParseSerialDate converts a spreadsheet date serial such as "45296" or
// "45296.5" to a time in UTC.
func ParseSerialDate(s string) (time.Time, bool) {
	v, ok := ParseFloat(s)
	if !ok || v <= 0 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(v, false)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
