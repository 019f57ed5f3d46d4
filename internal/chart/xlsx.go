package chart

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/maltedev/price-ledger/internal/models"
	"github.com/maltedev/price-ledger/internal/sheet"
)

const maxSheetName = 31

var trendHeaders = []any{"month", "weighted_avg_bought_price", "weighted_avg_sold_price"}

// XLSXRenderer collects one sheet per item, each holding the series and a
// line chart of it. Nothing is written until Save.
type XLSXRenderer struct {
	path   string
	file   *excelize.File
	sheets map[string]bool
	logger *slog.Logger
}

func NewXLSXRenderer(path string, logger *slog.Logger) *XLSXRenderer {
	return &XLSXRenderer{
		path:   path,
		file:   excelize.NewFile(),
		sheets: make(map[string]bool),
		logger: logger.With("component", "chart"),
	}
}

func (r *XLSXRenderer) Render(item string, points []models.PriceTrend) error {
	name := r.sheetName(item)
	if len(r.sheets) == 0 {
		if err := r.file.SetSheetName(r.file.GetSheetName(0), name); err != nil {
			return fmt.Errorf("failed to name sheet %s: %w", name, err)
		}
	} else if _, err := r.file.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	r.sheets[name] = true

	if err := r.file.SetSheetRow(name, "A1", &trendHeaders); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, p := range points {
		row := []any{p.Month.Format(monthLayout), sheet.Nullable(p.AvgBought), sheet.Nullable(p.AvgSold)}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := r.file.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := r.file.SetColWidth(name, "A", "C", 28); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	last := len(points) + 1
	ref := quote(name)
	series := func(col string) excelize.ChartSeries {
		return excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", ref, col),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", ref, last),
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", ref, col, col, last),
			Marker:     excelize.ChartMarker{Symbol: "circle", Size: 6},
		}
	}

	err := r.file.AddChart(name, "E2", &excelize.Chart{
		Type:   excelize.Line,
		Series: []excelize.ChartSeries{series("B"), series("C")},
		Title:  []excelize.RichTextRun{{Text: "Monthly Weighted Avg Prices for " + item}},
		Legend: excelize.ChartLegend{Position: "bottom"},
		XAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Month"}}},
		YAxis:  excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Price (£)"}}},
		// Months traded on one side only leave gaps rather than drops to zero.
		ShowBlanksAs: "gap",
	})
	if err != nil {
		return fmt.Errorf("failed to add chart: %w", err)
	}

	r.logger.Debug("chart rendered", "item", item, "sheet", name, "points", len(points))
	return nil
}

// Rendered is the number of item sheets collected so far.
func (r *XLSXRenderer) Rendered() int {
	return len(r.sheets)
}

// Save writes the workbook through a temp file and rename. It is a no-op when
// nothing was rendered.
func (r *XLSXRenderer) Save() error {
	defer r.file.Close()
	if len(r.sheets) == 0 {
		return nil
	}

	tmp := r.path + ".tmp.xlsx"
	if err := r.file.SaveAs(tmp); err != nil {
		return fmt.Errorf("failed to save chart workbook: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename chart workbook: %w", err)
	}

	r.logger.Info("charts saved", "path", r.path, "items", len(r.sheets))
	return nil
}

func (r *XLSXRenderer) sheetName(item string) string {
	base := strings.Map(func(c rune) rune {
		switch c {
		case '[', ']', ':', '*', '?', '/', '\\', '\'':
			return '_'
		}
		return c
	}, item)
	if strings.TrimSpace(base) == "" {
		base = "item"
	}
	base = truncate(base, maxSheetName)

	name := base
	for n := 2; r.sheets[name]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		name = truncate(base, maxSheetName-len([]rune(suffix))) + suffix
	}
	return name
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n])
	}
	return s
}

func quote(sheet string) string {
	return "'" + sheet + "'"
}
