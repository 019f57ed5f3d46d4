package sheet

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// Sheet is one logical table to be written into a workbook.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
}

const columnPadding = 2

// WriteWorkbook writes sheets in order into a new .xlsx at path, sizing each
// column to its longest cell. The file is written to a temp name first and
// renamed into place.
func WriteWorkbook(path string, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", s.Name, err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", s.Name, err)
		}

		if err := writeSheet(f, s); err != nil {
			return err
		}
	}

	return save(f, path)
}

func writeSheet(f *excelize.File, s Sheet) error {
	widths := make([]int, len(s.Headers))

	header := make([]any, len(s.Headers))
	for i, h := range s.Headers {
		header[i] = h
		widths[i] = utf8.RuneCountInString(h)
	}
	if err := f.SetSheetRow(s.Name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", s.Name, err)
	}

	for r, row := range s.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for c, v := range row {
			values[c] = v
			if c < len(widths) {
				if n := utf8.RuneCountInString(CellText(v)); n > widths[c] {
					widths[c] = n
				}
			}
		}
		if err := f.SetSheetRow(s.Name, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", r+2, s.Name, err)
		}
	}

	for c, w := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(s.Name, col, col, float64(w+columnPadding)); err != nil {
			return fmt.Errorf("failed to size column %s of %s: %w", col, s.Name, err)
		}
	}

	return nil
}

// CellText renders a cell value the way it is measured for column widths.
func CellText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprint(val)
	}
}

// Nullable turns an optional number into a cell value; nil leaves the cell
// empty.
func Nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func save(f *excelize.File, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	tmp := path + ".tmp.xlsx"
	if err := f.SaveAs(tmp); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}
