// Package sheet reads and writes the tabular files every tool works on:
// .xlsx workbooks through excelize and plain .csv files.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrNotFound          = errors.New("spreadsheet not found")
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	ErrSheetNotFound     = errors.New("sheet not found in workbook")
)

// Table is a header row plus string cells. Rows may be shorter than Headers
// when trailing cells are empty.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(column string) int {
	for i, h := range t.Headers {
		if h == column {
			return i
		}
	}
	return -1
}

func (t *Table) Has(column string) bool {
	return t.Index(column) >= 0
}

// Cell returns the cell at column idx of row, "" when out of range.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// TrimHeaders strips surrounding whitespace from every column name.
func (t *Table) TrimHeaders() {
	for i, h := range t.Headers {
		t.Headers[i] = strings.TrimSpace(h)
	}
}

// Read loads the first sheet of an .xlsx file, or a .csv file.
func Read(path string) (*Table, error) {
	return ReadSheet(path, "")
}

// ReadSheet loads the named sheet of a workbook; an empty name means the
// first sheet. CSV files ignore the name.
func ReadSheet(path, name string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSX(path, name)
	case ".csv":
		return readCSV(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func readXLSX(path, name string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	if name == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return &Table{}, nil
		}
		name = sheets[0]
	} else if idx, _ := f.GetSheetIndex(name); idx < 0 {
		return nil, fmt.Errorf("%w: %s in %s", ErrSheetNotFound, name, path)
	}

	// Raw values keep dates as serial numbers instead of locale formatted text.
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}

	return fromRows(rows), nil
}

func readCSV(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv %s: %w", path, err)
	}

	return fromRows(records), nil
}

func fromRows(rows [][]string) *Table {
	if len(rows) == 0 {
		return &Table{}
	}

	t := &Table{Headers: rows[0]}
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
