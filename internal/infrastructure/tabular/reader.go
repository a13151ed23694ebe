// Package tabular normalizes spreadsheet uploads into uniform row records.
// Every cell leaving this package is a float64, a string, or nil; NaN and
// Infinity never escape because downstream storage serializes rows as strict
// JSON.
package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"

	"github.com/ciclopsmx/franchise-reports/internal/core/domain"
)

type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

// Read parses spreadsheet bytes into cleaned sheets. Sheets with no columns
// or no surviving rows are skipped; the caller decides whether an empty
// result is an error.
func (r *Reader) Read(data []byte, extension string) ([]domain.Sheet, error) {
	switch strings.ToLower(extension) {
	case ".csv":
		return r.readCSV(data)
	case ".xlsx":
		return r.readXLSX(data)
	case ".xls":
		return r.readXLS(data)
	default:
		return nil, fmt.Errorf("unsupported spreadsheet extension %q", extension)
	}
}

func (r *Reader) readCSV(data []byte) ([]domain.Sheet, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var records [][]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		records = append(records, record)
	}
	// A CSV is a single logical sheet, named the way the original importer
	// named it.
	return buildSheets(map[string][][]string{"Datos": records}, []string{"Datos"}), nil
}

func (r *Reader) readXLSX(data []byte) ([]domain.Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	grids := make(map[string][][]string, len(names))
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		grids[name] = rows
	}
	return buildSheets(grids, names), nil
}

func (r *Reader) readXLS(data []byte) ([]domain.Sheet, error) {
	// xlsReader wants a file path, so stage the upload in a temp file.
	tmp, err := os.CreateTemp("", "upload-*.xls")
	if err != nil {
		return nil, fmt.Errorf("stage xls: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("stage xls: %w", err)
	}
	tmp.Close()

	book, err := xls.OpenFile(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}

	var names []string
	grids := map[string][][]string{}
	for i := 0; i < book.GetNumberSheets(); i++ {
		sheet, err := book.GetSheet(i)
		if err != nil || sheet == nil {
			continue
		}
		name := strings.TrimSpace(sheet.GetName())
		if name == "" {
			name = fmt.Sprintf("Hoja%d", i+1)
		}
		var grid [][]string
		for _, row := range sheet.GetRows() {
			var cells []string
			for _, col := range row.GetCols() {
				cells = append(cells, col.GetString())
			}
			grid = append(grid, cells)
		}
		names = append(names, name)
		grids[name] = grid
	}
	return buildSheets(grids, names), nil
}

// buildSheets converts string grids into cleaned sheets: the first grid row
// becomes the column list, fully empty data rows are dropped, and sheets
// left with nothing are skipped.
func buildSheets(grids map[string][][]string, order []string) []domain.Sheet {
	var sheets []domain.Sheet
	for _, name := range order {
		grid := grids[name]
		if len(grid) == 0 {
			continue
		}
		columns := headerColumns(grid[0])
		if len(columns) == 0 {
			continue
		}

		var rows []domain.RawRow
		for _, record := range grid[1:] {
			cells := make(map[string]any, len(columns))
			empty := true
			for i, col := range columns {
				var value any
				if i < len(record) {
					value = normalizeCell(record[i])
				}
				if value != nil {
					empty = false
				}
				cells[col] = value
			}
			if empty {
				continue
			}
			rows = append(rows, domain.RawRow{Sheet: name, Cells: cells})
		}
		if len(rows) == 0 {
			continue
		}
		sheets = append(sheets, domain.Sheet{Name: name, Columns: columns, Rows: rows})
	}
	return sheets
}

// headerColumns trims header cells and disambiguates the names RawRow maps
// cannot represent verbatim: blank headers become positional placeholders
// and duplicates get a numeric suffix.
func headerColumns(header []string) []string {
	columns := make([]string, 0, len(header))
	used := make(map[string]bool, len(header))
	for i, raw := range header {
		name := strings.TrimSpace(raw)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		// Suffix until free: a header like [A, A.1, A] must not collapse
		// two columns onto the same row key.
		base := name
		for n := 1; used[name]; n++ {
			name = fmt.Sprintf("%s.%d", base, n)
		}
		used[name] = true
		columns = append(columns, name)
	}
	return columns
}

// normalizeCell maps a raw cell to nil (empty), float64 (numeric, currency
// and percent formats included) or the trimmed string.
func normalizeCell(raw string) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if v, ok := parseNumber(s); ok {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return v
	}
	return s
}

func parseNumber(s string) (float64, bool) {
	cleaned := strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.TrimSuffix(cleaned, "%")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}
