// =============================================================================
// XLSX to SQL Migration - Workbook Reader
// =============================================================================
//
// This module reads the legacy workbook into raw tables, one per configured
// sheet. It does no cleaning; see the cleaning package for that.
//
// SHEET LAYOUT (Expected):
//   - Row 1 holds the headers.
//   - Only the first N columns carry data, where N is the sheet's configured
//     column count. Anything to the right is notes and layout.
//
//   | ITEM | CODIGO | DESCRIPCION | UNIDAD | SALDO_..._CANT | ... | FECHA INGRESO |
//   |------|--------|-------------|--------|----------------|-----|---------------|
//   | PARTIDA N° 39100 |        |             |        |     |               |
//   | 1    | LIM-1  | Detergente  | PIEZA  | 3              | ... | 45672         |
//
// ORDERING:
//   Tables are returned in workbook order (GetSheetList), which is the order
//   every migration stage traverses. Row order inside a sheet is preserved.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/config"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/types"
)

// Workbook is the set of configured sheets found in the file.
type Workbook struct {
	// Path is the file that was read.
	Path string

	// Tables are the raw sheets in workbook order.
	Tables []*types.Table

	// Missing lists configured sheets absent from the file.
	Missing []string
}

// Table returns a sheet by name.
func (w *Workbook) Table(name string) (*types.Table, bool) {
	for _, t := range w.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// LoadWorkbook reads every configured sheet from the workbook.
//
// PARAMETERS:
//   - path: The .xlsx file.
//   - sheets: The configured sheets; other sheets are ignored.
//
// RETURNS:
//   - A Workbook with one raw table per configured sheet that exists.
//   - An error if the file cannot be opened or a sheet cannot be read.
func LoadWorkbook(path string, sheets []config.SheetConfig) (*Workbook, error) {
	// Open the XLSX file.
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	wanted := make(map[string]config.SheetConfig, len(sheets))
	for _, s := range sheets {
		wanted[s.Name] = s
	}

	book := &Workbook{Path: path}
	found := make(map[string]bool)

	for _, name := range f.GetSheetList() {
		sheet, ok := wanted[name]
		if !ok {
			continue
		}
		found[name] = true

		// Raw values keep Excel date serials and full numeric precision.
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}

		book.Tables = append(book.Tables, buildTable(name, len(book.Tables), rows, sheet.Columns))
	}

	for _, s := range sheets {
		if !found[s.Name] {
			book.Missing = append(book.Missing, s.Name)
		}
	}

	return book, nil
}

// buildTable turns raw rows into a table. Row 0 is the header; limit keeps
// the first limit columns when positive.
func buildTable(name string, index int, rows [][]string, limit int) *types.Table {
	table := &types.Table{Name: name, Index: index}
	if len(rows) == 0 {
		return table
	}

	header := rows[0]
	width := len(header)
	if limit > 0 {
		width = limit
	}
	table.Headers = uniqueHeaders(header, width)

	for i := 1; i < len(rows); i++ {
		row := rows[i]

		// Skip empty rows.
		if isRowEmpty(row, width) {
			continue
		}

		values := make(map[string]string, width)
		for c, h := range table.Headers {
			if c < len(row) {
				values[h] = row[c]
			}
		}
		table.Rows = append(table.Rows, types.Row{Number: i + 1, Values: values})
	}
	return table
}

// uniqueHeaders names blank headers "Unnamed: <n>" and suffixes repeats with
// ".1", ".2", skipping suffixes already taken by a real header, so every
// column stays addressable.
func uniqueHeaders(raw []string, width int) []string {
	headers := make([]string, width)
	used := make(map[string]bool, width)
	suffix := make(map[string]int, width)
	for c := 0; c < width; c++ {
		name := ""
		if c < len(raw) {
			name = strings.TrimSpace(raw[c])
		}
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", c)
		}
		if used[name] {
			base, n := name, suffix[name]
			for used[name] {
				n++
				name = fmt.Sprintf("%s.%d", base, n)
			}
			suffix[base] = n
		}
		used[name] = true
		headers[c] = name
	}
	return headers
}

// isRowEmpty checks whether the first width cells are all blank.
func isRowEmpty(row []string, width int) bool {
	for c := 0; c < len(row) && c < width; c++ {
		if strings.TrimSpace(row[c]) != "" {
			return false
		}
	}
	return true
}
