package xlsxparser

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/types"
)

const (
	// MaxColumnWidth caps every column so long descriptions wrap instead.
	MaxColumnWidth = 25
	rowHeight      = 22
	maxSheetName   = 31
)

var tableNameInvalid = regexp.MustCompile(`[^A-Za-z0-9_]`)

// ExportCleanedBook writes cleaned tables to a formatted review workbook:
// styled header, frozen first row, capped column widths, wrapped cells and
// one styled table per sheet.
//
// PARAMETERS:
//   - path: The output .xlsx path.
//   - tables: The cleaned tables, written in order.
//
// RETURNS:
//   - An error if any sheet cannot be written or the file cannot be saved.
func ExportCleanedBook(path string, tables []*types.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"1F4E79"}, Pattern: 1},
		Border:    borders(),
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	cellStyle, err := f.NewStyle(&excelize.Style{
		Border:    borders(),
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})
	if err != nil {
		return fmt.Errorf("failed to create cell style: %w", err)
	}

	written := 0
	for i, table := range tables {
		if len(table.Headers) == 0 {
			continue
		}
		sheet := safeSheetName(table.Name)
		if written == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("failed to name sheet %q: %w", sheet, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to add sheet %q: %w", sheet, err)
		}
		written++

		if err := writeSheet(f, sheet, table, headerStyle, cellStyle); err != nil {
			return fmt.Errorf("sheet %q: %w", table.Name, err)
		}
		if len(table.Rows) > 0 {
			if err := addTable(f, sheet, table, i); err != nil {
				return fmt.Errorf("sheet %q: %w", table.Name, err)
			}
		}
	}

	if written == 0 {
		return fmt.Errorf("no tables to export")
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, table *types.Table, headerStyle, cellStyle int) error {
	header := make([]interface{}, len(table.Headers))
	widths := make([]int, len(table.Headers))
	for c, h := range table.Headers {
		header[c] = h
		widths[c] = utf8.RuneCountInString(h)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for r, row := range table.Rows {
		values := make([]interface{}, len(table.Headers))
		for c, h := range table.Headers {
			v := row.Values[h]
			values[c] = v
			if n := utf8.RuneCountInString(v); n > widths[c] {
				widths[c] = n
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
		if err := f.SetRowHeight(sheet, r+2, rowHeight); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(table.Headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	if len(table.Rows) > 0 {
		last := fmt.Sprintf("%s%d", lastCol, len(table.Rows)+1)
		if err := f.SetCellStyle(sheet, "A2", last, cellStyle); err != nil {
			return err
		}
	}

	for c, w := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(min(w+2, MaxColumnWidth))); err != nil {
			return err
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func addTable(f *excelize.File, sheet string, table *types.Table, index int) error {
	lastCol, err := excelize.ColumnNumberToName(len(table.Headers))
	if err != nil {
		return err
	}
	showStripes := true
	return f.AddTable(sheet, &excelize.Table{
		Range:          fmt.Sprintf("A1:%s%d", lastCol, len(table.Rows)+1),
		Name:           fmt.Sprintf("T%d_%s", index+1, tableNameInvalid.ReplaceAllString(table.Name, "_")),
		StyleName:      "TableStyleMedium9",
		ShowRowStripes: &showStripes,
	})
}

func borders() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}

// safeSheetName cuts a name to the 31 characters Excel allows.
func safeSheetName(name string) string {
	if utf8.RuneCountInString(name) <= maxSheetName {
		return name
	}
	return string([]rune(name)[:maxSheetName])
}
