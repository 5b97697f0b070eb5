// =============================================================================
// XLSX to SQL Migration - CSV Snapshot Parser
// =============================================================================
//
// This module reads table exports taken from the live database, so the
// outflow stage can run on a machine without database access.
//
// EXPECTED FILES (in the snapshot directory):
//   - ingreso_detalles.csv: id, ingreso_id, almacen_id, partida_id, item_id
//   - catalogo_items.csv:   id, nombre
//
// FORMAT:
//   - First row is the header; extra columns are ignored
//   - Comma separated, UTF-8 with or without a byte order mark
//   - Empty cells and the literal NULL are read as SQL NULL
//
// Rows are sorted by id and filtered by watermark the same way the database
// reader does it, so both sources align identically.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/types"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/validation"
)

const (
	IntakeDetailsFile = "ingreso_detalles.csv"
	CatalogItemsFile  = "catalogo_items.csv"
)

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData represents one parsed export.
type CSVData struct {
	// Headers contains the trimmed column headers.
	Headers []string

	// Rows contains the data rows as maps of header -> value.
	Rows []map[string]string

	// LineNumbers holds the 1-based file line of each entry in Rows.
	LineNumbers []int

	// SourceFile is the path to the source CSV file.
	SourceFile string
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV export.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - required: Columns that must be present in the header.
//
// RETURNS:
//   - A pointer to the CSVData struct containing the parsed data.
//   - A *validation.MissingColumnError, or an error if the file cannot be read.
func Parse(filePath string, required ...string) (*CSVData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	// The UTF8BOM decoder drops a leading BOM and passes plain UTF-8 through.
	reader := transform.NewReader(bufio.NewReader(file), unicode.UTF8BOM.NewDecoder())

	csvReader := csv.NewReader(reader)
	configureReader(csvReader)

	header, err := csvReader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("CSV file is empty: %s", filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	headers := cleanHeaders(header)
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	for _, col := range required {
		if !present[col] {
			return nil, &validation.MissingColumnError{Sheet: filepath.Base(filePath), Column: col}
		}
	}

	data := &CSVData{Headers: headers, SourceFile: filePath}
	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		if isRowEmpty(row) {
			continue
		}

		values := make(map[string]string, len(headers))
		for col, header := range headers {
			if col < len(row) {
				values[header] = strings.TrimSpace(row[col])
			} else {
				values[header] = ""
			}
		}
		line, _ := csvReader.FieldPos(0)
		data.Rows = append(data.Rows, values)
		data.LineNumbers = append(data.LineNumbers, line)
	}
	return data, nil
}

// configureReader sets the options every snapshot export needs.
func configureReader(reader *csv.Reader) {
	reader.Comma = ','
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// cleanHeaders trims and lower-cases header names.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		cleaned[i] = strings.ToLower(strings.TrimSpace(header))
	}
	return cleaned
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// SNAPSHOT READER
// =============================================================================

// Snapshot reads database exports from a directory. It mirrors the read side
// of the database store.
type Snapshot struct {
	Dir string
}

// NewSnapshot creates a reader for dir.
func NewSnapshot(dir string) *Snapshot {
	return &Snapshot{Dir: dir}
}

// IntakeDetailsAfter returns ingreso_detalles rows with id > watermark in id
// order.
func (s *Snapshot) IntakeDetailsAfter(_ context.Context, watermark int64) ([]types.IntakeDetailRef, error) {
	path := filepath.Join(s.Dir, IntakeDetailsFile)
	data, err := Parse(path, "id", "ingreso_id", "almacen_id", "partida_id", "item_id")
	if err != nil {
		return nil, err
	}

	var out []types.IntakeDetailRef
	for i, row := range data.Rows {
		line := data.LineNumbers[i]

		id, err := requiredInt(row, "id", path, line)
		if err != nil {
			return nil, err
		}
		if id <= watermark {
			continue
		}
		intakeID, err := requiredInt(row, "ingreso_id", path, line)
		if err != nil {
			return nil, err
		}

		ref := types.IntakeDetailRef{ID: id, IntakeID: intakeID}
		if ref.WarehouseID, err = optionalInt(row, "almacen_id", path, line); err != nil {
			return nil, err
		}
		if ref.PartitionID, err = optionalInt(row, "partida_id", path, line); err != nil {
			return nil, err
		}
		if ref.ItemID, err = optionalInt(row, "item_id", path, line); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CatalogNames maps catalogo_items.id to nombre.
func (s *Snapshot) CatalogNames(_ context.Context) (map[int64]string, error) {
	path := filepath.Join(s.Dir, CatalogItemsFile)
	data, err := Parse(path, "id", "nombre")
	if err != nil {
		return nil, err
	}

	names := make(map[int64]string, len(data.Rows))
	for i, row := range data.Rows {
		id, err := requiredInt(row, "id", path, data.LineNumbers[i])
		if err != nil {
			return nil, err
		}
		names[id] = row["nombre"]
	}
	return names, nil
}

func requiredInt(row map[string]string, column, path string, line int) (int64, error) {
	v, err := optionalInt(row, column, path, line)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, fmt.Errorf("%s line %d: %s is empty", filepath.Base(path), line, column)
	}
	return *v, nil
}

func optionalInt(row map[string]string, column, path string, line int) (*int64, error) {
	raw := row[column]
	if raw == "" || strings.EqualFold(raw, "null") || raw == `\N` {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s line %d: %s=%q is not an integer", filepath.Base(path), line, column, raw)
	}
	return &v, nil
}
