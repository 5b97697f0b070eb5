// =============================================================================
// XLSX to SQL Migration - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - xlsxparser, cleaning, extract (workbook side)
//   - align, validation, stage, assembler (core)
//   - database, csvparser (database side)
//   - sqlwriter, pipeline (output side)
//
// =============================================================================

package types

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// WORKBOOK TYPES
// =============================================================================

// Table is one sheet after header detection and cleaning.
type Table struct {
	// Name is the sheet name.
	Name string

	// Index is the position of the sheet in workbook order (0-based).
	Index int

	// Headers are the column names, in sheet order.
	Headers []string

	// Rows holds the data rows, in sheet order.
	Rows []Row
}

// Row is one data row of a Table.
type Row struct {
	// Number is the 1-based row number in the workbook. Used for error reporting.
	Number int

	// Values is keyed by header name.
	Values map[string]string
}

// Get returns the trimmed value of a column, or "" when absent.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r.Values[column])
}

// HasColumn reports whether the table carries a header.
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// AddColumn appends a header if it is not present yet.
func (t *Table) AddColumn(name string) {
	if !t.HasColumn(name) {
		t.Headers = append(t.Headers, name)
	}
}

// =============================================================================
// ORDER KEYS
// =============================================================================

// OrderKey records where a value came from in a deterministic traversal.
// Two sequences can only be aligned by position when their keys have the
// same shape.
type OrderKey struct {
	// Source names the producer ("workbook", "ingresos", "ingreso_detalles").
	Source string

	// SheetIndex is the workbook sheet position; 0 for database rows.
	SheetIndex int

	// RowIndex is the row position within the sheet, or the row id for
	// database rows.
	RowIndex int64

	// Group is the warehouse id, 0 when unknown.
	Group int64
}

// Less reports whether k sorts strictly before other within one source.
func (k OrderKey) Less(other OrderKey) bool {
	if k.SheetIndex != other.SheetIndex {
		return k.SheetIndex < other.SheetIndex
	}
	return k.RowIndex < other.RowIndex
}

func (k OrderKey) String() string {
	return fmt.Sprintf("%s[sheet=%d row=%d warehouse=%d]", k.Source, k.SheetIndex, k.RowIndex, k.Group)
}

// =============================================================================
// SOURCE ROWS
// =============================================================================

// ValueColumns holds the raw quantity/cost/total cells of one value regime.
type ValueColumns struct {
	Quantity string
	Cost     string
	Total    string
}

// SourceRow is one cleaned row from a migrating sheet. It is immutable once
// extracted.
type SourceRow struct {
	Key         OrderKey
	Sheet       string
	RowNumber   int
	WarehouseID int64

	Description   string
	Code          string
	Unit          string
	Group         string
	PartitionCode string
	IntakeDate    string

	Legacy  ValueColumns
	Current ValueColumns
	Outflow ValueColumns
}

// OrderKey implements the aligner's keyed contract.
func (r SourceRow) OrderKey() OrderKey { return r.Key }

// =============================================================================
// DATABASE ROWS
// =============================================================================

// IntakeRef is an ingresos row inserted by a previous run of the intakes script.
type IntakeRef struct {
	ID          int64
	WarehouseID *int64
}

// OrderKey implements the aligner's keyed contract.
func (r IntakeRef) OrderKey() OrderKey {
	return OrderKey{Source: "ingresos", RowIndex: r.ID, Group: deref(r.WarehouseID)}
}

// IntakeDetailRef is an ingreso_detalles row inserted by a previous run.
type IntakeDetailRef struct {
	ID          int64
	IntakeID    int64
	WarehouseID *int64
	PartitionID *int64
	ItemID      *int64
}

// OrderKey implements the aligner's keyed contract.
func (r IntakeDetailRef) OrderKey() OrderKey {
	return OrderKey{Source: "ingreso_detalles", RowIndex: r.ID, Group: deref(r.WarehouseID)}
}

func deref(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

// =============================================================================
// ASSEMBLED RECORDS
// =============================================================================

// CatalogItem is one catalogo_items row.
type CatalogItem struct {
	Name         string
	Group        string
	Abbreviation *string
	RegisteredAt time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Intake is one ingresos row.
type Intake struct {
	Code          string
	Donation      string
	WarehouseID   int64
	UnitID        *int64
	Supplier      *string
	WithFunds     *string
	NoteDate      *time.Time
	InvoiceNumber *string
	InvoiceDate   *time.Time
	InternalOrder *string
	Total         int
	IntakeDate    *time.Time
	IntakeTime    *string
	Remarks       *string
	Recipient     *string
	RegisteredAt  time.Time
	UserID        int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Stage         *string
}

// IntakeDetail is one ingreso_detalles row.
type IntakeDetail struct {
	IntakeID      int64
	WarehouseID   *int64
	UnitID        *int64
	PartitionID   *int64
	Donation      string
	ItemID        *int64
	MeasureUnitID *int64
	Quantity      float64
	Cost          float64
	Total         float64
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Stage is the classifier label; not a destination column.
	Stage string
}

// Outflow is one egresos row.
type Outflow struct {
	IntakeID       int64
	IntakeDetailID int64
	WarehouseID    *int64
	PartitionID    *int64
	ItemID         *int64
	DestinationID  *int64
	Quantity       int64
	Cost           float64
	Total          float64
	RegisteredAt   time.Time
	Editable       int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IntakeSummary is the per-intake aggregate emitted after the detail inserts.
type IntakeSummary struct {
	IntakeID int64
	Total    string // fixed 2 decimals
	Stage    string
}

// =============================================================================
// WARNINGS
// =============================================================================

// WarningCode classifies an advisory condition.
type WarningCode string

const (
	WarnRowCountMismatch WarningCode = "row_count_mismatch"
	WarnReferenceCreated WarningCode = "reference_created"
	WarnNumericFallbacks WarningCode = "numeric_fallbacks"
	WarnDuplicateItems   WarningCode = "duplicate_items"
	WarnMissingSheet     WarningCode = "missing_sheet"
	WarnUnparsedDate     WarningCode = "unparsed_date"
)

// Warning is an advisory condition. Processing continued after it was raised.
type Warning struct {
	Code    WarningCode
	Stage   string
	Message string
	Fields  map[string]any
}

func (w Warning) String() string {
	return fmt.Sprintf("[%s] %s", w.Code, w.Message)
}
