// =============================================================================
// XLSX to SQL Migration - Validation Engine
// =============================================================================
//
// This module holds the checks that guard positional alignment:
//   - Required columns: every column a stage reads must exist before any row
//     is processed.
//   - Uniqueness: the (ingreso_id, ingreso_detalle_id) pair may appear once
//     per batch.
//   - Description equality: the spreadsheet description and the catalog item
//     of the aligned database row must match after normalization.
//
// ERROR HANDLING:
//   - Every violation is fatal and returned immediately. Nothing is
//     collected and nothing is skipped.
//   - Each error carries the position and ids needed to find the offending
//     row in both sources.
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/normalize"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/types"
)

// =============================================================================
// REQUIRED COLUMNS
// =============================================================================

// RequireColumns checks that every table carries every column.
//
// PARAMETERS:
//   - tables: The cleaned tables a stage is about to read.
//   - columns: The headers the stage reads.
//
// RETURNS:
//   - A *MissingColumnError naming the first missing sheet/column, or nil.
func RequireColumns(tables []*types.Table, columns ...string) error {
	for _, table := range tables {
		for _, column := range columns {
			if !table.HasColumn(column) {
				return &MissingColumnError{Sheet: table.Name, Column: column}
			}
		}
	}
	return nil
}

// =============================================================================
// UNIQUENESS
// =============================================================================

type compoundKey struct {
	intakeID int64
	detailID int64
}

// UniqueKeys is the running set of (ingreso_id, ingreso_detalle_id) pairs
// seen in one batch.
type UniqueKeys struct {
	seen map[compoundKey]int
}

// NewUniqueKeys returns an empty tracker.
func NewUniqueKeys() *UniqueKeys {
	return &UniqueKeys{seen: make(map[compoundKey]int)}
}

// Add records a key at a batch position and fails on the first repeat.
func (u *UniqueKeys) Add(intakeID, detailID int64, position int) error {
	key := compoundKey{intakeID: intakeID, detailID: detailID}
	if first, ok := u.seen[key]; ok {
		return &DuplicateKeyError{
			IntakeID:       intakeID,
			IntakeDetailID: detailID,
			Position:       position,
			FirstPosition:  first,
		}
	}
	u.seen[key] = position
	return nil
}

// Len is the number of distinct keys recorded.
func (u *UniqueKeys) Len() int {
	return len(u.seen)
}

// =============================================================================
// DESCRIPTION EQUALITY
// =============================================================================

// DescriptionInput is everything needed to check one aligned pair.
type DescriptionInput struct {
	Position int
	Row      types.SourceRow
	Detail   types.IntakeDetailRef
	ItemName string
}

// CheckDescription compares the spreadsheet description with the catalog
// item name after normalize.Text on both sides.
func CheckDescription(in DescriptionInput) error {
	sheetNorm := normalize.Text(in.Row.Description)
	itemNorm := normalize.Text(in.ItemName)
	if sheetNorm == itemNorm {
		return nil
	}

	var itemID int64
	if in.Detail.ItemID != nil {
		itemID = *in.Detail.ItemID
	}
	return &DescriptionMismatchError{
		Position:        in.Position,
		Sheet:           in.Row.Sheet,
		RowNumber:       in.Row.RowNumber,
		IntakeID:        in.Detail.IntakeID,
		IntakeDetailID:  in.Detail.ID,
		ItemID:          itemID,
		SheetRaw:        in.Row.Description,
		SheetNormalized: sheetNorm,
		ItemRaw:         in.ItemName,
		ItemNormalized:  itemNorm,
	}
}

// =============================================================================
// WARNING FORMATTING
// =============================================================================

// FormatWarnings formats advisory warnings for display or logging.
//
// PARAMETERS:
//   - warnings: The warnings collected by a stage.
//
// RETURNS:
//   - A formatted string containing all warnings.
func FormatWarnings(warnings []types.Warning) string {
	if len(warnings) == 0 {
		return "No warnings."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Completed with %d warning(s):\n\n", len(warnings)))
	for i, w := range warnings {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, w.String()))
	}
	return builder.String()
}

// CountByCode groups warnings by code.
func CountByCode(warnings []types.Warning) map[types.WarningCode]int {
	counts := make(map[types.WarningCode]int)
	for _, w := range warnings {
		counts[w.Code]++
	}
	return counts
}
