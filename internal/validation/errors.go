package validation

import (
	"fmt"
	"strings"
)

// =============================================================================
// FATAL ERROR TYPES
// =============================================================================
//
// Every error here stops the whole batch. Callers match them with errors.As;
// all of them report Fatal() == true so the CLI can tell them apart from
// infrastructure failures.
//
// =============================================================================

// FatalError is implemented by every batch-stopping validation error.
type FatalError interface {
	error
	Fatal() bool
}

// MissingColumnError is raised before any row is processed.
type MissingColumnError struct {
	Sheet  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("sheet %q: required column %q is missing", e.Sheet, e.Column)
}

// Fatal marks the error as batch-stopping.
func (e *MissingColumnError) Fatal() bool { return true }

// RowCountMismatchError is raised when two sequences that must correspond
// one-to-one have different lengths.
type RowCountMismatchError struct {
	Left       string
	Right      string
	LeftCount  int
	RightCount int
}

func (e *RowCountMismatchError) Error() string {
	return fmt.Sprintf("cannot align by position: %s has %d rows, %s has %d rows",
		e.Left, e.LeftCount, e.Right, e.RightCount)
}

// Fatal marks the error as batch-stopping.
func (e *RowCountMismatchError) Fatal() bool { return true }

// ShapeMismatchError is raised when the order keys at one position disagree
// on the group they belong to, or when a sequence is not in traversal order.
type ShapeMismatchError struct {
	Position int
	Left     string
	Right    string
	Reason   string
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("order keys do not correspond at position %d (%s): left=%s right=%s",
		e.Position, e.Reason, e.Left, e.Right)
}

// Fatal marks the error as batch-stopping.
func (e *ShapeMismatchError) Fatal() bool { return true }

// DuplicateKeyError reports a repeated compound key.
type DuplicateKeyError struct {
	IntakeID       int64
	IntakeDetailID int64
	Position       int
	FirstPosition  int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate (ingreso_id, ingreso_detalle_id)=(%d, %d) at position %d, first seen at position %d",
		e.IntakeID, e.IntakeDetailID, e.Position, e.FirstPosition)
}

// Fatal marks the error as batch-stopping.
func (e *DuplicateKeyError) Fatal() bool { return true }

// DescriptionMismatchError reports a spreadsheet description that does not
// match the catalog item its aligned database row points to.
type DescriptionMismatchError struct {
	Position       int
	Sheet          string
	RowNumber      int
	IntakeID       int64
	IntakeDetailID int64
	ItemID         int64

	SheetRaw        string
	SheetNormalized string
	ItemRaw         string
	ItemNormalized  string
}

func (e *DescriptionMismatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "description mismatch at position %d\n", e.Position)
	fmt.Fprintf(&b, "  - ingreso_id=%d, ingreso_detalle_id=%d, item_id=%d\n", e.IntakeID, e.IntakeDetailID, e.ItemID)
	fmt.Fprintf(&b, "  - sheet %q row %d: DESCRIPCION=%q (normalized %q)\n", e.Sheet, e.RowNumber, e.SheetRaw, e.SheetNormalized)
	fmt.Fprintf(&b, "  - catalogo_items.nombre=%q (normalized %q)", e.ItemRaw, e.ItemNormalized)
	return b.String()
}

// Fatal marks the error as batch-stopping.
func (e *DescriptionMismatchError) Fatal() bool { return true }
