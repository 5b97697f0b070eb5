// Package align joins two independently produced sequences by ordinal
// position.
//
// Position is the only correlation available between the workbook and the
// rows previously inserted from it, so every value carries the order key of
// the traversal that produced it. Before zipping, Pair checks that each side
// is in traversal order and that both sides agree on the warehouse at every
// position. A disagreement is a structural error, never a silent zip.
package align

import (
	"fmt"

	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/types"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/validation"
)

// Keyed is a value tagged with the order key of the traversal that produced it.
type Keyed interface {
	OrderKey() types.OrderKey
}

// Policy decides what a length mismatch means.
type Policy int

const (
	// Lenient truncates both sides to the shorter length and warns. Used
	// between freshly inserted rows and the workbook, where the operator is
	// expected to fix upstream data and re-run.
	Lenient Policy = iota

	// Strict fails on any length mismatch. Used right before outflow records
	// are assembled.
	Strict
)

func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "lenient"
}

// Pair is one aligned position. It lives only for the stage that built it.
type Pair[L, R Keyed] struct {
	Position int
	Left     L
	Right    R
}

// Sides names the two sequences in errors and warnings.
type Sides struct {
	Left  string
	Right string
}

// Result is the aligned sequence plus any advisory warnings.
type Result[L, R Keyed] struct {
	Pairs    []Pair[L, R]
	Warnings []types.Warning
}

// Zip pairs left[i] with right[i].
//
// PARAMETERS:
//   - left, right: Sequences already filtered and ordered by the same
//     criteria.
//   - sides: Labels for diagnostics.
//   - policy: What to do when the lengths differ.
//
// RETURNS:
//   - The pairs and, under Lenient, a row_count_mismatch warning when the
//     lengths differed.
//   - A *validation.RowCountMismatchError under Strict when the lengths
//     differ, or a *validation.ShapeMismatchError when the order keys do not
//     correspond.
func Zip[L, R Keyed](left []L, right []R, sides Sides, policy Policy) (*Result[L, R], error) {
	result := &Result[L, R]{}

	n := len(left)
	if len(right) != n {
		if policy == Strict {
			return nil, &validation.RowCountMismatchError{
				Left:       sides.Left,
				Right:      sides.Right,
				LeftCount:  len(left),
				RightCount: len(right),
			}
		}
		n = min(len(left), len(right))
		result.Warnings = append(result.Warnings, types.Warning{
			Code: types.WarnRowCountMismatch,
			Message: fmt.Sprintf("%s has %d rows but %s has %d; aligning the first %d",
				sides.Left, len(left), sides.Right, len(right), n),
			Fields: map[string]any{
				"left":        sides.Left,
				"right":       sides.Right,
				"left_count":  len(left),
				"right_count": len(right),
				"aligned":     n,
			},
		})
	}

	if err := checkOrder(left[:n]); err != nil {
		return nil, err
	}
	if err := checkOrder(right[:n]); err != nil {
		return nil, err
	}

	result.Pairs = make([]Pair[L, R], 0, n)
	for i := 0; i < n; i++ {
		lk, rk := left[i].OrderKey(), right[i].OrderKey()
		if lk.Group != 0 && rk.Group != 0 && lk.Group != rk.Group {
			return nil, &validation.ShapeMismatchError{
				Position: i,
				Left:     lk.String(),
				Right:    rk.String(),
				Reason:   "warehouse differs",
			}
		}
		result.Pairs = append(result.Pairs, Pair[L, R]{Position: i, Left: left[i], Right: right[i]})
	}

	return result, nil
}

// checkOrder requires non-decreasing keys from a single source. Repeated
// keys pass; the uniqueness check downstream reports them with their ids.
func checkOrder[T Keyed](seq []T) error {
	for i := 1; i < len(seq); i++ {
		prev, cur := seq[i-1].OrderKey(), seq[i].OrderKey()
		if prev.Source != cur.Source {
			return &validation.ShapeMismatchError{
				Position: i,
				Left:     prev.String(),
				Right:    cur.String(),
				Reason:   "mixed sources in one sequence",
			}
		}
		if cur.Less(prev) {
			return &validation.ShapeMismatchError{
				Position: i,
				Left:     prev.String(),
				Right:    cur.String(),
				Reason:   "sequence is not in traversal order",
			}
		}
	}
	return nil
}
