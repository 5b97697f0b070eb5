package align

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/types"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/validation"
)

func ptr(v int64) *int64 { return &v }

func sheetRows(warehouses ...int64) []types.SourceRow {
	rows := make([]types.SourceRow, len(warehouses))
	for i, w := range warehouses {
		rows[i] = types.SourceRow{
			Key:         types.OrderKey{Source: "workbook", SheetIndex: int(w), RowIndex: int64(i), Group: w},
			WarehouseID: w,
			Description: "row",
		}
	}
	return rows
}

func intakes(firstID int64, warehouses ...int64) []types.IntakeRef {
	refs := make([]types.IntakeRef, len(warehouses))
	for i, w := range warehouses {
		refs[i] = types.IntakeRef{ID: firstID + int64(i), WarehouseID: ptr(w)}
	}
	return refs
}

var sides = Sides{Left: "workbook", Right: "ingresos"}

func TestZipEqualLengths(t *testing.T) {
	for _, n := range []int{0, 1, 3, 25} {
		warehouses := make([]int64, n)
		for i := range warehouses {
			warehouses[i] = 1
		}
		left := sheetRows(warehouses...)
		right := intakes(7, warehouses...)

		for _, policy := range []Policy{Lenient, Strict} {
			res, err := Zip(left, right, sides, policy)
			require.NoError(t, err)
			require.Len(t, res.Pairs, n)
			assert.Empty(t, res.Warnings)
			for i, p := range res.Pairs {
				assert.Equal(t, i, p.Position)
				assert.Equal(t, left[i], p.Left)
				assert.Equal(t, right[i], p.Right)
			}
		}
	}
}

func TestZipLenientTruncates(t *testing.T) {
	left := sheetRows(1, 1, 1, 1)
	right := intakes(7, 1, 1, 1)

	res, err := Zip(left, right, sides, Lenient)
	require.NoError(t, err)
	assert.Len(t, res.Pairs, 3)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, types.WarnRowCountMismatch, res.Warnings[0].Code)
	assert.Equal(t, 4, res.Warnings[0].Fields["left_count"])
	assert.Equal(t, 3, res.Warnings[0].Fields["right_count"])
}

func TestZipStrictFailsWithCounts(t *testing.T) {
	left := sheetRows(1, 1)
	right := intakes(7, 1, 1, 1)

	_, err := Zip(left, right, Sides{Left: "ingreso_detalles", Right: "workbook"}, Strict)
	var mismatch *validation.RowCountMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 2, mismatch.LeftCount)
	assert.Equal(t, 3, mismatch.RightCount)
	assert.Contains(t, err.Error(), "ingreso_detalles has 2 rows")
}

func TestZipWarehouseShapeMismatch(t *testing.T) {
	left := sheetRows(1, 2, 3)
	right := intakes(7, 1, 3, 3)

	_, err := Zip(left, right, sides, Lenient)
	var shape *validation.ShapeMismatchError
	require.True(t, errors.As(err, &shape))
	assert.Equal(t, 1, shape.Position)
	assert.Equal(t, "warehouse differs", shape.Reason)
}

func TestZipUnknownWarehouseIsNotCompared(t *testing.T) {
	left := sheetRows(1, 2)
	right := []types.IntakeRef{{ID: 7}, {ID: 8, WarehouseID: ptr(2)}}

	res, err := Zip(left, right, sides, Strict)
	require.NoError(t, err)
	assert.Len(t, res.Pairs, 2)
}

func TestZipRejectsUnorderedSide(t *testing.T) {
	left := sheetRows(1, 1, 1)
	right := []types.IntakeRef{
		{ID: 9, WarehouseID: ptr(1)},
		{ID: 8, WarehouseID: ptr(1)},
		{ID: 10, WarehouseID: ptr(1)},
	}

	_, err := Zip(left, right, sides, Strict)
	var shape *validation.ShapeMismatchError
	require.True(t, errors.As(err, &shape))
	assert.Equal(t, "sequence is not in traversal order", shape.Reason)
}

func TestZipLeavesRepeatedKeysToCaller(t *testing.T) {
	left := []types.IntakeDetailRef{
		{ID: 8, IntakeID: 7, WarehouseID: ptr(1)},
		{ID: 8, IntakeID: 7, WarehouseID: ptr(1)},
		{ID: 10, IntakeID: 9, WarehouseID: ptr(1)},
	}
	right := sheetRows(1, 1, 1)

	res, err := Zip(left, right, Sides{Left: "ingreso_detalles", Right: "workbook"}, Strict)
	require.NoError(t, err)
	require.Len(t, res.Pairs, 3)
	assert.Equal(t, int64(8), res.Pairs[1].Left.ID)
}
