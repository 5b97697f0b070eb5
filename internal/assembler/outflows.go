package assembler

import (
	"math"

	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/align"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/normalize"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/types"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/validation"
)

// OutflowPair is one position of the outflow stage: a previously inserted
// detail row and the workbook row at the same position.
type OutflowPair = align.Pair[types.IntakeDetailRef, types.SourceRow]

// Outflow maps one validated pair. Quantity is truncated toward zero.
func Outflow(detail types.IntakeDetailRef, row types.SourceRow, parser *normalize.NumberParser, clock Clock) types.Outflow {
	quantity := parser.Parse(row.Outflow.Quantity)
	return types.Outflow{
		IntakeID:       detail.IntakeID,
		IntakeDetailID: detail.ID,
		WarehouseID:    detail.WarehouseID,
		PartitionID:    detail.PartitionID,
		ItemID:         detail.ItemID,
		Quantity:       int64(math.Trunc(quantity)),
		Cost:           parser.Parse(row.Outflow.Cost),
		Total:          parser.Parse(row.Outflow.Total),
		RegisteredAt:   clock.Date(),
		Editable:       1,
		CreatedAt:      clock.Now(),
		UpdatedAt:      clock.Now(),
	}
}

// Outflows validates and assembles the whole outflow batch. The first
// duplicate key or description mismatch aborts it; no partial batch is
// returned.
//
// PARAMETERS:
//   - pairs: Strictly aligned (detail, workbook row) pairs.
//   - itemNames: catalogo_items id to nombre.
//   - parser: Shared number parser; its statistics cover the outflow columns.
//   - clock: The batch instant.
//
// RETURNS:
//   - One egresos row per pair.
//   - A *validation.DuplicateKeyError or *validation.DescriptionMismatchError.
func Outflows(pairs []OutflowPair, itemNames map[int64]string, parser *normalize.NumberParser, clock Clock) ([]types.Outflow, error) {
	keys := validation.NewUniqueKeys()
	out := make([]types.Outflow, 0, len(pairs))

	for _, p := range pairs {
		if err := keys.Add(p.Left.IntakeID, p.Left.ID, p.Position); err != nil {
			return nil, err
		}

		var name string
		if p.Left.ItemID != nil {
			name = itemNames[*p.Left.ItemID]
		}
		if err := validation.CheckDescription(validation.DescriptionInput{
			Position: p.Position,
			Row:      p.Right,
			Detail:   p.Left,
			ItemName: name,
		}); err != nil {
			return nil, err
		}

		out = append(out, Outflow(p.Left, p.Right, parser, clock))
	}
	return out, nil
}
