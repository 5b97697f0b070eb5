package assembler

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/config"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/stage"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/types"
)

// DetailInput is one aligned position of the intake details stage.
type DetailInput struct {
	Intake types.IntakeRef
	Row    types.SourceRow

	PartitionID   *int64
	ItemID        *int64
	MeasureUnitID *int64

	Class stage.Classification
}

// IntakeDetail maps one aligned, resolved and classified row. Intake and
// warehouse come from the database side of the pair, everything else from
// the workbook side.
func IntakeDetail(in DetailInput, defaults config.RecordDefaults, clock Clock) types.IntakeDetail {
	return types.IntakeDetail{
		IntakeID:      in.Intake.ID,
		WarehouseID:   in.Intake.WarehouseID,
		PartitionID:   in.PartitionID,
		Donation:      defaults.DonationFlag,
		ItemID:        in.ItemID,
		MeasureUnitID: in.MeasureUnitID,
		Quantity:      in.Class.Quantity,
		Cost:          in.Class.Cost,
		Total:         in.Class.Total,
		CreatedAt:     clock.Now(),
		UpdatedAt:     clock.Now(),
		Stage:         in.Class.Label,
	}
}

// Summaries aggregates details per intake: the sum of totals rounded to two
// decimals and the first stage label seen. Output is ordered by intake id.
func Summaries(details []types.IntakeDetail) []types.IntakeSummary {
	sums := make(map[int64]decimal.Decimal)
	stages := make(map[int64]string)
	var ids []int64

	for _, d := range details {
		if _, ok := sums[d.IntakeID]; !ok {
			ids = append(ids, d.IntakeID)
			sums[d.IntakeID] = decimal.Zero
			stages[d.IntakeID] = d.Stage
		}
		sums[d.IntakeID] = sums[d.IntakeID].Add(decimal.NewFromFloat(d.Total))
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]types.IntakeSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, types.IntakeSummary{
			IntakeID: id,
			Total:    sums[id].StringFixed(2),
			Stage:    stages[id],
		})
	}
	return out
}
