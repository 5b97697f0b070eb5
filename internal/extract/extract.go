// Package extract walks the cleaned workbook in the one traversal order every
// migration stage shares: migrating sheets in workbook order, rows in sheet
// order.
//
// Intakes, intake details and outflows are each generated from this
// traversal, so position N means the same workbook row in all three. No other
// code path may produce SourceRows.
package extract

import (
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/config"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/types"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/validation"
)

// Source is the order-key source of workbook rows.
const Source = "workbook"

// MigratingTables keeps the detail and pharmacy tables, in the order given.
func MigratingTables(tables []*types.Table, cfg *config.MainConfig) []*types.Table {
	out := make([]*types.Table, 0, len(tables))
	for _, t := range tables {
		if sheet, ok := cfg.Sheet(t.Name); ok && sheet.Migrates() {
			out = append(out, t)
		}
	}
	return out
}

// DetailRows extracts every row of every migrating table.
//
// PARAMETERS:
//   - tables: Cleaned tables in workbook order.
//   - cfg: Supplies the sheet-to-warehouse map and the column names.
//   - required: Columns that must exist in every migrating table.
//
// RETURNS:
//   - The rows, each tagged with its order key.
//   - A *validation.MissingColumnError before any row is read when a
//     required column is absent.
func DetailRows(tables []*types.Table, cfg *config.MainConfig, required ...string) ([]types.SourceRow, error) {
	migrating := MigratingTables(tables, cfg)
	if err := validation.RequireColumns(migrating, required...); err != nil {
		return nil, err
	}

	cols := cfg.Columns
	var rows []types.SourceRow
	for _, t := range migrating {
		sheet, _ := cfg.Sheet(t.Name)
		for i, r := range t.Rows {
			rows = append(rows, types.SourceRow{
				Key: types.OrderKey{
					Source:     Source,
					SheetIndex: t.Index,
					RowIndex:   int64(i),
					Group:      sheet.WarehouseID,
				},
				Sheet:       t.Name,
				RowNumber:   r.Number,
				WarehouseID: sheet.WarehouseID,

				Description:   r.Get(cols.Description),
				Code:          r.Get(cols.Code),
				Unit:          r.Get(cols.Unit),
				Group:         r.Get(cols.Group),
				PartitionCode: r.Get(cols.PartitionCode),
				IntakeDate:    r.Get(cols.IntakeDate),

				Legacy: types.ValueColumns{
					Quantity: r.Get(cols.LegacyQuantity),
					Cost:     r.Get(cols.LegacyCost),
					Total:    r.Get(cols.LegacyTotal),
				},
				Current: types.ValueColumns{
					Quantity: r.Get(cols.CurrentQuantity),
					Cost:     r.Get(cols.CurrentCost),
					Total:    r.Get(cols.CurrentTotal),
				},
				Outflow: types.ValueColumns{
					Quantity: r.Get(cols.OutflowQuantity),
					Cost:     r.Get(cols.OutflowCost),
					Total:    r.Get(cols.OutflowTotal),
				},
			})
		}
	}
	return rows, nil
}
