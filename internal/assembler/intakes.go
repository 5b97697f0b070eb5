package assembler

import (
	"fmt"

	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/config"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/normalize"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/types"
)

// Intakes builds one ingresos row per workbook row. The legacy workbook has
// no intake header data, so every field except the warehouse and the intake
// date is a fixed default or NULL; etapa_ingreso is filled in later by the
// intake details script.
func Intakes(rows []types.SourceRow, defaults config.RecordDefaults, clock Clock) ([]types.Intake, []types.Warning) {
	intakes := make([]types.Intake, 0, len(rows))
	unparsed := 0

	for _, row := range rows {
		intake := types.Intake{
			Code:         defaults.IntakeCode,
			Donation:     defaults.DonationFlag,
			WarehouseID:  row.WarehouseID,
			Total:        defaults.IntakeTotal,
			RegisteredAt: clock.Date(),
			UserID:       defaults.UserID,
			CreatedAt:    clock.Now(),
			UpdatedAt:    clock.Now(),
		}

		if t, ok := normalize.ParseDate(row.IntakeDate); ok {
			intake.IntakeDate = &t
		} else if !normalize.IsBlank(row.IntakeDate) {
			unparsed++
		}

		intakes = append(intakes, intake)
	}

	var warnings []types.Warning
	if unparsed > 0 {
		warnings = append(warnings, types.Warning{
			Code:    types.WarnUnparsedDate,
			Message: fmt.Sprintf("%d intake dates could not be read and were left NULL", unparsed),
			Fields:  map[string]any{"unparsed": unparsed},
		})
	}
	return intakes, warnings
}
