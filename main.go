// =============================================================================
// XLSX to SQL Migration - Main Entry Point
// =============================================================================
//
// USAGE:
//   migrator migrate <stage>  - Generate the SQL script of one stage (or all)
//   migrator clean            - Export the cleaned workbook for review
//   migrator validate         - Check configuration and workbook columns
//   migrator version          - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Migration logic (config, cleaning, alignment, assembly,
//                  database access, SQL rendering)
//   - pkg/       : Output file management
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/XLSX-to-SQL-migration/cmd"
)

func main() {
	cmd.Execute()
}
