// =============================================================================
// XLSX to SQL Migration - Validate Command
// =============================================================================
//
// COMMAND USAGE:
//   migrator validate
//
// Loads the configuration and the workbook, checks that every migrating sheet
// has the columns each stage reads, and prints the per-sheet row counts. The
// database is never touched, so this is safe to run before anything else.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/pipeline"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and the workbook without generating scripts",
	Long: `The validate command loads config.yaml and the workbook, reports configured
sheets missing from the workbook, checks the required columns of every stage
and prints how many rows each migrating sheet contributes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate()
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate() error {
	cfg, logger, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	fmt.Println("=== Configuration ===")
	fmt.Printf("Config file:     %s\n", cfgFile)
	fmt.Printf("Workbook:        %s\n", cfg.WorkbookPath)
	fmt.Printf("Sheets:          %d\n", len(cfg.Sheets))
	fmt.Printf("Watermarks:      ingresos > %d, ingreso_detalles > %d\n",
		cfg.Watermarks.Intakes, cfg.Watermarks.IntakeDetails)
	fmt.Printf("Database:        configured=%t\n", cfg.Database.Configured())

	p := pipeline.New(cfg, logger, time.Now())
	if err := p.LoadWorkbook(); err != nil {
		return fmt.Errorf("failed to load workbook: %w", err)
	}

	fmt.Println("\n=== Workbook ===")
	fmt.Println(validation.FormatWarnings(p.Warnings()))

	// Required columns, per stage. Every failure is reported before returning.
	var failures []error
	counts := map[string]int{}
	for _, s := range pipeline.Stages {
		rows, err := p.Rows(s)
		if err != nil {
			fmt.Printf("  ✗ %-15s %v\n", s, err)
			failures = append(failures, err)
			continue
		}
		fmt.Printf("  ✓ %-15s %d row(s)\n", s, len(rows))

		if len(counts) == 0 {
			for _, r := range rows {
				counts[r.Sheet]++
			}
		}
	}

	fmt.Println("\n=== Rows per sheet ===")
	total := 0
	for _, sheet := range cfg.Sheets {
		if !sheet.Migrates() {
			continue
		}
		fmt.Printf("  %-20s %6d  (almacen %d)\n", sheet.Name, counts[sheet.Name], sheet.WarehouseID)
		total += counts[sheet.Name]
	}
	fmt.Printf("  %-20s %6d\n", "TOTAL", total)

	if len(failures) > 0 {
		return fmt.Errorf("validation failed: %w", errors.Join(failures...))
	}

	fmt.Println("\nConfiguration and workbook are valid.")
	return nil
}
