// =============================================================================
// XLSX to SQL Migration - Clean Command
// =============================================================================
//
// COMMAND USAGE:
//   migrator clean [--out ./output/excel_limpio.xlsx]
//
// Loads the workbook, applies the cleaning rules to every configured sheet
// (accounting sheets included) and writes the result as a formatted workbook
// for review. The database is never touched.
//
// =============================================================================

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/logging"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/pipeline"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/xlsxparser"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/pkg/utils"
)

// cleanOut overrides cleaned_workbook from the config.
var cleanOut string

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Export the cleaned workbook for review",
	Long: `The clean command applies the cleaning rules to every configured sheet and
writes the result to a new workbook, one formatted table per sheet. An
existing file is archived first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClean()
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	cleanCmd.Flags().StringVar(
		&cleanOut,
		"out",
		"",
		"Output path (default is cleaned_workbook from the config)",
	)
}

func runClean() error {
	cfg, logger, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	out := cfg.CleanedWorkbook
	if cleanOut != "" {
		out = cleanOut
	}

	p := pipeline.New(cfg, logger, time.Now())
	if err := p.LoadWorkbook(); err != nil {
		logging.LogError(logger, "cmd", "runClean", "load workbook", cfg.WorkbookPath, err)
		return fmt.Errorf("failed to load workbook: %w", err)
	}

	fm := utils.NewFileManager(cfg.OutputDir, cfg.OutputArchiveDir, "")
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}
	archived, err := fm.ArchiveExisting(out)
	if err != nil {
		return err
	}

	if err := xlsxparser.ExportCleanedBook(out, p.Tables()); err != nil {
		logging.LogError(logger, "cmd", "runClean", "export", out, err)
		return fmt.Errorf("failed to export cleaned workbook: %w", err)
	}

	logger.WithField("file", out).Info("cleaned workbook written")
	fmt.Printf("Cleaned %d sheet(s) -> %s\n", len(p.Tables()), out)
	if archived != "" {
		fmt.Printf("Previous workbook archived to %s\n", archived)
	}
	return nil
}
