// =============================================================================
// XLSX to SQL Migration - Migrate Command
// =============================================================================
//
// This file defines the 'migrate' command, which runs one migration stage
// (or all of them in order) and writes the resulting SQL script.
//
// COMMAND USAGE:
//   migrator migrate <items|intakes|intake-details|outflows|all> [flags]
//
// FLAGS:
//   --dry-run       : Render the scripts but do not write them
//   --snapshot-dir  : Read ingreso_detalles.csv and catalogo_items.csv from
//                     this directory instead of the database (outflows)
//
// PROCESSING PIPELINE:
//   1. Load configuration and set up logging
//   2. Load and clean the workbook
//   3. For each requested stage:
//      a. Open the database when the stage needs it
//      b. Assemble and validate the whole batch in memory
//      c. Archive the previous script and write the new one
//   4. Write the run summary
//
// A fatal validation error stops the run before its script is written.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/config"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/csvparser"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/database"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/logging"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/pipeline"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/validation"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun renders the scripts without writing them.
var dryRun bool

// snapshotDir replaces the database as the outflow stage's source.
var snapshotDir string

// stageAll runs every stage in order.
const stageAll = "all"

// =============================================================================
// MIGRATE COMMAND DEFINITION
// =============================================================================

var migrateCmd = &cobra.Command{
	Use:   "migrate <stage>",
	Short: "Generate the SQL script of a migration stage",
	Long: `The migrate command generates the SQL script of one stage:

  items           catalogo_items.sql
  intakes         ingresos.sql
  intake-details  ingreso_detalles.sql (needs the database)
  outflows        egresos.sql (needs the database or --snapshot-dir)
  all             every stage above, in order

Each script is assembled and validated completely before it is written. The
previous version of a script is moved to the archive directory first.`,
	ValidArgs: []string{
		string(pipeline.StageItems),
		string(pipeline.StageIntakes),
		string(pipeline.StageIntakeDetails),
		string(pipeline.StageOutflows),
		stageAll,
	},
	Args: cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd.Context(), parseStages(args[0]))
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Render the scripts without writing them",
	)

	migrateCmd.Flags().StringVar(
		&snapshotDir,
		"snapshot-dir",
		"",
		"Directory with ingreso_detalles.csv and catalogo_items.csv (outflows only)",
	)
}

// parseStages expands a stage argument. Args are already validated.
func parseStages(arg string) []pipeline.Stage {
	if arg == stageAll {
		return pipeline.Stages
	}
	return []pipeline.Stage{pipeline.Stage(arg)}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runMigrate runs the requested stages in order.
func runMigrate(ctx context.Context, stages []pipeline.Stage) (err error) {
	startTime := time.Now()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	cfg, logger, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	fm := utils.NewFileManager(cfg.OutputDir, cfg.OutputArchiveDir, filepath.Dir(cfg.LogFile))
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}

	p := pipeline.New(cfg, logger, startTime)
	src := &sources{cfg: cfg, logger: logger}
	defer src.close()

	summary := utils.RunSummary{RunID: p.RunID(), StartTime: startTime, DryRun: dryRun}
	defer func() {
		summary.EndTime = time.Now()
		if err != nil {
			summary.Failure = err.Error()
		}
		path, werr := utils.WriteSummaryLog(summary, fm.OutputDir)
		if werr != nil {
			logger.WithError(werr).Warn("failed to write run summary")
			return
		}
		logger.WithField("file", path).Info("run summary written")
	}()

	fmt.Println("=== XLSX to SQL Migration ===")
	fmt.Printf("Run ID: %s\n", p.RunID())

	// =========================================================================
	// STEP 2: LOAD THE WORKBOOK
	// =========================================================================

	if err := p.LoadWorkbook(); err != nil {
		logging.LogError(logger, "cmd", "runMigrate", "load workbook", cfg.WorkbookPath, err)
		return fmt.Errorf("failed to load workbook: %w", err)
	}
	fmt.Printf("Loaded %d sheet(s) from %s\n", len(p.Tables()), cfg.WorkbookPath)

	// =========================================================================
	// STEP 3: RUN STAGES
	// =========================================================================

	for _, s := range stages {
		fmt.Printf("\n--- %s ---\n", s)

		out, err := runStage(ctx, p, s, src)
		if err != nil {
			logging.LogError(logger, "cmd", "runMigrate", string(s), logrus.Fields{"run": p.RunID()}, err)
			return err
		}

		stageSummary := utils.StageSummary{
			Stage:    string(s),
			File:     out.File,
			Records:  out.Records,
			Duration: out.Duration,
		}
		for _, w := range out.Warnings {
			stageSummary.Warnings = append(stageSummary.Warnings, w.String())
		}

		if dryRun {
			fmt.Printf("  (dry run) %d record(s) rendered for %s\n", out.Records, out.File)
		} else {
			archived, err := fm.WriteScript(out.File, out.Script.Render())
			if err != nil {
				logging.LogError(logger, "cmd", "runMigrate", string(s), out.File, err)
				return fmt.Errorf("%s: %w", s, err)
			}
			stageSummary.Archived = archived
			fmt.Printf("  %d record(s) -> %s\n", out.Records, out.File)
			if archived != "" {
				fmt.Printf("  previous script archived to %s\n", archived)
			}
		}

		fmt.Println(validation.FormatWarnings(out.Warnings))
		summary.Stages = append(summary.Stages, stageSummary)
	}

	// =========================================================================
	// STEP 4: PRINT SUMMARY
	// =========================================================================

	fmt.Println("\n=== Migration Complete ===")
	fmt.Printf("Stages:          %d\n", len(summary.Stages))
	fmt.Printf("Time elapsed:    %s\n", time.Since(startTime))
	return nil
}

// runStage dispatches one stage with the sources it needs.
func runStage(ctx context.Context, p *pipeline.Pipeline, s pipeline.Stage, src *sources) (*pipeline.Outcome, error) {
	switch s {
	case pipeline.StageItems:
		return p.Items(ctx)

	case pipeline.StageIntakes:
		return p.Intakes(ctx)

	case pipeline.StageIntakeDetails:
		store, err := src.store()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s, err)
		}
		return p.IntakeDetails(ctx, store, store)

	case pipeline.StageOutflows:
		reader, err := src.details()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s, err)
		}
		return p.Outflows(ctx, reader)
	}
	return nil, fmt.Errorf("unknown stage %q", s)
}

// =============================================================================
// SOURCES
// =============================================================================

// sources opens the database on first use so that stages which never need
// it run without credentials.
type sources struct {
	cfg    *config.MainConfig
	logger logrus.FieldLogger

	db    *gorm.DB
	cache *database.Store
}

func (s *sources) store() (*database.Store, error) {
	if s.cache != nil {
		return s.cache, nil
	}

	db, err := database.Open(s.cfg.Database, s.logger)
	if err != nil {
		return nil, err
	}
	s.db = db
	s.cache = database.NewStore(db)

	s.logger.WithFields(logrus.Fields{
		"host":     s.cfg.Database.Host,
		"database": s.cfg.Database.Name,
	}).Info("connected to database")
	return s.cache, nil
}

// details picks the outflow stage's reader.
func (s *sources) details() (pipeline.DetailReader, error) {
	if snapshotDir != "" {
		s.logger.WithField("dir", snapshotDir).Info("reading ingreso_detalles from snapshot")
		return csvparser.NewSnapshot(snapshotDir), nil
	}

	store, err := s.store()
	if err != nil {
		return nil, err
	}
	return store, nil
}

func (s *sources) close() {
	if s.db == nil {
		return
	}
	if err := database.Close(s.db); err != nil {
		s.logger.WithError(err).Warn("failed to close database")
	}
}
