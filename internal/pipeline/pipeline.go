// =============================================================================
// XLSX to SQL Migration - Pipeline
// =============================================================================
//
// This module orchestrates the migration stages. Each stage reads the cleaned
// workbook through the single extraction traversal, joins it with database
// rows where needed, and renders one SQL script in memory.
//
// STAGES (run in this order; execute each script before the next stage):
//   1. items           catalogo_items.sql
//   2. intakes         ingresos.sql
//   3. intake-details  ingreso_detalles.sql (resolves references, reads
//                      ingresos rows above the intake watermark)
//   4. outflows        egresos.sql (reads ingreso_detalles rows above the
//                      detail watermark, from the database or a snapshot)
//
// OUTCOMES:
//   A stage returns an *Outcome holding the rendered script and every
//   advisory warning, or an error. Fatal validation errors keep their type
//   through the %w chain. Nothing is written to disk here.
//
// =============================================================================

package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/assembler"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/cleaning"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/config"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/normalize"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/sqlwriter"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/types"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/xlsxparser"
)

// Stage names a migration stage.
type Stage string

const (
	StageItems         Stage = "items"
	StageIntakes       Stage = "intakes"
	StageIntakeDetails Stage = "intake-details"
	StageOutflows      Stage = "outflows"
)

// Stages lists every stage in run order.
var Stages = []Stage{StageItems, StageIntakes, StageIntakeDetails, StageOutflows}

// =============================================================================
// READERS
// =============================================================================

// IntakeReader lists ingresos rows inserted by a previous run.
type IntakeReader interface {
	IntakesAfter(ctx context.Context, watermark int64) ([]types.IntakeRef, error)
}

// DetailReader lists ingreso_detalles rows inserted by a previous run and
// the catalog names their item ids point to. Implemented by the database
// store and the CSV snapshot.
type DetailReader interface {
	IntakeDetailsAfter(ctx context.Context, watermark int64) ([]types.IntakeDetailRef, error)
	CatalogNames(ctx context.Context) (map[int64]string, error)
}

// =============================================================================
// OUTCOME
// =============================================================================

// Outcome is the result of one successful stage.
type Outcome struct {
	Stage Stage

	// Records is the number of INSERT statements in Script.
	Records int

	// Script is the rendered file, ready to be written.
	Script *sqlwriter.Script

	// File is where Script belongs.
	File string

	// Warnings are advisory; the script is still valid.
	Warnings []types.Warning

	// Numbers are the parser counters for the stage, when it parsed numbers.
	Numbers normalize.NumberStats

	Duration time.Duration
}

// =============================================================================
// PIPELINE STRUCTURE
// =============================================================================

// Pipeline holds the state shared by every stage of one run.
type Pipeline struct {
	cfg    *config.MainConfig
	logger logrus.FieldLogger
	clock  assembler.Clock
	runID  string

	// tables are the cleaned sheets in workbook order.
	tables []*types.Table

	// warnings raised while loading the workbook; repeated in each outcome.
	warnings []types.Warning
}

// New creates a pipeline for one run.
//
// PARAMETERS:
//   - cfg: The validated configuration.
//   - logger: Receives progress and warnings.
//   - at: The run instant stamped on every record.
func New(cfg *config.MainConfig, logger logrus.FieldLogger, at time.Time) *Pipeline {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	runID := uuid.NewString()
	return &Pipeline{
		cfg:    cfg,
		logger: logger.WithField("run", runID),
		clock:  assembler.NewClock(at),
		runID:  runID,
	}
}

// RunID identifies this run in scripts and logs.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Tables returns the cleaned sheets.
func (p *Pipeline) Tables() []*types.Table {
	return p.tables
}

// Warnings returns the workbook-level warnings.
func (p *Pipeline) Warnings() []types.Warning {
	return p.warnings
}

// LoadWorkbook reads and cleans every configured sheet.
func (p *Pipeline) LoadWorkbook() error {
	book, err := xlsxparser.LoadWorkbook(p.cfg.WorkbookPath, p.cfg.Sheets)
	if err != nil {
		return err
	}

	for _, name := range book.Missing {
		p.logger.WithField("sheet", name).Warn("configured sheet not found in workbook")
		p.warnings = append(p.warnings, types.Warning{
			Code:    types.WarnMissingSheet,
			Message: fmt.Sprintf("sheet %q is configured but not in the workbook", name),
			Fields:  map[string]any{"sheet": name},
		})
	}

	return p.UseTables(book.Tables)
}

// UseTables cleans raw tables and makes them the run's input.
func (p *Pipeline) UseTables(raw []*types.Table) error {
	cleaner := cleaning.NewCleaner(p.cfg)

	p.tables = make([]*types.Table, 0, len(raw))
	for _, t := range raw {
		sheet, ok := p.cfg.Sheet(t.Name)
		if !ok {
			continue
		}
		cleaned, err := cleaner.Clean(t, sheet.Kind)
		if err != nil {
			return err
		}
		p.logger.WithFields(logrus.Fields{
			"sheet":   t.Name,
			"raw":     len(t.Rows),
			"cleaned": len(cleaned.Rows),
		}).Debug("sheet cleaned")
		p.tables = append(p.tables, cleaned)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (p *Pipeline) meta() sqlwriter.Meta {
	return sqlwriter.Meta{RunID: p.runID, GeneratedAt: p.clock.Now()}
}

func (p *Pipeline) outputPath(name string) string {
	return filepath.Join(p.cfg.OutputDir, name)
}

// finish fills in the common outcome fields and logs the stage summary.
func (p *Pipeline) finish(out *Outcome, started time.Time) *Outcome {
	out.Records = out.Script.Records
	out.Duration = time.Since(started)
	out.Warnings = append(append([]types.Warning{}, p.warnings...), out.Warnings...)

	if fw := p.fallbackWarning(out.Stage, out.Numbers); fw != nil {
		out.Warnings = append(out.Warnings, *fw)
	}

	for i := range out.Warnings {
		if out.Warnings[i].Stage == "" {
			out.Warnings[i].Stage = string(out.Stage)
		}
	}

	p.logger.WithFields(logrus.Fields{
		"stage":    out.Stage,
		"records":  out.Records,
		"warnings": len(out.Warnings),
		"file":     out.File,
	}).Info("stage assembled")
	return out
}

// fallbackWarning reports a stage whose unparseable number rate is above
// the configured maximum.
func (p *Pipeline) fallbackWarning(stage Stage, stats normalize.NumberStats) *types.Warning {
	rate := stats.FallbackRate()
	if stats.Unparseable == 0 || rate <= p.cfg.Validation.MaxUnparseableRate {
		return nil
	}

	p.logger.WithFields(logrus.Fields{
		"stage":       stage,
		"unparseable": stats.Unparseable,
		"rate":        fmt.Sprintf("%.3f", rate),
	}).Warn("numeric values defaulted to 0")

	return &types.Warning{
		Code:  types.WarnNumericFallbacks,
		Stage: string(stage),
		Message: fmt.Sprintf("%d of %d numeric values could not be parsed and were set to 0 (%.1f%%)",
			stats.Unparseable, stats.Parsed+stats.Unparseable, rate*100),
		Fields: map[string]any{
			"parsed":      stats.Parsed,
			"blank":       stats.Blank,
			"unparseable": stats.Unparseable,
			"rate":        rate,
		},
	}
}

func (p *Pipeline) logWarnings(stage Stage, warnings []types.Warning) {
	for _, w := range warnings {
		fields := logrus.Fields{"stage": stage, "code": w.Code}
		for k, v := range w.Fields {
			fields[k] = v
		}
		p.logger.WithFields(fields).Warn(w.Message)
	}
}
