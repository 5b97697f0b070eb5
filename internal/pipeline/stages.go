package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/align"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/assembler"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/extract"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/normalize"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/reference"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/sqlwriter"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/stage"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/types"
)

// RequiredColumns lists the columns each stage reads from every migrating
// sheet. A missing one stops the stage before any row is processed.
func (p *Pipeline) RequiredColumns(s Stage) []string {
	c := p.cfg.Columns
	switch s {
	case StageItems:
		return []string{c.Description, c.Code, c.Unit}
	case StageIntakeDetails:
		return []string{
			c.Description, c.Unit,
			c.LegacyQuantity, c.LegacyCost, c.LegacyTotal,
			c.CurrentQuantity, c.CurrentCost, c.CurrentTotal,
		}
	case StageOutflows:
		return []string{c.Description, c.OutflowQuantity, c.OutflowCost, c.OutflowTotal}
	}
	return nil
}

// Rows runs the extraction traversal with the stage's required columns.
func (p *Pipeline) Rows(s Stage) ([]types.SourceRow, error) {
	rows, err := extract.DetailRows(p.tables, p.cfg, p.RequiredColumns(s)...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s, err)
	}
	return rows, nil
}

// =============================================================================
// ITEMS
// =============================================================================

// Items builds catalogo_items.sql from every description in the workbook.
func (p *Pipeline) Items(_ context.Context) (*Outcome, error) {
	started := time.Now()

	rows, err := p.Rows(StageItems)
	if err != nil {
		return nil, err
	}

	items, warnings := assembler.CatalogItems(rows, p.cfg, p.clock)
	p.logWarnings(StageItems, warnings)

	return p.finish(&Outcome{
		Stage:    StageItems,
		Script:   sqlwriter.CatalogItemsScript(items, p.meta()),
		File:     p.outputPath(p.cfg.Files.Items),
		Warnings: warnings,
	}, started), nil
}

// =============================================================================
// INTAKES
// =============================================================================

// Intakes builds ingresos.sql: one intake per workbook row.
func (p *Pipeline) Intakes(_ context.Context) (*Outcome, error) {
	started := time.Now()

	rows, err := p.Rows(StageIntakes)
	if err != nil {
		return nil, err
	}

	intakes, warnings := assembler.Intakes(rows, p.cfg.Defaults, p.clock)
	p.logWarnings(StageIntakes, warnings)

	return p.finish(&Outcome{
		Stage:    StageIntakes,
		Script:   sqlwriter.IntakesScript(intakes, p.meta()),
		File:     p.outputPath(p.cfg.Files.Intakes),
		Warnings: warnings,
	}, started), nil
}

// =============================================================================
// INTAKE DETAILS
// =============================================================================

// IntakeDetails builds ingreso_detalles.sql.
//
// PARAMETERS:
//   - store: Reference lookups; missing partitions, items and units are
//     inserted through it.
//   - intakes: Source of the ingresos rows inserted from ingresos.sql.
//
// RETURNS:
//   - The outcome, with row_count_mismatch and reference_created warnings.
//   - A *validation.MissingColumnError or *validation.ShapeMismatchError, or
//     a database error.
func (p *Pipeline) IntakeDetails(ctx context.Context, store reference.Store, intakes IntakeReader) (*Outcome, error) {
	started := time.Now()
	log := p.logger.WithField("stage", StageIntakeDetails)

	// =========================================================================
	// STEP 1: EXTRACT AND READ INTAKES
	// =========================================================================

	rows, err := p.Rows(StageIntakeDetails)
	if err != nil {
		return nil, err
	}

	refs, err := intakes.IntakesAfter(ctx, p.cfg.Watermarks.Intakes)
	if err != nil {
		return nil, fmt.Errorf("%s: read ingresos: %w", StageIntakeDetails, err)
	}
	log.WithFields(logrus.Fields{"workbook_rows": len(rows), "intakes": len(refs)}).Info("inputs loaded")

	// =========================================================================
	// STEP 2: ALIGN
	// =========================================================================
	// Intakes were generated one per workbook row by the same traversal, so
	// position i pairs intake i with row i. A length difference is tolerated
	// and reported.

	aligned, err := align.Zip(refs, rows, align.Sides{
		Left:  fmt.Sprintf("ingresos (id > %d)", p.cfg.Watermarks.Intakes),
		Right: "workbook rows",
	}, align.Lenient)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageIntakeDetails, err)
	}
	p.logWarnings(StageIntakeDetails, aligned.Warnings)

	// =========================================================================
	// STEP 3: RESOLVE, CLASSIFY, ASSEMBLE
	// =========================================================================

	resolver := reference.NewResolver(store, log, p.clock.Now(), p.cfg.Defaults.UnknownUnit)
	parser := normalize.NewNumberParser()
	classifier := stage.NewClassifier(p.cfg.Stages, parser)

	details := make([]types.IntakeDetail, 0, len(aligned.Pairs))
	for _, pair := range aligned.Pairs {
		row := pair.Right

		partitionID, err := resolver.Partition(ctx, row.PartitionCode)
		if err != nil {
			return nil, fmt.Errorf("%s: position %d: %w", StageIntakeDetails, pair.Position, err)
		}
		itemID, err := resolver.CatalogItem(ctx, row.Description)
		if err != nil {
			return nil, fmt.Errorf("%s: position %d: %w", StageIntakeDetails, pair.Position, err)
		}
		unitID, err := resolver.Unit(ctx, row.Unit)
		if err != nil {
			return nil, fmt.Errorf("%s: position %d: %w", StageIntakeDetails, pair.Position, err)
		}

		details = append(details, assembler.IntakeDetail(assembler.DetailInput{
			Intake:        pair.Left,
			Row:           row,
			PartitionID:   partitionID,
			ItemID:        itemID,
			MeasureUnitID: unitID,
			Class:         classifier.Classify(row),
		}, p.cfg.Defaults, p.clock))
	}

	log.WithFields(logrus.Fields{
		"lookups": resolver.Lookups(),
		"created": resolver.Created(),
	}).Info("references resolved")

	// =========================================================================
	// STEP 4: AGGREGATE AND RENDER
	// =========================================================================

	summaries := assembler.Summaries(details)

	warnings := append(aligned.Warnings, resolver.Warnings()...)
	return p.finish(&Outcome{
		Stage:    StageIntakeDetails,
		Script:   sqlwriter.IntakeDetailsScript(details, summaries, p.meta()),
		File:     p.outputPath(p.cfg.Files.IntakeDetails),
		Warnings: warnings,
		Numbers:  classifier.Stats(),
	}, started), nil
}

// =============================================================================
// OUTFLOWS
// =============================================================================

// Outflows builds egresos.sql.
//
// PARAMETERS:
//   - reader: Source of the ingreso_detalles rows inserted from
//     ingreso_detalles.sql and of the catalog names.
//
// RETURNS:
//   - The outcome.
//   - A *validation.RowCountMismatchError, *validation.ShapeMismatchError,
//     *validation.DuplicateKeyError or *validation.DescriptionMismatchError.
//     No partial script is produced.
func (p *Pipeline) Outflows(ctx context.Context, reader DetailReader) (*Outcome, error) {
	started := time.Now()
	log := p.logger.WithField("stage", StageOutflows)

	// =========================================================================
	// STEP 1: EXTRACT AND READ DETAILS
	// =========================================================================

	rows, err := p.Rows(StageOutflows)
	if err != nil {
		return nil, err
	}

	details, err := reader.IntakeDetailsAfter(ctx, p.cfg.Watermarks.IntakeDetails)
	if err != nil {
		return nil, fmt.Errorf("%s: read ingreso_detalles: %w", StageOutflows, err)
	}
	log.WithFields(logrus.Fields{"workbook_rows": len(rows), "details": len(details)}).Info("inputs loaded")

	// =========================================================================
	// STEP 2: ALIGN (STRICT)
	// =========================================================================

	aligned, err := align.Zip(details, rows, align.Sides{
		Left:  fmt.Sprintf("ingreso_detalles (id > %d)", p.cfg.Watermarks.IntakeDetails),
		Right: "workbook rows",
	}, align.Strict)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageOutflows, err)
	}

	// =========================================================================
	// STEP 3: VALIDATE AND ASSEMBLE
	// =========================================================================

	names, err := reader.CatalogNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: read catalogo_items: %w", StageOutflows, err)
	}

	parser := normalize.NewNumberParser()
	outflows, err := assembler.Outflows(aligned.Pairs, names, parser, p.clock)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageOutflows, err)
	}

	return p.finish(&Outcome{
		Stage:   StageOutflows,
		Script:  sqlwriter.OutflowsScript(outflows, p.meta()),
		File:    p.outputPath(p.cfg.Files.Outflows),
		Numbers: parser.Stats(),
	}, started), nil
}
