// =============================================================================
// XLSX to SQL Migration - Sheet Cleaning Rules
// =============================================================================
//
// This module turns a raw sheet into a table of data rows. The legacy
// workbook mixes data with layout rows (section headers, subtotals, group
// labels); those are removed here and the information they carry is moved
// into derived columns.
//
// RULE SETS:
//   - detail:     PARTIDA_CODIGO derived from "PARTIDA N° <n>" rows and
//                 forward-filled; headers, partition totals, grand totals and
//                 rows without CODIGO are dropped.
//   - pharmacy:   as detail, plus GRUPO derived from group label rows and
//                 forward-filled; any row mentioning TOTAL is dropped.
//   - accounting: TOTAL/TOTALES rows and fully blank rows are dropped.
//
// All rules look at the first column of the sheet, where the legacy layout
// puts its labels. Row order is preserved.
//
// =============================================================================

package cleaning

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/config"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/normalize"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/types"
)

var (
	partitionCodePattern   = regexp.MustCompile(`(?i)PARTIDA\s*N[°º]\s*(\d+)`)
	partitionHeaderPattern = regexp.MustCompile(`(?i)^PARTIDA\s*N[°º]\s*\d+`)
	partitionTotalPattern  = regexp.MustCompile(`(?i)TOTAL\s+PARTIDA`)
	grandTotalPattern      = regexp.MustCompile(`(?i)TOTAL\s+GENERAL`)
	anyTotalPattern        = regexp.MustCompile(`(?i)\bTOTAL(ES)?\b`)
)

// =============================================================================
// CLEANER
// =============================================================================

// Cleaner applies the rule set of each configured sheet.
type Cleaner struct {
	columns config.ColumnNames
	groups  map[string]bool
}

// NewCleaner creates a Cleaner for the configured column names and pharmacy
// group labels.
func NewCleaner(cfg *config.MainConfig) *Cleaner {
	groups := make(map[string]bool, len(cfg.PharmacyGroups))
	for _, g := range cfg.PharmacyGroups {
		groups[strings.TrimSpace(g)] = true
	}
	return &Cleaner{columns: cfg.Columns, groups: groups}
}

// Clean applies the rule set for kind and returns a new table.
//
// PARAMETERS:
//   - table: The raw sheet as read from the workbook.
//   - kind: Which rule set applies.
//
// RETURNS:
//   - The cleaned table. Headers gain PARTIDA_CODIGO (and GRUPO for pharmacy).
//   - An error if the kind is unknown or a migrating sheet has no CODIGO column.
func (c *Cleaner) Clean(table *types.Table, kind config.SheetKind) (*types.Table, error) {
	switch kind {
	case config.SheetDetail:
		return c.cleanDetail(table)
	case config.SheetPharmacy:
		return c.cleanPharmacy(table)
	case config.SheetAccounting:
		return c.cleanAccounting(table), nil
	default:
		return nil, fmt.Errorf("sheet %q: unknown sheet kind %q", table.Name, kind)
	}
}

func (c *Cleaner) cleanDetail(table *types.Table) (*types.Table, error) {
	if !table.HasColumn(c.columns.Code) {
		return nil, fmt.Errorf("sheet %q: column %q is required for cleaning", table.Name, c.columns.Code)
	}

	out := derive(table, c.columns.PartitionCode)
	partition := ""

	for _, row := range table.Rows {
		label := firstCell(table, row)
		if m := partitionCodePattern.FindStringSubmatch(label); m != nil {
			partition = m[1]
		}

		switch {
		case partitionHeaderPattern.MatchString(label),
			partitionTotalPattern.MatchString(label),
			grandTotalPattern.MatchString(label),
			normalize.IsBlank(row.Values[c.columns.Code]):
			continue
		}

		out.Rows = append(out.Rows, withValues(row, map[string]string{
			c.columns.PartitionCode: partition,
		}))
	}
	return out, nil
}

func (c *Cleaner) cleanPharmacy(table *types.Table) (*types.Table, error) {
	if !table.HasColumn(c.columns.Code) {
		return nil, fmt.Errorf("sheet %q: column %q is required for cleaning", table.Name, c.columns.Code)
	}

	out := derive(table, c.columns.Group, c.columns.PartitionCode)
	group, partition := "", ""

	for _, row := range table.Rows {
		label := firstCell(table, row)
		isGroupHeader := c.groups[label]
		if isGroupHeader {
			group = label
		}
		if m := partitionCodePattern.FindStringSubmatch(label); m != nil {
			partition = m[1]
		}

		switch {
		case isGroupHeader,
			partitionHeaderPattern.MatchString(label),
			anyTotalPattern.MatchString(label),
			normalize.IsBlank(row.Values[c.columns.Code]):
			continue
		}

		out.Rows = append(out.Rows, withValues(row, map[string]string{
			c.columns.Group:         group,
			c.columns.PartitionCode: partition,
		}))
	}
	return out, nil
}

func (c *Cleaner) cleanAccounting(table *types.Table) *types.Table {
	out := derive(table)
	for _, row := range table.Rows {
		if anyTotalPattern.MatchString(firstCell(table, row)) || blankRow(row) {
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// =============================================================================
// HELPERS
// =============================================================================

// derive copies the table header and appends derived columns.
func derive(table *types.Table, extra ...string) *types.Table {
	out := &types.Table{
		Name:    table.Name,
		Index:   table.Index,
		Headers: append([]string(nil), table.Headers...),
		Rows:    make([]types.Row, 0, len(table.Rows)),
	}
	for _, col := range extra {
		out.AddColumn(col)
	}
	return out
}

func firstCell(table *types.Table, row types.Row) string {
	if len(table.Headers) == 0 {
		return ""
	}
	return strings.TrimSpace(row.Values[table.Headers[0]])
}

func withValues(row types.Row, extra map[string]string) types.Row {
	values := make(map[string]string, len(row.Values)+len(extra))
	for k, v := range row.Values {
		values[k] = v
	}
	for k, v := range extra {
		values[k] = v
	}
	return types.Row{Number: row.Number, Values: values}
}

func blankRow(row types.Row) bool {
	for _, v := range row.Values {
		if !normalize.IsBlank(v) {
			return false
		}
	}
	return true
}
