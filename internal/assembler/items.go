package assembler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/config"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/normalize"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/types"
)

const (
	GroupService   = "servicio"
	GroupProcedure = "tramite"
	serviceUnit    = "SERVICIO"
)

var (
	servicePrefix   = regexp.MustCompile(`(?i)^registro\b`)
	procedurePrefix = regexp.MustCompile(`(?i)^cierre\b`)
	codeLetters     = regexp.MustCompile(`^([A-Za-záéíóúÁÉÍÓÚñÑ]+)`)
)

// ItemGroup decides catalogo_items.grupo, first matching rule wins:
//  1. pharmacy sheets use their group header, lower-cased;
//  2. unit SERVICIO or a description starting with "registro" is a service;
//  3. a description starting with "cierre" is a procedure;
//  4. anything else gets the default group.
func ItemGroup(row types.SourceRow, kind config.SheetKind, defaultGroup string) string {
	if kind == config.SheetPharmacy {
		if g := strings.TrimSpace(row.Group); g != "" {
			return strings.ToLower(g)
		}
		return defaultGroup
	}

	description := strings.ToLower(strings.TrimSpace(row.Description))
	if strings.EqualFold(strings.TrimSpace(row.Unit), serviceUnit) || servicePrefix.MatchString(description) {
		return GroupService
	}
	if procedurePrefix.MatchString(description) {
		return GroupProcedure
	}
	return defaultGroup
}

// Abbreviation is the leading run of letters of an item code, upper-cased:
// "LIM-4" gives "LIM". Codes without leading letters give nil.
func Abbreviation(code string) *string {
	m := codeLetters.FindStringSubmatch(strings.TrimSpace(code))
	if m == nil {
		return nil
	}
	abbr := strings.ToUpper(m[1])
	return &abbr
}

// CatalogItems builds one catalogo_items row per distinct description.
// Scripts from the earlier tooling wrote one row per workbook row, repeats
// included, so their item count is higher than this one.
//
// PARAMETERS:
//   - rows: Workbook rows in traversal order.
//   - cfg: Supplies sheet kinds and the default group.
//   - clock: The batch instant.
//
// RETURNS:
//   - The items, first occurrence of each lower-cased name kept.
//   - A duplicate_items warning when repeated names were folded.
func CatalogItems(rows []types.SourceRow, cfg *config.MainConfig, clock Clock) ([]types.CatalogItem, []types.Warning) {
	items := make([]types.CatalogItem, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	folded := 0

	for _, row := range rows {
		if normalize.IsBlank(row.Description) {
			continue
		}
		name := normalize.Key(row.Description)
		if seen[name] {
			folded++
			continue
		}
		seen[name] = true

		sheet, _ := cfg.Sheet(row.Sheet)
		items = append(items, types.CatalogItem{
			Name:         name,
			Group:        ItemGroup(row, sheet.Kind, cfg.Defaults.DefaultItemGroup),
			Abbreviation: Abbreviation(row.Code),
			RegisteredAt: clock.Date(),
			CreatedAt:    clock.Now(),
			UpdatedAt:    clock.Now(),
		})
	}

	var warnings []types.Warning
	if folded > 0 {
		warnings = append(warnings, types.Warning{
			Code:    types.WarnDuplicateItems,
			Message: fmt.Sprintf("%d repeated descriptions folded into %d catalog items", folded, len(items)),
			Fields:  map[string]any{"folded": folded, "items": len(items)},
		})
	}
	return items, warnings
}
