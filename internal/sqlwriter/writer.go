// =============================================================================
// XLSX to SQL Migration - SQL Script Writer
// =============================================================================
//
// This module renders assembled records as reviewable MySQL scripts. Nothing
// here touches the database; an operator runs the scripts by hand.
//
// SCRIPT STRUCTURE:
//
//   -- ============================================================
//   -- Migración: ingreso_detalles
//   -- Generado el: 2025-05-20 14:03:09
//   -- Total de registros: 812
//   -- Run: 6f1c...
//   -- ============================================================
//
//   SET NAMES utf8mb4;
//   SET FOREIGN_KEY_CHECKS = 0;
//
//   -- ---- INSERT ingreso_detalles ----
//   INSERT INTO `ingreso_detalles` (`ingreso_id`, ...) VALUES (7, ...);
//
//   -- ---- UPDATE ingresos.total ----
//   UPDATE `ingresos` SET `total` = 20.20 WHERE `id` = 7;
//
//   SET FOREIGN_KEY_CHECKS = 1;
//
// VALUES:
//   - nil pointers and blank strings become NULL
//   - strings are single-quoted with ' doubled
//   - floats use the shortest decimal form
//
// =============================================================================

package sqlwriter

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/types"
)

const (
	dateTimeLayout = "2006-01-02 15:04:05"
	dateLayout     = "2006-01-02"
	banner         = "-- ============================================================"
)

// Meta identifies the run that produced a script.
type Meta struct {
	RunID       string
	GeneratedAt time.Time
}

// Section is a titled block of statements.
type Section struct {
	Title      string
	Statements []string
}

// Script is one output file.
type Script struct {
	// Migration names the destination table in the banner.
	Migration string

	// Records is the number of rows inserted.
	Records int

	Meta     Meta
	Sections []Section
}

// Render produces the file contents.
func (s *Script) Render() []byte {
	var buf bytes.Buffer

	buf.WriteString(banner + "\n")
	fmt.Fprintf(&buf, "-- Migración: %s\n", s.Migration)
	fmt.Fprintf(&buf, "-- Generado el: %s\n", s.Meta.GeneratedAt.Format(dateTimeLayout))
	fmt.Fprintf(&buf, "-- Total de registros: %d\n", s.Records)
	if s.Meta.RunID != "" {
		fmt.Fprintf(&buf, "-- Run: %s\n", s.Meta.RunID)
	}
	buf.WriteString(banner + "\n\n")

	buf.WriteString("SET NAMES utf8mb4;\n")
	buf.WriteString("SET FOREIGN_KEY_CHECKS = 0;\n\n")

	for _, section := range s.Sections {
		fmt.Fprintf(&buf, "-- ---- %s ----\n", section.Title)
		for _, stmt := range section.Statements {
			buf.WriteString(stmt)
			buf.WriteByte('\n')
		}
		buf.WriteByte('\n')
	}

	buf.WriteString("SET FOREIGN_KEY_CHECKS = 1;\n")
	return buf.Bytes()
}

// =============================================================================
// STATEMENT BUILDERS
// =============================================================================

// Insert builds a single-row INSERT with backtick-quoted identifiers.
func Insert(table string, columns []string, values []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
		quoteIdent(table), strings.Join(quoted, ", "), strings.Join(values, ", "))
}

// Update builds a single-column UPDATE by id.
func Update(table, column, value string, id int64) string {
	return fmt.Sprintf("UPDATE %s SET %s = %s WHERE `id` = %d;",
		quoteIdent(table), quoteIdent(column), value, id)
}

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// =============================================================================
// VALUE FORMATTERS
// =============================================================================

// Null is the SQL NULL literal.
const Null = "NULL"

// String quotes s, or returns NULL when s is blank.
func String(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Null
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// StringPtr quotes *s, or returns NULL.
func StringPtr(s *string) string {
	if s == nil {
		return Null
	}
	return String(*s)
}

// Int formats an integer.
func Int(v int64) string {
	return fmt.Sprintf("%d", v)
}

// IntPtr formats *v, or returns NULL.
func IntPtr(v *int64) string {
	if v == nil {
		return Null
	}
	return Int(*v)
}

// Float formats v in its shortest decimal form.
func Float(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// DateTime quotes a DATETIME value.
func DateTime(t time.Time) string {
	return "'" + t.Format(dateTimeLayout) + "'"
}

// Date quotes a DATE value.
func Date(t time.Time) string {
	return "'" + t.Format(dateLayout) + "'"
}

// DatePtr quotes *t as a DATE, or returns NULL.
func DatePtr(t *time.Time) string {
	if t == nil {
		return Null
	}
	return Date(*t)
}

// =============================================================================
// TABLE SCRIPTS
// =============================================================================

var catalogItemColumns = []string{"nombre", "grupo", "abreviatura", "fecha_registro", "created_at", "updated_at"}

// CatalogItemsScript renders catalogo_items.sql.
func CatalogItemsScript(items []types.CatalogItem, meta Meta) *Script {
	stmts := make([]string, 0, len(items))
	for _, it := range items {
		stmts = append(stmts, Insert("catalogo_items", catalogItemColumns, []string{
			String(it.Name),
			String(it.Group),
			StringPtr(it.Abbreviation),
			Date(it.RegisteredAt),
			DateTime(it.CreatedAt),
			DateTime(it.UpdatedAt),
		}))
	}
	return &Script{
		Migration: "catalogo_items",
		Records:   len(items),
		Meta:      meta,
		Sections:  []Section{{Title: "INSERT catalogo_items", Statements: stmts}},
	}
}

var intakeColumns = []string{
	"codigo", "donacion", "almacen_id", "unidad_id", "proveedor",
	"con_fondos", "fecha_nota", "nro_factura", "fecha_factura", "pedido_interno",
	"total", "fecha_ingreso", "hora_ingreso", "observaciones", "para",
	"fecha_registro", "user_id", "created_at", "updated_at", "etapa_ingreso",
}

// IntakesScript renders ingresos.sql.
func IntakesScript(intakes []types.Intake, meta Meta) *Script {
	stmts := make([]string, 0, len(intakes))
	for _, in := range intakes {
		stmts = append(stmts, Insert("ingresos", intakeColumns, []string{
			String(in.Code),
			String(in.Donation),
			Int(in.WarehouseID),
			IntPtr(in.UnitID),
			StringPtr(in.Supplier),
			StringPtr(in.WithFunds),
			DatePtr(in.NoteDate),
			StringPtr(in.InvoiceNumber),
			DatePtr(in.InvoiceDate),
			StringPtr(in.InternalOrder),
			Int(int64(in.Total)),
			DatePtr(in.IntakeDate),
			StringPtr(in.IntakeTime),
			StringPtr(in.Remarks),
			StringPtr(in.Recipient),
			Date(in.RegisteredAt),
			Int(in.UserID),
			DateTime(in.CreatedAt),
			DateTime(in.UpdatedAt),
			StringPtr(in.Stage),
		}))
	}
	return &Script{
		Migration: "ingresos",
		Records:   len(intakes),
		Meta:      meta,
		Sections:  []Section{{Title: "INSERT ingresos", Statements: stmts}},
	}
}

var intakeDetailColumns = []string{
	"ingreso_id", "almacen_id", "unidad_id", "partida_id", "donacion",
	"item_id", "unidad_medida_id", "cantidad", "costo", "total",
	"created_at", "updated_at",
}

// IntakeDetailsScript renders ingreso_detalles.sql: the detail inserts, then
// one total update and one stage update per intake.
func IntakeDetailsScript(details []types.IntakeDetail, summaries []types.IntakeSummary, meta Meta) *Script {
	inserts := make([]string, 0, len(details))
	for _, d := range details {
		inserts = append(inserts, Insert("ingreso_detalles", intakeDetailColumns, []string{
			Int(d.IntakeID),
			IntPtr(d.WarehouseID),
			IntPtr(d.UnitID),
			IntPtr(d.PartitionID),
			String(d.Donation),
			IntPtr(d.ItemID),
			IntPtr(d.MeasureUnitID),
			Float(d.Quantity),
			Float(d.Cost),
			Float(d.Total),
			DateTime(d.CreatedAt),
			DateTime(d.UpdatedAt),
		}))
	}

	totals := make([]string, 0, len(summaries))
	stages := make([]string, 0, len(summaries))
	for _, s := range summaries {
		totals = append(totals, Update("ingresos", "total", s.Total, s.IntakeID))
		stages = append(stages, Update("ingresos", "etapa_ingreso", String(s.Stage), s.IntakeID))
	}

	return &Script{
		Migration: "ingreso_detalles",
		Records:   len(details),
		Meta:      meta,
		Sections: []Section{
			{Title: "INSERT ingreso_detalles", Statements: inserts},
			{Title: "UPDATE ingresos.total", Statements: totals},
			{Title: "UPDATE ingresos.etapa_ingreso", Statements: stages},
		},
	}
}

var outflowColumns = []string{
	"ingreso_id", "ingreso_detalle_id", "almacen_id", "partida_id", "item_id",
	"destino_id", "cantidad", "costo", "total", "fecha_registro",
	"editable", "created_at", "updated_at",
}

// OutflowsScript renders egresos.sql.
func OutflowsScript(outflows []types.Outflow, meta Meta) *Script {
	stmts := make([]string, 0, len(outflows))
	for _, o := range outflows {
		stmts = append(stmts, Insert("egresos", outflowColumns, []string{
			Int(o.IntakeID),
			Int(o.IntakeDetailID),
			IntPtr(o.WarehouseID),
			IntPtr(o.PartitionID),
			IntPtr(o.ItemID),
			IntPtr(o.DestinationID),
			Int(o.Quantity),
			Float(o.Cost),
			Float(o.Total),
			Date(o.RegisteredAt),
			Int(int64(o.Editable)),
			DateTime(o.CreatedAt),
			DateTime(o.UpdatedAt),
		}))
	}
	return &Script{
		Migration: "egresos",
		Records:   len(outflows),
		Meta:      meta,
		Sections:  []Section{{Title: "INSERT egresos", Statements: stmts}},
	}
}
