package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/config"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/normalize"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/reference"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/types"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/validation"
)

const testYAML = `
workbook_path: ./unused.xlsx
output_dir: /srv/migration/output
sheets:
  - name: CEPAT
    kind: detail
    columns: 17
    warehouse_id: 1
  - name: PAIPI
    kind: detail
    columns: 17
    warehouse_id: 2
  - name: ANEXO-1B
    kind: accounting
    columns: 6
`

var at = time.Date(2025, 5, 20, 14, 3, 9, 0, time.UTC)

var headers = []string{
	"ITEM", "CODIGO", "DESCRIPCION", "UNIDAD",
	"SALDO_AL_01_DE_ENERO_DE_2025_CANT", "SALDO_AL_01_DE_ENERO_DE_2025_valor", "SALDO_AL_01_DE_ENERO_DE_2025_TOTAL Bs.",
	"INGRESO_ALMACENES_CANT", "INGRESO_ALMACENES_VALOR", "INGRESO_ALMACENES_TOTAL Bs.",
	"SALIDA_ALMACENES_CANT", "SALIDA_ALMACENES_VALOR", "SALIDA_ALMACENES_TOTAL Bs.",
}

func rawTable(name string, index int, rows ...[]string) *types.Table {
	t := &types.Table{Name: name, Index: index, Headers: headers}
	for i, r := range rows {
		values := make(map[string]string, len(headers))
		for col, h := range headers {
			if col < len(r) {
				values[h] = r[col]
			}
		}
		t.Rows = append(t.Rows, types.Row{Number: i + 2, Values: values})
	}
	return t
}

// workbook yields three migrating rows: Detergente and Lavandina in CEPAT
// (warehouse 1) and Papel bond in PAIPI (warehouse 2).
func workbook() []*types.Table {
	return []*types.Table{
		rawTable("CEPAT", 0,
			[]string{"PARTIDA N° 39100"},
			[]string{"1", "LIM-1", "Detergente", "LITRO", "", "", "0", "3", "2.5", "7.5", "1", "2.5", "2.5"},
			[]string{"2", "LIM-2", "Lavandina", "", "2", "1,5", "3", "", "", "", "2", "1.5", "3"},
			[]string{"TOTAL PARTIDA"},
		),
		rawTable("PAIPI", 1,
			[]string{"1", "ALM-1", "Papel bond", "PAQUETE", "", "", "", "10", "4", "40", "5", "4", "20"},
		),
		{Name: "ANEXO-1B", Index: 2, Headers: []string{"CUENTA"}},
	}
}

func newPipeline(t *testing.T, tables []*types.Table) *Pipeline {
	t.Helper()
	cfg, err := config.ParseMainConfig([]byte(testYAML))
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	p := New(cfg, logger, at)
	require.NoError(t, p.UseTables(tables))
	return p
}

func warehouse(id int64) *int64 { return &id }

// =============================================================================
// FAKES
// =============================================================================

type memoryStore struct {
	next int64
	ids  map[reference.Kind]map[string]int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		next: 100,
		ids: map[reference.Kind]map[string]int64{
			reference.KindPartition:   {},
			reference.KindCatalogItem: {"detergente": 50},
			reference.KindUnit:        {"desconocido": 1},
		},
	}
}

func (m *memoryStore) FindID(_ context.Context, kind reference.Kind, key string) (int64, bool, error) {
	id, ok := m.ids[kind][key]
	return id, ok, nil
}

func (m *memoryStore) Create(_ context.Context, e reference.NewEntity) (int64, error) {
	m.next++
	m.ids[e.Kind][normalize.Key(e.Name)] = m.next
	return m.next, nil
}

type fakeIntakes []types.IntakeRef

func (f fakeIntakes) IntakesAfter(_ context.Context, watermark int64) ([]types.IntakeRef, error) {
	var out []types.IntakeRef
	for _, r := range f {
		if r.ID > watermark {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeDetails struct {
	refs  []types.IntakeDetailRef
	names map[int64]string
}

func (f fakeDetails) IntakeDetailsAfter(_ context.Context, watermark int64) ([]types.IntakeDetailRef, error) {
	var out []types.IntakeDetailRef
	for _, r := range f.refs {
		if r.ID > watermark {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f fakeDetails) CatalogNames(context.Context) (map[int64]string, error) {
	return f.names, nil
}

func intakeRefs() fakeIntakes {
	return fakeIntakes{
		{ID: 6, WarehouseID: warehouse(9)},
		{ID: 7, WarehouseID: warehouse(1)},
		{ID: 8, WarehouseID: warehouse(1)},
		{ID: 9, WarehouseID: warehouse(2)},
	}
}

func detailRefs() fakeDetails {
	return fakeDetails{
		refs: []types.IntakeDetailRef{
			{ID: 7, IntakeID: 6, WarehouseID: warehouse(9), ItemID: warehouse(1)},
			{ID: 8, IntakeID: 7, WarehouseID: warehouse(1), ItemID: warehouse(50)},
			{ID: 9, IntakeID: 8, WarehouseID: warehouse(1), ItemID: warehouse(101)},
			{ID: 10, IntakeID: 9, WarehouseID: warehouse(2), ItemID: warehouse(102)},
		},
		names: map[int64]string{1: "otro", 50: "detergente", 101: "Lavandina", 102: "papel  bond"},
	}
}

// =============================================================================
// TESTS
// =============================================================================

func TestUseTablesCleansAndKeepsOrder(t *testing.T) {
	p := newPipeline(t, workbook())

	require.Len(t, p.Tables(), 3)
	assert.Len(t, p.Tables()[0].Rows, 2)
	assert.Equal(t, "39100", p.Tables()[0].Rows[0].Values["PARTIDA_CODIGO"])
	assert.NotEmpty(t, p.RunID())
}

func TestItems(t *testing.T) {
	out, err := newPipeline(t, workbook()).Items(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StageItems, out.Stage)
	assert.Equal(t, 3, out.Records)
	assert.Equal(t, "/srv/migration/output/catalogo_items.sql", out.File)

	sql := string(out.Script.Render())
	assert.Contains(t, sql, "VALUES ('detergente', 'producto', 'LIM', ")
	assert.Contains(t, sql, "VALUES ('papel bond', 'producto', 'ALM', ")
}

func TestIntakes(t *testing.T) {
	out, err := newPipeline(t, workbook()).Intakes(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, out.Records)
	sql := string(out.Script.Render())
	assert.Equal(t, 2, strings.Count(sql, "VALUES ('XXX', 'NO', 1, "))
	assert.Equal(t, 1, strings.Count(sql, "VALUES ('XXX', 'NO', 2, "))
}

func TestIntakeDetails(t *testing.T) {
	out, err := newPipeline(t, workbook()).IntakeDetails(context.Background(), newMemoryStore(), intakeRefs())
	require.NoError(t, err)

	assert.Equal(t, 3, out.Records)

	sql := string(out.Script.Render())
	assert.Contains(t, sql, "VALUES (7, 1, NULL, 101, 'NO', 50, 102, 3, 2.5, 7.5, ")
	assert.Contains(t, sql, "VALUES (8, 1, NULL, 101, 'NO', 103, 1, 2, 1.5, 3, ")
	assert.Contains(t, sql, "VALUES (9, 2, NULL, NULL, 'NO', 104, 105, 10, 4, 40, ")
	assert.Contains(t, sql, "UPDATE `ingresos` SET `total` = 7.50 WHERE `id` = 7;")
	assert.Contains(t, sql, "UPDATE `ingresos` SET `etapa_ingreso` = 'ANTES 2025' WHERE `id` = 8;")
	assert.Contains(t, sql, "UPDATE `ingresos` SET `etapa_ingreso` = '2025' WHERE `id` = 9;")

	counts := validation.CountByCode(out.Warnings)
	assert.Equal(t, 5, counts[types.WarnReferenceCreated])
	assert.Zero(t, counts[types.WarnRowCountMismatch])
	for _, w := range out.Warnings {
		assert.Equal(t, string(StageIntakeDetails), w.Stage)
	}
}

func TestIntakeDetailsTruncatesShortIntakeList(t *testing.T) {
	intakes := intakeRefs()[:3]

	out, err := newPipeline(t, workbook()).IntakeDetails(context.Background(), newMemoryStore(), intakes)
	require.NoError(t, err)

	assert.Equal(t, 2, out.Records)
	assert.Equal(t, 1, validation.CountByCode(out.Warnings)[types.WarnRowCountMismatch])
}

func TestIntakeDetailsWarehouseMismatch(t *testing.T) {
	intakes := intakeRefs()
	intakes[2].WarehouseID = warehouse(2)

	_, err := newPipeline(t, workbook()).IntakeDetails(context.Background(), newMemoryStore(), intakes)

	var shape *validation.ShapeMismatchError
	require.True(t, errors.As(err, &shape))
	assert.Equal(t, 1, shape.Position)
	assert.Equal(t, "warehouse differs", shape.Reason)
}

func TestOutflows(t *testing.T) {
	out, err := newPipeline(t, workbook()).Outflows(context.Background(), detailRefs())
	require.NoError(t, err)

	assert.Equal(t, 3, out.Records)
	sql := string(out.Script.Render())
	assert.Contains(t, sql, "VALUES (7, 8, 1, NULL, 50, NULL, 1, 2.5, 2.5, '2025-05-20', 1, ")
	assert.Contains(t, sql, "VALUES (9, 10, 2, NULL, 102, NULL, 5, 4, 20, '2025-05-20', 1, ")
	assert.Empty(t, out.Warnings)
}

func TestOutflowsStrictCount(t *testing.T) {
	details := detailRefs()
	details.refs = details.refs[:3]

	_, err := newPipeline(t, workbook()).Outflows(context.Background(), details)

	var mismatch *validation.RowCountMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 2, mismatch.LeftCount)
	assert.Equal(t, 3, mismatch.RightCount)
}

func TestOutflowsRepeatedDetailRow(t *testing.T) {
	details := detailRefs()
	details.refs[2] = details.refs[1]

	_, err := newPipeline(t, workbook()).Outflows(context.Background(), details)

	var dup *validation.DuplicateKeyError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, 1, dup.Position)
	assert.Equal(t, 0, dup.FirstPosition)
	assert.Equal(t, int64(7), dup.IntakeID)
	assert.Equal(t, int64(8), dup.IntakeDetailID)
}

func TestOutflowsDescriptionMismatch(t *testing.T) {
	details := detailRefs()
	details.names[101] = "cloro"

	_, err := newPipeline(t, workbook()).Outflows(context.Background(), details)

	var mismatch *validation.DescriptionMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 1, mismatch.Position)
	assert.Equal(t, "CEPAT", mismatch.Sheet)
}

func TestOutflowsNumericFallbackWarning(t *testing.T) {
	tables := workbook()
	tables[1].Rows[0].Values["SALIDA_ALMACENES_CANT"] = "cinco"

	out, err := newPipeline(t, tables).Outflows(context.Background(), detailRefs())
	require.NoError(t, err)

	counts := validation.CountByCode(out.Warnings)
	assert.Equal(t, 1, counts[types.WarnNumericFallbacks])
	assert.Equal(t, 1, out.Numbers.Unparseable)
}

func TestMissingColumnStopsStage(t *testing.T) {
	tables := workbook()
	tables[1].Headers = headers[:10]

	_, err := newPipeline(t, tables).Outflows(context.Background(), detailRefs())

	var missing *validation.MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "PAIPI", missing.Sheet)
	assert.Equal(t, "SALIDA_ALMACENES_CANT", missing.Column)
}

func TestMissingSheetWarning(t *testing.T) {
	cfg, err := config.ParseMainConfig([]byte(testYAML))
	require.NoError(t, err)
	logger, hook := test.NewNullLogger()

	p := New(cfg, logger, at)
	p.warnings = append(p.warnings, types.Warning{Code: types.WarnMissingSheet, Message: "sheet \"PAIPI\" is missing"})
	require.NoError(t, p.UseTables(workbook()[:1]))

	out, err := p.Items(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, validation.CountByCode(out.Warnings)[types.WarnMissingSheet])
	assert.NotEmpty(t, hook.AllEntries())
}

func TestLoadWorkbookMissingFile(t *testing.T) {
	cfg, err := config.ParseMainConfig([]byte(testYAML))
	require.NoError(t, err)
	cfg.WorkbookPath = t.TempDir() + "/absent.xlsx"

	err = New(cfg, nil, at).LoadWorkbook()
	assert.Error(t, err)
}
