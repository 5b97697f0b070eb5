package csvparser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/validation"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestParseStripsBOMAndLowercasesHeaders(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "x.csv", "\ufeffID, Nombre\n1, gasa\n\n2,jeringa\n")

	data, err := Parse(filepath.Join(dir, "x.csv"), "id", "nombre")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "nombre"}, data.Headers)
	require.Len(t, data.Rows, 2)
	assert.Equal(t, "gasa", data.Rows[0]["nombre"])
	assert.Equal(t, []int{2, 4}, data.LineNumbers)
}

func TestParseMissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "x.csv", "id\n1\n")

	_, err := Parse(filepath.Join(dir, "x.csv"), "id", "nombre")
	var missing *validation.MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "x.csv", missing.Sheet)
	assert.Equal(t, "nombre", missing.Column)
}

func TestIntakeDetailsAfterSortsAndFilters(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, IntakeDetailsFile,
		"id,ingreso_id,almacen_id,partida_id,item_id\n"+
			"10,9,2,NULL,51\n"+
			"7,6,1,3,50\n"+
			"8,7,1,,50\n")

	refs, err := NewSnapshot(dir).IntakeDetailsAfter(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, refs, 2)

	assert.Equal(t, int64(8), refs[0].ID)
	assert.Equal(t, int64(7), refs[0].IntakeID)
	assert.Nil(t, refs[0].PartitionID)
	assert.Equal(t, int64(10), refs[1].ID)
	require.NotNil(t, refs[1].ItemID)
	assert.Equal(t, int64(51), *refs[1].ItemID)
}

func TestIntakeDetailsAfterRejectsBadInteger(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, IntakeDetailsFile,
		"id,ingreso_id,almacen_id,partida_id,item_id\n"+
			"8,seven,1,,50\n")

	_, err := NewSnapshot(dir).IntakeDetailsAfter(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestCatalogNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, CatalogItemsFile, "id,nombre\n50,\"Gasa, estéril\"\n51,jeringa\n")

	names, err := NewSnapshot(dir).CatalogNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{50: "Gasa, estéril", 51: "jeringa"}, names)
}

func TestSnapshotMissingFile(t *testing.T) {
	_, err := NewSnapshot(t.TempDir()).CatalogNames(context.Background())
	assert.Error(t, err)
}
