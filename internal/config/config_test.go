package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
sheets:
  - name: CEPAT
    columns: 17
    warehouse_id: 4
  - name: FARMACIA
    kind: pharmacy
    warehouse_id: 15
  - name: ANEXO-1B
    kind: accounting
    columns: 6
`

func TestParseMainConfigDefaults(t *testing.T) {
	cfg, err := ParseMainConfig([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "./input/inventario.xlsx", cfg.WorkbookPath)
	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, "./output/etl_migration.log", cfg.LogFile)
	assert.Equal(t, "info", cfg.LogLevel)

	assert.Equal(t, int64(6), cfg.Watermarks.Intakes)
	assert.Equal(t, int64(7), cfg.Watermarks.IntakeDetails)
	assert.Equal(t, "ANTES 2025", cfg.Stages.BeforeCutover)
	assert.Equal(t, "2025", cfg.Stages.AfterCutover)
	assert.Equal(t, "DESCONOCIDO", cfg.Defaults.UnknownUnit)
	assert.Equal(t, 1, cfg.Defaults.IntakeTotal)
	assert.InDelta(t, 0.05, cfg.Validation.MaxUnparseableRate, 1e-9)

	assert.Equal(t, "DESCRIPCION", cfg.Columns.Description)
	assert.Equal(t, "SALIDA_ALMACENES_TOTAL Bs.", cfg.Columns.OutflowTotal)
	assert.Equal(t, "egresos.sql", cfg.Files.Outflows)

	sheet, ok := cfg.Sheet("CEPAT")
	require.True(t, ok)
	assert.Equal(t, SheetDetail, sheet.Kind)
	assert.True(t, sheet.Migrates())

	anexo, ok := cfg.Sheet("ANEXO-1B")
	require.True(t, ok)
	assert.False(t, anexo.Migrates())

	_, ok = cfg.Sheet("NOPE")
	assert.False(t, ok)
	assert.Equal(t, []string{"CEPAT", "FARMACIA", "ANEXO-1B"}, cfg.SheetNames())
}

func TestParseMainConfigKeepsExplicitValues(t *testing.T) {
	cfg, err := ParseMainConfig([]byte(minimalYAML + `
watermarks:
  intakes: 120
  intake_details: 340
columns:
  description: "DESCRIPCIÓN"
log_level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, int64(120), cfg.Watermarks.Intakes)
	assert.Equal(t, int64(340), cfg.Watermarks.IntakeDetails)
	assert.Equal(t, "DESCRIPCIÓN", cfg.Columns.Description)
	assert.Equal(t, "CODIGO", cfg.Columns.Code)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParseMainConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no sheets",
			yaml:    "workbook_path: x.xlsx\n",
			wantErr: "no sheets configured",
		},
		{
			name:    "missing warehouse",
			yaml:    "sheets:\n  - name: CEPAT\n",
			wantErr: `sheet "CEPAT": warehouse_id is required`,
		},
		{
			name:    "duplicate sheet",
			yaml:    "sheets:\n  - {name: A, warehouse_id: 1}\n  - {name: A, warehouse_id: 2}\n",
			wantErr: `sheet "A" configured twice`,
		},
		{
			name:    "unknown kind",
			yaml:    "sheets:\n  - {name: A, kind: summary, warehouse_id: 1}\n",
			wantErr: `unknown kind "summary"`,
		},
		{
			name:    "only accounting sheets",
			yaml:    "sheets:\n  - {name: ANEXO-1B, kind: accounting, columns: 6}\n",
			wantErr: "at least one detail or pharmacy sheet",
		},
		{
			name:    "same stage labels",
			yaml:    minimalYAML + "stages:\n  before_cutover: X\n  after_cutover: X\n",
			wantErr: "stage labels must differ",
		},
		{
			name:    "rate out of range",
			yaml:    minimalYAML + "validation:\n  max_unparseable_rate: 1.5\n",
			wantErr: "max_unparseable_rate",
		},
		{
			name:    "bad yaml",
			yaml:    "sheets: [",
			wantErr: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMainConfig([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadDatabaseOptionsFromEnv(t *testing.T) {
	t.Setenv("DB_NAME", "inventario")
	t.Setenv("DB_USER", "etl")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "3307")

	opts, err := LoadDatabaseOptions()
	require.NoError(t, err)

	assert.Equal(t, "inventario", opts.Name)
	assert.Equal(t, "etl", opts.User)
	assert.Equal(t, "db.internal", opts.Host)
	assert.Equal(t, "3307", opts.Port)
	assert.Equal(t, 4, opts.MaxOpenConns)
	assert.True(t, opts.Configured())
}

func TestLoadDatabaseOptionsEnvFile(t *testing.T) {
	// godotenv never overrides variables that are already set.
	t.Setenv("DB_NAME", "")
	t.Setenv("DB_USER", "from-process")
	os.Unsetenv("DB_NAME")

	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("DB_NAME=from_file\nDB_USER=from_file\n"), 0o644))

	opts, err := LoadDatabaseOptions(envPath, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "from_file", opts.Name)
	assert.Equal(t, "from-process", opts.User)
}

func TestLoadMainConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o644))

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Sheets, 3)

	_, err = LoadMainConfig(filepath.Join(dir, "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
