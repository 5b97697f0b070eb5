// =============================================================================
// XLSX to SQL Migration - Configuration Module
// =============================================================================
//
// This module is responsible for loading and validating the migration
// configuration. One MainConfig is built at startup and passed explicitly to
// every component; no package keeps configuration in global state.
//
// CONFIGURATION SOURCES:
//   1. Main Config (config.yaml): workbook layout, column names, watermarks,
//      stage labels, record defaults and output settings.
//   2. Environment (.env + process env): database credentials.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// SheetKind tells the cleaning layer which rule set applies to a sheet.
type SheetKind string

const (
	// SheetDetail is an inventory sheet with partition sections.
	SheetDetail SheetKind = "detail"
	// SheetPharmacy is an inventory sheet with group headers and partition sections.
	SheetPharmacy SheetKind = "pharmacy"
	// SheetAccounting is a summary sheet; it is cleaned and exported but never migrated.
	SheetAccounting SheetKind = "accounting"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global migration configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// INPUT SETTINGS
	// =========================================================================

	// WorkbookPath is the legacy workbook to migrate.
	// Default: "./input/inventario.xlsx"
	WorkbookPath string `yaml:"workbook_path"`

	// Sheets lists every sheet that takes part in the migration, in no
	// particular order. Processing order always follows the workbook.
	Sheets []SheetConfig `yaml:"sheets"`

	// PharmacyGroups are the group header labels found in pharmacy sheets.
	PharmacyGroups []string `yaml:"pharmacy_groups"`

	// Columns names the spreadsheet headers the migration reads.
	Columns ColumnNames `yaml:"columns"`

	// =========================================================================
	// DATABASE ALIGNMENT SETTINGS
	// =========================================================================

	// Watermarks separate pre-existing rows from rows inserted by this migration.
	Watermarks Watermarks `yaml:"watermarks"`

	// Stages are the labels written to ingresos.etapa_ingreso.
	Stages StageLabels `yaml:"stages"`

	// Defaults are the fixed literals injected into assembled records.
	Defaults RecordDefaults `yaml:"defaults"`

	// Validation holds advisory thresholds.
	Validation ValidationSettings `yaml:"validation"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputDir is where the SQL scripts are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// OutputArchiveDir receives previous scripts before they are overwritten.
	// Default: "./output_archive"
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// CleanedWorkbook is the review workbook written by the clean command.
	// Default: "./output/excel_limpio.xlsx"
	CleanedWorkbook string `yaml:"cleaned_workbook"`

	// Files names each generated script.
	Files OutputFiles `yaml:"files"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is the path to the migration log file.
	// Default: "./output/etl_migration.log"
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// Database is populated from the environment, never from YAML.
	Database DatabaseOptions `yaml:"-"`
}

// SheetConfig describes one workbook sheet.
type SheetConfig struct {
	// Name is the exact sheet name in the workbook.
	Name string `yaml:"name"`

	// Kind selects the cleaning rules.
	Kind SheetKind `yaml:"kind"`

	// Columns is how many leading columns are kept; the rest is layout noise.
	Columns int `yaml:"columns"`

	// WarehouseID is the almacenes.id this sheet belongs to. Required for
	// detail and pharmacy sheets.
	WarehouseID int64 `yaml:"warehouse_id"`
}

// Migrates reports whether rows of this sheet become database records.
func (s SheetConfig) Migrates() bool {
	return s.Kind == SheetDetail || s.Kind == SheetPharmacy
}

// ColumnNames maps logical fields to spreadsheet headers.
type ColumnNames struct {
	Description   string `yaml:"description"`
	Code          string `yaml:"code"`
	Unit          string `yaml:"unit"`
	Group         string `yaml:"group"`
	PartitionCode string `yaml:"partition_code"`
	IntakeDate    string `yaml:"intake_date"`

	LegacyQuantity string `yaml:"legacy_quantity"`
	LegacyCost     string `yaml:"legacy_cost"`
	LegacyTotal    string `yaml:"legacy_total"`

	CurrentQuantity string `yaml:"current_quantity"`
	CurrentCost     string `yaml:"current_cost"`
	CurrentTotal    string `yaml:"current_total"`

	OutflowQuantity string `yaml:"outflow_quantity"`
	OutflowCost     string `yaml:"outflow_cost"`
	OutflowTotal    string `yaml:"outflow_total"`
}

// Watermarks are the last ids that existed before the migration ran.
type Watermarks struct {
	Intakes       int64 `yaml:"intakes"`
	IntakeDetails int64 `yaml:"intake_details"`
}

// StageLabels are the two accounting regimes around the cutover.
type StageLabels struct {
	BeforeCutover string `yaml:"before_cutover"`
	AfterCutover  string `yaml:"after_cutover"`
}

// RecordDefaults are literals the destination schema expects.
type RecordDefaults struct {
	IntakeCode       string `yaml:"intake_code"`
	DonationFlag     string `yaml:"donation_flag"`
	IntakeTotal      int    `yaml:"intake_total"`
	UserID           int64  `yaml:"user_id"`
	UnknownUnit      string `yaml:"unknown_unit"`
	DefaultItemGroup string `yaml:"default_item_group"`
}

// ValidationSettings holds the advisory thresholds.
type ValidationSettings struct {
	// MaxUnparseableRate is the share of unparseable numeric cells above
	// which a stage reports a warning.
	// Default: 0.05
	MaxUnparseableRate float64 `yaml:"max_unparseable_rate"`
}

// OutputFiles names the generated scripts.
type OutputFiles struct {
	Items         string `yaml:"items"`
	Intakes       string `yaml:"intakes"`
	IntakeDetails string `yaml:"intake_details"`
	Outflows      string `yaml:"outflows"`
}

// DatabaseOptions are the MySQL connection settings.
type DatabaseOptions struct {
	Name     string `env:"DB_NAME"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"3306"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`

	MaxOpenConns int `env:"DB_MAX_OPEN_CONNS" envDefault:"4"`
	MaxIdleConns int `env:"DB_MAX_IDLE_CONNS" envDefault:"2"`
}

// Configured reports whether enough settings exist to open a connection.
func (d DatabaseOptions) Configured() bool {
	return d.Name != "" && d.User != ""
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file and the
// database settings from the environment.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//   - envFiles: Optional .env files; missing files are skipped.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string, envFiles ...string) (*MainConfig, error) {
	// Read the configuration file.
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config, err := ParseMainConfig(data)
	if err != nil {
		return nil, err
	}

	db, err := LoadDatabaseOptions(envFiles...)
	if err != nil {
		return nil, err
	}
	config.Database = db

	return config, nil
}

// ParseMainConfig parses, defaults and validates YAML configuration bytes.
func ParseMainConfig(data []byte) (*MainConfig, error) {
	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply default values.
	applyMainConfigDefaults(&config)

	// Validate the configuration.
	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadDatabaseOptions reads DB_* variables, loading any existing env files first.
func LoadDatabaseOptions(envFiles ...string) (DatabaseOptions, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return DatabaseOptions{}, fmt.Errorf("failed to load env files: %w", err)
		}
	}

	var opts DatabaseOptions
	if err := env.Parse(&opts); err != nil {
		return DatabaseOptions{}, fmt.Errorf("failed to parse database environment: %w", err)
	}
	return opts, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.WorkbookPath == "" {
		config.WorkbookPath = "./input/inventario.xlsx"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.OutputArchiveDir == "" {
		config.OutputArchiveDir = "./output_archive"
	}
	if config.CleanedWorkbook == "" {
		config.CleanedWorkbook = "./output/excel_limpio.xlsx"
	}
	if config.LogFile == "" {
		config.LogFile = "./output/etl_migration.log"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}

	for i := range config.Sheets {
		if config.Sheets[i].Kind == "" {
			config.Sheets[i].Kind = SheetDetail
		}
	}

	cols := &config.Columns
	setDefault(&cols.Description, "DESCRIPCION")
	setDefault(&cols.Code, "CODIGO")
	setDefault(&cols.Unit, "UNIDAD")
	setDefault(&cols.Group, "GRUPO")
	setDefault(&cols.PartitionCode, "PARTIDA_CODIGO")
	setDefault(&cols.IntakeDate, "FECHA INGRESO")
	setDefault(&cols.LegacyQuantity, "SALDO_AL_01_DE_ENERO_DE_2025_CANT")
	setDefault(&cols.LegacyCost, "SALDO_AL_01_DE_ENERO_DE_2025_valor")
	setDefault(&cols.LegacyTotal, "SALDO_AL_01_DE_ENERO_DE_2025_TOTAL Bs.")
	setDefault(&cols.CurrentQuantity, "INGRESO_ALMACENES_CANT")
	setDefault(&cols.CurrentCost, "INGRESO_ALMACENES_VALOR")
	setDefault(&cols.CurrentTotal, "INGRESO_ALMACENES_TOTAL Bs.")
	setDefault(&cols.OutflowQuantity, "SALIDA_ALMACENES_CANT")
	setDefault(&cols.OutflowCost, "SALIDA_ALMACENES_VALOR")
	setDefault(&cols.OutflowTotal, "SALIDA_ALMACENES_TOTAL Bs.")

	if config.Watermarks.Intakes == 0 {
		config.Watermarks.Intakes = 6
	}
	if config.Watermarks.IntakeDetails == 0 {
		config.Watermarks.IntakeDetails = 7
	}

	setDefault(&config.Stages.BeforeCutover, "ANTES 2025")
	setDefault(&config.Stages.AfterCutover, "2025")

	setDefault(&config.Defaults.IntakeCode, "XXX")
	setDefault(&config.Defaults.DonationFlag, "NO")
	setDefault(&config.Defaults.UnknownUnit, "DESCONOCIDO")
	setDefault(&config.Defaults.DefaultItemGroup, "producto")
	if config.Defaults.IntakeTotal == 0 {
		config.Defaults.IntakeTotal = 1
	}
	if config.Defaults.UserID == 0 {
		config.Defaults.UserID = 1
	}

	if config.Validation.MaxUnparseableRate == 0 {
		config.Validation.MaxUnparseableRate = 0.05
	}

	setDefault(&config.Files.Items, "catalogo_items.sql")
	setDefault(&config.Files.Intakes, "ingresos.sql")
	setDefault(&config.Files.IntakeDetails, "ingreso_detalles.sql")
	setDefault(&config.Files.Outflows, "egresos.sql")
}

func setDefault(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	if len(config.Sheets) == 0 {
		return fmt.Errorf("no sheets configured")
	}

	seen := make(map[string]bool, len(config.Sheets))
	migrating := 0
	for _, sheet := range config.Sheets {
		if sheet.Name == "" {
			return fmt.Errorf("sheet entry without a name")
		}
		if seen[sheet.Name] {
			return fmt.Errorf("sheet %q configured twice", sheet.Name)
		}
		seen[sheet.Name] = true

		switch sheet.Kind {
		case SheetDetail, SheetPharmacy:
			migrating++
			if sheet.WarehouseID <= 0 {
				return fmt.Errorf("sheet %q: warehouse_id is required for %s sheets", sheet.Name, sheet.Kind)
			}
		case SheetAccounting:
		default:
			return fmt.Errorf("sheet %q: unknown kind %q", sheet.Name, sheet.Kind)
		}

		if sheet.Columns < 0 {
			return fmt.Errorf("sheet %q: columns must not be negative", sheet.Name)
		}
	}
	if migrating == 0 {
		return fmt.Errorf("at least one detail or pharmacy sheet is required")
	}

	if config.Stages.BeforeCutover == config.Stages.AfterCutover {
		return fmt.Errorf("stage labels must differ")
	}
	if config.Validation.MaxUnparseableRate < 0 || config.Validation.MaxUnparseableRate > 1 {
		return fmt.Errorf("validation.max_unparseable_rate must be between 0 and 1")
	}

	return nil
}

// =============================================================================
// LOOKUP HELPERS
// =============================================================================

// Sheet returns the configuration for a sheet name.
func (c *MainConfig) Sheet(name string) (SheetConfig, bool) {
	for _, sheet := range c.Sheets {
		if sheet.Name == name {
			return sheet, true
		}
	}
	return SheetConfig{}, false
}

// SheetNames returns every configured sheet name.
func (c *MainConfig) SheetNames() []string {
	names := make([]string, 0, len(c.Sheets))
	for _, sheet := range c.Sheets {
		names = append(names, sheet.Name)
	}
	return names
}
