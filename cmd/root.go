// =============================================================================
// XLSX to SQL Migration - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (migrator)
//   ├── migrateCmd  (migrator migrate <stage>)
//   ├── cleanCmd    (migrator clean)
//   ├── validateCmd (migrator validate)
//   └── versionCmd  (migrator version)
//
// CONFIGURATION:
//   The root command owns the global flags (--config, --env-file, --verbose).
//   Each command calls setup() once; the resulting config and logger are
//   passed explicitly to everything below.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/config"
	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// envFile is loaded before the DB_* variables are read.
var envFile string

// verbose enables debug logging.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "migrator",
	Short: "XLSX to SQL Migration - Turn the legacy inventory workbook into SQL scripts",
	Long: `The migrator reads the legacy inventory workbook, cleans every sheet, and
generates the SQL scripts that load it into the inventory database:

  1. catalogo_items.sql    (migrate items)
  2. ingresos.sql          (migrate intakes)
  3. ingreso_detalles.sql  (migrate intake-details)
  4. egresos.sql           (migrate outflows)

Run the stages in order and execute each script against the database before
running the next stage: intake-details reads the ingresos rows and outflows
reads the ingreso_detalles rows that the previous scripts inserted.

Example Usage:
  migrator validate                          # Check config and workbook
  migrator clean                             # Export the cleaned workbook
  migrator migrate items                     # Generate catalogo_items.sql
  migrator migrate outflows --snapshot-dir ./snapshot
  migrator migrate all --dry-run`,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	SilenceUsage: true,
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env-file",
		".env",
		"Environment file with the DB_* settings (skipped when missing)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// setup loads the configuration and builds the run logger.
//
// RETURNS:
//   - The validated configuration.
//   - The logger, writing to stdout and the configured log file.
//   - A function that closes the log file.
//   - An error if either step fails.
func setup() (*config.MainConfig, *logrus.Logger, func() error, error) {
	cfg, err := config.LoadMainConfig(cfgFile, envFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load main config: %w", err)
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Verbose: verbose,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"config":   cfgFile,
		"workbook": cfg.WorkbookPath,
		"sheets":   len(cfg.Sheets),
	}).Debug("configuration loaded")

	return cfg, logger, closeLog, nil
}
