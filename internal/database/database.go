// =============================================================================
// XLSX to SQL Migration - Database Connection
// =============================================================================
//
// The migration reads from the live MySQL schema in two ways:
//   - reference lookups that may insert missing partidas, catalogo_items and
//     unidad_medidas rows (each insert is autocommitted)
//   - watermark reads of ingresos and ingreso_detalles rows created by an
//     earlier run of the generated scripts
//
// The generated INSERT scripts themselves are never executed here.
//
// =============================================================================

package database

import (
	"net"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/ginjaninja78/XLSX-to-SQL-migration/internal/config"
)

// ErrNotConfigured is returned when DB_NAME or DB_USER is missing.
var ErrNotConfigured = errors.New("database is not configured: set DB_NAME and DB_USER")

// DSN builds the go-sql-driver connection string. A host starting with "/"
// is treated as a unix socket path.
func DSN(opts config.DatabaseOptions) string {
	cfg := gomysql.NewConfig()
	cfg.User = opts.User
	cfg.Passwd = opts.Password
	cfg.DBName = opts.Name
	cfg.ParseTime = true
	cfg.Loc = time.Local
	cfg.Params = map[string]string{"charset": "utf8mb4"}

	if strings.HasPrefix(opts.Host, "/") {
		cfg.Net = "unix"
		cfg.Addr = opts.Host
	} else {
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(opts.Host, opts.Port)
	}
	return cfg.FormatDSN()
}

// Open connects to MySQL and sizes the pool.
//
// PARAMETERS:
//   - opts: Connection settings from the environment.
//   - log: Receives gorm errors and slow query reports.
//
// RETURNS:
//   - The gorm handle.
//   - ErrNotConfigured, or a wrapped driver error.
func Open(opts config.DatabaseOptions, log logrus.FieldLogger) (*gorm.DB, error) {
	if !opts.Configured() {
		return nil, ErrNotConfigured
	}

	db, err := gorm.Open(mysql.Open(DSN(opts)), gormConfig(log))
	if err != nil {
		return nil, errors.Wrapf(err, "connect to %s@%s", opts.Name, opts.Host)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql.DB")
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns >= 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// Close releases the pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "get sql.DB")
	}
	return sqlDB.Close()
}

func gormConfig(log logrus.FieldLogger) *gorm.Config {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &gorm.Config{
		SkipDefaultTransaction: true,
		Logger: logger.New(log, logger.Config{
			Colorful:                  false,
			LogLevel:                  logger.Error,
			SlowThreshold:             time.Second,
			IgnoreRecordNotFoundError: true,
		}),
		NamingStrategy: schema.NamingStrategy{
			SingularTable: false,
		},
	}
}
