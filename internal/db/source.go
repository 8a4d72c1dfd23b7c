package db

import (
	"context"
	"database/sql"
	"fmt"

	// Register the SQL Server and SAP HANA drivers with database/sql.
	_ "github.com/SAP/go-hdb/driver"
	_ "github.com/denisenkom/go-mssqldb"

	"github.com/vvka-141/sphelper/internal/logging"
	"github.com/vvka-141/sphelper/pkg/sphelper"
)

// Pool limits for database/sql sources.
const (
	DefaultMaxOpenConns = 10
	DefaultMaxIdleConns = 2
)

// Source is a ConnectionFactory that owns the pool its connections come from.
// Close releases the pool; connections created afterwards fail to open.
type Source interface {
	sphelper.ConnectionFactory
	Driver() string
	Close() error
}

// Open validates cfg and builds the Source for its driver. PostgreSQL uses
// a pgx pool (with cloud authentication when configured); SQL Server and
// SAP HANA use database/sql.
func Open(ctx context.Context, cfg *sphelper.ConnectionConfig, logger sphelper.Logger) (Source, error) {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Driver == sphelper.DriverPostgres {
		connector, err := NewConnector(cfg, logger)
		if err != nil {
			return nil, err
		}
		return NewPgxSource(ctx, connector, Identity(cfg), logger)
	}

	dsn, err := BuildDSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName(cfg.Driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s pool: %w: %w", cfg.Driver, sphelper.ErrConnectionFailed, err)
	}
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)

	logger.Verbose("Opened %s pool for %s:%d", cfg.Driver, cfg.Host, cfg.Port)
	return NewSQLSource(db, cfg.Driver, Identity(cfg), logger), nil
}

// driverName maps a driver constant to the name registered with database/sql.
func driverName(driver string) string {
	switch driver {
	case sphelper.DriverSQLServer:
		return "sqlserver"
	case sphelper.DriverHANA:
		return "hdb"
	default:
		return driver
	}
}
