package pool

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/a-peyrard/godi-datasource/datasource"
	"github.com/a-peyrard/godi-datasource/datasource/pool/poolconfig"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// SQLDataSource is a database/sql pool.
type SQLDataSource struct {
	name string
	cfg  *poolconfig.Config
	db   *sql.DB
	dbx  *sqlx.DB
}

func openSQL(cfg *poolconfig.Config, logger *zerolog.Logger) (*SQLDataSource, error) {
	driverName := cfg.Driver()

	var (
		db  *sql.DB
		err error
	)
	switch strings.ToLower(driverName) {
	case "pgx", "pgx/v5":
		driverName = "pgx"
		db, err = openPGXStdlib(cfg, logger)
	case "postgres":
		db, err = openPQ(cfg, logger)
	default:
		db, err = openGeneric(driverName, cfg)
	}
	if err != nil {
		return nil, err
	}

	applyPoolLimits(db, cfg)

	return &SQLDataSource{
		name: cfg.Name,
		cfg:  cfg,
		db:   db,
		dbx:  sqlx.NewDb(db, driverName),
	}, nil
}

// applyPoolLimits sizes the pool. minimumIdle is a floor while database/sql only knows an idle ceiling,
// so released connections are kept up to the pool size and only an elastic pool retires idle ones.
func applyPoolLimits(db *sql.DB, cfg *poolconfig.Config) {
	db.SetMaxOpenConns(cfg.MaximumPoolSize)
	db.SetMaxIdleConns(cfg.MaximumPoolSize)
	db.SetConnMaxLifetime(cfg.MaxLifetime)
	if cfg.MinimumIdle < cfg.MaximumPoolSize {
		db.SetConnMaxIdleTime(cfg.IdleTimeout)
	}
}

func openPQ(cfg *poolconfig.Config, logger *zerolog.Logger) (*sql.DB, error) {
	if cfg.LogLevel != "" && cfg.LogLevel != "none" {
		logger.Warn().Str("logLevel", cfg.LogLevel).Msg("query tracing is only available with the pgx drivers")
	}
	connector, err := pq.NewConnector(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("invalid postgres connection string %s:\n\t%w", cfg.Redacted(), err)
	}
	return sql.OpenDB(withInitSQL(connector, cfg.ConnectionInitSQL)), nil
}

func openPGXStdlib(cfg *poolconfig.Config, logger *zerolog.Logger) (*sql.DB, error) {
	connConfig, err := pgx.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("invalid postgres connection string %s:\n\t%w", cfg.Redacted(), err)
	}
	connConfig.ConnectTimeout = cfg.ConnectionTimeout
	tracer, err := newTracer(logger, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if tracer != nil {
		connConfig.Tracer = tracer
	}

	var opts []stdlib.OptionOpenDB
	if cfg.ConnectionInitSQL != "" {
		opts = append(opts, stdlib.OptionAfterConnect(afterConnect(cfg.ConnectionInitSQL)))
	}
	return stdlib.OpenDB(*connConfig, opts...), nil
}

func openGeneric(driverName string, cfg *poolconfig.Config) (*sql.DB, error) {
	dsn := cfg.DSN()
	// sql.Open does not connect, it is only used to find the registered driver
	opener, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	drv := opener.Driver()
	_ = opener.Close()

	var connector driver.Connector
	if withContext, ok := drv.(driver.DriverContext); ok {
		connector, err = withContext.OpenConnector(dsn)
		if err != nil {
			return nil, fmt.Errorf("invalid connection string %s:\n\t%w", cfg.Redacted(), err)
		}
	} else {
		connector = &dsnConnector{dsn: dsn, driver: drv}
	}
	return sql.OpenDB(withInitSQL(connector, cfg.ConnectionInitSQL)), nil
}

func (s *SQLDataSource) Name() string {
	return s.name
}

// DB returns the pool.
func (s *SQLDataSource) DB() *sql.DB {
	return s.db
}

// SQLX returns the pool wrapped by sqlx, sharing its connections.
func (s *SQLDataSource) SQLX() *sqlx.DB {
	return s.dbx
}

func (s *SQLDataSource) Config() poolconfig.Config {
	return *s.cfg
}

// Ping runs the connection test query if any, or asks the driver to check the connection.
func (s *SQLDataSource) Ping(ctx context.Context) error {
	return ping(ctx, s.cfg, s.check)
}

func (s *SQLDataSource) check(ctx context.Context) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return &acquireError{err: err}
	}
	defer conn.Close()

	if s.cfg.ConnectionTestQuery != "" {
		if _, err := conn.ExecContext(ctx, s.cfg.ConnectionTestQuery); err != nil {
			return fmt.Errorf("connection test query failed:\n\t%w", err)
		}
		return nil
	}
	return conn.PingContext(ctx)
}

func (s *SQLDataSource) Stats() datasource.Stats {
	stats := s.db.Stats()
	return datasource.Stats{
		MaxOpen:      stats.MaxOpenConnections,
		Open:         stats.OpenConnections,
		InUse:        stats.InUse,
		Idle:         stats.Idle,
		WaitCount:    stats.WaitCount,
		WaitDuration: stats.WaitDuration,
	}
}

func (s *SQLDataSource) Close() error {
	return s.db.Close()
}
