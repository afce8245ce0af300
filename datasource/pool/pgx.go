package pool

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/a-peyrard/godi-datasource/datasource"
	"github.com/a-peyrard/godi-datasource/datasource/pool/poolconfig"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// forever stands for a disabled lifetime or idle timeout, pgxpool expires connections on a zero duration.
const forever = time.Duration(math.MaxInt64)

// PGXDataSource is a pgxpool pool.
type PGXDataSource struct {
	name string
	cfg  *poolconfig.Config
	pool *pgxpool.Pool
}

func openPGX(ctx context.Context, cfg *poolconfig.Config, logger *zerolog.Logger) (*PGXDataSource, error) {
	poolConfig, err := pgxPoolConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	return &PGXDataSource{name: cfg.Name, cfg: cfg, pool: pool}, nil
}

func pgxPoolConfig(cfg *poolconfig.Config, logger *zerolog.Logger) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("invalid postgres connection string %s:\n\t%w", cfg.Redacted(), err)
	}

	poolConfig.MaxConns = int32(cfg.MaximumPoolSize)
	poolConfig.MinConns = int32(cfg.MinimumIdle)
	poolConfig.MaxConnLifetime = orForever(cfg.MaxLifetime)
	poolConfig.MaxConnIdleTime = orForever(cfg.IdleTimeout)
	if cfg.KeepaliveTime > 0 {
		poolConfig.HealthCheckPeriod = cfg.KeepaliveTime
	}
	poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectionTimeout
	if cfg.ConnectionInitSQL != "" {
		poolConfig.AfterConnect = afterConnect(cfg.ConnectionInitSQL)
	}

	tracer, err := newTracer(logger, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if tracer != nil {
		poolConfig.ConnConfig.Tracer = tracer
	}
	return poolConfig, nil
}

func orForever(d time.Duration) time.Duration {
	if d <= 0 {
		return forever
	}
	return d
}

func (p *PGXDataSource) Name() string {
	return p.name
}

// Pool returns the pool.
func (p *PGXDataSource) Pool() *pgxpool.Pool {
	return p.pool
}

func (p *PGXDataSource) Config() poolconfig.Config {
	return *p.cfg
}

// Ping runs the connection test query if any, or pings the server.
func (p *PGXDataSource) Ping(ctx context.Context) error {
	return ping(ctx, p.cfg, p.check)
}

func (p *PGXDataSource) check(ctx context.Context) error {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return &acquireError{err: err}
	}
	defer conn.Release()

	if p.cfg.ConnectionTestQuery != "" {
		if _, err := conn.Exec(ctx, p.cfg.ConnectionTestQuery); err != nil {
			return fmt.Errorf("connection test query failed:\n\t%w", err)
		}
		return nil
	}
	return conn.Ping(ctx)
}

// Stats maps the pgxpool statistics, the wait duration being the cumulated duration of all acquisitions.
func (p *PGXDataSource) Stats() datasource.Stats {
	stat := p.pool.Stat()
	return datasource.Stats{
		MaxOpen:      int(stat.MaxConns()),
		Open:         int(stat.TotalConns()),
		InUse:        int(stat.AcquiredConns()),
		Idle:         int(stat.IdleConns()),
		WaitCount:    stat.EmptyAcquireCount(),
		WaitDuration: stat.AcquireDuration(),
	}
}

func (p *PGXDataSource) Close() error {
	p.pool.Close()
	return nil
}
