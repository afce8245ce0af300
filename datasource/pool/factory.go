// Package pool opens datasources as connection pools: a database/sql pool (lib/pq, pgx stdlib or any
// registered driver) or a pgxpool, configured from HikariCP-like properties, see the poolconfig package.
package pool

import (
	"context"
	"fmt"
	"time"

	"github.com/a-peyrard/godi-datasource/datasource"
	"github.com/a-peyrard/godi-datasource/datasource/pool/poolconfig"
	"github.com/a-peyrard/godi-datasource/option"
	"github.com/rs/zerolog"
)

const defaultRetryInterval = time.Second

type (
	// Factory is a datasource.Factory opening connection pools.
	Factory struct {
		logger        *zerolog.Logger
		retryInterval time.Duration
	}

	Options struct {
		logger        *zerolog.Logger
		retryInterval time.Duration
		extension     []option.Option[datasource.ExtensionOptions]
	}
)

func WithLogger(logger *zerolog.Logger) option.Option[Options] {
	return func(opts *Options) {
		opts.logger = logger
	}
}

// WithRetryInterval sets the pause between two connection attempts of the startup check.
func WithRetryInterval(interval time.Duration) option.Option[Options] {
	return func(opts *Options) {
		opts.retryInterval = interval
	}
}

// WithExtensionOptions forwards options to the datasource extension built by NewExtension.
func WithExtensionOptions(opts ...option.Option[datasource.ExtensionOptions]) option.Option[Options] {
	return func(o *Options) {
		o.extension = append(o.extension, opts...)
	}
}

func buildOptions(opts ...option.Option[Options]) *Options {
	nop := zerolog.Nop()
	return option.Build(&Options{logger: &nop, retryInterval: defaultRetryInterval}, opts...)
}

func NewFactory(opts ...option.Option[Options]) *Factory {
	options := buildOptions(opts...)
	return &Factory{
		logger:        options.logger,
		retryInterval: options.retryInterval,
	}
}

// Open reads the pool configuration, opens the pool and runs the startup check.
func (f *Factory) Open(ctx context.Context, name string, props datasource.Properties) (datasource.DataSource, error) {
	cfg, err := poolconfig.FromProperties(name, props)
	if err != nil {
		return nil, err
	}
	logger := f.logger.With().Str("datasource", name).Str("pool", cfg.PoolName).Logger()

	for _, adjustment := range cfg.Normalize() {
		logger.Warn().Msg(adjustment)
	}
	if len(cfg.Ignored) > 0 {
		logger.Info().Strs("properties", cfg.Ignored).Msg("ignoring properties without effect on this pool")
	}
	if !cfg.AutoCommit {
		logger.Warn().Msg("autoCommit=false is not supported, transactions must be started explicitly")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var ds checkedDataSource
	switch cfg.Kind {
	case poolconfig.KindPGXPool:
		ds, err = openPGX(ctx, cfg, &logger)
	default:
		ds, err = openSQL(cfg, &logger)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open pool %s:\n\t%w", cfg.PoolName, err)
	}

	if err := checkStartup(ctx, cfg, ds, f.retryInterval, &logger); err != nil {
		_ = ds.Close()
		return nil, err
	}

	logger.Info().Fields(cfg.Summary()).Msg("pool started")
	return ds, nil
}

var _ datasource.Factory = (*Factory)(nil)
