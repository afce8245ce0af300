package pool

import (
	"database/sql"
	"fmt"
	"strings"

	godi "github.com/a-peyrard/godi-datasource"
	"github.com/a-peyrard/godi-datasource/datasource"
	"github.com/a-peyrard/godi-datasource/datasource/pool/poolconfig"
	"github.com/a-peyrard/godi-datasource/option"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
)

// NewExtension returns the datasource extension opening pools with a Factory.
//
// Besides the datasource.DataSource, each datasource is registered under its name as a
// *sql.DB and a *sqlx.DB, or as a *pgxpool.Pool for the pgxpool kind.
func NewExtension(opts ...option.Option[Options]) *datasource.Extension {
	options := buildOptions(opts...)
	factory := &Factory{logger: options.logger, retryInterval: options.retryInterval}

	extensionOpts := append(
		[]option.Option[datasource.ExtensionOptions]{
			datasource.WithLogger(options.logger),
			datasource.WithBinder(Binder()),
		},
		options.extension...,
	)
	return datasource.NewExtension(factory, extensionOpts...)
}

// Binder registers the pool handles of every datasource.
func Binder() datasource.Binder {
	return datasource.BinderFunc(func(r *godi.Resolver, b datasource.Binding) error {
		kind := poolconfig.KindSQL
		if value, found := b.Properties.Lookup("kind"); found {
			kind = poolconfig.Kind(strings.ToLower(strings.TrimSpace(value)))
		}

		if kind == poolconfig.KindPGXPool {
			return datasource.BindAs(r, b, asPGXPool)
		}
		if err := datasource.BindAs(r, b, asSQLDB); err != nil {
			return err
		}
		return datasource.BindAs(r, b, asSQLX)
	})
}

func asSQLDB(ds datasource.DataSource) (*sql.DB, error) {
	sqlDS, ok := ds.(*SQLDataSource)
	if !ok {
		return nil, fmt.Errorf("datasource %s is a %T, not a database/sql pool", ds.Name(), ds)
	}
	return sqlDS.DB(), nil
}

func asSQLX(ds datasource.DataSource) (*sqlx.DB, error) {
	sqlDS, ok := ds.(*SQLDataSource)
	if !ok {
		return nil, fmt.Errorf("datasource %s is a %T, not a database/sql pool", ds.Name(), ds)
	}
	return sqlDS.SQLX(), nil
}

func asPGXPool(ds datasource.DataSource) (*pgxpool.Pool, error) {
	pgxDS, ok := ds.(*PGXDataSource)
	if !ok {
		return nil, fmt.Errorf("datasource %s is a %T, not a pgxpool pool", ds.Name(), ds)
	}
	return pgxDS.Pool(), nil
}
