// Package datasource exposes named, lazily opened connection pools as components of a godi resolver.
//
// Datasources are discovered from configuration keys shaped as <prefix>.<name>.<property>,
// opened by a Factory the first time they are needed, and closed with the resolver.
package datasource

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUnknownDataSource = errors.New("unknown datasource")
	ErrRegistryClosed    = errors.New("datasource registry is closed")
)

type (
	// DataSource is an opened connection pool.
	DataSource interface {
		Name() string
		// Ping checks that a connection can be acquired and is usable.
		Ping(ctx context.Context) error
		Stats() Stats
		Close() error
	}

	// Stats is a snapshot of the state of a pool.
	Stats struct {
		MaxOpen      int           `json:"maxOpen"`
		Open         int           `json:"open"`
		InUse        int           `json:"inUse"`
		Idle         int           `json:"idle"`
		WaitCount    int64         `json:"waitCount"`
		WaitDuration time.Duration `json:"waitDuration"`
	}

	// Factory opens the datasource described by the given properties.
	Factory interface {
		Open(ctx context.Context, name string, props Properties) (DataSource, error)
	}

	FactoryFunc func(ctx context.Context, name string, props Properties) (DataSource, error)
)

func (f FactoryFunc) Open(ctx context.Context, name string, props Properties) (DataSource, error) {
	return f(ctx, name, props)
}
