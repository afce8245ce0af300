// Package fxdatasource makes the datasources of a registry available to a go.uber.org/fx application.
package fxdatasource

import (
	"context"
	"fmt"

	"github.com/a-peyrard/godi-datasource/datasource"
	"github.com/a-peyrard/godi-datasource/option"
	"go.uber.org/fx"
)

type Options struct {
	validateOnStart bool
}

// WithValidationOnStart opens and pings every datasource when the application starts.
func WithValidationOnStart() option.Option[Options] {
	return func(opts *Options) {
		opts.validateOnStart = true
	}
}

// Tag is the fx tag of the named datasource, to use in fx.In structs or fx.ParamTags.
func Tag(name string) string {
	return fmt.Sprintf("name:%q", name)
}

// Module provides the registry, and a DataSource per definition tagged with its name.
// The registry is closed when the application stops.
func Module(registry *datasource.Registry, opts ...option.Option[Options]) fx.Option {
	options := option.Build(&Options{}, opts...)

	provides := []any{
		func() *datasource.Registry { return registry },
	}
	for _, name := range registry.Names() {
		provides = append(provides, fx.Annotate(
			func() (datasource.DataSource, error) {
				return registry.Get(context.Background(), name)
			},
			fx.ResultTags(Tag(name)),
		))
	}

	return fx.Module(
		"datasource",
		fx.Provide(provides...),
		fx.Invoke(func(lc fx.Lifecycle) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					if !options.validateOnStart {
						return nil
					}
					return registry.ValidateAll(ctx)
				},
				OnStop: func(context.Context) error {
					return registry.Close()
				},
			})
		}),
	)
}
