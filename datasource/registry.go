package datasource

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/a-peyrard/godi-datasource/option"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

type (
	// Registry knows the datasource definitions and opens each datasource once, on first use.
	Registry struct {
		factory Factory
		defs    map[string]Properties
		logger  *zerolog.Logger

		inflight singleflight.Group

		mu     sync.Mutex
		opened map[string]DataSource
		order  []string
		closed bool
	}

	RegistryOptions struct {
		logger *zerolog.Logger
	}
)

func WithRegistryLogger(logger *zerolog.Logger) option.Option[RegistryOptions] {
	return func(opts *RegistryOptions) {
		opts.logger = logger
	}
}

func NewRegistry(factory Factory, defs map[string]Properties, opts ...option.Option[RegistryOptions]) *Registry {
	nop := zerolog.Nop()
	options := option.Build(&RegistryOptions{logger: &nop}, opts...)

	return &Registry{
		factory: factory,
		defs:    lo.MapKeys(defs, func(_ Properties, name string) string { return normalizeName(name) }),
		logger:  options.logger,
		opened:  make(map[string]DataSource),
	}
}

// Names returns the names of all the defined datasources, sorted.
func (r *Registry) Names() []string {
	names := lo.Keys(r.defs)
	sort.Strings(names)
	return names
}

// Definition returns the properties of the named datasource.
func (r *Registry) Definition(name string) (Properties, bool) {
	props, found := r.defs[normalizeName(name)]
	return props, found
}

// Get returns the named datasource, opening it if needed.
//
// Concurrent callers of a datasource not opened yet share the same opening.
func (r *Registry) Get(ctx context.Context, name string) (DataSource, error) {
	name = normalizeName(name)
	props, found := r.defs[name]
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataSource, name)
	}
	if ds, found, err := r.lookup(name); err != nil || found {
		return ds, err
	}

	res, err, _ := r.inflight.Do(name, func() (any, error) {
		if ds, found, err := r.lookup(name); err != nil || found {
			return ds, err
		}
		return r.open(ctx, name, props)
	})
	if err != nil {
		return nil, err
	}
	return res.(DataSource), nil
}

func (r *Registry) lookup(name string) (DataSource, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, false, ErrRegistryClosed
	}
	ds, found := r.opened[name]
	return ds, found, nil
}

func (r *Registry) open(ctx context.Context, name string, props Properties) (DataSource, error) {
	r.logger.Debug().Str("datasource", name).Msg("opening datasource")

	ds, err := r.factory.Open(ctx, name, props)
	if err != nil {
		return nil, fmt.Errorf("failed to open datasource %s:\n\t%w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		// the registry was closed while opening, nobody will close this one
		_ = ds.Close()
		return nil, ErrRegistryClosed
	}
	r.opened[name] = ds
	r.order = append(r.order, name)

	r.logger.Info().Str("datasource", name).Msg("datasource opened")
	return ds, nil
}

// Opened returns the datasources opened so far, in opening order.
func (r *Registry) Opened() []DataSource {
	r.mu.Lock()
	defer r.mu.Unlock()

	return lo.Map(r.order, func(name string, _ int) DataSource {
		return r.opened[name]
	})
}

// ValidateAll opens and pings every defined datasource concurrently, it fails on the first failing one.
func (r *Registry) ValidateAll(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)
	for _, name := range r.Names() {
		group.Go(func() error {
			ds, err := r.Get(ctx, name)
			if err != nil {
				return err
			}
			if err := ds.Ping(ctx); err != nil {
				return fmt.Errorf("datasource %s is not healthy:\n\t%w", name, err)
			}
			return nil
		})
	}
	return group.Wait()
}

// Close closes the opened datasources, the last opened first. Get fails once the registry is closed.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	order, opened := r.order, r.opened
	r.order, r.opened = nil, make(map[string]DataSource)
	r.mu.Unlock()

	var closeErrors []error
	for i := len(order) - 1; i >= 0; i-- {
		name := order[i]
		if err := opened[name].Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to close datasource %s:\n\t%w", name, err))
			continue
		}
		r.logger.Info().Str("datasource", name).Msg("datasource closed")
	}
	return errors.Join(closeErrors...)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
