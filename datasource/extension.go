package datasource

import (
	"context"
	"fmt"
	"strings"

	godi "github.com/a-peyrard/godi-datasource"
	"github.com/a-peyrard/godi-datasource/option"
	"github.com/rs/zerolog"
)

type (
	// Extension registers in a resolver a Registry of the discovered datasources, and a named
	// DataSource component per datasource. Binders can register more components per datasource,
	// the pool handles of a given library for example.
	Extension struct {
		factory Factory
		options *ExtensionOptions
	}

	ExtensionOptions struct {
		source     PropertySource
		prefix     string
		properties map[string]Properties
		binders    []Binder
		logger     *zerolog.Logger
		eager      bool
	}

	// Binding is what a Binder knows about the datasource it registers components for.
	Binding struct {
		Name         string
		Properties   Properties
		RegistryName string
	}

	Binder interface {
		Bind(r *godi.Resolver, b Binding) error
	}

	BinderFunc func(r *godi.Resolver, b Binding) error
)

func (f BinderFunc) Bind(r *godi.Resolver, b Binding) error {
	return f(r, b)
}

// WithSource sets where datasources are discovered from.
// Without it, the extension resolves the PropertySource registered in the resolver, if any.
func WithSource(source PropertySource) option.Option[ExtensionOptions] {
	return func(opts *ExtensionOptions) {
		opts.source = source
	}
}

func WithPrefix(prefix string) option.Option[ExtensionOptions] {
	return func(opts *ExtensionOptions) {
		opts.prefix = prefix
	}
}

// WithProperties declares a datasource programmatically, its properties override the discovered ones.
func WithProperties(name string, props Properties) option.Option[ExtensionOptions] {
	return func(opts *ExtensionOptions) {
		if opts.properties == nil {
			opts.properties = make(map[string]Properties)
		}
		name = normalizeName(name)
		opts.properties[name] = opts.properties[name].Merge(props)
	}
}

func WithBinder(binders ...Binder) option.Option[ExtensionOptions] {
	return func(opts *ExtensionOptions) {
		opts.binders = append(opts.binders, binders...)
	}
}

func WithLogger(logger *zerolog.Logger) option.Option[ExtensionOptions] {
	return func(opts *ExtensionOptions) {
		opts.logger = logger
	}
}

// WithEagerValidation opens and pings every datasource during the installation,
// so a misconfigured datasource fails the installation instead of its first use.
func WithEagerValidation() option.Option[ExtensionOptions] {
	return func(opts *ExtensionOptions) {
		opts.eager = true
	}
}

func NewExtension(factory Factory, opts ...option.Option[ExtensionOptions]) *Extension {
	nop := zerolog.Nop()
	return &Extension{
		factory: factory,
		options: option.Build(&ExtensionOptions{prefix: DefaultPrefix, logger: &nop}, opts...),
	}
}

// RegistryName returns the name under which the registry of the given prefix is registered.
func RegistryName(prefix string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return strings.ToLower(strings.TrimSuffix(prefix, ".")) + ".registry"
}

func (e *Extension) Extend(r *godi.Resolver) error {
	defs, err := e.definitions(r)
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		e.options.logger.Warn().Str("prefix", e.options.prefix).Msg("no datasource defined")
	}

	registry := NewRegistry(e.factory, defs, WithRegistryLogger(e.options.logger))
	registryName := RegistryName(e.options.prefix)
	err = r.Register(
		godi.ToStaticProvider(registry),
		godi.Named(registryName),
		godi.Description(fmt.Sprintf("datasources %s", strings.Join(registry.Names(), ", "))),
	)
	if err != nil {
		return fmt.Errorf("failed to register datasource registry:\n\t%w", err)
	}

	for _, name := range registry.Names() {
		props, _ := registry.Definition(name)
		binding := Binding{Name: name, Properties: props, RegistryName: registryName}

		if err := BindAs(r, binding, identity); err != nil {
			return err
		}
		for _, binder := range e.options.binders {
			if err := binder.Bind(r, binding); err != nil {
				return fmt.Errorf("failed to bind datasource %s with %T:\n\t%w", name, binder, err)
			}
		}
		e.options.logger.Debug().Str("datasource", name).Msg("datasource registered")
	}

	if e.options.eager {
		// resolving the registry stores it in the resolver, which will close it
		registry, err := godi.ResolveNamed[*Registry](r, registryName)
		if err != nil {
			return err
		}
		if err := registry.ValidateAll(context.Background()); err != nil {
			return fmt.Errorf("datasource validation failed:\n\t%w", err)
		}
	}
	return nil
}

func (e *Extension) definitions(r *godi.Resolver) (map[string]Properties, error) {
	source := e.options.source
	if source == nil {
		resolved, found, err := godi.TryResolve[PropertySource](r)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve the datasource property source:\n\t%w", err)
		}
		if found {
			source = resolved
		}
	}

	defs := make(map[string]Properties)
	if source != nil {
		defs = Discover(source, e.options.prefix)
	}
	for name, props := range e.options.properties {
		defs[name] = defs[name].Merge(props)
	}
	return defs, nil
}

// BindAs registers, under the datasource name, the component obtained by converting the datasource.
//
// The datasource is opened the first time the component is resolved. The component is not closed
// by the resolver: the registry owns the datasource and closes it.
func BindAs[T any](r *godi.Resolver, b Binding, convert func(DataSource) (T, error)) error {
	name := b.Name
	err := r.Register(
		func(registry *Registry) (T, error) {
			ds, err := registry.Get(context.Background(), name)
			if err != nil {
				var zero T
				return zero, err
			}
			return convert(ds)
		},
		godi.Named(name),
		godi.Unmanaged(),
		godi.Dependencies(godi.Inject.Named(b.RegistryName)),
		godi.Description(fmt.Sprintf("datasource %s as %s", name, godi.TypeOf[T]())),
	)
	if err != nil {
		return fmt.Errorf("failed to register datasource %s as %s:\n\t%w", name, godi.TypeOf[T](), err)
	}
	return nil
}

func identity(ds DataSource) (DataSource, error) {
	return ds, nil
}

var _ godi.Extension = (*Extension)(nil)
