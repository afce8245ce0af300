package godi

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/a-peyrard/godi-datasource/fn"
	"github.com/a-peyrard/godi-datasource/option"
	"github.com/rs/zerolog"
)

// ResolverName is the name under which the resolver registers itself.
const ResolverName = "godi.resolver"

type (
	Name struct {
		name string
		typ  reflect.Type
	}

	Request struct {
		unitaryTyp reflect.Type
		query      query
		validator  validator
		collector  collector
		tracker    *Tracker
	}

	Resolver struct {
		providers  *SortedCOWSlice[*registration]
		decorators sync.Map // Name -> *SortedCOWSlice[Decorator]
		store      *Store
		logger     *zerolog.Logger

		lock *LockManager
	}

	// Closeable is an interface that can be used to close resources.
	Closeable interface {
		Close() error
	}

	Registrable = any

	RegistrableOptions struct {
		named        string
		priority     int
		dependencies []dependency
		conditions   []condition
		unmanaged    bool
		decorate     *string

		description string
	}

	ResolverOptions struct {
		logger *zerolog.Logger
	}
)

func Named(name string) option.Option[RegistrableOptions] {
	return func(opts *RegistrableOptions) {
		opts.named = name
	}
}

func Priority(priority int) option.Option[RegistrableOptions] {
	return func(opts *RegistrableOptions) {
		opts.priority = priority
	}
}

func Dependencies(dependencies ...dependency) option.Option[RegistrableOptions] {
	return func(opts *RegistrableOptions) {
		opts.dependencies = dependencies
	}
}

func Description(description string) option.Option[RegistrableOptions] {
	return func(opts *RegistrableOptions) {
		opts.description = description
	}
}

// Unmanaged marks the provided components as owned by someone else: the resolver will not close them.
func Unmanaged() option.Option[RegistrableOptions] {
	return func(opts *RegistrableOptions) {
		opts.unmanaged = true
	}
}

// WithLogger sets the logger used to trace registrations and resolutions.
func WithLogger(logger *zerolog.Logger) option.Option[ResolverOptions] {
	return func(opts *ResolverOptions) {
		opts.logger = logger
	}
}

// NewName builds the name of a component, as used by providers.
func NewName(name string, typ reflect.Type) Name {
	return Name{name: name, typ: typ}
}

// Identifier returns the string part of the name.
func (n Name) Identifier() string {
	return n.name
}

// Type returns the type of the named component.
func (n Name) Type() reflect.Type {
	return n.typ
}

func (n Name) String() string {
	return fmt.Sprintf("(%s, %s)", n.name, n.typ.String())
}

func (r Request) String() string {
	return fmt.Sprintf("{q=%s v=%s c=%s}", r.query, r.validator, r.collector)
}

func New(opts ...option.Option[ResolverOptions]) *Resolver {
	nop := zerolog.Nop()
	options := option.Build(&ResolverOptions{logger: &nop}, opts...)

	r := &Resolver{
		providers: NewSortedCOWSlice[*registration](fn.ReverseComparator(compareByPriority)),
		store:     NewStore(),
		logger:    options.logger,

		lock: NewLockManager(),
	}

	// Register itself as a static provider.
	//
	// If providers want to resolve the resolver to be able to dynamically resolve dependencies
	r.MustRegister(ToStaticProvider(r), Named(ResolverName), Unmanaged())

	return r
}

func (r *Resolver) Register(reg Registrable, opts ...option.Option[RegistrableOptions]) error {
	if reg == nil {
		return errors.New("cannot register a nil provider")
	}

	options := option.Build(
		&RegistrableOptions{},
		opts...,
	)

	// validate the conditions if any, they might prevent the registration
	for _, cond := range options.conditions {
		if !r.validateCondition(cond) {
			r.logger.Debug().
				Str("provider", fmt.Sprintf("%T", reg)).
				Str("condition", cond.String()).
				Msg("condition not met, skipping registration")
			return nil
		}
	}

	t := reflect.TypeOf(reg)
	if options.decorate != nil || t.Implements(DecoratorType) {
		return r.registerDecorator(reg, t, opts...)
	}

	var (
		provider Provider
		err      error
	)
	if t.Kind() == reflect.Func {
		provider, err = NewFactoryMethodProvider(reg, opts...)
		if err != nil {
			return fmt.Errorf("failed to create factory method provider for %T:\n\t%w", reg, err)
		}
	} else if t.Implements(ProviderType) {
		provider = reg.(Provider)
	} else {
		return fmt.Errorf("provider must be either a function or a Provider implementation, got %T", reg)
	}

	r.providers.Add(&registration{
		Provider:    provider,
		unmanaged:   options.unmanaged,
		description: options.description,
	})

	return nil
}

func (r *Resolver) registerDecorator(reg Registrable, t reflect.Type, opts ...option.Option[RegistrableOptions]) error {
	var decorator Decorator
	if t.Implements(DecoratorType) {
		decorator = reg.(Decorator)
	} else {
		var err error
		decorator, err = NewFactoryMethodDecorator(reg, opts...)
		if err != nil {
			return fmt.Errorf("failed to create factory method decorator for %T:\n\t%w", reg, err)
		}
	}

	name := decorator.ForName()
	if _, built := r.store.Get(name); built {
		return fmt.Errorf("cannot decorate component %s, it is already built", name)
	}
	decorators, _ := r.decorators.LoadOrStore(name, NewSortedCOWSlice[Decorator](compareDecoratorsByPriority))
	decorators.(*SortedCOWSlice[Decorator]).Add(decorator)

	r.logger.Debug().Stringer("component", name).Str("decorator", fmt.Sprint(decorator)).Msg("decorator registered")
	return nil
}

func (r *Resolver) decoratorsFor(name Name) []Decorator {
	decorators, found := r.decorators.Load(name)
	if !found {
		return nil
	}
	return decorators.(*SortedCOWSlice[Decorator]).All()
}

func (r *Resolver) validateCondition(cond condition) bool {
	val, found, err := r.resolve(Request{
		unitaryTyp: StringType,
		query: queryByName{
			name: Name{
				name: cond.namedStringComponent,
				typ:  StringType,
			},
		},
		validator: validatorUniqueOptional{},
		collector: collectorUnique{},
	})
	if err != nil || !found {
		return false
	}

	return cond.test(val.String())
}

func tryGetAt[T any](slice []T, index int) (val T, found bool) {
	if index < 0 || index >= len(slice) {
		return val, false
	}
	return slice[index], true
}

func (r *Resolver) MustRegister(reg Registrable, opts ...option.Option[RegistrableOptions]) *Resolver {
	err := r.Register(reg, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to register provider %T:\n\t%v", reg, err))
	}
	return r
}

// Install lets each extension register its own providers, in order. The first failure stops the installation.
func (r *Resolver) Install(extensions ...Extension) error {
	for _, ext := range extensions {
		if err := ext.Extend(r); err != nil {
			return fmt.Errorf("failed to install extension %T:\n\t%w", ext, err)
		}
		r.logger.Debug().Str("extension", fmt.Sprintf("%T", ext)).Msg("extension installed")
	}
	return nil
}

// Close closes all the built components, most recently built first.
func (r *Resolver) Close() error {
	return r.store.Close()
}

// Resolve attempts to resolve a component of type T from the resolver.
func Resolve[T any](resolver *Resolver) (T, error) {
	lookFor := TypeOf[T]()

	val, _, err := resolveTyped[T](
		resolver,
		Request{
			unitaryTyp: lookFor,
			query:      queryByType{typ: lookFor},
			validator:  validatorUniqueMandatory{},
			collector:  collectorUnique{},
		},
	)
	return val, err
}

// ResolveNamed attempts to resolve a named component of type T from the resolver.
func ResolveNamed[T any](resolver *Resolver, name string) (T, error) {
	lookFor := TypeOf[T]()

	val, _, err := resolveTyped[T](
		resolver,
		Request{
			unitaryTyp: lookFor,
			query: queryByName{
				name: Name{name: name, typ: lookFor},
			},
			validator: validatorUniqueMandatory{},
			collector: collectorUnique{},
		},
	)
	return val, err
}

// ResolveAll attempts to resolve all components of type T from the resolver.
func ResolveAll[T any](resolver *Resolver) ([]T, error) {
	lookFor := TypeOf[T]()

	val, _, err := resolveTyped[[]T](
		resolver,
		Request{
			unitaryTyp: lookFor,
			query:      queryByType{typ: lookFor},
			validator:  validatorMultiple{},
			collector:  collectorMultipleAsSlice{},
		},
	)
	return val, err
}

// TryResolve attempts to resolve a component of type T from the resolver.
//
// It returns the resolved value, a boolean indicating if it was found, and an error if any occurred during resolution.
func TryResolve[T any](resolver *Resolver) (value T, found bool, err error) {
	lookFor := TypeOf[T]()

	return resolveTyped[T](
		resolver,
		Request{
			unitaryTyp: lookFor,
			query:      queryByType{typ: lookFor},
			validator:  validatorUniqueOptional{},
			collector:  collectorUnique{},
		},
	)
}

// TryResolveNamed attempts to resolve a component of name n from the resolver.
//
// It returns the resolved value, a boolean indicating if it was found, and an error if any occurred during resolution.
func TryResolveNamed[T any](resolver *Resolver, name string) (value T, found bool, err error) {
	lookFor := TypeOf[T]()

	return resolveTyped[T](
		resolver,
		Request{
			unitaryTyp: lookFor,
			query: queryByName{
				name: Name{name: name, typ: lookFor},
			},
			validator: validatorUniqueOptional{},
			collector: collectorUnique{},
		},
	)
}

func resolveTyped[T any](resolver *Resolver, req Request) (val T, found bool, err error) {
	resolved, found, err := resolver.resolve(req)
	if err != nil {
		return val, false, fmt.Errorf("failed to resolve request %s:\n\t%w", req, err)
	}
	if !found {
		return val, false, nil
	}
	val, err = unReflect[T](resolved)
	return val, true, err
}

func (r *Resolver) resolve(req Request) (val reflect.Value, found bool, err error) {
	start := time.Now()
	defer func() {
		r.logger.Trace().
			Stringer("request", req).
			Dur("elapsed", time.Since(start)).
			Bool("found", found).
			Msg("resolved")
	}()

	if req.tracker == nil {
		req.tracker = NewTracker()
	}

	results := r.find(req.query)
	results, err = req.validator.validate(results)
	if err != nil {
		return reflect.Value{}, false, fmt.Errorf("failed to validate results for request %v:\n\t%w", req, err)
	}
	return req.collector.collect(req.unitaryTyp, r, results, req.tracker)
}

// find returns the matching providers, highest priority first.
// A name provided by several providers is only kept for the one with the highest priority.
func (r *Resolver) find(q query) []queryResult {
	var (
		results []queryResult
		seen    = make(map[Name]struct{})
	)
	for _, p := range r.providers.All() {
		for _, n := range p.ListProvidableNames() {
			if _, shadowed := seen[n]; shadowed || !q.want(n) {
				continue
			}
			seen[n] = struct{}{}
			results = append(results, queryResult{provider: p, name: n})
		}
	}
	return results
}

func compareByPriority(p1, p2 *registration) fn.ComparisonResult {
	return fn.CompareInts(p1.Priority(), p2.Priority())
}

func unReflect[T any](v reflect.Value) (res T, err error) {
	if !v.IsValid() {
		return res, fmt.Errorf("cannot convert an invalid value to %T", res)
	}
	res, ok := v.Interface().(T)
	if !ok {
		return res, fmt.Errorf("value %v is not of type %T", v, res)
	}
	return res, nil
}

func (r *Resolver) Describe() string {
	var b strings.Builder
	b.WriteString("* Providers:\n")
	for _, p := range r.providers.All() {
		b.WriteString(fmt.Sprintf("\t- %s (priority=%d", p, p.Priority()))
		if p.unmanaged {
			b.WriteString(", unmanaged")
		}
		b.WriteString(")\n")
		if desc := p.Description(); desc != "" {
			b.WriteString(fmt.Sprintf("\t\tdescription: %s\n", desc))
		}
		b.WriteString("\t\tprovides:\n")
		for _, n := range p.ListProvidableNames() {
			b.WriteString(fmt.Sprintf("\t\t\t- %s\n", n))
		}
		if deps := p.Dependencies(); len(deps) > 0 {
			b.WriteString("\t\tdependencies:\n")
			for _, d := range deps {
				b.WriteString(fmt.Sprintf("\t\t\t- %s\n", d))
			}
		}
	}
	b.WriteString("* Decorators:\n")
	r.decorators.Range(func(key, value any) bool {
		b.WriteString(fmt.Sprintf("\t- %s\n", key))
		for _, d := range value.(*SortedCOWSlice[Decorator]).All() {
			b.WriteString(fmt.Sprintf("\t\t- %v (priority=%d)\n", d, d.Priority()))
		}
		return true
	})
	b.WriteString("* Stored components:\n")
	for _, n := range r.store.ListNames() {
		b.WriteString(fmt.Sprintf("\t- %s\n", n))
	}
	return b.String()
}
