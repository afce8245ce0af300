package godi

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"

	"github.com/a-peyrard/godi-datasource/fn"
	"github.com/a-peyrard/godi-datasource/option"
)

type (
	// Decorator wraps a component once it is built, before it is stored.
	Decorator interface {
		ForName() Name
		Decorate(toDecorate reflect.Value, dependencies []reflect.Value) (comp reflect.Value, err error)
		Dependencies() []Request
		Priority() int
	}

	// FactoryMethodDecorator decorates with a function taking the component as first parameter,
	// the other parameters being resolved as its dependencies.
	FactoryMethodDecorator struct {
		name         Name
		factory      reflect.Value
		dependencies []Request

		priority    int
		fnName      string
		description string
	}
)

// Decorate registers the function as a decorator of the named component instead of a provider.
//
// The function takes the component to decorate first, and returns a value of the same type,
// or of a type implementing it when the component is an interface.
func Decorate(name string) option.Option[RegistrableOptions] {
	return func(opts *RegistrableOptions) {
		opts.decorate = &name
	}
}

func NewFactoryMethodDecorator(
	factoryMethod any,
	opts ...option.Option[RegistrableOptions],
) (Decorator, error) {
	options := option.Build(&RegistrableOptions{}, opts...)
	if options.decorate == nil {
		return nil, errors.New("no decorate option provided")
	}

	t := reflect.TypeOf(factoryMethod)
	if err := checkFactorySignature(t); err != nil {
		return nil, err
	}
	if t.NumIn() < 1 {
		return nil, errors.New("decorator must have at least one parameter (the component to decorate)")
	}
	if !matchType(t.In(0), t.Out(0)) {
		return nil, fmt.Errorf("decorator must return a %s, got %s", t.In(0), t.Out(0))
	}

	fnName := runtime.FuncForPC(reflect.ValueOf(factoryMethod).Pointer()).Name()
	paramQueries, err := buildParamRequests(t, 1, options.dependencies, fnName)
	if err != nil {
		return nil, err
	}

	return &FactoryMethodDecorator{
		name: Name{
			name: *options.decorate,
			typ:  t.In(0),
		},
		factory:      reflect.ValueOf(factoryMethod),
		dependencies: paramQueries,
		priority:     options.priority,
		fnName:       fnName,
		description:  options.description,
	}, nil
}

func (f *FactoryMethodDecorator) ForName() Name {
	return f.name
}

func (f *FactoryMethodDecorator) Decorate(toDecorate reflect.Value, dependencies []reflect.Value) (reflect.Value, error) {
	comp, err := callFactory(f.factory, append([]reflect.Value{toDecorate}, dependencies...), f.name, f.fnName)
	if err != nil {
		return reflect.Value{}, err
	}
	if comp.Type() != f.name.typ {
		// stored under the decorated type, so resolution by that type keeps working
		comp = comp.Convert(f.name.typ)
	}
	return comp, nil
}

func (f *FactoryMethodDecorator) Dependencies() []Request {
	return f.dependencies
}

func (f *FactoryMethodDecorator) Priority() int {
	return f.priority
}

func (f *FactoryMethodDecorator) Description() string {
	return f.description
}

func (f *FactoryMethodDecorator) String() string {
	return fmt.Sprintf("decorator %s -> %s", filepath.Base(f.fnName), f.name)
}

// compareDecoratorsByPriority orders the decorators of a component: the lowest priority
// decorates first, so the highest priority one is the outermost.
func compareDecoratorsByPriority(d1, d2 Decorator) fn.ComparisonResult {
	return fn.CompareInts(d1.Priority(), d2.Priority())
}
