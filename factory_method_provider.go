package godi

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"

	"github.com/a-peyrard/godi-datasource/option"
)

type (
	// FactoryMethodProvider provides the single component returned by a factory function,
	// the parameters of the function being resolved as its dependencies.
	FactoryMethodProvider struct {
		name         Name
		factory      reflect.Value
		dependencies []Request

		priority int
		fnName   string
	}
)

func NewFactoryMethodProvider(
	factoryMethod any,
	opts ...option.Option[RegistrableOptions],
) (Provider, error) {
	t := reflect.TypeOf(factoryMethod)
	if err := checkFactorySignature(t); err != nil {
		return nil, err
	}

	fnName := runtime.FuncForPC(reflect.ValueOf(factoryMethod).Pointer()).Name()
	options := option.Build(
		&RegistrableOptions{
			named:    filepath.Base(fnName),
			priority: 0,
		},
		opts...,
	)

	paramQueries, err := buildParamRequests(t, 0, options.dependencies, fnName)
	if err != nil {
		return nil, err
	}

	return &FactoryMethodProvider{
		name: Name{
			name: options.named,
			typ:  t.Out(0),
		},
		factory:      reflect.ValueOf(factoryMethod),
		dependencies: paramQueries,
		priority:     options.priority,
		fnName:       fnName,
	}, nil
}

func (f *FactoryMethodProvider) CanProvide(name Name) bool {
	return name.name == f.name.name && matchType(name.typ, f.name.typ)
}

func (f *FactoryMethodProvider) Provide(_ Name, dependencies []reflect.Value) (reflect.Value, error) {
	return callFactory(f.factory, dependencies, f.name, f.fnName)
}

func (f *FactoryMethodProvider) Dependencies() []Request {
	return f.dependencies
}

func (f *FactoryMethodProvider) ListProvidableNames() []Name {
	return []Name{f.name}
}

func (f *FactoryMethodProvider) Priority() int {
	return f.priority
}

func (f *FactoryMethodProvider) String() string {
	return fmt.Sprintf("factory %s -> %s", filepath.Base(f.fnName), f.name)
}

func checkFactorySignature(t reflect.Type) error {
	if t.Kind() != reflect.Func {
		return errors.New("factory method must be a function")
	}
	if t.NumOut() != 1 && t.NumOut() != 2 {
		return errors.New("factory method must either return the instance and an error, or just the instance")
	}
	if t.NumOut() == 2 && t.Out(1) != ErrorType {
		return errors.New("if factory method returns two elements, it must return an error as the second element")
	}
	if t.IsVariadic() {
		return errors.New("factory method cannot be variadic")
	}
	return nil
}

// buildParamRequests builds the requests of the parameters of t, starting at index from.
// Declared dependencies apply in order, the remaining parameters are resolved by type.
func buildParamRequests(t reflect.Type, from int, dependencies []dependency, fnName string) ([]Request, error) {
	count := t.NumIn() - from
	if len(dependencies) > count {
		return nil, fmt.Errorf("factory method %s takes %d parameter(s), but %d dependencies are declared", fnName, count, len(dependencies))
	}

	requests := make([]Request, count)
	for i := range count {
		depDef, found := tryGetAt(dependencies, i)
		if !found {
			depDef = defaultDependencyBuilder()
		}
		req, err := depDef.build(t.In(from + i))
		if err != nil {
			return nil, fmt.Errorf("failed to build dependency for parameter %d of factory method %s:\n\t%w", from+i, fnName, err)
		}
		requests[i] = req
	}
	return requests, nil
}

// callFactory calls the factory and returns the component it built.
// A panic, a returned error or a nil component are errors.
func callFactory(factory reflect.Value, args []reflect.Value, name Name, fnName string) (comp reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic calling provider for %s: %v", name, r)
		}
	}()

	results := factory.Call(args)
	if len(results) == 2 && !results[1].IsNil() {
		return reflect.Value{}, results[1].Interface().(error)
	}
	if isNil(results[0]) {
		return reflect.Value{}, fmt.Errorf("factory %s returned a nil %s without error", filepath.Base(fnName), name.typ)
	}
	return results[0], nil
}
