package godi

import (
	"fmt"
	"reflect"
)

// Inject is used as a namespace for dependency injection builders.
var Inject = &injectBuilder{}

type (
	dependency interface {
		build(targetTyp reflect.Type) (Request, error)
	}

	// entry points for builders
	injectBuilder struct{}
)

type namedDependencyBuilder struct {
	named    string
	optional bool
}

// Named injects the component with the given name. Resolution fails if it does not exist.
func (i *injectBuilder) Named(name string) dependency {
	return namedDependencyBuilder{named: name}
}

// NamedOptional injects the component with the given name, or the zero value if it does not exist.
func (i *injectBuilder) NamedOptional(name string) dependency {
	return namedDependencyBuilder{named: name, optional: true}
}

func (n namedDependencyBuilder) build(targetTyp reflect.Type) (Request, error) {
	var v validator = validatorUniqueMandatory{}
	if n.optional {
		v = validatorUniqueOptional{}
	}
	return Request{
		unitaryTyp: targetTyp,
		query: queryByName{
			name: Name{name: n.named, typ: targetTyp},
		},
		validator: v,
		collector: collectorUnique{},
	}, nil
}

type autoDependencyBuilder struct{}

func (i *injectBuilder) Auto() dependency {
	return autoDependencyBuilder{}
}

func (a autoDependencyBuilder) build(targetTyp reflect.Type) (Request, error) {
	return Request{
		unitaryTyp: targetTyp,
		query: queryByType{
			typ: targetTyp,
		},
		validator: validatorUniqueMandatory{},
		collector: collectorUnique{},
	}, nil
}

type multipleDependencyBuilder struct{}

func (i *injectBuilder) Multiple() dependency {
	return multipleDependencyBuilder{}
}

func (m multipleDependencyBuilder) build(targetTyp reflect.Type) (r Request, err error) {
	switch targetTyp.Kind() {
	case reflect.Slice:
		elemTyp := targetTyp.Elem()
		return Request{
			unitaryTyp: elemTyp,
			query:      queryByType{typ: elemTyp},
			validator:  validatorMultiple{},
			collector:  collectorMultipleAsSlice{},
		}, nil
	case reflect.Map:
		if targetTyp.Key() != StringType {
			return r, fmt.Errorf("multiple dependencies as map must be keyed by string, got %s", targetTyp)
		}
		valueTyp := targetTyp.Elem()
		return Request{
			unitaryTyp: valueTyp,
			query:      queryByType{typ: valueTyp},
			validator:  validatorMultiple{},
			collector:  collectorMultipleAsMap{},
		}, nil
	default:
		return r, fmt.Errorf("multiple dependencies can only be used with slice or map types, got %s", targetTyp)
	}
}

func defaultDependencyBuilder() dependency {
	return autoDependencyBuilder{}
}
