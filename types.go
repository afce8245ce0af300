package godi

import (
	"fmt"
	"reflect"
)

var (
	StringType    = TypeOf[string]()
	ProviderType  = TypeOf[Provider]()
	DecoratorType = TypeOf[Decorator]()
	ErrorType     = TypeOf[error]()
	CloseableType = TypeOf[Closeable]()
	StringerType  = TypeOf[fmt.Stringer]()
)

func matchType(queryType, providedType reflect.Type) bool {
	if queryType == providedType {
		return true
	}
	if queryType.Kind() == reflect.Interface && providedType.Implements(queryType) {
		return true
	}
	return false
}

// TypeOf returns the reflect type of I, including when I is an interface type.
func TypeOf[I any]() reflect.Type {
	return reflect.TypeOf((*I)(nil)).Elem()
}

// isNil reports whether v holds no value, or a nil one for the kinds that can be nil.
func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return !v.IsValid()
	}
}
