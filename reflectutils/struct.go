package reflectutils

import (
	"reflect"
	"strings"

	"github.com/a-peyrard/godi-datasource/fn"
)

// StructVisitor is called for every visited value with its static type and its field path from the root.
type StructVisitor = fn.TriConsumer[reflect.Value, reflect.Type, []string]

// WalkStruct applies a visitor on the element and on all exported fields and nested fields of it.
func WalkStruct[T any](element T, visitor StructVisitor) {
	walkStructInternal(reflect.ValueOf(element), []string{}, visitor)
}

func walkStructInternal(val reflect.Value, path []string, visitor StructVisitor) {
	visitor(val, val.Type(), path)

	val = Deref(val)
	if !val.IsValid() || val.Kind() != reflect.Struct {
		return
	}

	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		structField := typ.Field(i)
		if !structField.IsExported() {
			continue
		}
		// copy the path, siblings must not share the backing array
		fieldPath := append(append(make([]string, 0, len(path)+1), path...), structField.Name)
		walkStructInternal(val.Field(i), fieldPath, visitor)
	}
}

// Deref dereferences recursively a reflect.Value until it reaches a non-pointer or non-interface value
func Deref(value reflect.Value) reflect.Value {
	if value.Kind() == reflect.Ptr || value.Kind() == reflect.Interface {
		return Deref(value.Elem())
	}
	return value
}

// CreateNilStructs creates new struct instances for nil struct pointers
func CreateNilStructs(val reflect.Value, typ reflect.Type, _ []string) {
	if typ.Kind() == reflect.Pointer &&
		val.IsNil() &&
		val.CanSet() &&
		typ.Elem().Kind() == reflect.Struct {

		val.Set(reflect.New(typ.Elem()))
	}
}

// KeyOf returns the configuration key of a struct field: the name of its mapstructure tag if any, its Go name otherwise.
func KeyOf(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("mapstructure"); ok {
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return field.Name
}
