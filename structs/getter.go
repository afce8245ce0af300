package structs

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/a-peyrard/godi-datasource/reflectutils"
)

// Get retrieves the value for the specified field from the provided struct.
// Supports nested access using dot notation (e.g., "Pools.Orders.MaxSize").
// Supports both struct fields and map keys. A struct token matches either the
// Go field name or the field's mapstructure key.
func Get(origin any, field string) (any, error) {
	if origin == nil {
		return nil, fmt.Errorf("cannot get field %s from nil origin", field)
	}
	if field == "" {
		return nil, fmt.Errorf("field path cannot be empty")
	}

	current := origin
	for i, token := range strings.Split(field, ".") {
		if token == "" {
			return nil, fmt.Errorf("empty token at position %d in field path %s", i, field)
		}

		valueOf := reflectutils.Deref(reflect.ValueOf(current))
		if !valueOf.IsValid() {
			return nil, fmt.Errorf("encountered nil value at token %s (position %d) in field path %s", token, i, field)
		}

		var err error
		switch valueOf.Kind() {
		case reflect.Map:
			current, err = getFromMap(valueOf, token)
		case reflect.Struct:
			current, err = getFromStruct(valueOf, token)
		default:
			err = fmt.Errorf("cannot traverse field %s: expected struct or map but got %s", token, valueOf.Kind())
		}
		if err != nil {
			return nil, fmt.Errorf("%w, at position %d in field path %s", err, i, field)
		}
	}

	return current, nil
}

func getFromMap(m reflect.Value, token string) (any, error) {
	if m.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("map keyed by %s cannot be traversed with token %s", m.Type().Key(), token)
	}
	value := m.MapIndex(reflect.ValueOf(token).Convert(m.Type().Key()))
	if !value.IsValid() {
		return nil, fmt.Errorf("key %s not found in map", token)
	}
	return value.Interface(), nil
}

func getFromStruct(s reflect.Value, token string) (any, error) {
	typ := s.Type()
	sf, found := typ.FieldByName(token)
	if !found {
		for i := 0; i < typ.NumField(); i++ {
			if typ.Field(i).IsExported() && reflectutils.KeyOf(typ.Field(i)) == token {
				sf, found = typ.Field(i), true
				break
			}
		}
	}
	if !found {
		return nil, fmt.Errorf("field %s not found in struct %s", token, typ.Name())
	}
	if !sf.IsExported() {
		return nil, fmt.Errorf("field %s in struct %s is not exportable", token, typ.Name())
	}
	return s.FieldByIndex(sf.Index).Interface(), nil
}
