package godi

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/a-peyrard/godi-datasource/fn"
	"github.com/a-peyrard/godi-datasource/reflectutils"
	"github.com/a-peyrard/godi-datasource/structs"
	"github.com/samber/lo"
)

// ConfigFieldProvider is a provider that provides all config fields as components.
type ConfigFieldProvider[T any] struct {
	once          sync.Once
	names         []Name
	fieldWithType map[string]reflect.Type
	prefix        string
}

func (c *ConfigFieldProvider[T]) CanProvide(name Name) bool {
	c.loadNamesIfNeeded()

	knownName, found := c.fieldWithType[name.name]
	return found && matchType(name.typ, knownName)
}

func (c *ConfigFieldProvider[T]) Provide(name Name, dependencies []reflect.Value) (comp reflect.Value, err error) {
	cfg := dependencies[0].Interface()

	value, err := structs.Get(cfg, strings.TrimPrefix(name.name, c.prefix))
	if err != nil {
		return reflect.Zero(name.typ), err
	}

	reflValue := reflect.ValueOf(value)
	if !reflValue.IsValid() {
		return reflect.Zero(name.typ), nil
	}
	if !reflValue.Type().AssignableTo(name.typ) {
		// the value is not the expected type, return an error
		return reflect.Zero(name.typ), fmt.Errorf("field %s has type %v, expected %v", name.name, reflValue.Type(), name.typ)
	}

	return reflValue, nil
}

func (c *ConfigFieldProvider[T]) Dependencies() []Request {
	configType := reflect.TypeOf((*T)(nil))
	return []Request{
		{
			unitaryTyp: configType,
			query:      queryByType{typ: configType},
			validator:  validatorUniqueMandatory{},
			collector:  collectorUnique{},
		},
	}
}

func (c *ConfigFieldProvider[T]) ListProvidableNames() []Name {
	c.loadNamesIfNeeded()
	return c.names
}

func (c *ConfigFieldProvider[T]) Priority() int {
	return 0
}

func (c *ConfigFieldProvider[T]) loadNamesIfNeeded() {
	c.once.Do(func() {
		c.loadNamesInternal()
	})
}

func (c *ConfigFieldProvider[T]) loadNamesInternal() {
	emptyConfig := new(T)
	// we prefix all providers by the config struct name,
	// so if one want to get the value of the field "Port" in the struct "TestConfig",
	// the provider will be named "TestConfig.Port".
	c.prefix = reflect.TypeOf(emptyConfig).Elem().Name() + "."

	c.fieldWithType = make(map[string]reflect.Type)
	reflectutils.WalkStruct(
		emptyConfig,
		fn.AllTriConsumer(
			reflectutils.CreateNilStructs,
			func(_ reflect.Value, fieldTyp reflect.Type, path []string) {
				if len(path) > 0 {
					fieldPath := c.prefix + strings.Join(path, ".")
					c.fieldWithType[fieldPath] = fieldTyp
				}
			},
		),
	)

	paths := lo.Keys(c.fieldWithType)
	sort.Strings(paths)
	c.names = lo.Map(paths, func(fieldPath string, _ int) Name {
		return Name{name: fieldPath, typ: c.fieldWithType[fieldPath]}
	})
}

func (c *ConfigFieldProvider[T]) Description() string {
	return "Provides the fields of " + reflect.TypeOf((*T)(nil)).Elem().String() + " as components"
}
