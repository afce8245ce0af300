package godi

import (
	"reflect"
	"strings"

	"github.com/samber/lo"
)

type (
	// PropertySource is a flat view over configuration properties, *viper.Viper is one.
	PropertySource interface {
		AllKeys() []string
		GetString(key string) string
	}

	// PropertyProvider provides every key of a property source as a named string component.
	//
	// With a prefix, only the keys under it are provided, and they are named without it.
	PropertyProvider struct {
		source PropertySource
		prefix string
	}
)

func NewPropertyProvider(source PropertySource, prefix string) *PropertyProvider {
	prefix = strings.ToLower(prefix)
	if prefix != "" && !strings.HasSuffix(prefix, ".") {
		prefix += "."
	}
	return &PropertyProvider{source: source, prefix: prefix}
}

func (p *PropertyProvider) CanProvide(name Name) bool {
	if name.typ != StringType {
		return false
	}
	return lo.Contains(p.source.AllKeys(), p.prefix+strings.ToLower(name.name))
}

func (p *PropertyProvider) Provide(name Name, _ []reflect.Value) (comp reflect.Value, err error) {
	return reflect.ValueOf(p.source.GetString(p.prefix + strings.ToLower(name.name))), nil
}

func (p *PropertyProvider) Dependencies() []Request {
	return nil
}

func (p *PropertyProvider) ListProvidableNames() []Name {
	return lo.FilterMap(p.source.AllKeys(), func(key string, _ int) (Name, bool) {
		if !strings.HasPrefix(key, p.prefix) || key == p.prefix {
			return Name{}, false
		}
		return Name{name: strings.TrimPrefix(key, p.prefix), typ: StringType}, true
	})
}

func (p *PropertyProvider) Priority() int {
	return 0
}

func (p *PropertyProvider) Description() string {
	if p.prefix == "" {
		return "Provides configuration properties as string components"
	}
	return "Provides configuration properties under " + strings.TrimSuffix(p.prefix, ".") + " as string components"
}
