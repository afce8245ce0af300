package godi

import (
	"os"
	"reflect"
	"strings"
)

// EnvProvider is a provider that provides environment variables as string components.
//
// Names are listed from the current environment on every lookup, so variables set after the registration are seen.
type EnvProvider struct{}

func (e *EnvProvider) CanProvide(name Name) bool {
	if name.typ != StringType || name.name == "" {
		return false
	}
	_, found := os.LookupEnv(name.name)
	return found
}

func (e *EnvProvider) Provide(name Name, _ []reflect.Value) (comp reflect.Value, err error) {
	return reflect.ValueOf(os.Getenv(name.name)), nil
}

func (e *EnvProvider) Dependencies() []Request {
	return nil
}

func (e *EnvProvider) ListProvidableNames() []Name {
	props := os.Environ()
	names := make([]Name, 0, len(props))
	for _, prop := range props {
		key, _, _ := strings.Cut(prop, "=")
		if key == "" {
			continue
		}
		names = append(names, Name{name: key, typ: StringType})
	}
	return names
}

func (e *EnvProvider) Priority() int {
	return 0
}

func (e *EnvProvider) Description() string {
	return "Provides environment variables as string components"
}
