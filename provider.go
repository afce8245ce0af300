package godi

import (
	"fmt"
	"reflect"
)

type (
	Provider interface {
		CanProvide(name Name) bool
		Provide(name Name, dependencies []reflect.Value) (comp reflect.Value, err error)
		Dependencies() []Request
		ListProvidableNames() []Name
		Priority() int
	}

	// Describable is implemented by providers having a human-readable description.
	Describable interface {
		Description() string
	}

	// registration is a provider as registered in the resolver, with its registration options.
	registration struct {
		Provider
		unmanaged   bool
		description string
	}
)

func (r *registration) Description() string {
	if r.description != "" {
		return r.description
	}
	if d, ok := r.Provider.(Describable); ok {
		return d.Description()
	}
	return ""
}

func (r *registration) String() string {
	if s, ok := r.Provider.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", r.Provider)
}
