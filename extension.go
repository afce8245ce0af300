package godi

type (
	// Extension registers a set of related providers in a resolver, see Resolver.Install.
	Extension interface {
		Extend(r *Resolver) error
	}

	ExtensionFunc func(r *Resolver) error
)

func (f ExtensionFunc) Extend(r *Resolver) error {
	return f(r)
}
