package godi

// ToStaticProvider wraps a value in a factory method always returning it.
func ToStaticProvider[T any](value T) func() T {
	return func() T {
		return value
	}
}
