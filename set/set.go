package set

// Set represents a generic set data structure
type Set[T comparable] map[T]struct{}

// New creates a new empty set
func New[T comparable]() Set[T] {
	return make(Set[T])
}

// NewFromSlice creates a new set from the given slice
func NewFromSlice[T comparable](slice []T) Set[T] {
	s := make(Set[T], len(slice))
	for _, elem := range slice {
		s.Add(elem)
	}
	return s
}

// Clone returns a shallow copy of the set
func (s Set[T]) Clone() Set[T] {
	c := make(Set[T], len(s))
	for value := range s {
		c.Add(value)
	}
	return c
}

// Add adds a value to the set
func (s Set[T]) Add(value T) {
	s[value] = struct{}{}
}

// Contains checks if a value exists in the set
func (s Set[T]) Contains(value T) bool {
	_, exists := s[value]
	return exists
}

// Remove removes a value from the set
func (s Set[T]) Remove(value T) {
	delete(s, value)
}

// Size returns the number of elements in the set
func (s Set[T]) Size() int {
	return len(s)
}

// ToSlice returns all values as a slice, in no particular order
func (s Set[T]) ToSlice() []T {
	result := make([]T, 0, len(s))
	for value := range s {
		result = append(result, value)
	}
	return result
}
