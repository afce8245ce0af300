package godi

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

type (
	// Store keeps the built components, in build order.
	Store struct {
		mu      sync.RWMutex
		entries map[Name]storeEntry
		order   []Name
	}

	storeEntry struct {
		comp    reflect.Value
		managed bool
	}
)

func NewStore() *Store {
	return &Store{
		entries: make(map[Name]storeEntry),
	}
}

// Put stores a component, a managed component will be closed by Close if it is Closeable.
func (s *Store) Put(name Name, comp reflect.Value, managed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; !exists {
		s.order = append(s.order, name)
	}
	s.entries[name] = storeEntry{comp: comp, managed: managed}
}

func (s *Store) Get(name Name) (comp reflect.Value, found bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, found := s.entries[name]
	return entry.comp, found
}

// ListNames returns the names of the stored components, in build order.
func (s *Store) ListNames() []Name {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]Name, len(s.order))
	copy(names, s.order)
	return names
}

// Close closes the managed Closeable components, the most recently built first,
// so a component is closed before the components it depends on. The store is emptied.
func (s *Store) Close() error {
	s.mu.Lock()
	order, entries := s.order, s.entries
	s.order, s.entries = nil, make(map[Name]storeEntry)
	s.mu.Unlock()

	var closeErrors []error
	for i := len(order) - 1; i >= 0; i-- {
		name := order[i]
		entry := entries[name]
		if !entry.managed || !entry.comp.IsValid() || !entry.comp.Type().Implements(CloseableType) {
			continue
		}
		if isNil(entry.comp) {
			continue
		}
		if err := entry.comp.Interface().(Closeable).Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Errorf("failed to close component %s:\n\t%w", name, err))
		}
	}

	return errors.Join(closeErrors...)
}
