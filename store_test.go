package godi

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	poolType := TypeOf[*fakePool]()

	t.Run("it should list names in build order", func(t *testing.T) {
		// GIVEN
		store := NewStore()

		// WHEN
		store.Put(NewName("billing", poolType), reflect.ValueOf(&fakePool{}), true)
		store.Put(NewName("orders", poolType), reflect.ValueOf(&fakePool{}), true)
		store.Put(NewName("billing", poolType), reflect.ValueOf(&fakePool{}), true)

		// THEN
		assert.Equal(t, []Name{NewName("billing", poolType), NewName("orders", poolType)}, store.ListNames())
	})

	t.Run("it should skip nil components and empty itself on close", func(t *testing.T) {
		// GIVEN
		journal := &closeJournal{}
		store := NewStore()
		store.Put(NewName("nil", poolType), reflect.ValueOf((*fakePool)(nil)), true)
		store.Put(NewName("orders", poolType), reflect.ValueOf(&fakePool{journal: journal}), true)

		// WHEN
		err := store.Close()

		// THEN
		require.NoError(t, err)
		assert.Equal(t, []string{"pool"}, journal.closed)
		assert.Empty(t, store.ListNames())
	})

	t.Run("it should name the failing components", func(t *testing.T) {
		// GIVEN
		store := NewStore()
		store.Put(NewName("orders", poolType), reflect.ValueOf(&fakePool{failing: true}), true)
		store.Put(NewName("billing", poolType), reflect.ValueOf(&fakePool{failing: true}), true)

		// WHEN
		err := store.Close()

		// THEN
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to close component (orders, *godi.fakePool)")
		assert.Contains(t, err.Error(), "failed to close component (billing, *godi.fakePool)")
		assert.Len(t, unwrapJoined(err), 2)
	})
}

func unwrapJoined(err error) []error {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return joined.Unwrap()
	}
	return []error{err}
}
