package godi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker(t *testing.T) {
	orders := NewName("orders", StringType)
	billing := NewName("billing", StringType)

	t.Run("it should detect a name pushed twice and print the cycle", func(t *testing.T) {
		// GIVEN
		tracker := NewTracker()
		require.NoError(t, tracker.Push(orders))
		require.NoError(t, tracker.Push(billing))

		// WHEN
		err := tracker.Push(orders)

		// THEN
		require.Error(t, err)
		assert.Equal(t, "cycle found:\n(orders, string)\n\t -> (billing, string)\n\t\t -> (orders, string)\n", err.Error())
	})

	t.Run("it should allow a name again once popped", func(t *testing.T) {
		// GIVEN
		tracker := NewTracker()
		require.NoError(t, tracker.Push(orders))

		// WHEN
		popped := tracker.Pop()

		// THEN
		assert.Equal(t, orders, popped)
		assert.NoError(t, tracker.Push(orders))
	})

	t.Run("it should not share state with its copies", func(t *testing.T) {
		// GIVEN
		tracker := NewTracker()
		require.NoError(t, tracker.Push(orders))
		branch := NewTrackerFrom(tracker)

		// WHEN
		require.NoError(t, branch.Push(billing))

		// THEN
		assert.NoError(t, tracker.Push(billing))
		assert.Error(t, branch.Push(orders))
	})
}
