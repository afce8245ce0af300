package godi

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockManager(t *testing.T) {
	t.Run("it should serialize the holders of a same name", func(t *testing.T) {
		// GIVEN
		var (
			lm      = NewLockManager()
			name    = NewName("orders", StringType)
			inside  atomic.Int32
			maxSeen atomic.Int32
			wg      sync.WaitGroup
		)

		// WHEN
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := lm.Lock(name)
				defer unlock()

				current := inside.Add(1)
				if current > maxSeen.Load() {
					maxSeen.Store(current)
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
			}()
		}
		wg.Wait()

		// THEN
		assert.Equal(t, int32(1), maxSeen.Load())
	})

	t.Run("it should not block holders of different names", func(t *testing.T) {
		// GIVEN
		lm := NewLockManager()
		unlockOrders := lm.Lock(NewName("orders", StringType))
		defer unlockOrders()

		// WHEN
		acquired := make(chan struct{})
		go func() {
			unlock := lm.Lock(NewName("billing", StringType))
			defer unlock()
			close(acquired)
		}()

		// THEN
		select {
		case <-acquired:
		case <-time.After(time.Second):
			t.Fatal("lock of billing was blocked by the lock of orders")
		}
	})

	t.Run("it should forget a lock once released", func(t *testing.T) {
		// GIVEN
		lm := NewLockManager()
		unlock := lm.Lock(NewName("orders", StringType))
		assert.Equal(t, 1, lm.Len())

		// WHEN
		unlock()

		// THEN
		assert.Equal(t, 0, lm.Len())
	})
}
