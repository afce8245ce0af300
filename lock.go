package godi

import "sync"

type (
	// LockManager serializes the builds of a same component, builds of different components run concurrently.
	LockManager struct {
		mu    sync.Mutex
		locks map[Name]*namedLock
	}

	namedLock struct {
		sync.Mutex
		holders int
	}
)

func NewLockManager() *LockManager {
	return &LockManager{
		locks: make(map[Name]*namedLock),
	}
}

// Lock blocks until the lock of the name is acquired, and returns the function releasing it.
//
// The lock of a name is forgotten once nobody holds or waits for it.
func (lm *LockManager) Lock(name Name) (unlock func()) {
	lm.mu.Lock()
	lock, exists := lm.locks[name]
	if !exists {
		lock = &namedLock{}
		lm.locks[name] = lock
	}
	lock.holders++
	lm.mu.Unlock()

	lock.Lock()
	return func() {
		lock.Unlock()

		lm.mu.Lock()
		defer lm.mu.Unlock()
		lock.holders--
		if lock.holders == 0 {
			delete(lm.locks, name)
		}
	}
}

// Len returns the number of names currently locked or waited for.
func (lm *LockManager) Len() int {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return len(lm.locks)
}
