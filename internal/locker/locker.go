package locker

import "sync"

// Keyed hands out one mutex per key. Entries are reference counted and removed once the
// last holder unlocks, so the map only grows with the number of keys in use.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// New creates an empty Keyed locker
func New() *Keyed {
	return &Keyed{locks: make(map[string]*entry)}
}

// Lock blocks until key is held and returns the function that releases it
func (k *Keyed) Lock(key string) (unlock func()) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()

			k.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(k.locks, key)
			}
			k.mu.Unlock()
		})
	}
}

// Len returns the number of keys currently held or waited on
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// Vehicle and user ids share one id space, so keys are namespaced.

// VehicleKey is the lock key guarding a vehicle's price
func VehicleKey(id string) string { return "vehicle:" + id }

// UserKey is the lock key guarding a user's wallet
func UserKey(id string) string { return "user:" + id }
