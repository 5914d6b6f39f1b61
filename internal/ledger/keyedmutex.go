package ledger

import "sync"

// KeyedMutex hands out one mutex per key so that operations on
// different users never contend with each other. Mutexes are created
// lazily with LoadOrStore, so two callers racing on a fresh key still
// end up with the same mutex. Entries are kept for the life of the
// process; the map grows with the number of distinct keys, which is
// acceptable for this service's user population.
type KeyedMutex struct {
	mus sync.Map // key -> *sync.Mutex
}

func NewKeyedMutex() *KeyedMutex { return &KeyedMutex{} }

func (km *KeyedMutex) get(key string) *sync.Mutex {
	v, _ := km.mus.LoadOrStore(key, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// WithLock runs fn while holding the mutex for key. The mutex is
// released on every exit path, including a panic inside fn.
func (km *KeyedMutex) WithLock(key string, fn func() error) error {
	mu := km.get(key)
	mu.Lock()
	defer mu.Unlock()
	return fn()
}
