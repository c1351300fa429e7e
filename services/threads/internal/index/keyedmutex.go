package index

import "sync"

// keyedMutex hands out one mutex per key and forgets it once nobody holds
// or waits for it. Distinct keys never contend.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[key]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

// Lock blocks until k is held and returns the matching unlock.
func (km *keyedMutex) Lock(k key) (unlock func()) {
	km.mu.Lock()
	if km.locks == nil {
		km.locks = make(map[key]*refMutex)
	}
	m, ok := km.locks[k]
	if !ok {
		m = &refMutex{}
		km.locks[k] = m
	}
	m.refs++
	km.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		km.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(km.locks, k)
		}
		km.mu.Unlock()
	}
}

func (km *keyedMutex) held() int {
	km.mu.Lock()
	defer km.mu.Unlock()
	return len(km.locks)
}
