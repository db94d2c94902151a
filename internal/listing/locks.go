package listing

import "sync"

// idLocks hands out one mutex per listing id. Entries are dropped once no
// caller holds or waits on them.
type idLocks struct {
	mu   sync.Mutex
	held map[string]*idLock
}

type idLock struct {
	sync.Mutex
	refs int
}

// lock blocks until id is free and returns the matching unlock.
func (k *idLocks) lock(id string) (unlock func()) {
	k.mu.Lock()
	if k.held == nil {
		k.held = make(map[string]*idLock)
	}
	l, ok := k.held[id]
	if !ok {
		l = &idLock{}
		k.held[id] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.held, id)
		}
		k.mu.Unlock()
	}
}
