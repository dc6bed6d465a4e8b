package service

import "sync"

// paymentLocks serializes mutations per payment identifier so the
// read-validate-write sequence inside a transition never interleaves with
// another transition on the same record. The repository's compare-and-set
// updates remain the backstop for multi-process deployments.
//
// Entries are reference counted and dropped once the last holder releases,
// keeping the map proportional to in-flight payments rather than every
// payment ever touched.
type paymentLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newPaymentLocks() *paymentLocks {
	return &paymentLocks{locks: make(map[string]*lockEntry)}
}

func (l *paymentLocks) lock(id string) func() {
	l.mu.Lock()
	e, ok := l.locks[id]
	if !ok {
		e = &lockEntry{}
		l.locks[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
