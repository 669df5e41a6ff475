package session

import "sync"

// Locker serializes turns per session id. A session's state is not safe for
// concurrent mutation, so the transport holds the session's lock for the
// whole turn, releasing it only after the updated state is saved.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocker creates an empty locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for a session id, creating it on first use, and
// returns the unlock function.
func (l *Locker) Lock(sessionID string) (unlock func()) {
	l.mu.Lock()
	m, ok := l.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[sessionID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
