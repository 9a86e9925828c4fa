// Package concurrency holds the small helpers that keep per-session
// work serialized and background goroutines from taking the process
// down.
package concurrency

import "sync"

// SessionLocks hands out one mutex per session token. Holding a
// session's lock is what makes alias and cache mutation safe without
// locking inside every component.
type SessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSessionLocks() *SessionLocks {
	return &SessionLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *SessionLocks) Lock(sessionID string) {
	l.mu.Lock()
	lock, ok := l.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[sessionID] = lock
	}
	l.mu.Unlock()
	lock.Lock()
}

// Unlock is a no-op for a session that was never locked.
func (l *SessionLocks) Unlock(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lock, ok := l.locks[sessionID]; ok {
		lock.Unlock()
	}
}
