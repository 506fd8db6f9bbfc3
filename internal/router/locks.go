// ABOUTME: Per-user mutual exclusion for update processing.
// ABOUTME: Serializes same-user updates; distinct users proceed in parallel.

package router

import "sync"

// userLocks hands out one mutex per user id. Locks are never removed;
// the map grows with the active user population, which is small enough
// that eviction is not worth the bookkeeping.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[int64]*sync.Mutex)}
}

// acquire locks the mutex for userID and returns its unlock function.
func (l *userLocks) acquire(userID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
