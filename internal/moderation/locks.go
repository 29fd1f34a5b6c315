package moderation

import "sync"

// userLocks serializes escalation per user id. Entries are reference
// counted and removed once the last holder releases, so the map stays
// bounded by the number of in-flight escalations.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[int64]*userLock)}
}

// acquire blocks until the caller holds the lock for userID
func (l *userLocks) acquire(userID int64) {
	l.mu.Lock()
	lock, ok := l.locks[userID]
	if !ok {
		lock = &userLock{}
		l.locks[userID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()
}

// release unlocks the per-user lock and drops the entry when unused
func (l *userLocks) release(userID int64) {
	l.mu.Lock()
	lock := l.locks[userID]
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, userID)
	}
	l.mu.Unlock()

	lock.mu.Unlock()
}
