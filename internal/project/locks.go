package project

import (
	"sync"
)

// projectLocks provides per-project mutual exclusion for graph-changing writes.
// Uses a keyed mutex pattern: writes to different projects proceed concurrently,
// writes to the same project are serialized. Entries are dropped once no
// goroutine holds or waits on them.
type projectLocks struct {
	mu    sync.Mutex // Guards the locks map itself
	locks map[string]*projectLock
}

type projectLock struct {
	sync.Mutex
	refs int // Holders plus waiters
}

func newProjectLocks() *projectLocks {
	return &projectLocks{
		locks: make(map[string]*projectLock),
	}
}

// lock acquires the mutex for projectID and returns its release function.
func (l *projectLocks) lock(projectID string) (unlock func()) {
	l.mu.Lock()
	pl, exists := l.locks[projectID]
	if !exists {
		pl = &projectLock{}
		l.locks[projectID] = pl
	}
	pl.refs++
	l.mu.Unlock()

	// Acquire the per-project lock outside the map lock
	pl.Lock()

	return func() {
		pl.Unlock()

		l.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(l.locks, projectID)
		}
		l.mu.Unlock()
	}
}
