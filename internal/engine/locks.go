package engine

import "sync"

// Locks serializes mutating calls per savegame. Validation and write of an
// edict activation, a year advance or a build must not interleave with
// another mutation of the same savegame.
type Locks struct {
	mu      sync.Mutex
	entries map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// NewLocks creates an empty lock table.
func NewLocks() *Locks {
	return &Locks{entries: make(map[int64]*lockEntry)}
}

// Lock blocks until the savegame's lock is held and returns its release.
// Entries are dropped once no caller holds or waits on them.
func (l *Locks) Lock(savegameID int64) (unlock func()) {
	l.mu.Lock()
	e, ok := l.entries[savegameID]
	if !ok {
		e = &lockEntry{}
		l.entries[savegameID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.entries, savegameID)
		}
		l.mu.Unlock()
	}
}

// held returns how many savegames currently have a live entry.
func (l *Locks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
