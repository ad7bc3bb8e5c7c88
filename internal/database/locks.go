package database

import (
	"sync"

	"github.com/thenoetrevino/tablero/internal/types"
)

// BoardLocks serialises structural mutations per board within this process.
// Entries are reference counted and dropped when the last holder releases,
// so the map only holds boards that are currently being mutated.
type BoardLocks struct {
	mu    sync.Mutex
	locks map[types.BoardID]*boardLock
}

type boardLock struct {
	mu   sync.Mutex
	refs int
}

// NewBoardLocks creates an empty lock table
func NewBoardLocks() *BoardLocks {
	return &BoardLocks{locks: make(map[types.BoardID]*boardLock)}
}

// Lock blocks until the caller holds the board. The returned func releases it.
func (l *BoardLocks) Lock(boardID types.BoardID) func() {
	l.mu.Lock()
	bl, ok := l.locks[boardID]
	if !ok {
		bl = &boardLock{}
		l.locks[boardID] = bl
	}
	bl.refs++
	l.mu.Unlock()

	bl.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			bl.mu.Unlock()

			l.mu.Lock()
			bl.refs--
			if bl.refs == 0 {
				delete(l.locks, boardID)
			}
			l.mu.Unlock()
		})
	}
}

// Held reports how many boards currently have holders or waiters
func (l *BoardLocks) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
