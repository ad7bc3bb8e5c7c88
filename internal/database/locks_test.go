package database

import (
	"sync"
	"testing"
	"time"

	"github.com/thenoetrevino/tablero/internal/types"
)

func TestBoardLocks_SerializesSameBoard(t *testing.T) {
	locks := NewBoardLocks()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(types.BoardID(1))
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("expected at most one holder at a time, saw %d", maxSeen)
	}
	if held := locks.Held(); held != 0 {
		t.Errorf("expected lock table to drain, %d boards still held", held)
	}
}

func TestBoardLocks_IndependentBoards(t *testing.T) {
	locks := NewBoardLocks()

	unlockA := locks.Lock(types.BoardID(1))
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock(types.BoardID(2))
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on board 2 blocked behind board 1")
	}
}

func TestBoardLocks_UnlockIsIdempotent(t *testing.T) {
	locks := NewBoardLocks()
	unlock := locks.Lock(types.BoardID(7))
	unlock()
	unlock()

	if held := locks.Held(); held != 0 {
		t.Errorf("expected no held boards, got %d", held)
	}
}
