package ratelimit

import (
	"context"
	"sync"
	"time"
)

type windowKey struct {
	identity string
	kind     Kind
}

type window struct {
	start time.Time
	count int
}

// MemoryGuard is an in-process fixed-window Guard
type MemoryGuard struct {
	mu      sync.Mutex
	windows map[windowKey]*window
	opts    Options
}

var _ Guard = (*MemoryGuard)(nil)

// NewMemoryGuard creates an in-process guard
func NewMemoryGuard(opts Options) *MemoryGuard {
	opts.applyDefaults()
	return &MemoryGuard{windows: make(map[windowKey]*window), opts: opts}
}

// Allow counts one event and reports whether it is within the limit.
// A rejected event does not extend the window.
func (g *MemoryGuard) Allow(_ context.Context, identity string, kind Kind) (bool, error) {
	limit, ok := g.opts.Limits[kind]
	if !ok || limit <= 0 {
		return true, nil
	}

	now := g.opts.Now()
	key := windowKey{identity: identity, kind: kind}

	g.mu.Lock()
	defer g.mu.Unlock()

	w, ok := g.windows[key]
	if !ok || now.Sub(w.start) >= g.opts.Window {
		g.windows[key] = &window{start: now, count: 1}
		return true, nil
	}
	if w.count >= limit {
		return false, nil
	}
	w.count++
	return true, nil
}

// Sweep drops windows that have elapsed
func (g *MemoryGuard) Sweep(_ context.Context) int {
	now := g.opts.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for key, w := range g.windows {
		if now.Sub(w.start) >= g.opts.Window {
			delete(g.windows, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked windows
func (g *MemoryGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.windows)
}
