package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/types"
)

type entry struct {
	msgs    []models.ChatMessage
	expires time.Time
}

func (e *entry) hasExpired(now time.Time) bool {
	return !now.Before(e.expires)
}

// MemoryCache is an in-process MessageCache. The number of boards is bounded
// by an LRU; each board holds at most Capacity messages.
type MemoryCache struct {
	lock  sync.Mutex
	cache *lru.Cache[types.BoardID, *entry]
	opts  Options
}

var _ MessageCache = (*MemoryCache)(nil)

// NewMemoryCache creates an in-process cache
func NewMemoryCache(opts Options) (*MemoryCache, error) {
	opts.applyDefaults()
	c, err := lru.New[types.BoardID, *entry](opts.MaxBoards)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru: %w", err)
	}
	return &MemoryCache{cache: c, opts: opts}, nil
}

// Get returns the board's live messages
func (c *MemoryCache) Get(_ context.Context, boardID types.BoardID) ([]models.ChatMessage, bool, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	e, ok := c.cache.Get(boardID)
	if !ok {
		return nil, false, nil
	}
	if e.hasExpired(c.opts.Now()) {
		c.cache.Remove(boardID)
		return nil, false, nil
	}
	return newest(e.msgs, c.opts.Capacity), true, nil
}

// Set replaces the board's entry
func (c *MemoryCache) Set(_ context.Context, boardID types.BoardID, msgs []models.ChatMessage) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.cache.Add(boardID, &entry{
		msgs:    newest(msgs, c.opts.Capacity),
		expires: c.opts.Now().Add(c.opts.TTL),
	})
	return nil
}

// Append adds to a live entry
func (c *MemoryCache) Append(_ context.Context, boardID types.BoardID, msg models.ChatMessage) (bool, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	now := c.opts.Now()
	e, ok := c.cache.Get(boardID)
	if !ok {
		return false, nil
	}
	if e.hasExpired(now) {
		c.cache.Remove(boardID)
		return false, nil
	}

	e.msgs = append(e.msgs, msg)
	if len(e.msgs) > c.opts.Capacity {
		e.msgs = newest(e.msgs, c.opts.Capacity)
	}
	e.expires = now.Add(c.opts.TTL)
	return true, nil
}

// Invalidate drops the board's entry
func (c *MemoryCache) Invalidate(_ context.Context, boardID types.BoardID) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.cache.Remove(boardID)
	return nil
}

// Sweep removes every expired entry
func (c *MemoryCache) Sweep(_ context.Context) int {
	c.lock.Lock()
	defer c.lock.Unlock()

	now := c.opts.Now()
	removed := 0
	for _, key := range c.cache.Keys() {
		if e, ok := c.cache.Peek(key); ok && e.hasExpired(now) {
			c.cache.Remove(key)
			removed++
		}
	}
	return removed
}

// Len returns the number of boards currently held, live or not
func (c *MemoryCache) Len() int {
	return c.cache.Len()
}
