// Package cache keeps the most recent chat messages of each board close at hand.
package cache

import (
	"context"
	"time"

	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/types"
)

// MessageCache holds, per board, up to N most recent decrypted messages in
// creation order. Entries expire after a TTL that every write refreshes.
type MessageCache interface {
	// Get returns a copy of the live entry, or ok=false when absent or expired
	Get(ctx context.Context, boardID types.BoardID) (msgs []models.ChatMessage, ok bool, err error)

	// Set replaces the entry, keeping only the newest N messages
	Set(ctx context.Context, boardID types.BoardID, msgs []models.ChatMessage) error

	// Append adds msg to a live entry, evicting the oldest beyond N.
	// Returns false without writing when there is no live entry.
	Append(ctx context.Context, boardID types.BoardID, msg models.ChatMessage) (bool, error)

	// Invalidate drops the board's entry
	Invalidate(ctx context.Context, boardID types.BoardID) error

	// Sweep purges expired entries and returns how many were removed
	Sweep(ctx context.Context) int
}

// Options configures a cache backend
type Options struct {
	Capacity  int              // messages per board
	TTL       time.Duration    // entry lifetime after the last write
	MaxBoards int              // boards held in memory (memory backend only)
	Now       func() time.Time // clock, defaults to time.Now
}

func (o *Options) applyDefaults() {
	if o.Capacity <= 0 {
		o.Capacity = models.DefaultMessageCacheSize
	}
	if o.TTL <= 0 {
		o.TTL = models.DefaultMessageCacheTTL
	}
	if o.MaxBoards <= 0 {
		o.MaxBoards = 1024
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// newest returns a copy of at most n trailing messages
func newest(msgs []models.ChatMessage, n int) []models.ChatMessage {
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]models.ChatMessage, len(msgs))
	copy(out, msgs)
	return out
}
