package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/thenoetrevino/tablero/internal/types"
)

// Publisher delivers committed board events to subscribers
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Emit builds and publishes an event. Publishing is fire-and-forget: failures
// are logged and never reach the caller, whose change is already committed.
func Emit(ctx context.Context, p Publisher, kind Kind, boardID types.BoardID, payload any) {
	if p == nil {
		return // no subscribers wired (e.g. CLI or tests)
	}

	event, err := New(kind, boardID, payload)
	if err != nil {
		slog.Warn("failed to build event", "kind", kind, "board_id", boardID, "error", err)
		return
	}

	if err := p.Publish(ctx, event); err != nil {
		slog.Warn("event publish failed",
			"kind", kind,
			"board_id", boardID,
			"error", err)
	}
}

// Recorder is a Publisher that keeps every event in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish records the event
func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.Seq = int64(len(r.events) + 1)
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Last returns the most recent event, or false when none was recorded
func (r *Recorder) Last() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return Event{}, false
	}
	return r.events[len(r.events)-1], true
}

// Reset drops recorded events
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
