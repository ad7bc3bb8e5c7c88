// Package realtime fans committed board events out to subscribed connections.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/thenoetrevino/tablero/internal/events"
	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/types"
)

// Subscriber receives encoded frames. Send must never block.
type Subscriber interface {
	ID() string
	UserID() types.UserID
	Send(payload []byte) error
}

// JoinAuthorizer decides whether a user may subscribe to a board topic
type JoinAuthorizer interface {
	CanAccess(ctx context.Context, boardID types.BoardID, userID types.UserID) (bool, error)
}

// Hub holds one topic per board. Publishing is serialised, so every
// subscriber of a board receives its events in publish order.
type Hub struct {
	mu          sync.Mutex
	topics      map[types.BoardID]map[string]Subscriber
	memberships map[string]map[types.BoardID]struct{}
	seqs        map[types.BoardID]int64
	metrics     *Metrics
	authorizer  JoinAuthorizer
}

var _ events.Publisher = (*Hub)(nil)

// HubOption configures a Hub
type HubOption func(*Hub)

// WithJoinAuthorizer requires board access before a subscriber may join
func WithJoinAuthorizer(a JoinAuthorizer) HubOption {
	return func(h *Hub) {
		h.authorizer = a
	}
}

// WithMetrics shares an existing metrics instance
func WithMetrics(m *Metrics) HubOption {
	return func(h *Hub) {
		h.metrics = m
	}
}

// NewHub creates an empty hub
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		topics:      make(map[types.BoardID]map[string]Subscriber),
		memberships: make(map[string]map[types.BoardID]struct{}),
		seqs:        make(map[types.BoardID]int64),
		metrics:     NewMetrics(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Metrics returns the hub's counters
func (h *Hub) Metrics() *Metrics {
	return h.metrics
}

// Snapshot returns the hub's counters plus the current topic count
func (h *Hub) Snapshot() MetricsSnapshot {
	snap := h.metrics.GetSnapshot()
	h.mu.Lock()
	snap.Topics = len(h.topics)
	h.mu.Unlock()
	return snap
}

// Attach registers a subscriber with no topics
func (h *Hub) Attach(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.memberships[sub.ID()]; ok {
		return
	}
	h.memberships[sub.ID()] = make(map[types.BoardID]struct{})
	h.metrics.ConnectedClients.Store(int32(len(h.memberships)))
}

// Detach removes the subscriber from every topic
func (h *Hub) Detach(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for boardID := range h.memberships[sub.ID()] {
		h.leaveLocked(boardID, sub.ID())
	}
	delete(h.memberships, sub.ID())
	h.metrics.ConnectedClients.Store(int32(len(h.memberships)))
}

// Join subscribes to a board topic. Without an authorizer no membership
// check is made; with one, users without access get ErrNotFound.
func (h *Hub) Join(ctx context.Context, boardID types.BoardID, sub Subscriber) error {
	if h.authorizer != nil {
		ok, err := h.authorizer.CanAccess(ctx, boardID, sub.UserID())
		if err != nil {
			return fmt.Errorf("failed to authorize join of board %d: %w", boardID, err)
		}
		if !ok {
			return fmt.Errorf("%w: board %d", models.ErrNotFound, boardID)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	topic := h.topics[boardID]
	if topic == nil {
		topic = make(map[string]Subscriber)
		h.topics[boardID] = topic
	}
	topic[sub.ID()] = sub

	joined := h.memberships[sub.ID()]
	if joined == nil {
		joined = make(map[types.BoardID]struct{})
		h.memberships[sub.ID()] = joined
		h.metrics.ConnectedClients.Store(int32(len(h.memberships)))
	}
	joined[boardID] = struct{}{}

	h.metrics.Joins.Add(1)
	return nil
}

// Leave unsubscribes from a board topic
func (h *Hub) Leave(boardID types.BoardID, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(boardID, sub.ID())
	if joined := h.memberships[sub.ID()]; joined != nil {
		delete(joined, boardID)
	}
}

func (h *Hub) leaveLocked(boardID types.BoardID, subID string) {
	topic := h.topics[boardID]
	if topic == nil {
		return
	}
	delete(topic, subID)
	if len(topic) == 0 {
		delete(h.topics, boardID)
		delete(h.seqs, boardID)
	}
}

// Subscribers returns the number of subscribers on a board topic
func (h *Hub) Subscribers(boardID types.BoardID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[boardID])
}

// Publish stamps the board sequence number and enqueues the event to every
// subscriber of the board. Subscribers with a full queue miss the event.
func (h *Hub) Publish(_ context.Context, event events.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.metrics.EventsPublished.Add(1)

	topic := h.topics[event.BoardID]
	if len(topic) == 0 {
		return nil
	}

	h.seqs[event.BoardID]++
	event.Seq = h.seqs[event.BoardID]

	payload, err := json.Marshal(events.Message{Type: events.FrameEvent, BoardID: event.BoardID, Event: &event})
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.Kind, err)
	}

	for id, sub := range topic {
		if err := sub.Send(payload); err != nil {
			h.metrics.EventsDropped.Add(1)
			slog.Warn("subscriber queue full, event dropped",
				"board_id", event.BoardID,
				"kind", event.Kind,
				"subscriber", id,
				"error", err)
			continue
		}
		h.metrics.EventsDelivered.Add(1)
	}
	return nil
}
