package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/thenoetrevino/tablero/internal/types"
)

// Kind indicates what changed on a board
type Kind string

const (
	ColumnCreated     Kind = "column:created"
	ColumnUpdated     Kind = "column:updated"
	ColumnDeleted     Kind = "column:deleted"
	CardCreated       Kind = "card:created"
	CardUpdated       Kind = "card:updated"
	CardDeleted       Kind = "card:deleted"
	CardMoved         Kind = "card:moved"
	MemberAdded       Kind = "member:added"
	MemberRoleUpdated Kind = "member:role_updated"
	MemberRemoved     Kind = "member:removed"
	ChatMessage       Kind = "chat_message"
)

// Kinds lists every event kind a board topic can carry
var Kinds = []Kind{
	ColumnCreated, ColumnUpdated, ColumnDeleted,
	CardCreated, CardUpdated, CardDeleted, CardMoved,
	MemberAdded, MemberRoleUpdated, MemberRemoved,
	ChatMessage,
}

// Event is a committed change on one board.
// Seq is stamped by the hub and increases per board in publish order.
type Event struct {
	Kind      Kind            `json:"kind"`
	BoardID   types.BoardID   `json:"board_id"`
	Seq       int64           `json:"seq"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// New builds an event with payload encoded once up front
func New(kind Kind, boardID types.BoardID, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s payload: %w", kind, err)
	}
	return Event{
		Kind:      kind,
		BoardID:   boardID,
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	}, nil
}

// Decode unmarshals the payload into v
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// Frame types exchanged over a client connection
const (
	FrameJoin   = "join"
	FrameLeave  = "leave"
	FrameJoined = "joined"
	FrameLeft   = "left"
	FrameEvent  = "event"
	FrameError  = "error"
)

// Message wraps events and control frames for the wire protocol
type Message struct {
	Type    string        `json:"type"`
	BoardID types.BoardID `json:"board_id,omitempty"`
	Event   *Event        `json:"event,omitempty"`
	Error   string        `json:"error,omitempty"`
}
