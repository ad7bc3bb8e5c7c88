package models

import (
	"time"

	"github.com/thenoetrevino/tablero/internal/types"
)

// ChatMessage is a decrypted chat message as returned to callers and published
// to the board topic.
type ChatMessage struct {
	ID        types.MessageID `json:"id"`
	BoardID   types.BoardID   `json:"board_id"`
	AuthorID  types.UserID    `json:"author_id"`
	Text      string          `json:"text"`
	CreatedAt time.Time       `json:"created_at"`
}

// StoredMessage is the persisted form of a chat message. Only the ciphertext
// is ever written to the store.
type StoredMessage struct {
	ID         types.MessageID
	BoardID    types.BoardID
	AuthorID   types.UserID
	Ciphertext []byte
	CreatedAt  time.Time
}
