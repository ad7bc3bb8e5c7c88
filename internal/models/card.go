package models

import (
	"time"

	"github.com/thenoetrevino/tablero/internal/types"
)

// Card represents a single work item on the board
// Order is the zero-based dense position of the card within its column.
type Card struct {
	ID          types.CardID   `json:"id"`
	ColumnID    types.ColumnID `json:"column_id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Order       int            `json:"order"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CardLocation is the card together with the column and board it lives on.
// Loaded in a single read so authorization and bounds checks see one snapshot.
type CardLocation struct {
	Card    Card
	BoardID types.BoardID
	OwnerID types.UserID
}
