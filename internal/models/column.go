package models

import (
	"time"

	"github.com/thenoetrevino/tablero/internal/types"
)

// Column represents an ordered bucket of cards on a board (e.g., "Todo", "Doing", "Done").
// Order is the zero-based dense position of the column among its board's columns.
type Column struct {
	ID        types.ColumnID `json:"id"`
	BoardID   types.BoardID  `json:"board_id"`
	Title     string         `json:"title"`
	Order     int            `json:"order"`
	CreatedAt time.Time      `json:"created_at"`
}
