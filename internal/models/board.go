package models

import (
	"time"

	"github.com/thenoetrevino/tablero/internal/types"
)

// Board is the top-level collaborative unit. Boards own columns, columns own cards.
type Board struct {
	ID        types.BoardID `json:"id"`
	Name      string        `json:"name"`
	OwnerID   types.UserID  `json:"owner_id"`
	CreatedAt time.Time     `json:"created_at"`
}

// BoardColumn is a column with its cards in order, used for full board reads
type BoardColumn struct {
	Column
	Cards []*Card `json:"cards"`
}

// BoardDetail is the fully materialised board: columns in order, each with ordered cards
type BoardDetail struct {
	Board
	Columns []*BoardColumn `json:"columns"`
	Members []*BoardMember `json:"members"`
}
