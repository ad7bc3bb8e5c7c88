package events

import (
	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/types"
)

// ColumnPayload accompanies column:created and column:updated.
// FromOrder and ToOrder are set when the update was a reorder.
type ColumnPayload struct {
	Column    *models.Column `json:"column"`
	FromOrder *int           `json:"from_order,omitempty"`
	ToOrder   *int           `json:"to_order,omitempty"`
}

// ColumnDeletedPayload accompanies column:deleted
type ColumnDeletedPayload struct {
	ColumnID types.ColumnID `json:"column_id"`
	Order    int            `json:"order"`
}

// CardPayload accompanies card:created and card:updated
type CardPayload struct {
	Card *models.Card `json:"card"`
}

// CardDeletedPayload accompanies card:deleted
type CardDeletedPayload struct {
	CardID   types.CardID   `json:"card_id"`
	ColumnID types.ColumnID `json:"column_id"`
	Order    int            `json:"order"`
}

// CardMovedPayload accompanies card:moved
type CardMovedPayload struct {
	Card         *models.Card   `json:"card"`
	FromColumnID types.ColumnID `json:"from_column_id"`
	ToColumnID   types.ColumnID `json:"to_column_id"`
	FromOrder    int            `json:"from_order"`
	ToOrder      int            `json:"to_order"`
}

// MemberPayload accompanies member:added, member:role_updated and member:removed
type MemberPayload struct {
	UserID types.UserID `json:"user_id"`
	Role   models.Role  `json:"role,omitempty"`
}
