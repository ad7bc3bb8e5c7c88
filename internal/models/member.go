package models

import (
	"time"

	"github.com/thenoetrevino/tablero/internal/types"
)

// Role is the membership role of a non-owner user on a board
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// Valid reports whether the role is one of the known membership roles
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// BoardMember is a user's membership on a board. Ownership is tracked on the
// board itself, so the owner never has a member row.
type BoardMember struct {
	BoardID  types.BoardID `json:"board_id"`
	UserID   types.UserID  `json:"user_id"`
	Role     Role          `json:"role"`
	JoinedAt time.Time     `json:"joined_at"`
}
