// Package permission decides what an actor may do on a board.
package permission

import (
	"context"
	"fmt"

	"github.com/thenoetrevino/tablero/internal/database"
	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/types"
)

// Capability is an actor's standing on a board, ordered from least to most privileged
type Capability int

const (
	None Capability = iota
	Member
	Admin
	Owner
)

func (c Capability) String() string {
	switch c {
	case Member:
		return "member"
	case Admin:
		return "admin"
	case Owner:
		return "owner"
	default:
		return "none"
	}
}

// Action is something an actor attempts on a board
type Action int

const (
	ActionRead Action = iota
	ActionChat
	ActionEditBoard
	ActionManageMembers
	ActionDeleteBoard
)

var required = map[Action]Capability{
	ActionRead:          Member,
	ActionChat:          Member,
	ActionEditBoard:     Owner,
	ActionManageMembers: Admin,
	ActionDeleteBoard:   Owner,
}

// Required returns the minimum capability for an action
func Required(a Action) Capability {
	if c, ok := required[a]; ok {
		return c
	}
	return Owner
}

// AccessStore loads the owner and membership of a board in one read
type AccessStore interface {
	Access(ctx context.Context, boardID types.BoardID, userID types.UserID) (*database.BoardAccess, error)
}

// Gate resolves capabilities against the primary store. It is stateless.
type Gate struct {
	store AccessStore
}

// NewGate creates a gate reading from store
func NewGate(store AccessStore) *Gate {
	return &Gate{store: store}
}

// Resolve returns the actor's capability on the board.
// A missing board yields ErrNotFound.
func (g *Gate) Resolve(ctx context.Context, boardID types.BoardID, userID types.UserID) (Capability, error) {
	access, err := g.store.Access(ctx, boardID, userID)
	if err != nil {
		return None, err
	}
	return FromAccess(access, userID), nil
}

// FromAccess maps an access row to a capability
func FromAccess(access *database.BoardAccess, userID types.UserID) Capability {
	switch {
	case access.OwnerID == userID:
		return Owner
	case access.Role == models.RoleAdmin:
		return Admin
	case access.Role == models.RoleMember:
		return Member
	default:
		return None
	}
}

// CanAccess reports whether the actor is the owner or a member of the board.
// A missing board is reported as no access rather than an error.
func (g *Gate) CanAccess(ctx context.Context, boardID types.BoardID, userID types.UserID) (bool, error) {
	capability, err := g.Resolve(ctx, boardID, userID)
	if err != nil {
		if models.KindOf(err) == models.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return capability >= Member, nil
}

// Require checks that the actor may perform action on the board.
// Actors without any capability get ErrNotFound so board existence is not
// disclosed; visible boards with too little capability get ErrForbidden.
func (g *Gate) Require(ctx context.Context, boardID types.BoardID, userID types.UserID, action Action) (Capability, error) {
	if userID <= 0 {
		return None, fmt.Errorf("%w: missing actor", models.ErrUnauthorized)
	}

	capability, err := g.Resolve(ctx, boardID, userID)
	if err != nil {
		if models.KindOf(err) == models.ErrNotFound {
			return None, fmt.Errorf("%w: board %d", models.ErrNotFound, boardID)
		}
		return None, fmt.Errorf("failed to resolve access to board %d: %w", boardID, err)
	}

	if capability == None {
		return None, fmt.Errorf("%w: board %d", models.ErrNotFound, boardID)
	}
	if capability < Required(action) {
		return capability, fmt.Errorf("%w: %s cannot perform this action on board %d", models.ErrForbidden, capability, boardID)
	}
	return capability, nil
}
