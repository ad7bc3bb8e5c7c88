package board

import (
	"fmt"

	"github.com/thenoetrevino/tablero/internal/models"
)

// Board-related errors
var (
	// Validation errors
	ErrEmptyName      = fmt.Errorf("%w: board name cannot be empty", models.ErrInvalid)
	ErrNameTooLong    = fmt.Errorf("%w: board name cannot exceed %d characters", models.ErrInvalid, models.MaxTitleLength)
	ErrInvalidBoardID = fmt.Errorf("%w: invalid board ID", models.ErrInvalid)
	ErrInvalidUserID  = fmt.Errorf("%w: invalid user ID", models.ErrInvalid)
	ErrInvalidRole    = fmt.Errorf("%w: role must be ADMIN or MEMBER", models.ErrInvalid)
	ErrOwnerMember    = fmt.Errorf("%w: the owner cannot be a member of their own board", models.ErrInvalid)

	// Business logic errors
	ErrAlreadyMember   = fmt.Errorf("%w: user is already a member", models.ErrConflict)
	ErrMemberNotFound  = fmt.Errorf("%w: member not found", models.ErrNotFound)
	ErrAdminsOwnerOnly = fmt.Errorf("%w: only the owner can manage admins", models.ErrForbidden)
)
