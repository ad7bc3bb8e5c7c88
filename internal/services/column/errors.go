package column

import (
	"fmt"

	"github.com/thenoetrevino/tablero/internal/models"
)

// Column-related errors
var (
	// Validation errors
	ErrEmptyTitle      = fmt.Errorf("%w: title cannot be empty", models.ErrInvalid)
	ErrTitleTooLong    = fmt.Errorf("%w: title cannot exceed %d characters", models.ErrInvalid, models.MaxTitleLength)
	ErrInvalidColumnID = fmt.Errorf("%w: invalid column ID", models.ErrInvalid)
	ErrInvalidBoardID  = fmt.Errorf("%w: invalid board ID", models.ErrInvalid)
	ErrOrderOutOfRange = fmt.Errorf("%w: order out of range", models.ErrInvalid)

	// Business logic errors
	ErrColumnNotFound = fmt.Errorf("%w: column not found", models.ErrNotFound)
)
