package card

import (
	"fmt"

	"github.com/thenoetrevino/tablero/internal/models"
)

// Card-related errors
var (
	// Validation errors
	ErrEmptyTitle         = fmt.Errorf("%w: card title cannot be empty", models.ErrInvalid)
	ErrTitleTooLong       = fmt.Errorf("%w: card title cannot exceed %d characters", models.ErrInvalid, models.MaxTitleLength)
	ErrDescriptionTooLong = fmt.Errorf("%w: card description cannot exceed %d characters", models.ErrInvalid, models.MaxDescriptionLength)
	ErrInvalidCardID      = fmt.Errorf("%w: invalid card ID", models.ErrInvalid)
	ErrInvalidColumnID    = fmt.Errorf("%w: invalid column ID", models.ErrInvalid)
	ErrOrderOutOfRange    = fmt.Errorf("%w: order out of range", models.ErrInvalid)
	ErrInvalidDestination = fmt.Errorf("%w: invalid destination column", models.ErrInvalid)
	ErrNothingToUpdate    = fmt.Errorf("%w: no fields to update", models.ErrInvalid)

	// Business logic errors
	ErrCardNotFound   = fmt.Errorf("%w: card not found", models.ErrNotFound)
	ErrColumnNotFound = fmt.Errorf("%w: column not found", models.ErrNotFound)
)
