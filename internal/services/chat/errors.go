package chat

import (
	"fmt"

	"github.com/thenoetrevino/tablero/internal/models"
)

// Chat-related errors
var (
	// Validation errors
	ErrEmptyMessage   = fmt.Errorf("%w: message cannot be empty", models.ErrInvalid)
	ErrMessageTooLong = fmt.Errorf("%w: message exceeds the maximum length", models.ErrInvalid)
	ErrUnsafeContent  = fmt.Errorf("%w: message contains markup or script", models.ErrInvalid)
	ErrInvalidBoardID = fmt.Errorf("%w: invalid board ID", models.ErrInvalid)

	// Throttling
	ErrTooManyMessages = fmt.Errorf("%w: too many messages, slow down", models.ErrRateLimited)
)
