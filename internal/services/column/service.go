package column

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/thenoetrevino/tablero/internal/database"
	"github.com/thenoetrevino/tablero/internal/events"
	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/permission"
	"github.com/thenoetrevino/tablero/internal/types"
)

// Service defines all column-related business operations
type Service interface {
	// Read operations
	ListColumns(ctx context.Context, boardID types.BoardID, actorID types.UserID) ([]*models.Column, error)

	// Write operations
	CreateColumn(ctx context.Context, req CreateColumnRequest) (*models.Column, error)
	UpdateColumn(ctx context.Context, req UpdateColumnRequest) (*models.Column, error)
	DeleteColumn(ctx context.Context, columnID types.ColumnID, actorID types.UserID) error
	ReorderColumn(ctx context.Context, columnID types.ColumnID, actorID types.UserID, newOrder int) (*models.Column, error)
}

// CreateColumnRequest encapsulates data for creating a column
type CreateColumnRequest struct {
	BoardID types.BoardID
	ActorID types.UserID
	Title   string
	Order   *int // Optional: insert at this order (nil = append to end)
}

// UpdateColumnRequest encapsulates data for renaming a column
type UpdateColumnRequest struct {
	ColumnID types.ColumnID
	ActorID  types.UserID
	Title    string
}

// service implements Service on top of the repository and the position ledger
type service struct {
	repo      *database.Repository
	gate      *permission.Gate
	locks     *database.BoardLocks
	publisher events.Publisher
	now       func() time.Time
}

// NewService creates a new column service
func NewService(repo *database.Repository, gate *permission.Gate, locks *database.BoardLocks, publisher events.Publisher) Service {
	return &service{
		repo:      repo,
		gate:      gate,
		locks:     locks,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ListColumns retrieves the board's columns in order
func (s *service) ListColumns(ctx context.Context, boardID types.BoardID, actorID types.UserID) ([]*models.Column, error) {
	if boardID <= 0 {
		return nil, ErrInvalidBoardID
	}
	if _, err := s.gate.Require(ctx, boardID, actorID, permission.ActionRead); err != nil {
		return nil, err
	}
	return s.repo.Columns.ListByBoard(ctx, boardID)
}

// CreateColumn appends a column, or inserts it at the requested order
func (s *service) CreateColumn(ctx context.Context, req CreateColumnRequest) (*models.Column, error) {
	if err := s.validateCreateColumn(req); err != nil {
		return nil, err
	}
	if _, err := s.gate.Require(ctx, req.BoardID, req.ActorID, permission.ActionEditBoard); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(req.BoardID)
	defer unlock()

	var column *models.Column
	err := s.repo.RunInTx(ctx, func(q *database.Queries) error {
		count, err := q.Ledger.Count(ctx, database.ColumnSiblings, req.BoardID.ToInt())
		if err != nil {
			return err
		}

		order := count
		if req.Order != nil {
			order = *req.Order
			if order < 0 || order > count {
				return fmt.Errorf("%w: %d not in [0,%d]", ErrOrderOutOfRange, order, count)
			}
			if err := q.Ledger.OpenGap(ctx, database.ColumnSiblings, req.BoardID.ToInt(), order); err != nil {
				return err
			}
		}

		column, err = q.Columns.Create(ctx, req.BoardID, strings.TrimSpace(req.Title), order, s.now())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create column: %w", err)
	}

	events.Emit(ctx, s.publisher, events.ColumnCreated, req.BoardID, events.ColumnPayload{Column: column})
	return column, nil
}

// UpdateColumn renames a column
func (s *service) UpdateColumn(ctx context.Context, req UpdateColumnRequest) (*models.Column, error) {
	if req.ColumnID <= 0 {
		return nil, ErrInvalidColumnID
	}
	if err := validateTitle(req.Title); err != nil {
		return nil, err
	}

	boardID, err := s.authorize(ctx, req.ColumnID, req.ActorID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(boardID)
	defer unlock()

	var column *models.Column
	err = s.repo.RunInTx(ctx, func(q *database.Queries) error {
		if err := q.Columns.UpdateTitle(ctx, req.ColumnID, strings.TrimSpace(req.Title)); err != nil {
			return err
		}
		column, err = q.Columns.GetByID(ctx, req.ColumnID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update column %d: %w", req.ColumnID, err)
	}

	events.Emit(ctx, s.publisher, events.ColumnUpdated, boardID, events.ColumnPayload{Column: column})
	return column, nil
}

// DeleteColumn removes a column with its cards and closes the gap it leaves
func (s *service) DeleteColumn(ctx context.Context, columnID types.ColumnID, actorID types.UserID) error {
	if columnID <= 0 {
		return ErrInvalidColumnID
	}

	boardID, err := s.authorize(ctx, columnID, actorID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(boardID)
	defer unlock()

	var removedOrder int
	err = s.repo.RunInTx(ctx, func(q *database.Queries) error {
		column, err := q.Columns.GetForUpdate(ctx, columnID)
		if err != nil {
			return err
		}
		removedOrder = column.Order

		if err := q.Columns.Delete(ctx, columnID); err != nil {
			return err
		}
		return q.Ledger.CloseGap(ctx, database.ColumnSiblings, boardID.ToInt(), removedOrder)
	})
	if err != nil {
		return fmt.Errorf("failed to delete column %d: %w", columnID, err)
	}

	events.Emit(ctx, s.publisher, events.ColumnDeleted, boardID, events.ColumnDeletedPayload{ColumnID: columnID, Order: removedOrder})
	return nil
}

// ReorderColumn moves a column to newOrder among its board's columns
func (s *service) ReorderColumn(ctx context.Context, columnID types.ColumnID, actorID types.UserID, newOrder int) (*models.Column, error) {
	if columnID <= 0 {
		return nil, ErrInvalidColumnID
	}
	if newOrder < 0 {
		return nil, fmt.Errorf("%w: %d", ErrOrderOutOfRange, newOrder)
	}

	boardID, err := s.authorize(ctx, columnID, actorID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(boardID)
	defer unlock()

	var (
		column    *models.Column
		fromOrder int
	)
	err = s.repo.RunInTx(ctx, func(q *database.Queries) error {
		current, err := q.Columns.GetForUpdate(ctx, columnID)
		if err != nil {
			return err
		}
		fromOrder = current.Order

		count, err := q.Ledger.Count(ctx, database.ColumnSiblings, boardID.ToInt())
		if err != nil {
			return err
		}
		if newOrder > count-1 {
			return fmt.Errorf("%w: %d not in [0,%d]", ErrOrderOutOfRange, newOrder, count-1)
		}

		if err := q.Ledger.Relocate(ctx, database.ColumnSiblings, boardID.ToInt(), fromOrder, newOrder); err != nil {
			return err
		}
		if err := q.Columns.SetOrder(ctx, columnID, newOrder); err != nil {
			return err
		}

		column = current
		column.Order = newOrder
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reorder column %d: %w", columnID, err)
	}

	toOrder := newOrder
	events.Emit(ctx, s.publisher, events.ColumnUpdated, boardID, events.ColumnPayload{
		Column:    column,
		FromOrder: &fromOrder,
		ToOrder:   &toOrder,
	})
	return column, nil
}

// authorize resolves the column's board and requires edit rights on it.
// Unknown columns and inaccessible boards both surface as NotFound.
func (s *service) authorize(ctx context.Context, columnID types.ColumnID, actorID types.UserID) (types.BoardID, error) {
	if actorID <= 0 {
		return 0, fmt.Errorf("%w: missing actor", models.ErrUnauthorized)
	}
	column, err := s.repo.Columns.GetByID(ctx, columnID)
	if err != nil {
		if models.KindOf(err) == models.ErrNotFound {
			return 0, ErrColumnNotFound
		}
		return 0, err
	}
	if _, err := s.gate.Require(ctx, column.BoardID, actorID, permission.ActionEditBoard); err != nil {
		return 0, err
	}
	return column.BoardID, nil
}

func (s *service) validateCreateColumn(req CreateColumnRequest) error {
	if req.BoardID <= 0 {
		return ErrInvalidBoardID
	}
	return validateTitle(req.Title)
}

func validateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	if utf8.RuneCountInString(title) > models.MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}
