package card

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

// Service defines all card-related business operations
type Service interface {
	// Read operations
	GetCard(ctx context.Context, cardID types.CardID, actorID types.UserID) (*models.Card, error)
	ListCards(ctx context.Context, columnID types.ColumnID, actorID types.UserID) ([]*models.Card, error)

	// Write operations
	CreateCard(ctx context.Context, req CreateCardRequest) (*models.Card, error)
	UpdateCard(ctx context.Context, req UpdateCardRequest) (*models.Card, error)
	DeleteCard(ctx context.Context, cardID types.CardID, actorID types.UserID) error

	// Movement
	MoveCard(ctx context.Context, req MoveCardRequest) (*models.Card, error)
}

// CreateCardRequest encapsulates data for creating a card
type CreateCardRequest struct {
	ColumnID    types.ColumnID
	ActorID     types.UserID
	Title       string
	Description string
	Order       *int // Optional: insert at this order (nil = append to end)
}

// UpdateCardRequest encapsulates data for updating a card.
// Nil fields are left unchanged.
type UpdateCardRequest struct {
	CardID      types.CardID
	ActorID     types.UserID
	Title       *string
	Description *string
}

// MoveCardRequest relocates a card to DestOrder within DestColumnID.
// The destination may be the card's current column.
type MoveCardRequest struct {
	CardID       types.CardID
	ActorID      types.UserID
	DestColumnID types.ColumnID
	DestOrder    int
}

// service implements Service on top of the repository and the position ledger
type service struct {
	repo      *database.Repository
	gate      *permission.Gate
	locks     *database.BoardLocks
	publisher events.Publisher
	now       func() time.Time
}

// NewService creates a new card service
func NewService(repo *database.Repository, gate *permission.Gate, locks *database.BoardLocks, publisher events.Publisher) Service {
	return &service{
		repo:      repo,
		gate:      gate,
		locks:     locks,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GetCard retrieves a single card
func (s *service) GetCard(ctx context.Context, cardID types.CardID, actorID types.UserID) (*models.Card, error) {
	if cardID <= 0 {
		return nil, ErrInvalidCardID
	}
	loc, err := s.locate(ctx, cardID, actorID, permission.ActionRead)
	if err != nil {
		return nil, err
	}
	return &loc.Card, nil
}

// ListCards retrieves the column's cards in order
func (s *service) ListCards(ctx context.Context, columnID types.ColumnID, actorID types.UserID) ([]*models.Card, error) {
	if columnID <= 0 {
		return nil, ErrInvalidColumnID
	}
	if _, err := s.columnBoard(ctx, columnID, actorID, permission.ActionRead); err != nil {
		return nil, err
	}
	return s.repo.Cards.ListByColumn(ctx, columnID)
}

// CreateCard appends a card to its column, or inserts it at the requested order
func (s *service) CreateCard(ctx context.Context, req CreateCardRequest) (*models.Card, error) {
	if err := s.validateCreateCard(req); err != nil {
		return nil, err
	}

	boardID, err := s.columnBoard(ctx, req.ColumnID, req.ActorID, permission.ActionEditBoard)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(boardID)
	defer unlock()

	var card *models.Card
	err = s.repo.RunInTx(ctx, func(q *database.Queries) error {
		if _, err := q.Columns.GetForUpdate(ctx, req.ColumnID); err != nil {
			return columnNotFound(err)
		}

		count, err := q.Ledger.Count(ctx, database.CardSiblings, req.ColumnID.ToInt())
		if err != nil {
			return err
		}

		order := count
		if req.Order != nil {
			order = *req.Order
			if order < 0 || order > count {
				return fmt.Errorf("%w: %d not in [0,%d]", ErrOrderOutOfRange, order, count)
			}
			if err := q.Ledger.OpenGap(ctx, database.CardSiblings, req.ColumnID.ToInt(), order); err != nil {
				return err
			}
		}

		card, err = q.Cards.Create(ctx, req.ColumnID, strings.TrimSpace(req.Title), strings.TrimSpace(req.Description), order, s.now())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}

	events.Emit(ctx, s.publisher, events.CardCreated, boardID, events.CardPayload{Card: card})
	return card, nil
}

// UpdateCard changes a card's title and/or description. Its position is untouched.
func (s *service) UpdateCard(ctx context.Context, req UpdateCardRequest) (*models.Card, error) {
	if err := s.validateUpdateCard(req); err != nil {
		return nil, err
	}

	loc, err := s.locate(ctx, req.CardID, req.ActorID, permission.ActionEditBoard)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(loc.BoardID)
	defer unlock()

	var card *models.Card
	err = s.repo.RunInTx(ctx, func(q *database.Queries) error {
		current, err := q.Cards.Locate(ctx, req.CardID)
		if err != nil {
			return cardNotFound(err)
		}

		title, description := current.Card.Title, current.Card.Description
		if req.Title != nil {
			title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			description = strings.TrimSpace(*req.Description)
		}

		now := s.now()
		if err := q.Cards.Update(ctx, req.CardID, title, description, now); err != nil {
			return err
		}

		card = &current.Card
		card.Title, card.Description, card.UpdatedAt = title, description, now
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update card %d: %w", req.CardID, err)
	}

	events.Emit(ctx, s.publisher, events.CardUpdated, loc.BoardID, events.CardPayload{Card: card})
	return card, nil
}

// DeleteCard removes a card and closes the gap it leaves in its column
func (s *service) DeleteCard(ctx context.Context, cardID types.CardID, actorID types.UserID) error {
	if cardID <= 0 {
		return ErrInvalidCardID
	}

	loc, err := s.locate(ctx, cardID, actorID, permission.ActionEditBoard)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(loc.BoardID)
	defer unlock()

	var removed models.Card
	err = s.repo.RunInTx(ctx, func(q *database.Queries) error {
		current, err := q.Cards.Locate(ctx, cardID)
		if err != nil {
			return cardNotFound(err)
		}
		removed = current.Card

		if err := q.Cards.Delete(ctx, cardID); err != nil {
			return err
		}
		return q.Ledger.CloseGap(ctx, database.CardSiblings, removed.ColumnID.ToInt(), removed.Order)
	})
	if err != nil {
		return fmt.Errorf("failed to delete card %d: %w", cardID, err)
	}

	events.Emit(ctx, s.publisher, events.CardDeleted, loc.BoardID, events.CardDeletedPayload{
		CardID:   cardID,
		ColumnID: removed.ColumnID,
		Order:    removed.Order,
	})
	return nil
}

// MoveCard relocates a card within its column or into another column of the
// same board. Source and destination orders are re-read and re-validated
// inside the transaction, and either every shift commits or none does.
func (s *service) MoveCard(ctx context.Context, req MoveCardRequest) (*models.Card, error) {
	if err := s.validateMoveCard(req); err != nil {
		return nil, err
	}

	loc, err := s.locate(ctx, req.CardID, req.ActorID, permission.ActionEditBoard)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(loc.BoardID)
	defer unlock()

	var (
		card    *models.Card
		payload events.CardMovedPayload
	)
	err = s.repo.RunInTx(ctx, func(q *database.Queries) error {
		current, err := q.Cards.Locate(ctx, req.CardID)
		if err != nil {
			return cardNotFound(err)
		}

		dest, err := q.Columns.GetForUpdate(ctx, req.DestColumnID)
		if err != nil {
			if models.KindOf(err) == models.ErrNotFound {
				return fmt.Errorf("%w: column %d does not exist", ErrInvalidDestination, req.DestColumnID)
			}
			return err
		}
		if dest.BoardID != current.BoardID {
			return fmt.Errorf("%w: column %d", ErrInvalidDestination, req.DestColumnID)
		}

		source := current.Card.ColumnID
		fromOrder := current.Card.Order

		if source == dest.ID {
			if err := s.relocateWithin(ctx, q, source, fromOrder, req.DestOrder); err != nil {
				return err
			}
		} else {
			if err := s.transfer(ctx, q, source, fromOrder, dest.ID, req.DestOrder); err != nil {
				return err
			}
		}

		now := s.now()
		if err := q.Cards.Place(ctx, req.CardID, dest.ID, req.DestOrder, now); err != nil {
			return err
		}

		card = &current.Card
		card.ColumnID, card.Order, card.UpdatedAt = dest.ID, req.DestOrder, now
		payload = events.CardMovedPayload{
			Card:         card,
			FromColumnID: source,
			ToColumnID:   dest.ID,
			FromOrder:    fromOrder,
			ToOrder:      req.DestOrder,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to move card %d: %w", req.CardID, err)
	}

	events.Emit(ctx, s.publisher, events.CardMoved, loc.BoardID, payload)
	return card, nil
}

// relocateWithin shifts only the cards between the two positions.
// The moving card keeps its old order until Place rewrites it.
func (s *service) relocateWithin(ctx context.Context, q *database.Queries, columnID types.ColumnID, from, to int) error {
	count, err := q.Ledger.Count(ctx, database.CardSiblings, columnID.ToInt())
	if err != nil {
		return err
	}
	if to > count-1 {
		return fmt.Errorf("%w: %d not in [0,%d]", ErrOrderOutOfRange, to, count-1)
	}
	return q.Ledger.Relocate(ctx, database.CardSiblings, columnID.ToInt(), from, to)
}

// transfer closes the gap in the source column, then opens one in the destination
func (s *service) transfer(ctx context.Context, q *database.Queries, source types.ColumnID, from int, dest types.ColumnID, to int) error {
	count, err := q.Ledger.Count(ctx, database.CardSiblings, dest.ToInt())
	if err != nil {
		return err
	}
	if to > count {
		return fmt.Errorf("%w: %d not in [0,%d]", ErrOrderOutOfRange, to, count)
	}
	if err := q.Ledger.CloseGap(ctx, database.CardSiblings, source.ToInt(), from); err != nil {
		return err
	}
	return q.Ledger.OpenGap(ctx, database.CardSiblings, dest.ToInt(), to)
}

// locate loads the card with its board and checks the actor may perform action.
// Unknown cards and inaccessible boards both surface as NotFound.
func (s *service) locate(ctx context.Context, cardID types.CardID, actorID types.UserID, action permission.Action) (*models.CardLocation, error) {
	if actorID <= 0 {
		return nil, fmt.Errorf("%w: missing actor", models.ErrUnauthorized)
	}
	loc, err := s.repo.Cards.Locate(ctx, cardID)
	if err != nil {
		return nil, cardNotFound(err)
	}
	if _, err := s.gate.Require(ctx, loc.BoardID, actorID, action); err != nil {
		return nil, err
	}
	return loc, nil
}

// columnBoard resolves the column's board and checks the actor may perform action
func (s *service) columnBoard(ctx context.Context, columnID types.ColumnID, actorID types.UserID, action permission.Action) (types.BoardID, error) {
	if actorID <= 0 {
		return 0, fmt.Errorf("%w: missing actor", models.ErrUnauthorized)
	}
	column, err := s.repo.Columns.GetByID(ctx, columnID)
	if err != nil {
		return 0, columnNotFound(err)
	}
	if _, err := s.gate.Require(ctx, column.BoardID, actorID, action); err != nil {
		return 0, err
	}
	return column.BoardID, nil
}

func cardNotFound(err error) error {
	if models.KindOf(err) == models.ErrNotFound {
		return ErrCardNotFound
	}
	return err
}

func columnNotFound(err error) error {
	if models.KindOf(err) == models.ErrNotFound {
		return ErrColumnNotFound
	}
	return err
}

// ============================================================================
// VALIDATION
// ============================================================================

func (s *service) validateCreateCard(req CreateCardRequest) error {
	if req.ColumnID <= 0 {
		return ErrInvalidColumnID
	}
	if err := validateTitle(req.Title); err != nil {
		return err
	}
	return validateDescription(req.Description)
}

func (s *service) validateUpdateCard(req UpdateCardRequest) error {
	if req.CardID <= 0 {
		return ErrInvalidCardID
	}
	if req.Title == nil && req.Description == nil {
		return ErrNothingToUpdate
	}
	if req.Title != nil {
		if err := validateTitle(*req.Title); err != nil {
			return err
		}
	}
	if req.Description != nil {
		return validateDescription(*req.Description)
	}
	return nil
}

func (s *service) validateMoveCard(req MoveCardRequest) error {
	if req.CardID <= 0 {
		return ErrInvalidCardID
	}
	if req.DestColumnID <= 0 {
		return ErrInvalidColumnID
	}
	if req.DestOrder < 0 {
		return fmt.Errorf("%w: %d", ErrOrderOutOfRange, req.DestOrder)
	}
	return nil
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

func validateDescription(description string) error {
	if utf8.RuneCountInString(strings.TrimSpace(description)) > models.MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}
