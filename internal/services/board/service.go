package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/thenoetrevino/tablero/internal/cache"
	"github.com/thenoetrevino/tablero/internal/database"
	"github.com/thenoetrevino/tablero/internal/events"
	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/permission"
	"github.com/thenoetrevino/tablero/internal/types"
)

// Service defines board and membership operations
type Service interface {
	// Read operations
	GetBoard(ctx context.Context, boardID types.BoardID, actorID types.UserID) (*models.BoardDetail, error)
	ListBoards(ctx context.Context, actorID types.UserID) ([]*models.Board, error)
	ListMembers(ctx context.Context, boardID types.BoardID, actorID types.UserID) ([]*models.BoardMember, error)

	// Write operations
	CreateBoard(ctx context.Context, name string, ownerID types.UserID) (*models.Board, error)
	DeleteBoard(ctx context.Context, boardID types.BoardID, actorID types.UserID) error

	// Membership
	AddMember(ctx context.Context, req MemberRequest) (*models.BoardMember, error)
	UpdateMemberRole(ctx context.Context, req MemberRequest) (*models.BoardMember, error)
	RemoveMember(ctx context.Context, boardID types.BoardID, actorID, userID types.UserID) error
}

// MemberRequest identifies a membership change made by ActorID
type MemberRequest struct {
	BoardID types.BoardID
	ActorID types.UserID
	UserID  types.UserID
	Role    models.Role
}

type service struct {
	repo      *database.Repository
	gate      *permission.Gate
	locks     *database.BoardLocks
	publisher events.Publisher
	messages  cache.MessageCache
	now       func() time.Time
}

// NewService creates a new board service. messages may be nil; when set,
// a deleted board's cached chat is dropped with it.
func NewService(repo *database.Repository, gate *permission.Gate, locks *database.BoardLocks, publisher events.Publisher, messages cache.MessageCache) Service {
	return &service{
		repo:      repo,
		gate:      gate,
		locks:     locks,
		publisher: publisher,
		messages:  messages,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateBoard creates an empty board owned by ownerID
func (s *service) CreateBoard(ctx context.Context, name string, ownerID types.UserID) (*models.Board, error) {
	if ownerID <= 0 {
		return nil, fmt.Errorf("%w: missing actor", models.ErrUnauthorized)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if utf8.RuneCountInString(name) > models.MaxTitleLength {
		return nil, ErrNameTooLong
	}

	board, err := s.repo.Boards.Create(ctx, name, ownerID, s.now())
	if err != nil {
		return nil, err
	}
	slog.Info("board created", "board_id", board.ID, "owner_id", ownerID)
	return board, nil
}

// GetBoard materialises the board with its ordered columns, their ordered cards and its members
func (s *service) GetBoard(ctx context.Context, boardID types.BoardID, actorID types.UserID) (*models.BoardDetail, error) {
	if boardID <= 0 {
		return nil, ErrInvalidBoardID
	}
	if _, err := s.gate.Require(ctx, boardID, actorID, permission.ActionRead); err != nil {
		return nil, err
	}

	return s.repo.LoadBoard(ctx, boardID)
}

// ListBoards returns the boards the actor owns or belongs to
func (s *service) ListBoards(ctx context.Context, actorID types.UserID) ([]*models.Board, error) {
	if actorID <= 0 {
		return nil, fmt.Errorf("%w: missing actor", models.ErrUnauthorized)
	}
	return s.repo.Boards.ListForUser(ctx, actorID)
}

// ListMembers returns the board's members in join order
func (s *service) ListMembers(ctx context.Context, boardID types.BoardID, actorID types.UserID) ([]*models.BoardMember, error) {
	if boardID <= 0 {
		return nil, ErrInvalidBoardID
	}
	if _, err := s.gate.Require(ctx, boardID, actorID, permission.ActionRead); err != nil {
		return nil, err
	}
	return s.repo.Members.ListByBoard(ctx, boardID)
}

// DeleteBoard removes the board with everything on it
func (s *service) DeleteBoard(ctx context.Context, boardID types.BoardID, actorID types.UserID) error {
	if boardID <= 0 {
		return ErrInvalidBoardID
	}
	if _, err := s.gate.Require(ctx, boardID, actorID, permission.ActionDeleteBoard); err != nil {
		return err
	}

	unlock := s.locks.Lock(boardID)
	defer unlock()

	if err := s.repo.RunInTx(ctx, func(q *database.Queries) error {
		return q.Boards.Delete(ctx, boardID)
	}); err != nil {
		return fmt.Errorf("failed to delete board %d: %w", boardID, err)
	}

	if s.messages != nil {
		if err := s.messages.Invalidate(ctx, boardID); err != nil {
			slog.Warn("failed to drop cached messages", "board_id", boardID, "error", err)
		}
	}
	slog.Info("board deleted", "board_id", boardID, "actor_id", actorID)
	return nil
}

// AddMember grants a user a role on the board
func (s *service) AddMember(ctx context.Context, req MemberRequest) (*models.BoardMember, error) {
	if err := validateMemberRequest(req); err != nil {
		return nil, err
	}
	capability, err := s.gate.Require(ctx, req.BoardID, req.ActorID, permission.ActionManageMembers)
	if err != nil {
		return nil, err
	}
	if req.Role == models.RoleAdmin && capability < permission.Owner {
		return nil, ErrAdminsOwnerOnly
	}

	unlock := s.locks.Lock(req.BoardID)
	defer unlock()

	var member *models.BoardMember
	err = s.repo.RunInTx(ctx, func(q *database.Queries) error {
		board, err := q.Boards.GetByID(ctx, req.BoardID)
		if err != nil {
			return err
		}
		if board.OwnerID == req.UserID {
			return ErrOwnerMember
		}

		if _, err := q.Members.Get(ctx, req.BoardID, req.UserID); err == nil {
			return ErrAlreadyMember
		} else if !errors.Is(err, models.ErrNotFound) {
			return err
		}

		member, err = q.Members.Add(ctx, req.BoardID, req.UserID, req.Role, s.now())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	events.Emit(ctx, s.publisher, events.MemberAdded, req.BoardID, events.MemberPayload{UserID: req.UserID, Role: req.Role})
	return member, nil
}

// UpdateMemberRole changes an existing member's role
func (s *service) UpdateMemberRole(ctx context.Context, req MemberRequest) (*models.BoardMember, error) {
	if err := validateMemberRequest(req); err != nil {
		return nil, err
	}
	capability, err := s.gate.Require(ctx, req.BoardID, req.ActorID, permission.ActionManageMembers)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(req.BoardID)
	defer unlock()

	var member *models.BoardMember
	err = s.repo.RunInTx(ctx, func(q *database.Queries) error {
		current, err := q.Members.Get(ctx, req.BoardID, req.UserID)
		if err != nil {
			return memberNotFound(err)
		}
		if (current.Role == models.RoleAdmin || req.Role == models.RoleAdmin) && capability < permission.Owner {
			return ErrAdminsOwnerOnly
		}

		if err := q.Members.UpdateRole(ctx, req.BoardID, req.UserID, req.Role); err != nil {
			return err
		}
		current.Role = req.Role
		member = current
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update member role: %w", err)
	}

	events.Emit(ctx, s.publisher, events.MemberRoleUpdated, req.BoardID, events.MemberPayload{UserID: req.UserID, Role: req.Role})
	return member, nil
}

// RemoveMember revokes a membership. Members may always remove themselves.
func (s *service) RemoveMember(ctx context.Context, boardID types.BoardID, actorID, userID types.UserID) error {
	if boardID <= 0 {
		return ErrInvalidBoardID
	}
	if userID <= 0 {
		return ErrInvalidUserID
	}

	action := permission.ActionManageMembers
	if actorID == userID {
		action = permission.ActionRead
	}
	capability, err := s.gate.Require(ctx, boardID, actorID, action)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(boardID)
	defer unlock()

	err = s.repo.RunInTx(ctx, func(q *database.Queries) error {
		current, err := q.Members.Get(ctx, boardID, userID)
		if err != nil {
			if actorID == userID && capability == permission.Owner {
				return ErrOwnerMember
			}
			return memberNotFound(err)
		}
		if actorID != userID && current.Role == models.RoleAdmin && capability < permission.Owner {
			return ErrAdminsOwnerOnly
		}
		return q.Members.Remove(ctx, boardID, userID)
	})
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	events.Emit(ctx, s.publisher, events.MemberRemoved, boardID, events.MemberPayload{UserID: userID})
	return nil
}

func validateMemberRequest(req MemberRequest) error {
	if req.BoardID <= 0 {
		return ErrInvalidBoardID
	}
	if req.UserID <= 0 {
		return ErrInvalidUserID
	}
	if !req.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

func memberNotFound(err error) error {
	if models.KindOf(err) == models.ErrNotFound {
		return ErrMemberNotFound
	}
	return err
}
