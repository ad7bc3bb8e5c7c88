package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/types"
)

// BoardRepo handles board persistence
type BoardRepo struct {
	c conn
}

// BoardAccess is the owner of a board and the actor's membership role on it.
// Role is empty when the actor is not a member.
type BoardAccess struct {
	OwnerID types.UserID
	Role    models.Role
}

const boardColumns = "id, name, owner_id, created_at"

// Create inserts a new board owned by ownerID
func (r *BoardRepo) Create(ctx context.Context, name string, ownerID types.UserID, now time.Time) (*models.Board, error) {
	id, err := r.c.insertID(ctx,
		"INSERT INTO boards (name, owner_id, created_at) VALUES (?, ?, ?)",
		name, ownerID.ToInt(), now)
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}
	return &models.Board{ID: types.BoardID(id), Name: name, OwnerID: ownerID, CreatedAt: now}, nil
}

// GetByID retrieves a board
func (r *BoardRepo) GetByID(ctx context.Context, id types.BoardID) (*models.Board, error) {
	b := &models.Board{}
	err := r.c.queryRow(ctx, "SELECT "+boardColumns+" FROM boards WHERE id = ?", id.ToInt()).
		Scan(&b.ID, &b.Name, &b.OwnerID, &b.CreatedAt)
	if err != nil {
		return nil, notFound(err, "board", id.ToInt())
	}
	return b, nil
}

// ListForUser returns every board the user owns or is a member of
func (r *BoardRepo) ListForUser(ctx context.Context, userID types.UserID) ([]*models.Board, error) {
	rows, err := r.c.query(ctx, `
		SELECT b.id, b.name, b.owner_id, b.created_at
		FROM boards b
		LEFT JOIN board_members m ON m.board_id = b.id AND m.user_id = ?
		WHERE b.owner_id = ? OR m.user_id IS NOT NULL
		ORDER BY b.id`, userID.ToInt(), userID.ToInt())
	if err != nil {
		return nil, fmt.Errorf("failed to list boards for user %d: %w", userID, err)
	}
	defer rows.Close()

	var boards []*models.Board
	for rows.Next() {
		b := &models.Board{}
		if err := rows.Scan(&b.ID, &b.Name, &b.OwnerID, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan board: %w", err)
		}
		boards = append(boards, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating boards: %w", err)
	}
	return boards, nil
}

// ListIDs returns every board id, used by ledger verification
func (r *BoardRepo) ListIDs(ctx context.Context) ([]types.BoardID, error) {
	rows, err := r.c.query(ctx, "SELECT id FROM boards ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	defer rows.Close()

	var ids []types.BoardID
	for rows.Next() {
		var id types.BoardID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan board id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Access loads the owner and the user's membership in one read
func (r *BoardRepo) Access(ctx context.Context, boardID types.BoardID, userID types.UserID) (*BoardAccess, error) {
	var (
		ownerID types.UserID
		role    sql.NullString
	)
	err := r.c.queryRow(ctx, `
		SELECT b.owner_id, m.role
		FROM boards b
		LEFT JOIN board_members m ON m.board_id = b.id AND m.user_id = ?
		WHERE b.id = ?`, userID.ToInt(), boardID.ToInt()).Scan(&ownerID, &role)
	if err != nil {
		return nil, notFound(err, "board", boardID.ToInt())
	}

	access := &BoardAccess{OwnerID: ownerID}
	if role.Valid {
		access.Role = models.Role(role.String)
	}
	return access, nil
}

// Delete removes a board. Columns, cards, members and messages cascade.
func (r *BoardRepo) Delete(ctx context.Context, id types.BoardID) error {
	res, err := r.c.exec(ctx, "DELETE FROM boards WHERE id = ?", id.ToInt())
	if err != nil {
		return fmt.Errorf("failed to delete board %d: %w", id, err)
	}
	return requireAffected(res, "board", id.ToInt())
}

// Exists reports whether the board exists
func (r *BoardRepo) Exists(ctx context.Context, id types.BoardID) (bool, error) {
	var one int
	err := r.c.queryRow(ctx, "SELECT 1 FROM boards WHERE id = ?", id.ToInt()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check board %d: %w", id, err)
	}
	return true, nil
}
