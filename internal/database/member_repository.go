package database

import (
	"context"
	"fmt"
	"time"

	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/types"
)

// MemberRepo handles board membership persistence
type MemberRepo struct {
	c conn
}

// Add inserts a membership row
func (r *MemberRepo) Add(ctx context.Context, boardID types.BoardID, userID types.UserID, role models.Role, now time.Time) (*models.BoardMember, error) {
	_, err := r.c.exec(ctx,
		"INSERT INTO board_members (board_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)",
		boardID.ToInt(), userID.ToInt(), string(role), now)
	if err != nil {
		return nil, fmt.Errorf("failed to add member %d to board %d: %w", userID, boardID, err)
	}
	return &models.BoardMember{BoardID: boardID, UserID: userID, Role: role, JoinedAt: now}, nil
}

// Get retrieves one membership
func (r *MemberRepo) Get(ctx context.Context, boardID types.BoardID, userID types.UserID) (*models.BoardMember, error) {
	m := &models.BoardMember{}
	var role string
	err := r.c.queryRow(ctx,
		"SELECT board_id, user_id, role, joined_at FROM board_members WHERE board_id = ? AND user_id = ?",
		boardID.ToInt(), userID.ToInt()).Scan(&m.BoardID, &m.UserID, &role, &m.JoinedAt)
	if err != nil {
		return nil, notFound(err, "member", userID.ToInt())
	}
	m.Role = models.Role(role)
	return m, nil
}

// UpdateRole changes a member's role
func (r *MemberRepo) UpdateRole(ctx context.Context, boardID types.BoardID, userID types.UserID, role models.Role) error {
	res, err := r.c.exec(ctx,
		"UPDATE board_members SET role = ? WHERE board_id = ? AND user_id = ?",
		string(role), boardID.ToInt(), userID.ToInt())
	if err != nil {
		return fmt.Errorf("failed to update role of member %d: %w", userID, err)
	}
	return requireAffected(res, "member", userID.ToInt())
}

// Remove deletes a membership
func (r *MemberRepo) Remove(ctx context.Context, boardID types.BoardID, userID types.UserID) error {
	res, err := r.c.exec(ctx,
		"DELETE FROM board_members WHERE board_id = ? AND user_id = ?",
		boardID.ToInt(), userID.ToInt())
	if err != nil {
		return fmt.Errorf("failed to remove member %d: %w", userID, err)
	}
	return requireAffected(res, "member", userID.ToInt())
}

// ListByBoard returns the board's members ordered by join time
func (r *MemberRepo) ListByBoard(ctx context.Context, boardID types.BoardID) ([]*models.BoardMember, error) {
	rows, err := r.c.query(ctx,
		"SELECT board_id, user_id, role, joined_at FROM board_members WHERE board_id = ? ORDER BY joined_at, user_id",
		boardID.ToInt())
	if err != nil {
		return nil, fmt.Errorf("failed to list members of board %d: %w", boardID, err)
	}
	defer rows.Close()

	var members []*models.BoardMember
	for rows.Next() {
		m := &models.BoardMember{}
		var role string
		if err := rows.Scan(&m.BoardID, &m.UserID, &role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.Role = models.Role(role)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}
	return members, nil
}
