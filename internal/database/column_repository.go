package database

import (
	"context"
	"fmt"
	"time"

	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/types"
)

// ColumnRepo handles column persistence. Orders are maintained by the Ledger.
type ColumnRepo struct {
	c conn
}

const columnColumns = "id, board_id, title, position, created_at"

func scanColumn(s interface{ Scan(...any) error }) (*models.Column, error) {
	col := &models.Column{}
	if err := s.Scan(&col.ID, &col.BoardID, &col.Title, &col.Order, &col.CreatedAt); err != nil {
		return nil, err
	}
	return col, nil
}

// Create inserts a column at the given order. The caller opens the gap first.
func (r *ColumnRepo) Create(ctx context.Context, boardID types.BoardID, title string, order int, now time.Time) (*models.Column, error) {
	id, err := r.c.insertID(ctx,
		"INSERT INTO columns (board_id, title, position, created_at) VALUES (?, ?, ?, ?)",
		boardID.ToInt(), title, order, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create column: %w", err)
	}
	return &models.Column{ID: types.ColumnID(id), BoardID: boardID, Title: title, Order: order, CreatedAt: now}, nil
}

// GetByID retrieves a column
func (r *ColumnRepo) GetByID(ctx context.Context, id types.ColumnID) (*models.Column, error) {
	col, err := scanColumn(r.c.queryRow(ctx, "SELECT "+columnColumns+" FROM columns WHERE id = ?", id.ToInt()))
	if err != nil {
		return nil, notFound(err, "column", id.ToInt())
	}
	return col, nil
}

// GetForUpdate retrieves a column and locks its row until the transaction ends
func (r *ColumnRepo) GetForUpdate(ctx context.Context, id types.ColumnID) (*models.Column, error) {
	query := "SELECT " + columnColumns + " FROM columns WHERE id = ?" + r.c.dialect.forUpdate()
	col, err := scanColumn(r.c.queryRow(ctx, query, id.ToInt()))
	if err != nil {
		return nil, notFound(err, "column", id.ToInt())
	}
	return col, nil
}

// ListByBoard returns the board's columns in order
func (r *ColumnRepo) ListByBoard(ctx context.Context, boardID types.BoardID) ([]*models.Column, error) {
	rows, err := r.c.query(ctx,
		"SELECT "+columnColumns+" FROM columns WHERE board_id = ? ORDER BY position, id", boardID.ToInt())
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of board %d: %w", boardID, err)
	}
	defer rows.Close()

	var columns []*models.Column
	for rows.Next() {
		col, err := scanColumn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}
	return columns, nil
}

// ListIDsByBoard returns the ids of the board's columns in order
func (r *ColumnRepo) ListIDsByBoard(ctx context.Context, boardID types.BoardID) ([]types.ColumnID, error) {
	columns, err := r.ListByBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	ids := make([]types.ColumnID, len(columns))
	for i, col := range columns {
		ids[i] = col.ID
	}
	return ids, nil
}

// UpdateTitle renames a column
func (r *ColumnRepo) UpdateTitle(ctx context.Context, id types.ColumnID, title string) error {
	res, err := r.c.exec(ctx, "UPDATE columns SET title = ? WHERE id = ?", title, id.ToInt())
	if err != nil {
		return fmt.Errorf("failed to update column %d: %w", id, err)
	}
	return requireAffected(res, "column", id.ToInt())
}

// SetOrder writes the column's order directly
func (r *ColumnRepo) SetOrder(ctx context.Context, id types.ColumnID, order int) error {
	res, err := r.c.exec(ctx, "UPDATE columns SET position = ? WHERE id = ?", order, id.ToInt())
	if err != nil {
		return fmt.Errorf("failed to set order of column %d: %w", id, err)
	}
	return requireAffected(res, "column", id.ToInt())
}

// Delete removes a column and its cards
func (r *ColumnRepo) Delete(ctx context.Context, id types.ColumnID) error {
	if _, err := r.c.exec(ctx, "DELETE FROM cards WHERE column_id = ?", id.ToInt()); err != nil {
		return fmt.Errorf("failed to delete cards of column %d: %w", id, err)
	}
	res, err := r.c.exec(ctx, "DELETE FROM columns WHERE id = ?", id.ToInt())
	if err != nil {
		return fmt.Errorf("failed to delete column %d: %w", id, err)
	}
	return requireAffected(res, "column", id.ToInt())
}
