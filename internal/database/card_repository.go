package database

import (
	"context"
	"fmt"
	"time"

	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/types"
)

// CardRepo handles card persistence. Orders are maintained by the Ledger.
type CardRepo struct {
	c conn
}

const cardColumns = "id, column_id, title, description, position, created_at, updated_at"

func scanCard(s interface{ Scan(...any) error }) (*models.Card, error) {
	card := &models.Card{}
	if err := s.Scan(&card.ID, &card.ColumnID, &card.Title, &card.Description, &card.Order, &card.CreatedAt, &card.UpdatedAt); err != nil {
		return nil, err
	}
	return card, nil
}

// Create inserts a card at the given order. The caller opens the gap first.
func (r *CardRepo) Create(ctx context.Context, columnID types.ColumnID, title, description string, order int, now time.Time) (*models.Card, error) {
	id, err := r.c.insertID(ctx,
		"INSERT INTO cards (column_id, title, description, position, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		columnID.ToInt(), title, description, order, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}
	return &models.Card{
		ID:          types.CardID(id),
		ColumnID:    columnID,
		Title:       title,
		Description: description,
		Order:       order,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// GetByID retrieves a card
func (r *CardRepo) GetByID(ctx context.Context, id types.CardID) (*models.Card, error) {
	card, err := scanCard(r.c.queryRow(ctx, "SELECT "+cardColumns+" FROM cards WHERE id = ?", id.ToInt()))
	if err != nil {
		return nil, notFound(err, "card", id.ToInt())
	}
	return card, nil
}

// Locate loads a card with its board and board owner in a single read.
// Inside a Postgres transaction the card row stays locked until commit.
func (r *CardRepo) Locate(ctx context.Context, id types.CardID) (*models.CardLocation, error) {
	query := `
		SELECT c.id, c.column_id, c.title, c.description, c.position, c.created_at, c.updated_at,
			col.board_id, b.owner_id
		FROM cards c
		JOIN columns col ON col.id = c.column_id
		JOIN boards b ON b.id = col.board_id
		WHERE c.id = ?` + r.c.dialect.forUpdate("c")

	loc := &models.CardLocation{}
	card := &loc.Card
	err := r.c.queryRow(ctx, query, id.ToInt()).Scan(
		&card.ID, &card.ColumnID, &card.Title, &card.Description, &card.Order, &card.CreatedAt, &card.UpdatedAt,
		&loc.BoardID, &loc.OwnerID)
	if err != nil {
		return nil, notFound(err, "card", id.ToInt())
	}
	return loc, nil
}

// ListByColumn returns the column's cards in order
func (r *CardRepo) ListByColumn(ctx context.Context, columnID types.ColumnID) ([]*models.Card, error) {
	rows, err := r.c.query(ctx,
		"SELECT "+cardColumns+" FROM cards WHERE column_id = ? ORDER BY position, id", columnID.ToInt())
	if err != nil {
		return nil, fmt.Errorf("failed to list cards of column %d: %w", columnID, err)
	}
	defer rows.Close()

	var cards []*models.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cards: %w", err)
	}
	return cards, nil
}

// ListByBoard returns every card on the board grouped by column, each group in order
func (r *CardRepo) ListByBoard(ctx context.Context, boardID types.BoardID) (map[types.ColumnID][]*models.Card, error) {
	rows, err := r.c.query(ctx, `
		SELECT c.id, c.column_id, c.title, c.description, c.position, c.created_at, c.updated_at
		FROM cards c
		JOIN columns col ON col.id = c.column_id
		WHERE col.board_id = ?
		ORDER BY c.column_id, c.position, c.id`, boardID.ToInt())
	if err != nil {
		return nil, fmt.Errorf("failed to list cards of board %d: %w", boardID, err)
	}
	defer rows.Close()

	cards := make(map[types.ColumnID][]*models.Card)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards[card.ColumnID] = append(cards[card.ColumnID], card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cards: %w", err)
	}
	return cards, nil
}

// Update changes a card's title and description
func (r *CardRepo) Update(ctx context.Context, id types.CardID, title, description string, now time.Time) error {
	res, err := r.c.exec(ctx,
		"UPDATE cards SET title = ?, description = ?, updated_at = ? WHERE id = ?",
		title, description, now, id.ToInt())
	if err != nil {
		return fmt.Errorf("failed to update card %d: %w", id, err)
	}
	return requireAffected(res, "card", id.ToInt())
}

// Place writes the card's column and order directly
func (r *CardRepo) Place(ctx context.Context, id types.CardID, columnID types.ColumnID, order int, now time.Time) error {
	res, err := r.c.exec(ctx,
		"UPDATE cards SET column_id = ?, position = ?, updated_at = ? WHERE id = ?",
		columnID.ToInt(), order, now, id.ToInt())
	if err != nil {
		return fmt.Errorf("failed to place card %d: %w", id, err)
	}
	return requireAffected(res, "card", id.ToInt())
}

// Delete removes a card
func (r *CardRepo) Delete(ctx context.Context, id types.CardID) error {
	res, err := r.c.exec(ctx, "DELETE FROM cards WHERE id = ?", id.ToInt())
	if err != nil {
		return fmt.Errorf("failed to delete card %d: %w", id, err)
	}
	return requireAffected(res, "card", id.ToInt())
}
