package database

import (
	"context"
	"fmt"
	"slices"

	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/types"
)

// MessageRepo persists encrypted chat messages. Plaintext never reaches this layer.
type MessageRepo struct {
	c conn
}

// Create stores a message and returns it with its assigned id
func (r *MessageRepo) Create(ctx context.Context, msg *models.StoredMessage) (*models.StoredMessage, error) {
	id, err := r.c.insertID(ctx,
		"INSERT INTO chat_messages (board_id, author_id, ciphertext, created_at) VALUES (?, ?, ?, ?)",
		msg.BoardID.ToInt(), msg.AuthorID.ToInt(), msg.Ciphertext, msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to store message on board %d: %w", msg.BoardID, err)
	}

	stored := *msg
	stored.ID = types.MessageID(id)
	return &stored, nil
}

// ListRecent returns the board's newest limit messages, oldest first
func (r *MessageRepo) ListRecent(ctx context.Context, boardID types.BoardID, limit int) ([]*models.StoredMessage, error) {
	rows, err := r.c.query(ctx, `
		SELECT id, board_id, author_id, ciphertext, created_at
		FROM chat_messages
		WHERE board_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, boardID.ToInt(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages of board %d: %w", boardID, err)
	}
	defer rows.Close()

	var msgs []*models.StoredMessage
	for rows.Next() {
		m := &models.StoredMessage{}
		if err := rows.Scan(&m.ID, &m.BoardID, &m.AuthorID, &m.Ciphertext, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	slices.Reverse(msgs)
	return msgs, nil
}
