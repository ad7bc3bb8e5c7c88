package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Orders live in a column named position since ORDER is reserved.
// No UNIQUE(parent, position): gap shifts update rows one at a time.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS boards (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		owner_id INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_boards_owner ON boards(owner_id)`,
	`CREATE TABLE IF NOT EXISTS board_members (
		board_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		role TEXT NOT NULL,
		joined_at TIMESTAMP NOT NULL,
		PRIMARY KEY (board_id, user_id),
		FOREIGN KEY (board_id) REFERENCES boards(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_board_members_user ON board_members(user_id)`,
	`CREATE TABLE IF NOT EXISTS columns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		board_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		position INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (board_id) REFERENCES boards(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_columns_board ON columns(board_id, position)`,
	`CREATE TABLE IF NOT EXISTS cards (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		column_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY (column_id) REFERENCES columns(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cards_column ON cards(column_id, position)`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		board_id INTEGER NOT NULL,
		author_id INTEGER NOT NULL,
		ciphertext BLOB NOT NULL,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (board_id) REFERENCES boards(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_messages_board ON chat_messages(board_id, created_at)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS boards (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		owner_id BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_boards_owner ON boards(owner_id)`,
	`CREATE TABLE IF NOT EXISTS board_members (
		board_id BIGINT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL,
		role TEXT NOT NULL,
		joined_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (board_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_board_members_user ON board_members(user_id)`,
	`CREATE TABLE IF NOT EXISTS columns (
		id BIGSERIAL PRIMARY KEY,
		board_id BIGINT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		position INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_columns_board ON columns(board_id, position)`,
	`CREATE TABLE IF NOT EXISTS cards (
		id BIGSERIAL PRIMARY KEY,
		column_id BIGINT NOT NULL REFERENCES columns(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cards_column ON cards(column_id, position)`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
		id BIGSERIAL PRIMARY KEY,
		board_id BIGINT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
		author_id BIGINT NOT NULL,
		ciphertext BYTEA NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_messages_board ON chat_messages(board_id, created_at)`,
}

// Migrate creates the schema if it does not exist. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	schema := sqliteSchema
	if dialect == DialectPostgres {
		schema = postgresSchema
	}

	return withTx(ctx, db, func(tx *sql.Tx) error {
		for i, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration statement %d failed: %w", i, err)
			}
		}
		return nil
	})
}
