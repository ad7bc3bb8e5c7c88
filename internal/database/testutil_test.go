package database

import (
	"context"
	"testing"
	"time"

	"github.com/thenoetrevino/tablero/internal/config"
	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/types"
)

// ============================================================================
// DATABASE SETUP HELPERS
// ============================================================================

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// setupTestDB creates an in-memory database and runs migrations
func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	ctx := context.Background()

	db, dialect, err := Open(ctx, config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close database: %v", err)
		}
	})

	if err := Migrate(ctx, db, dialect); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return NewRepository(db, dialect)
}

func createBoard(t *testing.T, repo *Repository, owner types.UserID) *models.Board {
	t.Helper()
	b, err := repo.Boards.Create(context.Background(), "Board", owner, testNow)
	if err != nil {
		t.Fatalf("Failed to create board: %v", err)
	}
	return b
}

func appendColumn(t *testing.T, repo *Repository, boardID types.BoardID, title string) *models.Column {
	t.Helper()
	ctx := context.Background()
	var col *models.Column
	err := repo.RunInTx(ctx, func(q *Queries) error {
		order, err := q.Ledger.Append(ctx, ColumnSiblings, boardID.ToInt())
		if err != nil {
			return err
		}
		col, err = q.Columns.Create(ctx, boardID, title, order, testNow)
		return err
	})
	if err != nil {
		t.Fatalf("Failed to create column %s: %v", title, err)
	}
	return col
}

func appendCard(t *testing.T, repo *Repository, columnID types.ColumnID, title string) *models.Card {
	t.Helper()
	ctx := context.Background()
	var card *models.Card
	err := repo.RunInTx(ctx, func(q *Queries) error {
		order, err := q.Ledger.Append(ctx, CardSiblings, columnID.ToInt())
		if err != nil {
			return err
		}
		card, err = q.Cards.Create(ctx, columnID, title, "", order, testNow)
		return err
	})
	if err != nil {
		t.Fatalf("Failed to create card %s: %v", title, err)
	}
	return card
}

func cardTitles(t *testing.T, repo *Repository, columnID types.ColumnID) []string {
	t.Helper()
	cards, err := repo.Cards.ListByColumn(context.Background(), columnID)
	if err != nil {
		t.Fatalf("Failed to list cards: %v", err)
	}
	titles := make([]string, len(cards))
	for i, c := range cards {
		titles[i] = c.Title
	}
	return titles
}

func assertTitles(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("titles = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("titles = %v, want %v", got, want)
		}
	}
}
