package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/thenoetrevino/tablero/internal/config"
	"github.com/thenoetrevino/tablero/internal/database"
	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/types"
)

// ============================================================================
// DATABASE SETUP HELPERS
// ============================================================================

// SetupTestDB creates an in-memory sqlite database with the full schema.
// The database is closed when the test ends.
func SetupTestDB(t *testing.T) *database.Repository {
	t.Helper()
	ctx := context.Background()

	db, dialect, err := database.Open(ctx, config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close database: %v", err)
		}
	})

	if err := database.Migrate(ctx, db, dialect); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return database.NewRepository(db, dialect)
}

// ============================================================================
// FIXTURES
// ============================================================================

// Now is a fixed instant used by fixtures
var Now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// CreateTestBoard inserts a board owned by ownerID
func CreateTestBoard(t *testing.T, repo *database.Repository, name string, ownerID types.UserID) *models.Board {
	t.Helper()
	board, err := repo.Boards.Create(context.Background(), name, ownerID, Now)
	if err != nil {
		t.Fatalf("Failed to create board: %v", err)
	}
	return board
}

// CreateTestMember adds userID to the board with the given role
func CreateTestMember(t *testing.T, repo *database.Repository, boardID types.BoardID, userID types.UserID, role models.Role) {
	t.Helper()
	if _, err := repo.Members.Add(context.Background(), boardID, userID, role, Now); err != nil {
		t.Fatalf("Failed to add member: %v", err)
	}
}

// CreateTestColumn appends a column to the board
func CreateTestColumn(t *testing.T, repo *database.Repository, boardID types.BoardID, title string) *models.Column {
	t.Helper()
	var col *models.Column
	err := repo.RunInTx(context.Background(), func(q *database.Queries) error {
		order, err := q.Ledger.Append(context.Background(), database.ColumnSiblings, boardID.ToInt())
		if err != nil {
			return err
		}
		col, err = q.Columns.Create(context.Background(), boardID, title, order, Now)
		return err
	})
	if err != nil {
		t.Fatalf("Failed to create column: %v", err)
	}
	return col
}

// CreateTestCard appends a card to the column
func CreateTestCard(t *testing.T, repo *database.Repository, columnID types.ColumnID, title string) *models.Card {
	t.Helper()
	var card *models.Card
	err := repo.RunInTx(context.Background(), func(q *database.Queries) error {
		order, err := q.Ledger.Append(context.Background(), database.CardSiblings, columnID.ToInt())
		if err != nil {
			return err
		}
		card, err = q.Cards.Create(context.Background(), columnID, title, "", order, Now)
		return err
	})
	if err != nil {
		t.Fatalf("Failed to create card: %v", err)
	}
	return card
}

// CardTitles returns the titles of the column's cards in order
func CardTitles(t *testing.T, repo *database.Repository, columnID types.ColumnID) []string {
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

// AssertBoardDense fails the test if any sibling set on the board is not ordered 0..n-1
func AssertBoardDense(t *testing.T, repo *database.Repository, boardID types.BoardID) {
	t.Helper()
	if err := repo.VerifyBoard(context.Background(), boardID); err != nil {
		t.Fatalf("ledger invariant violated: %v", err)
	}
}
