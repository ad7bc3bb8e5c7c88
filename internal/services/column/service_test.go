package column

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/thenoetrevino/tablero/internal/database"
	"github.com/thenoetrevino/tablero/internal/events"
	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/permission"
	"github.com/thenoetrevino/tablero/internal/testutil"
	"github.com/thenoetrevino/tablero/internal/types"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

const (
	owner    types.UserID = 1
	member   types.UserID = 2
	stranger types.UserID = 3
)

type fixture struct {
	repo     *database.Repository
	svc      Service
	recorder *events.Recorder
	board    *models.Board
}

func setup(t *testing.T) *fixture {
	t.Helper()
	repo := testutil.SetupTestDB(t)
	recorder := &events.Recorder{}
	board := testutil.CreateTestBoard(t, repo, "Roadmap", owner)
	testutil.CreateTestMember(t, repo, board.ID, member, models.RoleMember)
	return &fixture{
		repo:     repo,
		svc:      NewService(repo, permission.NewGate(repo.Boards), database.NewBoardLocks(), recorder),
		recorder: recorder,
		board:    board,
	}
}

func columnTitles(t *testing.T, f *fixture) []string {
	t.Helper()
	cols, err := f.repo.Columns.ListByBoard(context.Background(), f.board.ID)
	if err != nil {
		t.Fatalf("Failed to list columns: %v", err)
	}
	titles := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = c.Title
	}
	return titles
}

func assertColumnTitles(t *testing.T, f *fixture, want ...string) {
	t.Helper()
	got := columnTitles(t, f)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("Expected columns %v, got %v", want, got)
	}
	testutil.AssertBoardDense(t, f.repo, f.board.ID)
}

func intPtr(i int) *int { return &i }

// ============================================================================
// CREATE
// ============================================================================

func TestCreateColumn(t *testing.T) {
	t.Parallel()
	f := setup(t)

	col, err := f.svc.CreateColumn(context.Background(), CreateColumnRequest{
		BoardID: f.board.ID,
		ActorID: owner,
		Title:   "  To Do ",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if col.ID == 0 {
		t.Error("Expected column ID to be set")
	}
	if col.Title != "To Do" {
		t.Errorf("Expected trimmed title 'To Do', got %q", col.Title)
	}
	if col.Order != 0 {
		t.Errorf("Expected first column at order 0, got %d", col.Order)
	}

	last, ok := f.recorder.Last()
	if !ok || last.Kind != events.ColumnCreated || last.BoardID != f.board.ID {
		t.Errorf("Expected column:created event for board %d, got %+v", f.board.ID, last)
	}
}

func TestCreateColumn_AppendsInOrder(t *testing.T) {
	t.Parallel()
	f := setup(t)

	for i, title := range []string{"A", "B", "C"} {
		col, err := f.svc.CreateColumn(context.Background(), CreateColumnRequest{BoardID: f.board.ID, ActorID: owner, Title: title})
		if err != nil {
			t.Fatalf("CreateColumn(%s) failed: %v", title, err)
		}
		if col.Order != i {
			t.Errorf("Expected %s at order %d, got %d", title, i, col.Order)
		}
	}
	assertColumnTitles(t, f, "A", "B", "C")
}

func TestCreateColumn_AtOrder(t *testing.T) {
	t.Parallel()
	f := setup(t)
	testutil.CreateTestColumn(t, f.repo, f.board.ID, "A")
	testutil.CreateTestColumn(t, f.repo, f.board.ID, "C")

	_, err := f.svc.CreateColumn(context.Background(), CreateColumnRequest{
		BoardID: f.board.ID, ActorID: owner, Title: "B", Order: intPtr(1),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	assertColumnTitles(t, f, "A", "B", "C")

	_, err = f.svc.CreateColumn(context.Background(), CreateColumnRequest{
		BoardID: f.board.ID, ActorID: owner, Title: "X", Order: intPtr(4),
	})
	if !errors.Is(err, ErrOrderOutOfRange) {
		t.Fatalf("Expected ErrOrderOutOfRange, got %v", err)
	}
	assertColumnTitles(t, f, "A", "B", "C")
}

func TestCreateColumn_Validation(t *testing.T) {
	t.Parallel()
	f := setup(t)

	tests := []struct {
		name string
		req  CreateColumnRequest
		want error
	}{
		{"empty title", CreateColumnRequest{BoardID: f.board.ID, ActorID: owner, Title: "   "}, ErrEmptyTitle},
		{"long title", CreateColumnRequest{BoardID: f.board.ID, ActorID: owner, Title: strings.Repeat("x", models.MaxTitleLength+1)}, ErrTitleTooLong},
		{"bad board", CreateColumnRequest{BoardID: 0, ActorID: owner, Title: "A"}, ErrInvalidBoardID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateColumn(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
			if !errors.Is(err, models.ErrInvalid) {
				t.Errorf("Expected error to classify as invalid, got %v", err)
			}
		})
	}
}

func TestCreateColumn_Permissions(t *testing.T) {
	t.Parallel()
	f := setup(t)

	_, err := f.svc.CreateColumn(context.Background(), CreateColumnRequest{BoardID: f.board.ID, ActorID: member, Title: "A"})
	if !errors.Is(err, models.ErrForbidden) {
		t.Errorf("Expected member to be forbidden, got %v", err)
	}

	_, err = f.svc.CreateColumn(context.Background(), CreateColumnRequest{BoardID: f.board.ID, ActorID: stranger, Title: "A"})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected stranger to get not found, got %v", err)
	}

	_, err = f.svc.CreateColumn(context.Background(), CreateColumnRequest{BoardID: 999, ActorID: owner, Title: "A"})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected missing board to get not found, got %v", err)
	}

	if n := len(f.recorder.Events()); n != 0 {
		t.Errorf("Expected no events for rejected writes, got %d", n)
	}
}

// ============================================================================
// LIST / UPDATE / DELETE
// ============================================================================

func TestListColumns(t *testing.T) {
	t.Parallel()
	f := setup(t)
	testutil.CreateTestColumn(t, f.repo, f.board.ID, "A")
	testutil.CreateTestColumn(t, f.repo, f.board.ID, "B")

	cols, err := f.svc.ListColumns(context.Background(), f.board.ID, member)
	if err != nil {
		t.Fatalf("Expected member to list columns, got %v", err)
	}
	if len(cols) != 2 || cols[0].Title != "A" || cols[1].Title != "B" {
		t.Errorf("Expected [A B], got %v", cols)
	}

	if _, err := f.svc.ListColumns(context.Background(), f.board.ID, stranger); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected stranger to get not found, got %v", err)
	}
}

func TestUpdateColumn(t *testing.T) {
	t.Parallel()
	f := setup(t)
	col := testutil.CreateTestColumn(t, f.repo, f.board.ID, "A")

	updated, err := f.svc.UpdateColumn(context.Background(), UpdateColumnRequest{ColumnID: col.ID, ActorID: owner, Title: "Backlog"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if updated.Title != "Backlog" || updated.Order != col.Order {
		t.Errorf("Expected renamed column at same order, got %+v", updated)
	}

	_, err = f.svc.UpdateColumn(context.Background(), UpdateColumnRequest{ColumnID: 999, ActorID: owner, Title: "X"})
	if !errors.Is(err, ErrColumnNotFound) {
		t.Errorf("Expected ErrColumnNotFound, got %v", err)
	}
}

func TestDeleteColumn_ClosesGap(t *testing.T) {
	t.Parallel()
	f := setup(t)
	testutil.CreateTestColumn(t, f.repo, f.board.ID, "A")
	b := testutil.CreateTestColumn(t, f.repo, f.board.ID, "B")
	testutil.CreateTestColumn(t, f.repo, f.board.ID, "C")
	testutil.CreateTestCard(t, f.repo, b.ID, "card on B")

	if err := f.svc.DeleteColumn(context.Background(), b.ID, owner); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	assertColumnTitles(t, f, "A", "C")

	if _, err := f.repo.Cards.ListByColumn(context.Background(), b.ID); err != nil {
		t.Fatalf("Failed to list cards: %v", err)
	}
	if titles := testutil.CardTitles(t, f.repo, b.ID); len(titles) != 0 {
		t.Errorf("Expected cards of deleted column to be gone, got %v", titles)
	}

	last, _ := f.recorder.Last()
	var payload events.ColumnDeletedPayload
	if err := last.Decode(&payload); err != nil {
		t.Fatalf("Failed to decode payload: %v", err)
	}
	if last.Kind != events.ColumnDeleted || payload.ColumnID != b.ID || payload.Order != 1 {
		t.Errorf("Unexpected delete event %s %+v", last.Kind, payload)
	}
}

// ============================================================================
// REORDER
// ============================================================================

func TestReorderColumn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"first to last", 0, 3, []string{"B", "C", "D", "A"}},
		{"last to first", 3, 0, []string{"D", "A", "B", "C"}},
		{"middle down", 1, 2, []string{"A", "C", "B", "D"}},
		{"same place", 2, 2, []string{"A", "B", "C", "D"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := setup(t)
			var cols []*models.Column
			for _, title := range []string{"A", "B", "C", "D"} {
				cols = append(cols, testutil.CreateTestColumn(t, f.repo, f.board.ID, title))
			}

			moved, err := f.svc.ReorderColumn(context.Background(), cols[tt.from].ID, owner, tt.to)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if moved.Order != tt.to {
				t.Errorf("Expected order %d, got %d", tt.to, moved.Order)
			}
			assertColumnTitles(t, f, tt.want...)

			last, _ := f.recorder.Last()
			var payload events.ColumnPayload
			if err := last.Decode(&payload); err != nil {
				t.Fatalf("Failed to decode payload: %v", err)
			}
			if payload.FromOrder == nil || *payload.FromOrder != tt.from || payload.ToOrder == nil || *payload.ToOrder != tt.to {
				t.Errorf("Expected from=%d to=%d in payload, got %+v", tt.from, tt.to, payload)
			}
		})
	}
}

func TestReorderColumn_OutOfRange(t *testing.T) {
	t.Parallel()
	f := setup(t)
	a := testutil.CreateTestColumn(t, f.repo, f.board.ID, "A")
	testutil.CreateTestColumn(t, f.repo, f.board.ID, "B")

	for _, order := range []int{-1, 2} {
		_, err := f.svc.ReorderColumn(context.Background(), a.ID, owner, order)
		if !errors.Is(err, ErrOrderOutOfRange) {
			t.Errorf("order %d: expected ErrOrderOutOfRange, got %v", order, err)
		}
	}
	assertColumnTitles(t, f, "A", "B")
}

func TestReorderColumn_MemberForbidden(t *testing.T) {
	t.Parallel()
	f := setup(t)
	a := testutil.CreateTestColumn(t, f.repo, f.board.ID, "A")
	testutil.CreateTestColumn(t, f.repo, f.board.ID, "B")

	_, err := f.svc.ReorderColumn(context.Background(), a.ID, member, 1)
	if !errors.Is(err, models.ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}
	assertColumnTitles(t, f, "A", "B")
}
