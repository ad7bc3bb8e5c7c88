package database

import (
	"context"
	"database/sql"

	"github.com/thenoetrevino/tablero/internal/models"
	"github.com/thenoetrevino/tablero/internal/types"
)

// Queries groups the repositories bound to one connection or transaction
type Queries struct {
	Boards   *BoardRepo
	Members  *MemberRepo
	Columns  *ColumnRepo
	Cards    *CardRepo
	Messages *MessageRepo
	Ledger   *Ledger
}

func newQueries(q Querier, dialect Dialect) *Queries {
	c := conn{q: q, dialect: dialect}
	return &Queries{
		Boards:   &BoardRepo{c: c},
		Members:  &MemberRepo{c: c},
		Columns:  &ColumnRepo{c: c},
		Cards:    &CardRepo{c: c},
		Messages: &MessageRepo{c: c},
		Ledger:   &Ledger{c: c},
	}
}

// Repository provides access to all data operations.
// Reads go through the embedded Queries; multi-statement mutations use RunInTx.
type Repository struct {
	*Queries
	db      *sql.DB
	dialect Dialect
}

// NewRepository creates a new Repository instance wrapping the given database connection
func NewRepository(db *sql.DB, dialect Dialect) *Repository {
	return &Repository{
		Queries: newQueries(db, dialect),
		db:      db,
		dialect: dialect,
	}
}

// Dialect returns the SQL flavour of the underlying store
func (r *Repository) Dialect() Dialect {
	return r.dialect
}

// RunInTx runs fn inside one transaction. Every ledger update and row write
// made through the supplied Queries commits or rolls back together.
func (r *Repository) RunInTx(ctx context.Context, fn func(q *Queries) error) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(newQueries(tx, r.dialect))
	})
}

// VerifyBoard checks the ledger invariant for the board's columns and for
// the cards of every column on it
func (r *Repository) VerifyBoard(ctx context.Context, boardID types.BoardID) error {
	if err := r.Ledger.Verify(ctx, ColumnSiblings, boardID.ToInt()); err != nil {
		return err
	}

	columnIDs, err := r.Columns.ListIDsByBoard(ctx, boardID)
	if err != nil {
		return err
	}
	for _, id := range columnIDs {
		if err := r.Ledger.Verify(ctx, CardSiblings, id.ToInt()); err != nil {
			return err
		}
	}
	return nil
}

// Ping checks that the store is reachable
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// LoadBoard materialises a board with its ordered columns, their ordered
// cards and its members. Columns without cards carry an empty slice.
func (r *Repository) LoadBoard(ctx context.Context, boardID types.BoardID) (*models.BoardDetail, error) {
	board, err := r.Boards.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	columns, err := r.Columns.ListByBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	cards, err := r.Cards.ListByBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	members, err := r.Members.ListByBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}

	detail := &models.BoardDetail{
		Board:   *board,
		Columns: make([]*models.BoardColumn, len(columns)),
		Members: members,
	}
	for i, col := range columns {
		colCards := cards[col.ID]
		if colCards == nil {
			colCards = []*models.Card{}
		}
		detail.Columns[i] = &models.BoardColumn{Column: *col, Cards: colCards}
	}
	return detail, nil
}
