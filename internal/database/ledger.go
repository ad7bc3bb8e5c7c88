package database

import (
	"context"
	"fmt"
)

// SiblingSet names an ordered collection: a table and the column holding the parent id
type SiblingSet struct {
	table  string
	parent string
}

var (
	// ColumnSiblings are the columns of one board
	ColumnSiblings = SiblingSet{table: "columns", parent: "board_id"}
	// CardSiblings are the cards of one column
	CardSiblings = SiblingSet{table: "cards", parent: "column_id"}
)

func (s SiblingSet) String() string {
	return s.table
}

// Ledger maintains dense zero-based orders among siblings.
// Every method must run inside the transaction that performs the
// corresponding insert, delete or relocation.
type Ledger struct {
	c conn
}

// Append returns the order a new last sibling should take (the sibling count)
func (l *Ledger) Append(ctx context.Context, set SiblingSet, parentID int) (int, error) {
	return l.Count(ctx, set, parentID)
}

// Count returns the number of siblings under parentID
func (l *Ledger) Count(ctx context.Context, set SiblingSet, parentID int) (int, error) {
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?", set.table, set.parent)
	if err := l.c.queryRow(ctx, query, parentID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s under %d: %w", set, parentID, err)
	}
	return n, nil
}

// CloseGap shifts every sibling after removedOrder down by one
func (l *Ledger) CloseGap(ctx context.Context, set SiblingSet, parentID, removedOrder int) error {
	query := fmt.Sprintf("UPDATE %s SET position = position - 1 WHERE %s = ? AND position > ?", set.table, set.parent)
	if _, err := l.c.exec(ctx, query, parentID, removedOrder); err != nil {
		return fmt.Errorf("failed to close gap at %d in %s %d: %w", removedOrder, set, parentID, err)
	}
	return nil
}

// OpenGap shifts every sibling at or after insertOrder up by one
func (l *Ledger) OpenGap(ctx context.Context, set SiblingSet, parentID, insertOrder int) error {
	query := fmt.Sprintf("UPDATE %s SET position = position + 1 WHERE %s = ? AND position >= ?", set.table, set.parent)
	if _, err := l.c.exec(ctx, query, parentID, insertOrder); err != nil {
		return fmt.Errorf("failed to open gap at %d in %s %d: %w", insertOrder, set, parentID, err)
	}
	return nil
}

// ShiftRange adds delta to the order of every sibling in [from, to].
// Used for relocation inside one parent, where the moving row sits outside the range.
func (l *Ledger) ShiftRange(ctx context.Context, set SiblingSet, parentID, from, to, delta int) error {
	if from > to {
		return nil
	}
	query := fmt.Sprintf("UPDATE %s SET position = position + ? WHERE %s = ? AND position BETWEEN ? AND ?", set.table, set.parent)
	if _, err := l.c.exec(ctx, query, delta, parentID, from, to); err != nil {
		return fmt.Errorf("failed to shift %s %d range [%d,%d]: %w", set, parentID, from, to, err)
	}
	return nil
}

// Relocate moves the sibling at from to position to within one parent.
// Only the siblings between the two positions shift; the caller updates the moving row.
func (l *Ledger) Relocate(ctx context.Context, set SiblingSet, parentID, from, to int) error {
	switch {
	case to > from:
		return l.ShiftRange(ctx, set, parentID, from+1, to, -1)
	case to < from:
		return l.ShiftRange(ctx, set, parentID, to, from-1, 1)
	default:
		return nil
	}
}

// OrderViolation describes a sibling set whose orders are not 0..n-1
type OrderViolation struct {
	Set      SiblingSet
	ParentID int
	Orders   []int
}

func (v *OrderViolation) Error() string {
	return fmt.Sprintf("%s under %d are not densely ordered: %v", v.Set, v.ParentID, v.Orders)
}

// Verify checks that the orders under parentID are exactly 0..n-1
func (l *Ledger) Verify(ctx context.Context, set SiblingSet, parentID int) error {
	query := fmt.Sprintf("SELECT position FROM %s WHERE %s = ? ORDER BY position, id", set.table, set.parent)
	rows, err := l.c.query(ctx, query, parentID)
	if err != nil {
		return fmt.Errorf("failed to read orders of %s %d: %w", set, parentID, err)
	}
	defer rows.Close()

	var orders []int
	for rows.Next() {
		var o int
		if err := rows.Scan(&o); err != nil {
			return fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating orders: %w", err)
	}

	for i, o := range orders {
		if o != i {
			return &OrderViolation{Set: set, ParentID: parentID, Orders: orders}
		}
	}
	return nil
}
