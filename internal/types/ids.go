package types

import "strconv"

// ID type aliases provide semantic meaning and reduce repetitive int conversions.
// These aliases document what each integer represents in the domain model,
// so a card id can never be passed where a column id is expected.

// BoardID identifies a unique board in the system
type BoardID int

// ColumnID identifies a unique column within a board
type ColumnID int

// CardID identifies a unique card within a column
type CardID int

// UserID identifies an already-verified actor
type UserID int

// MessageID identifies a unique chat message on a board
type MessageID int

// ToInt converts type alias back to int for compatibility with database/sql scanning
func (id BoardID) ToInt() int {
	return int(id)
}

func (id ColumnID) ToInt() int {
	return int(id)
}

func (id CardID) ToInt() int {
	return int(id)
}

func (id UserID) ToInt() int {
	return int(id)
}

func (id MessageID) ToInt() int {
	return int(id)
}

// String renders the board id for use in cache keys and channel names
func (id BoardID) String() string {
	return strconv.Itoa(int(id))
}

// String renders the user id for use in rate-limit keys
func (id UserID) String() string {
	return strconv.Itoa(int(id))
}

// ParseBoardID parses a decimal board identifier. Non-positive values are rejected.
func ParseBoardID(s string) (BoardID, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return BoardID(n), true
}

// ParseUserID parses a decimal user identifier. Non-positive values are rejected.
func ParseUserID(s string) (UserID, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return UserID(n), true
}
