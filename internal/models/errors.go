package models

import "errors"

// Error taxonomy shared by every service. Domain errors wrap one of these with
// fmt.Errorf("%w: ...") so callers can classify with errors.Is.
var (
	// ErrInvalid indicates malformed or out-of-bounds input
	ErrInvalid = errors.New("invalid")

	// ErrUnauthorized indicates no verified identity was supplied
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the actor can see the board but lacks the capability
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates a missing entity, or a board the actor cannot access
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates the operation collides with existing state
	ErrConflict = errors.New("conflict")

	// ErrRateLimited indicates the actor exceeded the limit for an event kind
	ErrRateLimited = errors.New("rate limited")

	// ErrInternal indicates misconfiguration or a store failure
	ErrInternal = errors.New("internal error")
)

// KindOf returns the taxonomy error that err wraps. Unclassified errors are internal.
func KindOf(err error) error {
	for _, kind := range []error{ErrInvalid, ErrUnauthorized, ErrForbidden, ErrNotFound, ErrConflict, ErrRateLimited, ErrInternal} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrInternal
}
