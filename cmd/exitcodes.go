package cmd

import (
	"errors"

	"github.com/thenoetrevino/tablero/internal/models"
)

// Exit codes for CLI commands.
// These codes follow Unix conventions and provide consistent error reporting
// across all CLI commands.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitError indicates a general error occurred.
	// Use for: Database errors, network errors, unexpected failures.
	ExitError = 1

	// ExitUsage indicates incorrect command usage.
	// Use for: Missing required flags or invalid flag values.
	ExitUsage = 2

	// ExitNotFound indicates a requested board was not found.
	ExitNotFound = 3

	// ExitViolation indicates a sibling set failed the dense ordering check.
	ExitViolation = 5
)

// exitError carries the process exit code for a failed command
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// ExitCode maps a command error to the process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}

	switch models.KindOf(err) {
	case models.ErrInvalid:
		return ExitUsage
	case models.ErrNotFound:
		return ExitNotFound
	}
	return ExitError
}
