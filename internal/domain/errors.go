package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for flow control. All of them are caught at the
// orchestrator boundary and converted to a user-visible notice; none of
// them should ever terminate the process.
var (
	// ErrNotFound means a referenced offer id does not exist for that owner.
	ErrNotFound = errors.New("offer not found")

	// ErrInputTimeout means an interactive flow step timed out waiting for input.
	ErrInputTimeout = errors.New("input timed out")

	// ErrInputCancelled means the user abandoned an interactive flow.
	ErrInputCancelled = errors.New("input cancelled")
)

// FetchError wraps a failure to fetch or extract a job description URL.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// CompletionError wraps a failure from the model backend.
type CompletionError struct {
	Err error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion backend: %v", e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// ValidationError marks malformed user input, such as a non-numeric offer id.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
