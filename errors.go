// errors.go
package review50

import (
	"fmt"

	"github.com/cs50/review50/pkg/core"
)

// Sentinel errors shared with the host backends, re-exported so callers
// only need to import this package.
var (
	// ErrNotFound indicates a repository, branch or review does not exist
	ErrNotFound = core.ErrNotFound

	// ErrUnauthorized indicates the token is missing or lacks permission
	ErrUnauthorized = core.ErrUnauthorized

	// ErrNoSubmissions indicates the slug branch has no commits
	ErrNoSubmissions = core.ErrNoSubmissions

	// ErrInvalidSlug indicates the slug cannot name a git branch
	ErrInvalidSlug = core.ErrInvalidSlug

	// ErrUnprocessable indicates the host rejected a request as invalid
	ErrUnprocessable = core.ErrUnprocessable

	// ErrInvalidStudent indicates a student name that cannot name a repository
	ErrInvalidStudent = core.ErrInvalidStudent

	// ErrHostNotAvailable indicates the configured review host is unknown
	ErrHostNotAvailable = core.ErrHostNotAvailable
)

// Error wraps an error with additional context
type Error struct {
	Op      string // Operation that failed
	Student string // Student name if applicable
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Student != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Student, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
