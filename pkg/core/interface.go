// pkg/core/interface.go
package core

import "context"

// ReviewHost defines the interface that review host backends implement
type ReviewHost interface {
	// Name returns the backend name (e.g., "github")
	Name() string

	// Students lists every student repository in the organisation
	Students(ctx context.Context) ([]string, error)

	// Submissions lists the submissions of one student for a slug, oldest first
	Submissions(ctx context.Context, student, slug string) ([]Submission, error)

	// Initiate opens a review of a student's slug branch
	Initiate(ctx context.Context, student, slug string, opts *ReviewOptions) (*Review, error)

	// Review looks up an existing review
	Review(ctx context.Context, student, slug string) (*Review, error)

	// Close cleans up resources
	Close() error
}

// ReviewOptions configures review creation
type ReviewOptions struct {
	Reviewers []string // Users asked to review
	Draft     bool     // Open the pull request as a draft
	DryRun    bool     // Plan without writing anything
}
