// review50.go
package review50

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cs50/review50/pkg/core"
	"github.com/cs50/review50/pkg/github"
	"github.com/cs50/review50/pkg/manifest"
	"github.com/cs50/review50/pkg/workspace"
)

// Re-export core types for convenience
type (
	Config        = core.Config
	Submission    = core.Submission
	Review        = core.Review
	ReviewOptions = core.ReviewOptions
	ReviewHost    = core.ReviewHost
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return core.DefaultConfig()
}

// Result is the outcome of initiating one student's review
type Result struct {
	Student string
	Review  *Review
	Err     error
}

// Reviewer initiates and tracks reviews through a review host
type Reviewer struct {
	host   core.ReviewHost
	config *core.Config
	logger zerolog.Logger
}

// NewReviewer creates a Reviewer for the host named in config
func NewReviewer(config *core.Config, logger zerolog.Logger) (*Reviewer, error) {
	if config == nil {
		config = core.DefaultConfig()
	}

	m, err := manifest.Default()
	if err != nil {
		return nil, err
	}

	var host core.ReviewHost
	switch config.Host {
	case "", core.DefaultHost:
		host, err = github.NewHost(&github.Config{
			APIURL:       config.APIURL,
			Org:          config.Org,
			Token:        config.Token,
			UserAgent:    m.UserAgent(),
			BranchPrefix: config.BranchPrefix,
			Timeout:      config.Timeout,
			Logger:       &logger,
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrHostNotAvailable, config.Host)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing host: %w", err)
	}

	return NewReviewerWithHost(host, config, logger), nil
}

// NewReviewerWithHost wraps an already constructed host
func NewReviewerWithHost(host core.ReviewHost, config *core.Config, logger zerolog.Logger) *Reviewer {
	if config == nil {
		config = core.DefaultConfig()
	}
	return &Reviewer{host: host, config: config, logger: logger}
}

// Host returns the name of the active host
func (r *Reviewer) Host() string {
	return r.host.Name()
}

// Close cleans up any resources used by the reviewer
func (r *Reviewer) Close() error {
	return r.host.Close()
}

// Students returns the given students naturally sorted, or every student
// of the organisation when none are given. Given names must be valid
// repository names.
func (r *Reviewer) Students(ctx context.Context, students []string) ([]string, error) {
	if len(students) == 0 {
		all, err := r.host.Students(ctx)
		if err != nil {
			return nil, &Error{Op: "list students", Err: err}
		}
		core.SortStrings(all)
		return all, nil
	}

	seen := make(map[string]bool, len(students))
	out := make([]string, 0, len(students))
	for _, s := range students {
		if seen[s] {
			continue
		}
		if err := core.ValidateStudent(s); err != nil {
			return nil, err
		}
		seen[s] = true
		out = append(out, s)
	}
	core.SortStrings(out)
	return out, nil
}

// Submissions collects the submissions of slug across students.
// Students who never submitted slug are skipped.
func (r *Reviewer) Submissions(ctx context.Context, slug string, students []string) ([]Submission, error) {
	if err := core.ValidateSlug(slug); err != nil {
		return nil, err
	}
	students, err := r.Students(ctx, students)
	if err != nil {
		return nil, err
	}

	var (
		mu  sync.Mutex
		all []Submission
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency())
	for _, student := range students {
		g.Go(func() error {
			subs, err := r.host.Submissions(gctx, student, slug)
			if errors.Is(err, ErrNotFound) {
				r.logger.Debug().Str("student", student).Msg("no submission")
				return nil
			}
			if err != nil {
				return &Error{Op: "list submissions", Student: student, Err: err}
			}
			mu.Lock()
			all = append(all, subs...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	core.SortSubmissions(all)
	return all, nil
}

// Initiate opens reviews of slug for each student. A failure for one
// student is recorded in its Result and does not stop the others. When
// no students are given, students without a submission are left out.
func (r *Reviewer) Initiate(ctx context.Context, slug string, students []string, opts *ReviewOptions) ([]Result, error) {
	if err := core.ValidateSlug(slug); err != nil {
		return nil, err
	}
	o := ReviewOptions{}
	if opts != nil {
		o = *opts
	}
	if len(o.Reviewers) == 0 {
		o.Reviewers = r.config.Reviewers
	}
	opts = &o

	return r.each(ctx, students, func(ctx context.Context, student string) (*Review, error) {
		review, err := r.host.Initiate(ctx, student, slug, opts)
		if err != nil {
			// the review may exist even though requesting reviewers failed
			return review, &Error{Op: "initiate review", Student: student, Err: err}
		}
		return review, nil
	})
}

// Status looks up the existing review of slug for each student. A student
// without a review fails with ErrNotFound, and also with ErrNoSubmissions
// when they never submitted slug. When no students are given, students
// without a submission are left out.
func (r *Reviewer) Status(ctx context.Context, slug string, students []string) ([]Result, error) {
	if err := core.ValidateSlug(slug); err != nil {
		return nil, err
	}

	return r.each(ctx, students, func(ctx context.Context, student string) (*Review, error) {
		review, err := r.host.Review(ctx, student, slug)
		if errors.Is(err, ErrNotFound) {
			if _, serr := r.host.Submissions(ctx, student, slug); errors.Is(serr, ErrNoSubmissions) {
				err = serr
			}
		}
		if err != nil {
			return nil, &Error{Op: "find review", Student: student, Err: err}
		}
		return review, nil
	})
}

// Review looks up one student's review
func (r *Reviewer) Review(ctx context.Context, slug, student string) (*Review, error) {
	if err := core.ValidateSlug(slug); err != nil {
		return nil, err
	}
	review, err := r.host.Review(ctx, student, slug)
	if err != nil {
		return nil, &Error{Op: "find review", Student: student, Err: err}
	}
	return review, nil
}

// Clone checks a student's slug branch out into dir
func (r *Reviewer) Clone(ctx context.Context, slug, student, dir string, depth int, progress io.Writer) (*workspace.Result, error) {
	if err := core.ValidateSlug(slug); err != nil {
		return nil, err
	}
	if err := core.ValidateStudent(student); err != nil {
		return nil, err
	}
	res, err := workspace.Clone(ctx, &workspace.CloneOptions{
		URL:      r.CloneURL(student),
		Branch:   slug,
		Dir:      dir,
		Depth:    depth,
		Token:    r.config.Token,
		Progress: progress,
	})
	if err != nil {
		return nil, &Error{Op: "clone", Student: student, Err: err}
	}
	return res, nil
}

// CloneURL is the clone URL of a student's repository under the
// configured git URL.
func (r *Reviewer) CloneURL(student string) string {
	base := r.config.GitURL
	if base == "" {
		base = core.DefaultGitURL
	}
	return fmt.Sprintf("%s/%s/%s.git", strings.TrimSuffix(base, "/"), r.config.Org, student)
}

// each runs fn for every student. Students listed from the host who
// never submitted are dropped from the results; named students are kept.
func (r *Reviewer) each(ctx context.Context, students []string, fn func(context.Context, string) (*Review, error)) ([]Result, error) {
	named := len(students) > 0
	students, err := r.Students(ctx, students)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(students))
	var g errgroup.Group
	g.SetLimit(r.concurrency())
	for i, student := range students {
		g.Go(func() error {
			review, err := fn(ctx, student)
			results[i] = Result{Student: student, Review: review, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	if named {
		return results, nil
	}
	kept := results[:0]
	for _, res := range results {
		if errors.Is(res.Err, ErrNoSubmissions) {
			r.logger.Debug().Str("student", res.Student).Msg("no submission")
			continue
		}
		kept = append(kept, res)
	}
	return kept, nil
}

func (r *Reviewer) concurrency() int {
	if r.config.Concurrency > 0 {
		return r.config.Concurrency
	}
	return core.DefaultConcurrency
}
