// Package workspace checks submissions out locally for offline review.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// ErrNotEmpty is returned when the clone destination already has files
var ErrNotEmpty = errors.New("destination is not empty")

// CloneOptions configures a submission checkout
type CloneOptions struct {
	URL      string    // Repository clone URL or local path
	Branch   string    // Slug branch to check out
	Dir      string    // Destination directory
	Depth    int       // Number of submissions to fetch (0 for all)
	Token    string    // Sent as basic auth password over http(s)
	Progress io.Writer // Optional clone progress output
}

// Result describes a finished checkout
type Result struct {
	Dir    string
	Branch string
	Commit string
}

// Clone fetches only the slug branch into opts.Dir.
func Clone(ctx context.Context, opts *CloneOptions) (*Result, error) {
	if opts.URL == "" || opts.Branch == "" || opts.Dir == "" {
		return nil, fmt.Errorf("url, branch and dir are required")
	}
	if err := ensureEmpty(opts.Dir); err != nil {
		return nil, err
	}

	co := &git.CloneOptions{
		URL:           opts.URL,
		ReferenceName: plumbing.NewBranchReferenceName(opts.Branch),
		SingleBranch:  true,
		Depth:         opts.Depth,
		Progress:      opts.Progress,
	}
	if opts.Token != "" && isHTTP(opts.URL) {
		co.Auth = &githttp.BasicAuth{Username: "x-access-token", Password: opts.Token}
	}

	repo, err := git.PlainCloneContext(ctx, opts.Dir, false, co)
	if err != nil {
		return nil, fmt.Errorf("git clone failed: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("reading HEAD: %w", err)
	}

	return &Result{
		Dir:    opts.Dir,
		Branch: opts.Branch,
		Commit: head.Hash().String(),
	}, nil
}

func ensureEmpty(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("%s: %w", dir, ErrNotEmpty)
	}
	return nil
}

func isHTTP(u string) bool {
	return strings.HasPrefix(u, "https://") || strings.HasPrefix(u, "http://")
}
