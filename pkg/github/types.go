// types.go
package github

import (
	"time"

	"github.com/rs/zerolog"
)

// Config configures the GitHub review host
type Config struct {
	APIURL       string        // Default: https://api.github.com
	Org          string        // Organisation holding one repository per student
	Token        string        // Personal access or app token
	UserAgent    string        // Sent with every request
	BranchPrefix string        // Review base branch prefix (default: review50)
	Timeout      time.Duration // Per-request timeout
	Rate         float64       // Requests per second (0 uses DefaultRate)
	Burst        int           // Burst size (0 uses DefaultBurst)
	Logger       *zerolog.Logger
}

// Host implements core.ReviewHost on top of GitHub pull requests
type Host struct {
	client *Client
	config *Config
	logger zerolog.Logger
}

// Repository is the subset of a repository object review50 reads
type Repository struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	DefaultBranch string `json:"default_branch"`
	Archived      bool   `json:"archived"`
	CloneURL      string `json:"clone_url"`
}

// Branch is returned by GET /repos/{owner}/{repo}/branches/{branch}
type Branch struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// Commit is an element of GET /repos/{owner}/{repo}/commits
type Commit struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
	Commit  struct {
		Message string `json:"message"`
		Tree    struct {
			SHA string `json:"sha"`
		} `json:"tree"`
		Committer struct {
			Name string    `json:"name"`
			Date time.Time `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
	Parents []struct {
		SHA string `json:"sha"`
	} `json:"parents"`
}

// PullRequest is the subset of a pull request object review50 reads
type PullRequest struct {
	Number    int       `json:"number"`
	State     string    `json:"state"`
	HTMLURL   string    `json:"html_url"`
	Title     string    `json:"title"`
	Draft     bool      `json:"draft"`
	CreatedAt time.Time `json:"created_at"`
	Head      PullRef   `json:"head"`
	Base      PullRef   `json:"base"`

	RequestedReviewers []User `json:"requested_reviewers"`
}

// PullRef is the head or base of a pull request
type PullRef struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// User is a GitHub account
type User struct {
	Login string `json:"login"`
}

// PullReview is an element of GET /repos/{owner}/{repo}/pulls/{number}/reviews
type PullReview struct {
	ID    int64  `json:"id"`
	User  User   `json:"user"`
	State string `json:"state"`
}

// NewPullRequest is the body of POST /repos/{owner}/{repo}/pulls
type NewPullRequest struct {
	Title string `json:"title"`
	Head  string `json:"head"`
	Base  string `json:"base"`
	Body  string `json:"body,omitempty"`
	Draft bool   `json:"draft,omitempty"`
}

// NewRef is the body of POST /repos/{owner}/{repo}/git/refs
type NewRef struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// UpdateRef is the body of PATCH /repos/{owner}/{repo}/git/refs/{ref}
type UpdateRef struct {
	SHA   string `json:"sha"`
	Force bool   `json:"force"`
}

// Ref is returned by GET /repos/{owner}/{repo}/git/ref/{ref}
type Ref struct {
	Ref    string `json:"ref"`
	Object struct {
		SHA string `json:"sha"`
	} `json:"object"`
}

// GitCommit is a commit object of the git database API
type GitCommit struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
	Tree    struct {
		SHA string `json:"sha"`
	} `json:"tree"`
}

// NewCommit is the body of POST /repos/{owner}/{repo}/git/commits
type NewCommit struct {
	Message string   `json:"message"`
	Tree    string   `json:"tree"`
	Parents []string `json:"parents"`
}

// ReviewerRequest is the body of POST .../pulls/{number}/requested_reviewers
type ReviewerRequest struct {
	Reviewers []string `json:"reviewers"`
}

// apiError is the JSON error document GitHub returns
type apiError struct {
	Message string `json:"message"`
	Errors  []struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"errors"`
}
