// manager.go
package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cs50/review50/pkg/core"
)

// NewHost creates a GitHub review host
func NewHost(cfg *Config) (*Host, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Org == "" {
		return nil, fmt.Errorf("organisation is required")
	}
	if err := core.ValidateStudent(cfg.Org); err != nil {
		return nil, fmt.Errorf("organisation: %w", err)
	}
	if cfg.BranchPrefix == "" {
		cfg.BranchPrefix = core.DefaultBranchPrefix
	}
	if err := core.ValidateSlug(strings.TrimSuffix(cfg.BranchPrefix, "/")); err != nil {
		return nil, fmt.Errorf("branch prefix: %w", err)
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Host{
		client: NewClient(cfg),
		config: cfg,
		logger: logger.With().Str("host", "github").Str("org", cfg.Org).Logger(),
	}, nil
}

// Name returns the backend name
func (h *Host) Name() string {
	return "github"
}

// Close cleans up resources
func (h *Host) Close() error {
	h.client.httpClient.CloseIdleConnections()
	return nil
}

// Students lists the non-archived repositories of the organisation.
// submit50 names each repository after the student's username.
func (h *Host) Students(ctx context.Context) ([]string, error) {
	q := url.Values{"per_page": {strconv.Itoa(PerPage)}, "type": {"all"}}
	repos, err := GetAll[Repository](ctx, h.client, h.client.URL(q, "orgs", h.config.Org, "repos"))
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}

	students := make([]string, 0, len(repos))
	for _, r := range repos {
		if r.Archived {
			continue
		}
		students = append(students, r.Name)
	}
	core.SortStrings(students)

	h.logger.Debug().Int("students", len(students)).Msg("listed student repositories")
	return students, nil
}

// Submissions lists the commits of the slug branch, oldest first.
// It returns an error matching both core.ErrNoSubmissions and
// core.ErrNotFound when the student never submitted slug.
func (h *Host) Submissions(ctx context.Context, student, slug string) ([]core.Submission, error) {
	if err := validate(student, slug); err != nil {
		return nil, err
	}

	var branch Branch
	if _, err := h.client.GetJSON(ctx, h.refURL(student, slug, "branches"), &branch); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("branch %s of %s: %w: %w", slug, student, core.ErrNoSubmissions, err)
		}
		return nil, fmt.Errorf("fetching branch %s of %s: %w", slug, student, err)
	}

	q := url.Values{"sha": {slug}, "per_page": {strconv.Itoa(PerPage)}}
	commits, err := GetAll[Commit](ctx, h.client, h.repoURL(q, student, "commits"))
	if err != nil {
		return nil, fmt.Errorf("listing commits of %s: %w", student, err)
	}

	subs := make([]core.Submission, 0, len(commits))
	// the API lists newest first
	for i := len(commits) - 1; i >= 0; i-- {
		c := commits[i]
		subs = append(subs, core.Submission{
			Student: student,
			Slug:    slug,
			SHA:     c.SHA,
			Tree:    c.Commit.Tree.SHA,
			Message: firstLine(c.Commit.Message),
			Time:    c.Commit.Committer.Date,
			URL:     c.HTMLURL,
		})
	}

	h.logger.Debug().Str("student", student).Str("slug", slug).Int("submissions", len(subs)).Msg("listed submissions")
	return subs, nil
}

// Review returns the pull request previously opened for slug.
func (h *Host) Review(ctx context.Context, student, slug string) (*core.Review, error) {
	if err := validate(student, slug); err != nil {
		return nil, err
	}

	pr, err := h.findPull(ctx, student, slug)
	if err != nil {
		return nil, err
	}
	if pr == nil {
		return nil, fmt.Errorf("review of %s for %s: %w", slug, student, core.ErrNotFound)
	}

	review := h.reviewFromPull(student, slug, pr)
	review.Existing = true
	return review, nil
}

// Initiate opens a pull request whose base branch is an empty commit and
// whose head branch carries the files of the latest submission. When the
// review already exists its head is moved forward to the latest
// submission instead, and reviewers not yet asked are requested.
// When requesting reviewers fails the review is returned along with the
// error, so a later call can retry the request.
func (h *Host) Initiate(ctx context.Context, student, slug string, opts *core.ReviewOptions) (*core.Review, error) {
	if opts == nil {
		opts = &core.ReviewOptions{}
	}

	subs, err := h.Submissions(ctx, student, slug)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, fmt.Errorf("%s for %s: %w", slug, student, core.ErrNoSubmissions)
	}
	latest := subs[len(subs)-1]

	base := core.BaseBranch(h.config.BranchPrefix, slug)
	head := core.HeadBranch(h.config.BranchPrefix, slug)
	log := h.logger.With().Str("student", student).Str("slug", slug).Logger()

	existing, err := h.findPull(ctx, student, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		review := h.reviewFromPull(student, slug, existing)
		review.Existing = true
		review.Submission = latest.SHA
		review.Submissions = len(subs)
		if opts.DryRun || existing.State != "open" {
			return review, nil
		}
		updated, err := h.refreshHead(ctx, student, head, latest, len(subs))
		if err != nil {
			return nil, err
		}
		review.Updated = updated
		if updated {
			log.Info().Int("number", existing.Number).Str("sha", latest.SHA).Msg("moved review to latest submission")
		}

		pending, err := h.pendingReviewers(ctx, student, existing, opts.Reviewers)
		if err == nil {
			err = h.requestReviewers(ctx, student, existing.Number, pending)
		}
		if err != nil {
			return review, err
		}
		if len(pending) > 0 {
			review.Reviewers = append(review.Reviewers, pending...)
			log.Info().Int("number", existing.Number).Strs("reviewers", pending).Msg("requested reviewers")
		}
		return review, nil
	}

	review := &core.Review{
		Student:     student,
		Slug:        slug,
		Base:        base,
		Head:        head,
		State:       "planned",
		Submission:  latest.SHA,
		Submissions: len(subs),
		Reviewers:   opts.Reviewers,
	}
	if opts.DryRun {
		log.Debug().Msg("dry run, skipping writes")
		return review, nil
	}

	baseSHA, err := h.ensureBase(ctx, student, slug, base)
	if err != nil {
		return nil, err
	}

	headCommit, err := h.createCommit(ctx, student, &NewCommit{
		Message: submissionMessage(slug, latest, len(subs)),
		Tree:    latest.Tree,
		Parents: []string{baseSHA},
	})
	if err != nil {
		return nil, err
	}
	if err := h.setRef(ctx, student, head, headCommit.SHA); err != nil {
		return nil, err
	}
	log.Debug().Str("base", base).Str("head", head).Msg("created review branches")

	var pr PullRequest
	err = h.client.PostJSON(ctx, h.repoURL(nil, student, "pulls"), &NewPullRequest{
		Title: "Review: " + slug,
		Head:  head,
		Base:  base,
		Body:  pullBody(student, slug, subs),
		Draft: opts.Draft,
	}, &pr)
	if err != nil {
		return nil, fmt.Errorf("opening pull request: %w", err)
	}
	log.Info().Int("number", pr.Number).Str("url", pr.HTMLURL).Msg("opened review")

	created := h.reviewFromPull(student, slug, &pr)
	created.Submission = latest.SHA
	created.Submissions = len(subs)
	if err := h.requestReviewers(ctx, student, pr.Number, opts.Reviewers); err != nil {
		return created, err
	}
	created.Reviewers = opts.Reviewers
	return created, nil
}

// pendingReviewers returns the logins of want that are neither requested
// on pr nor have reviewed it already.
func (h *Host) pendingReviewers(ctx context.Context, student string, pr *PullRequest, want []string) ([]string, error) {
	seen := make(map[string]bool)
	for _, u := range pr.RequestedReviewers {
		seen[strings.ToLower(u.Login)] = true
	}
	if len(unseen(want, seen)) == 0 {
		return nil, nil
	}

	q := url.Values{"per_page": {strconv.Itoa(PerPage)}}
	reviews, err := GetAll[PullReview](ctx, h.client, h.repoURL(q, student, "pulls", strconv.Itoa(pr.Number), "reviews"))
	if err != nil {
		return nil, fmt.Errorf("listing reviews of #%d: %w", pr.Number, err)
	}
	for _, r := range reviews {
		seen[strings.ToLower(r.User.Login)] = true
	}
	return unseen(want, seen), nil
}

func (h *Host) requestReviewers(ctx context.Context, student string, number int, logins []string) error {
	if len(logins) == 0 {
		return nil
	}
	err := h.client.PostJSON(ctx, h.repoURL(nil, student, "pulls", strconv.Itoa(number), "requested_reviewers"),
		&ReviewerRequest{Reviewers: logins}, nil)
	if err != nil {
		return fmt.Errorf("requesting reviewers on #%d: %w", number, err)
	}
	return nil
}

func unseen(logins []string, seen map[string]bool) []string {
	var out []string
	for _, l := range logins {
		if !seen[strings.ToLower(l)] {
			out = append(out, l)
		}
	}
	return out
}

// ensureBase returns the commit of the base branch, creating an empty
// root commit and the branch when missing.
func (h *Host) ensureBase(ctx context.Context, student, slug, base string) (string, error) {
	if sha, err := h.refSHA(ctx, student, base); err == nil {
		return sha, nil
	} else if !errors.Is(err, core.ErrNotFound) {
		return "", err
	}

	commit, err := h.createCommit(ctx, student, &NewCommit{
		Message: "Start review of " + slug,
		Tree:    EmptyTreeSHA,
		Parents: []string{},
	})
	if err != nil {
		return "", err
	}
	err = h.client.PostJSON(ctx, h.repoURL(nil, student, "git", "refs"),
		&NewRef{Ref: "refs/heads/" + base, SHA: commit.SHA}, nil)
	if err != nil {
		return "", fmt.Errorf("creating branch %s: %w", base, err)
	}
	return commit.SHA, nil
}

// refreshHead commits the latest submission's tree on top of the head
// branch when the two differ. It reports whether the branch moved.
func (h *Host) refreshHead(ctx context.Context, student, head string, latest core.Submission, n int) (bool, error) {
	headSHA, err := h.refSHA(ctx, student, head)
	if err != nil {
		return false, err
	}

	var current GitCommit
	if _, err := h.client.GetJSON(ctx, h.repoURL(nil, student, "git", "commits", headSHA), &current); err != nil {
		return false, fmt.Errorf("fetching commit %s: %w", shortSHA(headSHA), err)
	}
	if current.Tree.SHA == latest.Tree {
		return false, nil
	}

	commit, err := h.createCommit(ctx, student, &NewCommit{
		Message: submissionMessage(latest.Slug, latest, n),
		Tree:    latest.Tree,
		Parents: []string{headSHA},
	})
	if err != nil {
		return false, err
	}
	err = h.client.PatchJSON(ctx, h.refURL(student, head, "git", "refs", "heads"),
		&UpdateRef{SHA: commit.SHA}, nil)
	if err != nil {
		return false, fmt.Errorf("updating branch %s: %w", head, err)
	}
	return true, nil
}

// setRef points branch at sha, creating it or force-moving a leftover
// branch from an earlier, abandoned review.
func (h *Host) setRef(ctx context.Context, student, branch, sha string) error {
	err := h.client.PostJSON(ctx, h.repoURL(nil, student, "git", "refs"),
		&NewRef{Ref: "refs/heads/" + branch, SHA: sha}, nil)
	if err == nil {
		return nil
	}
	if !IsAlreadyExists(err) {
		return fmt.Errorf("creating branch %s: %w", branch, err)
	}
	err = h.client.PatchJSON(ctx, h.refURL(student, branch, "git", "refs", "heads"),
		&UpdateRef{SHA: sha, Force: true}, nil)
	if err != nil {
		return fmt.Errorf("updating branch %s: %w", branch, err)
	}
	return nil
}

func (h *Host) refSHA(ctx context.Context, student, branch string) (string, error) {
	var ref Ref
	if _, err := h.client.GetJSON(ctx, h.refURL(student, branch, "git", "ref", "heads"), &ref); err != nil {
		return "", fmt.Errorf("fetching branch %s: %w", branch, err)
	}
	return ref.Object.SHA, nil
}

func (h *Host) createCommit(ctx context.Context, student string, c *NewCommit) (*GitCommit, error) {
	var out GitCommit
	if err := h.client.PostJSON(ctx, h.repoURL(nil, student, "git", "commits"), c, &out); err != nil {
		return nil, fmt.Errorf("creating commit: %w", err)
	}
	return &out, nil
}

func (h *Host) findPull(ctx context.Context, student, slug string) (*PullRequest, error) {
	base := core.BaseBranch(h.config.BranchPrefix, slug)
	head := core.HeadBranch(h.config.BranchPrefix, slug)
	q := url.Values{
		"head":     {h.config.Org + ":" + head},
		"base":     {base},
		"state":    {"all"},
		"per_page": {strconv.Itoa(PerPage)},
	}
	var pulls []PullRequest
	_, err := h.client.GetJSON(ctx, h.repoURL(q, student, "pulls"), &pulls)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("repository %s/%s: %w", h.config.Org, student, err)
		}
		return nil, fmt.Errorf("listing pull requests: %w", err)
	}

	// prefer an open review over a closed one
	var found *PullRequest
	for i := range pulls {
		p := &pulls[i]
		if p.Head.Ref != head || p.Base.Ref != base {
			continue
		}
		if found == nil || (p.State == "open" && found.State != "open") {
			found = p
		}
	}
	return found, nil
}

// repoURL addresses an endpoint of student's repository
func (h *Host) repoURL(q url.Values, student string, path ...string) string {
	return h.client.URL(q, append([]string{"repos", h.config.Org, student}, path...)...)
}

// refURL is repoURL followed by a branch name whose slashes stay path
// separators, as GitHub expects for branch and ref endpoints.
func (h *Host) refURL(student, branch string, path ...string) string {
	segments := append(append([]string{}, path...), strings.Split(branch, "/")...)
	return h.repoURL(nil, student, segments...)
}

func validate(student, slug string) error {
	if err := core.ValidateStudent(student); err != nil {
		return err
	}
	return core.ValidateSlug(slug)
}

func (h *Host) reviewFromPull(student, slug string, pr *PullRequest) *core.Review {
	reviewers := make([]string, 0, len(pr.RequestedReviewers))
	for _, u := range pr.RequestedReviewers {
		reviewers = append(reviewers, u.Login)
	}
	return &core.Review{
		Student:   student,
		Slug:      slug,
		Base:      pr.Base.Ref,
		Head:      pr.Head.Ref,
		Number:    pr.Number,
		URL:       pr.HTMLURL,
		State:     pr.State,
		Reviewers: reviewers,
		Created:   pr.CreatedAt,
	}
}

func pullBody(student, slug string, subs []core.Submission) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Code review of `%s` for @%s.\n\n", slug, student)
	b.WriteString("The diff shows the files of the latest submission. New submissions are added as commits.\n\n")
	b.WriteString("| # | Commit | Submitted | Message |\n|---|---|---|---|\n")
	for i, s := range subs {
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", i+1, shortSHA(s.SHA), s.Time.UTC().Format(time.RFC3339), escapeCell(s.Message))
	}
	return b.String()
}

func submissionMessage(slug string, s core.Submission, n int) string {
	return fmt.Sprintf("Submission %d of %s\n\nSubmitted %s as %s.", n, slug, s.Time.UTC().Format(time.RFC3339), s.SHA)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
