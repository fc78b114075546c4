package github

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeGitHub serves the slice of the REST API the host uses, backed by
// in-memory repositories.
type fakeGitHub struct {
	t   *testing.T
	org string

	mu       sync.Mutex
	repos    map[string]*fakeRepo
	trees    map[string]string // commit sha -> tree sha
	requests []string
}

type fakeRepo struct {
	archived  bool
	branches  map[string][]Commit // slug -> commits, oldest first
	refs      map[string]string   // branch -> sha
	pulls     []PullRequest
	reviewers map[int][]string // requested, by pull number
	reviewed  map[int][]string // submitted a review, by pull number

	// rejectReviewers answers reviewer requests the way GitHub does when
	// asked for a review from the pull request author
	rejectReviewers bool
}

func newFakeGitHub(t *testing.T, org string) (*fakeGitHub, *httptest.Server) {
	f := &fakeGitHub{
		t:     t,
		org:   org,
		repos: make(map[string]*fakeRepo),
		trees: make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /orgs/{org}/repos", f.listRepos)
	mux.HandleFunc("GET /repos/{org}/{repo}/branches/{branch...}", f.getBranch)
	mux.HandleFunc("GET /repos/{org}/{repo}/commits", f.listCommits)
	mux.HandleFunc("GET /repos/{org}/{repo}/pulls", f.listPulls)
	mux.HandleFunc("POST /repos/{org}/{repo}/pulls", f.createPull)
	mux.HandleFunc("POST /repos/{org}/{repo}/pulls/{number}/requested_reviewers", f.requestReviewers)
	mux.HandleFunc("GET /repos/{org}/{repo}/pulls/{number}/reviews", f.listReviews)
	mux.HandleFunc("GET /repos/{org}/{repo}/git/ref/heads/{branch...}", f.getRef)
	mux.HandleFunc("POST /repos/{org}/{repo}/git/refs", f.createRef)
	mux.HandleFunc("PATCH /repos/{org}/{repo}/git/refs/heads/{branch...}", f.updateRef)
	mux.HandleFunc("POST /repos/{org}/{repo}/git/commits", f.createCommit)
	mux.HandleFunc("GET /repos/{org}/{repo}/git/commits/{sha}", f.getCommit)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer secret" {
			writeError(w, http.StatusUnauthorized, "Bad credentials")
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeGitHub) host(t *testing.T, srvURL string) *Host {
	t.Helper()
	h, err := NewHost(&Config{APIURL: srvURL, Org: f.org, Token: "secret", UserAgent: "review50/test", Rate: 1000, Burst: 1000})
	if err != nil {
		t.Fatalf("NewHost: %v", err)
	}
	return h
}

// submit appends a submission commit to student's slug branch.
func (f *fakeGitHub) submit(student, slug, message string, at time.Time) Commit {
	f.mu.Lock()
	defer f.mu.Unlock()

	repo := f.repo(student)
	var c Commit
	c.SHA = fakeSHA("commit", student, slug, message)
	c.HTMLURL = "https://github.com/" + f.org + "/" + student + "/commit/" + c.SHA
	c.Commit.Message = message
	c.Commit.Tree.SHA = fakeSHA("tree", student, slug, message)
	c.Commit.Committer.Date = at
	repo.branches[slug] = append(repo.branches[slug], c)
	repo.refs[slug] = c.SHA
	f.trees[c.SHA] = c.Commit.Tree.SHA
	return c
}

func (f *fakeGitHub) repo(name string) *fakeRepo {
	r, ok := f.repos[name]
	if !ok {
		r = &fakeRepo{
			branches:  make(map[string][]Commit),
			refs:      make(map[string]string),
			reviewers: make(map[int][]string),
			reviewed:  make(map[int][]string),
		}
		f.repos[name] = r
	}
	return r
}

func (f *fakeGitHub) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeGitHub) lookup(w http.ResponseWriter, r *http.Request) (*fakeRepo, bool) {
	if r.PathValue("org") != f.org {
		writeError(w, http.StatusNotFound, "Not Found")
		return nil, false
	}
	repo, ok := f.repos[r.PathValue("repo")]
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return nil, false
	}
	return repo, true
}

func (f *fakeGitHub) listRepos(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var all []Repository
	for name, repo := range f.repos {
		all = append(all, Repository{Name: name, FullName: f.org + "/" + name, Archived: repo.archived})
	}

	// two repositories per page to exercise pagination
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page == 0 {
		page = 1
	}
	start, end := (page-1)*2, page*2
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	if end < len(all) {
		next := fmt.Sprintf("http://%s%s?page=%d", r.Host, r.URL.Path, page+1)
		w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="next", <%s>; rel="last"`, next, next))
	}
	writeJSON(w, http.StatusOK, all[start:end])
}

func (f *fakeGitHub) getBranch(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	repo, ok := f.lookup(w, r)
	if !ok {
		return
	}
	name := r.PathValue("branch")
	sha, ok := repo.refs[name]
	if !ok {
		writeError(w, http.StatusNotFound, "Branch not found")
		return
	}
	var b Branch
	b.Name = name
	b.Commit.SHA = sha
	writeJSON(w, http.StatusOK, b)
}

func (f *fakeGitHub) listCommits(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	repo, ok := f.lookup(w, r)
	if !ok {
		return
	}
	commits := repo.branches[r.URL.Query().Get("sha")]
	newestFirst := make([]Commit, 0, len(commits))
	for i := len(commits) - 1; i >= 0; i-- {
		newestFirst = append(newestFirst, commits[i])
	}
	writeJSON(w, http.StatusOK, newestFirst)
}

func (f *fakeGitHub) listPulls(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	repo, ok := f.lookup(w, r)
	if !ok {
		return
	}
	head := strings.TrimPrefix(r.URL.Query().Get("head"), f.org+":")
	base := r.URL.Query().Get("base")
	out := []PullRequest{}
	for _, p := range repo.pulls {
		if p.Head.Ref == head && p.Base.Ref == base {
			p.RequestedReviewers = nil
			for _, login := range repo.reviewers[p.Number] {
				p.RequestedReviewers = append(p.RequestedReviewers, User{Login: login})
			}
			out = append(out, p)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *fakeGitHub) createPull(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	repo, ok := f.lookup(w, r)
	if !ok {
		return
	}
	var in NewPullRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	headSHA, ok := repo.refs[in.Head]
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "Validation Failed")
		return
	}
	if _, ok := repo.refs[in.Base]; !ok {
		writeError(w, http.StatusUnprocessableEntity, "Validation Failed")
		return
	}
	pr := PullRequest{
		Number:    len(repo.pulls) + 1,
		State:     "open",
		Title:     in.Title,
		Draft:     in.Draft,
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Head:      PullRef{Ref: in.Head, SHA: headSHA},
		Base:      PullRef{Ref: in.Base, SHA: repo.refs[in.Base]},
	}
	pr.HTMLURL = fmt.Sprintf("https://github.com/%s/%s/pull/%d", f.org, r.PathValue("repo"), pr.Number)
	repo.pulls = append(repo.pulls, pr)
	writeJSON(w, http.StatusCreated, pr)
}

func (f *fakeGitHub) requestReviewers(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	repo, ok := f.lookup(w, r)
	if !ok {
		return
	}
	if repo.rejectReviewers {
		writeError(w, http.StatusUnprocessableEntity, "Review cannot be requested from pull request author.")
		return
	}
	n, _ := strconv.Atoi(r.PathValue("number"))
	var in ReviewerRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	repo.reviewers[n] = append(repo.reviewers[n], in.Reviewers...)
	writeJSON(w, http.StatusCreated, map[string]int{"number": n})
}

func (f *fakeGitHub) listReviews(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	repo, ok := f.lookup(w, r)
	if !ok {
		return
	}
	n, _ := strconv.Atoi(r.PathValue("number"))
	out := []PullReview{}
	for i, login := range repo.reviewed[n] {
		out = append(out, PullReview{ID: int64(i + 1), User: User{Login: login}, State: "COMMENTED"})
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *fakeGitHub) getRef(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	repo, ok := f.lookup(w, r)
	if !ok {
		return
	}
	branch := r.PathValue("branch")
	sha, ok := repo.refs[branch]
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	var ref Ref
	ref.Ref = "refs/heads/" + branch
	ref.Object.SHA = sha
	writeJSON(w, http.StatusOK, ref)
}

func (f *fakeGitHub) createRef(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	repo, ok := f.lookup(w, r)
	if !ok {
		return
	}
	var in NewRef
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	branch := strings.TrimPrefix(in.Ref, "refs/heads/")
	if _, exists := repo.refs[branch]; exists {
		writeError(w, http.StatusUnprocessableEntity, "Reference already exists")
		return
	}
	repo.refs[branch] = in.SHA
	writeJSON(w, http.StatusCreated, map[string]string{"ref": in.Ref})
}

func (f *fakeGitHub) updateRef(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	repo, ok := f.lookup(w, r)
	if !ok {
		return
	}
	branch := r.PathValue("branch")
	if _, exists := repo.refs[branch]; !exists {
		writeError(w, http.StatusUnprocessableEntity, "Reference does not exist")
		return
	}
	var in UpdateRef
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	repo.refs[branch] = in.SHA
	for i := range repo.pulls {
		if repo.pulls[i].Head.Ref == branch {
			repo.pulls[i].Head.SHA = in.SHA
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"ref": "refs/heads/" + branch})
}

func (f *fakeGitHub) createCommit(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.lookup(w, r); !ok {
		return
	}
	var in NewCommit
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var c GitCommit
	c.SHA = fakeSHA(append([]string{"git", in.Message, in.Tree}, in.Parents...)...)
	c.Message = in.Message
	c.Tree.SHA = in.Tree
	f.trees[c.SHA] = in.Tree
	writeJSON(w, http.StatusCreated, c)
}

func (f *fakeGitHub) getCommit(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.lookup(w, r); !ok {
		return
	}
	sha := r.PathValue("sha")
	tree, ok := f.trees[sha]
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	var c GitCommit
	c.SHA = sha
	c.Tree.SHA = tree
	writeJSON(w, http.StatusOK, c)
}

func fakeSHA(parts ...string) string {
	sum := sha1.Sum([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
