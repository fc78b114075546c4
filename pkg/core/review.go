package core

import "time"

// Submission is one submit50 push: a commit on the slug branch
type Submission struct {
	Student string
	Slug    string
	SHA     string
	Tree    string // tree of the submitted files
	Message string
	Time    time.Time
	URL     string
}

// Review is a pull request opened for a student's slug. The base branch
// holds an empty tree and the head branch the latest submitted files, so
// the pull request diff covers the whole submission.
type Review struct {
	Student     string
	Slug        string
	Base        string
	Head        string
	Number      int
	URL         string
	State       string // open, closed, planned
	Submission  string // sha of the submission under review
	Submissions int
	Reviewers   []string
	Existing    bool // found rather than created
	Updated     bool // head moved to a newer submission
	Created     time.Time
}
