package core

import (
	"fmt"
	"strings"
	"unicode"
)

// ValidateSlug checks that slug can name a git branch, following the
// subset of git-check-ref-format rules that submit50 slugs can violate.
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSlug)
	}
	if strings.HasPrefix(slug, "/") || strings.HasSuffix(slug, "/") {
		return fmt.Errorf("%w: %q starts or ends with /", ErrInvalidSlug, slug)
	}
	if strings.HasSuffix(slug, ".lock") || strings.HasSuffix(slug, ".") {
		return fmt.Errorf("%w: %q has a forbidden suffix", ErrInvalidSlug, slug)
	}
	for _, bad := range []string{"..", "//", "@{"} {
		if strings.Contains(slug, bad) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidSlug, slug, bad)
		}
	}
	for _, r := range slug {
		if unicode.IsSpace(r) || unicode.IsControl(r) || strings.ContainsRune("~^:?*[\\", r) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidSlug, slug, r)
		}
	}
	for _, part := range strings.Split(slug, "/") {
		if strings.HasPrefix(part, ".") {
			return fmt.Errorf("%w: component %q starts with a dot", ErrInvalidSlug, part)
		}
	}
	return nil
}

// ValidateStudent checks that name can be a repository name, so it
// cannot address another endpoint when placed in an API path.
func ValidateStudent(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidStudent, name)
	}
	for _, r := range name {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("._-", r)) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidStudent, name, r)
		}
	}
	return nil
}

// BaseBranch names the empty branch a review of slug is opened against.
func BaseBranch(prefix, slug string) string {
	return reviewBranch(prefix, "base", slug)
}

// HeadBranch names the branch carrying the submitted files under review.
func HeadBranch(prefix, slug string) string {
	return reviewBranch(prefix, "head", slug)
}

func reviewBranch(prefix, kind, slug string) string {
	if prefix == "" {
		prefix = DefaultBranchPrefix
	}
	return strings.TrimSuffix(prefix, "/") + "/" + kind + "/" + slug
}
