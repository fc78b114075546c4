// internal/cli/init.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cs50/review50"
)

var (
	initReviewers []string
	initDraft     bool
	initDryRun    bool
)

var initCmd = &cobra.Command{
	Use:   "init <slug> [student...]",
	Short: "Initiate code reviews of a problem",
	Long: `Open a review pull request for each student who submitted slug.

Without students, every repository of the organisation is considered and
students who never submitted slug are skipped. Running init again moves
existing reviews to the latest submission and requests any reviewers not
asked yet.

Examples:
  review50 init cs50/problems/2024/x/hello
  review50 init cs50/problems/2024/x/hello jharvard dmalan --reviewer ta1
  review50 init cs50/problems/2024/x/hello --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringSliceVar(&initReviewers, "reviewer", nil, "request a review from this user (repeatable)")
	initCmd.Flags().BoolVar(&initDraft, "draft", false, "open pull requests as drafts")
	initCmd.Flags().BoolVar(&initDryRun, "dry-run", false, "show what would be done without writing")
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	slug, students := args[0], args[1:]

	r, _, err := newReviewer()
	if err != nil {
		return err
	}
	defer r.Close()

	results, err := r.Initiate(ctx, slug, students, &review50.ReviewOptions{
		Reviewers: initReviewers,
		Draft:     initDraft,
		DryRun:    initDryRun,
	})
	if err != nil {
		return err
	}

	heading(out, "Reviews of %s", slug)

	var failed, opened, existing int
	for _, res := range results {
		switch {
		case res.Err != nil && res.Review != nil:
			failed++
			failure(out, "%s: %s: %v", res.Student, res.Review.URL, res.Err)
		case res.Err != nil:
			failed++
			failure(out, "%s: %v", res.Student, res.Err)
		case res.Review.State == "planned":
			opened++
			skipped(out, "%s: would review %s (%s)", res.Student,
				shortSHA(res.Review.Submission), plural(res.Review.Submissions, "submission"))
		case res.Review.Existing && res.Review.Updated:
			existing++
			success(out, "%s: moved to %s %s", res.Student, shortSHA(res.Review.Submission), res.Review.URL)
		case res.Review.Existing:
			existing++
			skipped(out, "%s: already under review %s", res.Student, res.Review.URL)
		default:
			opened++
			success(out, "%s: opened %s", res.Student, res.Review.URL)
		}
	}

	fmt.Fprintln(out)
	infoColor.Fprintf(out, "%d opened, %d existing, %d failed\n", opened, existing, failed)

	if failed > 0 {
		return fmt.Errorf("%s failed", plural(failed, "review"))
	}
	return nil
}
