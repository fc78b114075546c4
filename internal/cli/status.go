// internal/cli/status.go
package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cs50/review50"
)

var statusCmd = &cobra.Command{
	Use:   "status <slug> [student...]",
	Short: "Show the reviews of a problem",
	Long: `Display the review pull request of each student for slug.

Without students, students who never submitted slug are left out.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	slug, students := args[0], args[1:]

	r, _, err := newReviewer()
	if err != nil {
		return err
	}
	defer r.Close()

	results, err := r.Status(ctx, slug, students)
	if err != nil {
		return err
	}

	heading(out, "Reviews of %s", slug)

	var failed int
	for _, res := range results {
		switch {
		case errors.Is(res.Err, review50.ErrNoSubmissions):
			dimColor.Fprintf(out, "  %s: no submission\n", res.Student)
		case errors.Is(res.Err, review50.ErrNotFound):
			dimColor.Fprintf(out, "  %s: not under review\n", res.Student)
		case res.Err != nil:
			failed++
			failure(out, "%s: %v", res.Student, res.Err)
		case res.Review.State == "open":
			line := fmt.Sprintf("%s: #%d open %s", res.Student, res.Review.Number, res.Review.URL)
			if len(res.Review.Reviewers) > 0 {
				line += " (" + strings.Join(res.Review.Reviewers, ", ") + ")"
			}
			success(out, "%s", line)
		default:
			skipped(out, "%s: #%d %s %s", res.Student, res.Review.Number, res.Review.State, res.Review.URL)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%s could not be looked up", plural(failed, "review"))
	}
	return nil
}
