// internal/cli/submissions.go
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var submissionsCmd = &cobra.Command{
	Use:     "submissions <slug> [student...]",
	Aliases: []string{"list", "ls"},
	Short:   "List submissions of a problem",
	Long:    `List every submission of slug, grouped by student in natural order.`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runSubmissions,
}

func runSubmissions(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	slug, students := args[0], args[1:]

	r, _, err := newReviewer()
	if err != nil {
		return err
	}
	defer r.Close()

	subs, err := r.Submissions(ctx, slug, students)
	if err != nil {
		return err
	}

	if len(subs) == 0 {
		skipped(out, "no submissions of %s", slug)
		return nil
	}

	var current string
	count := 0
	for _, s := range subs {
		if s.Student != current {
			current = s.Student
			count++
			boldColor.Fprintf(out, "%s\n", s.Student)
		}
		fmt.Fprintf(out, "  %s  %s  %s\n",
			infoColor.Sprint(shortSHA(s.SHA)),
			dimColor.Sprint(s.Time.Local().Format(time.DateTime)),
			s.Message)
	}

	fmt.Fprintln(out)
	infoColor.Fprintf(out, "%s from %s\n", plural(len(subs), "submission"), plural(count, "student"))
	return nil
}
