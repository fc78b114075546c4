// internal/cli/clone.go
package cli

import (
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
)

var cloneDepth int

var cloneCmd = &cobra.Command{
	Use:   "clone <slug> <student> [dir]",
	Short: "Clone a submission for offline review",
	Long: `Check out a student's slug branch locally.

The directory defaults to ./<student>/<last slug component>.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runClone,
}

func init() {
	cloneCmd.Flags().IntVar(&cloneDepth, "depth", 0, "fetch only the latest N submissions (0 for all)")
}

func runClone(cmd *cobra.Command, args []string) error {
	slug, student := args[0], args[1]
	dir := filepath.Join(student, filepath.Base(slug))
	if len(args) == 3 {
		dir = args[2]
	}

	r, _, err := newReviewer()
	if err != nil {
		return err
	}
	defer r.Close()

	var progress io.Writer
	if config.Debug {
		progress = cmd.ErrOrStderr()
	}

	res, err := r.Clone(cmd.Context(), slug, student, dir, cloneDepth, progress)
	if err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "cloned %s of %s at %s into %s", slug, student, shortSHA(res.Commit), res.Dir)
	return nil
}
