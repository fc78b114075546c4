// internal/cli/open.go
package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cs50/review50/pkg/platform"
)

var openCmd = &cobra.Command{
	Use:   "open <slug> <student>",
	Short: "Open a review in the browser",
	Args:  cobra.ExactArgs(2),
	RunE:  runOpen,
}

// openURL launches the browser; tests replace it
var openURL = func(ctx context.Context, url string, logger zerolog.Logger) error {
	plat, err := platform.Detect()
	if err != nil {
		return fmt.Errorf("detecting platform: %w", err)
	}
	logger.Debug().Str("platform", plat.String()).Str("url", url).Msg("opening review")
	return plat.Open(ctx, url)
}

func runOpen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	slug, student := args[0], args[1]

	r, logger, err := newReviewer()
	if err != nil {
		return err
	}
	defer r.Close()

	review, err := r.Review(ctx, slug, student)
	if err != nil {
		return err
	}

	if err := openURL(ctx, review.URL, logger); err != nil {
		// still useful on headless machines
		fmt.Fprintln(cmd.OutOrStdout(), review.URL)
		return err
	}
	success(cmd.OutOrStdout(), "opened %s", review.URL)
	return nil
}
