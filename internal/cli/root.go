// internal/cli/root.go
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cs50/review50"
	"github.com/cs50/review50/internal/log"
	"github.com/cs50/review50/pkg/core"
	"github.com/cs50/review50/pkg/manifest"
)

var (
	cfgFile string
	org     string
	debug   bool
	noColor bool
	config  *core.Config
	meta    = manifest.MustDefault()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "review50",
	Short: meta.Description,
	Long: `review50 initiates code reviews of submit50 submissions.

Each student's submissions live on a branch named after the problem slug
in the student's repository of the submissions organisation. review50
opens a pull request per student showing the latest submitted files,
so staff can comment line by line.`,
	Version:       meta.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute executes the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/review50/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&org, "org", "", "organisation holding student repositories (default me50)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	// Add commands
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(submissionsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(cloneCmd)
	rootCmd.AddCommand(manifestCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() error {
	var err error
	config, err = core.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Override config with flags
	if org != "" {
		config.Org = org
	}
	if debug {
		config.Debug = true
	}
	if noColor {
		color.NoColor = true
	}

	level := ""
	if config.Debug {
		level = "debug"
	}
	log.Configure(log.Config{Level: level})
	return nil
}

func newReviewer() (*review50.Reviewer, zerolog.Logger, error) {
	logger := log.WithComponent("review")
	r, err := review50.NewReviewer(config, logger)
	if err != nil {
		return nil, logger, fmt.Errorf("initializing reviewer: %w", err)
	}
	logger.Debug().Str("host", r.Host()).Str("org", config.Org).Msg("reviewer ready")
	return r, logger, nil
}
