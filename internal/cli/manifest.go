// internal/cli/manifest.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cs50/review50/pkg/manifest"
)

var (
	manifestFormat string
	manifestFile   string
	manifestCheck  bool
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Print or check the package manifest",
	Long: `Print the package metadata of review50, or of another manifest file.

Examples:
  review50 manifest
  review50 manifest --format json
  review50 manifest --file review50.toml --check`,
	Args: cobra.NoArgs,
	RunE: runManifest,
}

func init() {
	manifestCmd.Flags().StringVar(&manifestFormat, "format", "toml", "output format (toml, yaml, json)")
	manifestCmd.Flags().StringVar(&manifestFile, "file", "", "manifest file to read instead of the built-in one")
	manifestCmd.Flags().BoolVar(&manifestCheck, "check", false, "validate instead of printing")
}

func runManifest(cmd *cobra.Command, args []string) error {
	m := meta
	if manifestFile != "" {
		loaded, err := manifest.Load(manifestFile)
		if err != nil {
			return err
		}
		m = loaded
	}

	if manifestCheck {
		if err := m.Validate(); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "%s %s is valid", m.Name, m.Version)
		return nil
	}

	data, err := m.Encode(manifestFormat)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), string(data))
	return err
}
