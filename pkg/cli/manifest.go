package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/nxld/pkg/plugins"
)

// NewManifestCommand creates the manifest command
func NewManifestCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "manifest <file.nxp>",
		Short: "Print and check a plugin manifest",
		Long: `Read a .nxp manifest written by a previous load, print it in the
selected output format and report any inconsistency it contains.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			quiet, _ := cmd.Flags().GetBool("quiet")
			return runManifest(cmd, app, args[0], quiet)
		},
	}

	cmd.Flags().BoolP("quiet", "q", false, "Only check the manifest, print nothing on success")

	return cmd
}

func runManifest(cmd *cobra.Command, app *App, path string, quiet bool) error {
	m, err := plugins.ReadManifest(path)
	if err != nil {
		return err
	}

	if problems := plugins.ValidateManifest(m); len(problems) > 0 {
		stderr := cmd.ErrOrStderr()
		for _, p := range problems {
			fmt.Fprintf(stderr, "  %s\n", p.Error())
		}
		return fmt.Errorf("manifest %s has %d problem(s)", path, len(problems))
	}

	if quiet {
		return nil
	}

	return writeOutput(cmd.OutOrStdout(), app.Settings.Output, m, func(w io.Writer) error {
		return plugins.EncodeManifest(w, m)
	})
}
