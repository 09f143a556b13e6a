package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/nxld/pkg/config"
)

// NewValidateCommand creates the validate command
func NewValidateCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [config]",
		Short: "Parse and validate a configuration document",
		Long: `Parse an engine configuration document and run every validation rule
without loading any plugin.

This command checks:
- The file encoding and the EngineCore section
- LockMode and MaxRootPlugins
- That every enabled plugin exists and carries the platform module extension
- The VirtualParent mappings`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				app.Settings.ConfigPath = args[0]
			}
			return runValidate(cmd, app)
		},
	}
}

// runValidate handles the validation process
func runValidate(cmd *cobra.Command, app *App) error {
	s := app.Settings

	diag, err := app.openDiagnostics(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer diag.Close()

	doc, err := config.ParseFile(s.ConfigPath, config.WithLogger(diag.Logger), config.WithModuleFormat(app.Platform))
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return writeOutput(cmd.OutOrStdout(), s.Output, doc, func(w io.Writer) error {
		fmt.Fprintf(w, "%s is valid\n\n", s.ConfigPath)
		writeConfigText(w, doc)
		return nil
	})
}
