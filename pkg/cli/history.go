package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/nxld/pkg/catalog"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List plugin loads recorded in a catalog",
		Long: `List the plugin loads recorded by previous runs started with --catalog,
newest first. --uid looks up the load that was assigned a given UID.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, _ := cmd.Flags().GetString("uid")
			limit, _ := cmd.Flags().GetInt("limit")
			return runHistory(cmd, app, uid, limit)
		},
	}

	cmd.Flags().String("uid", "", "Show the load with this UID")
	cmd.Flags().Int("limit", 50, "Maximum number of loads to list (0 lists all)")

	return cmd
}

func runHistory(cmd *cobra.Command, app *App, uid string, limit int) error {
	if app.Settings.CatalogPath == "" {
		return errors.New("no catalog configured, use --catalog or NXLD_CATALOG")
	}

	cat, err := catalog.Open(app.Settings.CatalogPath)
	if err != nil {
		return err
	}
	defer cat.Close()

	var entries []catalog.Entry
	if uid != "" {
		e, err := cat.FindByUID(cmd.Context(), uid)
		if err != nil {
			return err
		}
		entries = []catalog.Entry{*e}
	} else {
		entries, err = cat.List(cmd.Context(), limit)
		if err != nil {
			return err
		}
	}

	return writeOutput(cmd.OutOrStdout(), app.Settings.Output, entries, func(w io.Writer) error {
		if len(entries) == 0 {
			fmt.Fprintln(w, "No plugin loads recorded")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintf(w, "%s  %s  %s %s\n", e.LoadedAt.Format("2006-01-02 15:04:05"), e.UID, e.Name, e.Version)
			fmt.Fprintf(w, "    Run: %s\n", e.RunID)
			fmt.Fprintf(w, "    Path: %s\n", e.Path)
			if len(e.InterfaceNames) > 0 {
				fmt.Fprintf(w, "    Interfaces: %s\n", strings.Join(e.InterfaceNames, ", "))
			}
		}
		return nil
	})
}
