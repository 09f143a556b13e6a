package cli

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/nxld/pkg/config"
	"github.com/platinummonkey/nxld/pkg/observability"
	"github.com/platinummonkey/nxld/pkg/platform"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// App holds the dependencies shared by the nxld commands
type App struct {
	Platform platform.Platform

	// Settings is populated by the root command before any command runs
	Settings *config.Settings

	// Sink is the primary diagnostic sink. Nil uses the built-in file sink.
	Sink observability.Sink
}

// NewApp returns an App bound to the native platform
func NewApp() *App {
	return &App{Platform: platform.Native()}
}

// NewRootCommand creates the nxld command tree
func NewRootCommand(app *App) *cobra.Command {
	if app == nil {
		app = NewApp()
	}

	rootCmd := &cobra.Command{
		Use:   "nxld [config]",
		Short: "NXLD - plugin discovery and introspection engine",
		Long: `nxld reads an engine configuration document, loads every enabled root
plugin, introspects the interfaces each one exports and writes a .nxp
manifest next to every loaded module.

The configuration defaults to NexusEngine.nxld in the working directory.`,
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.applySettings(cmd); err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				app.Settings.ConfigPath = args[0]
			}
			return runLoad(cmd, app)
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH))

	rootCmd.PersistentFlags().String("log-file", config.DefaultLogFile, "Diagnostic log file")
	rootCmd.PersistentFlags().String("log-level", "info", "Diagnostic log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Mirror diagnostics to stderr")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write Prometheus metrics to this file")
	rootCmd.PersistentFlags().String("catalog", "", "SQLite catalog recording every plugin load")
	rootCmd.PersistentFlags().StringP("output", "o", config.OutputText, "Output format (text, yaml, json)")

	rootCmd.AddCommand(NewValidateCommand(app))
	rootCmd.AddCommand(NewManifestCommand(app))
	rootCmd.AddCommand(NewHistoryCommand(app))

	return rootCmd
}

// goVersion returns the Go version used to build the binary
func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

// applySettings loads settings from the environment and applies the flags
// that were set explicitly on the command line.
func (a *App) applySettings(cmd *cobra.Command) error {
	s, err := config.LoadSettings()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-file") {
		s.LogFile, _ = flags.GetString("log-file")
	}
	if flags.Changed("log-level") {
		s.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("verbose") {
		s.Verbose, _ = flags.GetBool("verbose")
	}
	if flags.Changed("metrics-file") {
		s.MetricsFile, _ = flags.GetString("metrics-file")
	}
	if flags.Changed("catalog") {
		s.CatalogPath, _ = flags.GetString("catalog")
	}
	if flags.Changed("output") {
		output, _ := flags.GetString("output")
		s.Output = strings.ToLower(output)
	}

	if err := s.Validate(); err != nil {
		return err
	}
	a.Settings = s
	return nil
}

// openDiagnostics opens the diagnostic sink named by the settings.
// stderr receives a mirror of every entry in verbose mode.
func (a *App) openDiagnostics(stderr io.Writer) (*observability.Diagnostics, error) {
	level, err := a.Settings.Level()
	if err != nil {
		return nil, err
	}

	opts := observability.DiagnosticsOptions{
		Primary: a.Sink,
		Config:  a.Settings.LogFile,
		Level:   level,
	}
	if a.Settings.Verbose {
		opts.Mirror = stderr
	}

	diag, err := observability.OpenDiagnostics(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return diag, nil
}
