package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/nxld/pkg/config"
	"github.com/platinummonkey/nxld/pkg/plugins"
)

// writeOutput renders v in the requested format. text renders the human
// readable form.
func writeOutput(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch format {
	case config.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	default:
		return text(w)
	}
}

// loadReport is the result of an nxld run
type loadReport struct {
	Config   *config.Document    `yaml:"config" json:"config"`
	RunID    string              `yaml:"run_id" json:"run_id"`
	Total    int                 `yaml:"total" json:"total"`
	Loaded   []*plugins.Manifest `yaml:"loaded" json:"loaded"`
	Failures []failureReport     `yaml:"failures,omitempty" json:"failures,omitempty"`
}

type failureReport struct {
	Entry string `yaml:"entry" json:"entry"`
	Path  string `yaml:"path" json:"path"`
	Kind  string `yaml:"kind,omitempty" json:"kind,omitempty"`
	Error string `yaml:"error" json:"error"`
}

func newLoadReport(doc *config.Document, result *plugins.BatchResult) *loadReport {
	r := &loadReport{
		Config: doc,
		RunID:  result.RunID,
		Total:  result.Total,
		Loaded: make([]*plugins.Manifest, 0, len(result.Loaded)),
	}
	for _, d := range result.Loaded {
		r.Loaded = append(r.Loaded, plugins.NewManifest(d))
	}
	for _, f := range result.Failures {
		fr := failureReport{Entry: f.Entry, Path: f.Path, Error: f.Err.Error()}
		if kind, ok := plugins.KindOf(f.Err); ok {
			fr.Kind = kind.Label()
		}
		r.Failures = append(r.Failures, fr)
	}
	return r
}

// writeConfigText prints the parsed configuration
func writeConfigText(w io.Writer, doc *config.Document) {
	fmt.Fprintf(w, "Configuration:\n")
	fmt.Fprintf(w, "  LockMode: %d\n", int(doc.LockMode))
	fmt.Fprintf(w, "  MaxRootPlugins: %d\n", doc.MaxRootPlugins)
	fmt.Fprintf(w, "  EnabledRootPlugins (%d):\n", len(doc.EnabledPlugins))
	for i, p := range doc.EnabledPlugins {
		fmt.Fprintf(w, "    [%d] %s\n", i+1, p)
	}
	fmt.Fprintf(w, "  VirtualParent mappings (%d):\n", len(doc.VirtualParents))
	for _, vp := range doc.VirtualParents {
		fmt.Fprintf(w, "    %s = %s\n", vp.Child, vp.Parent)
	}
}

func (r *loadReport) writeText(w io.Writer) error {
	fmt.Fprintf(w, "Parse successful!\n\n")
	writeConfigText(w, r.Config)

	fmt.Fprintf(w, "\nLoading root plugins:\n")
	fmt.Fprintf(w, "Successfully loaded %d/%d root plugins:\n", len(r.Loaded), r.Total)
	for i, m := range r.Loaded {
		fmt.Fprintf(w, "  [%d] Plugin loaded:\n", i+1)
		fmt.Fprintf(w, "    UID: %s\n", m.Plugin.UID)
		fmt.Fprintf(w, "    Name: %s\n", m.Plugin.Name)
		fmt.Fprintf(w, "    Version: %s\n", m.Plugin.Version)
		fmt.Fprintf(w, "    Path: %s\n", m.Plugin.Path)
		fmt.Fprintf(w, "    Interfaces (%d):\n", len(m.Interfaces))
		for _, iface := range m.Interfaces {
			fmt.Fprintf(w, "      - %s (v%s): %s\n", orUnknown(iface.Name), orUnknown(iface.Version), iface.Description)
		}
	}

	if len(r.Failures) > 0 {
		fmt.Fprintf(w, "Failed to load %d root plugins:\n", len(r.Failures))
		for _, f := range r.Failures {
			fmt.Fprintf(w, "  %s: %s\n", f.Entry, f.Error)
		}
	}
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
