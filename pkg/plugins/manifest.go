package plugins

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ManifestExt is the extension of manifest files
const ManifestExt = ".nxp"

const (
	manifestUnlimited = "unlimited"
	manifestUnnamed   = "unnamed"

	// Params= values used when no parameters are listed
	paramsVariadic = "variadic"
	paramsUnknown  = "unknown"
	paramsNone     = "none"
)

// Values are written on a single line; backslash, LF and CR are escaped.
var (
	manifestEscaper   = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\r", `\r`)
	manifestUnescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\r`, "\r")
)

// Manifest is the persisted description of a loaded plugin.
type Manifest struct {
	Plugin     ManifestPlugin      `yaml:"plugin" json:"plugin"`
	Interfaces []ManifestInterface `yaml:"interfaces" json:"interfaces"`
}

// ManifestPlugin is the [Plugin] block
type ManifestPlugin struct {
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version" json:"version"`
	UID     string `yaml:"uid" json:"uid"`
	Path    string `yaml:"path" json:"path"`
}

// ManifestInterface is one [Interface_N] block
type ManifestInterface struct {
	Name            string `yaml:"name" json:"name"`
	Description     string `yaml:"description" json:"description"`
	Version         string `yaml:"version" json:"version"`
	ParamCountType  string `yaml:"param_count_type" json:"param_count_type"`
	MinParamCount   int    `yaml:"min_param_count" json:"min_param_count"`
	MaxParamCount   int    `yaml:"max_param_count" json:"max_param_count"` // Unbounded when unlimited
	FixedParamCount int    `yaml:"fixed_param_count" json:"fixed_param_count"`

	// Params is the parameter listing; ParamsSummary is set instead when it is empty
	Params        []ManifestParam `yaml:"params,omitempty" json:"params,omitempty"`
	ParamsSummary string          `yaml:"params_summary,omitempty" json:"params_summary,omitempty"`
}

// ManifestParam is one entry of a Params= listing
type ManifestParam struct {
	Name     string `yaml:"name" json:"name"`
	Type     string `yaml:"type" json:"type"`
	TypeName string `yaml:"type_name,omitempty" json:"type_name,omitempty"`
}

// ManifestPath derives the manifest path of a module by replacing its extension.
func ManifestPath(modulePath string) string {
	ext := filepath.Ext(modulePath)
	return strings.TrimSuffix(modulePath, ext) + ManifestExt
}

// NewManifest builds the manifest of a loaded descriptor
func NewManifest(d *Descriptor) *Manifest {
	m := &Manifest{
		Plugin: ManifestPlugin{
			Name:    d.Name,
			Version: d.Version,
			UID:     d.UID,
			Path:    d.Path,
		},
		Interfaces: make([]ManifestInterface, 0, len(d.Interfaces)),
	}

	for _, iface := range d.Interfaces {
		mi := ManifestInterface{
			Name:            iface.Name,
			Description:     iface.Description,
			Version:         iface.Version,
			ParamCountType:  iface.Arity.Kind.String(),
			MinParamCount:   iface.Arity.Min,
			MaxParamCount:   iface.Arity.Max,
			FixedParamCount: len(iface.Params),
		}
		if mi.MaxParamCount < 0 {
			mi.MaxParamCount = Unbounded
		}

		for _, p := range iface.Params {
			name := p.Name
			if p.Unresolved {
				name = manifestUnnamed
			}
			mi.Params = append(mi.Params, ManifestParam{
				Name:     name,
				Type:     p.Type.String(),
				TypeName: p.TypeName,
			})
		}

		if len(mi.Params) == 0 {
			switch iface.Arity.Kind {
			case ArityVariable:
				mi.ParamsSummary = paramsVariadic
			case ArityUnknown:
				mi.ParamsSummary = paramsUnknown
			default:
				mi.ParamsSummary = paramsNone
			}
		}

		m.Interfaces = append(m.Interfaces, mi)
	}

	return m
}

// EncodeManifest writes m in the NXP text format
func EncodeManifest(w io.Writer, m *Manifest) error {
	bw := bufio.NewWriter(w)
	esc := manifestEscaper.Replace

	fmt.Fprintln(bw, "# NXLD Plugin Metadata File")
	fmt.Fprintln(bw, "# Generated automatically")
	fmt.Fprintln(bw, "# Format: NXP v1.0")
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "[Plugin]")
	fmt.Fprintf(bw, "Name=%s\n", esc(m.Plugin.Name))
	fmt.Fprintf(bw, "Version=%s\n", esc(m.Plugin.Version))
	fmt.Fprintf(bw, "UID=%s\n", esc(m.Plugin.UID))
	fmt.Fprintf(bw, "Path=%s\n", esc(m.Plugin.Path))
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "[Interfaces]")
	fmt.Fprintf(bw, "Count=%d\n", len(m.Interfaces))
	fmt.Fprintln(bw)

	for i, iface := range m.Interfaces {
		fmt.Fprintf(bw, "[Interface_%d]\n", i)
		fmt.Fprintf(bw, "Name=%s\n", esc(iface.Name))
		fmt.Fprintf(bw, "Description=%s\n", esc(iface.Description))
		fmt.Fprintf(bw, "Version=%s\n", esc(iface.Version))
		fmt.Fprintf(bw, "ParamCountType=%s\n", esc(iface.ParamCountType))
		fmt.Fprintf(bw, "MinParamCount=%d\n", iface.MinParamCount)
		if iface.MaxParamCount >= 0 {
			fmt.Fprintf(bw, "MaxParamCount=%d\n", iface.MaxParamCount)
		} else {
			fmt.Fprintf(bw, "MaxParamCount=%s\n", manifestUnlimited)
		}
		fmt.Fprintf(bw, "FixedParamCount=%d\n", iface.FixedParamCount)

		if len(iface.Params) > 0 {
			fmt.Fprintln(bw, "Params=")
			for j, p := range iface.Params {
				fmt.Fprintf(bw, "  [%d]\n", j)
				fmt.Fprintf(bw, "    Name=%s\n", esc(p.Name))
				fmt.Fprintf(bw, "    Type=%s\n", esc(p.Type))
				if p.TypeName != "" {
					fmt.Fprintf(bw, "    TypeName=%s\n", esc(p.TypeName))
				}
			}
		} else {
			fmt.Fprintf(bw, "Params=%s\n", esc(iface.ParamsSummary))
		}
		fmt.Fprintln(bw)
	}

	return bw.Flush()
}

// WriteManifest writes m to path atomically
func WriteManifest(path string, m *Manifest) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create manifest: %w", err)
	}
	tmpPath := tmp.Name()

	if err := EncodeManifest(tmp, m); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// ReadManifest loads and parses a manifest file
func ReadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	defer f.Close()

	m, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return m, nil
}

// DecodeManifest parses the NXP text format
func DecodeManifest(r io.Reader) (*Manifest, error) {
	d := &manifestDecoder{m: &Manifest{}, count: -1}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		d.lineNo++
		if err := d.line(scanner.Text()); err != nil {
			return nil, fmt.Errorf("line %d: %w", d.lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if !d.sawPlugin {
		return nil, fmt.Errorf("missing [Plugin] section")
	}
	if d.count >= 0 && d.count != len(d.m.Interfaces) {
		return nil, fmt.Errorf("manifest declares %d interfaces, found %d", d.count, len(d.m.Interfaces))
	}

	return d.m, nil
}

type manifestDecoder struct {
	m         *Manifest
	lineNo    int
	section   string
	sawPlugin bool
	count     int
	iface     *ManifestInterface
	param     *ManifestParam
}

// line handles one manifest line. Only the indentation and the key are
// trimmed; the value is everything after the first '=' and is kept exact.
func (d *manifestDecoder) line(raw string) error {
	raw = strings.TrimSuffix(raw, "\r")
	body := strings.TrimLeft(raw, " \t")
	indented := len(body) != len(raw)

	line := strings.TrimSpace(body)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
		name := line[1 : len(line)-1]
		if indented {
			return d.paramHeader(name)
		}
		return d.sectionHeader(name)
	}

	key, value, ok := strings.Cut(body, "=")
	if !ok {
		return fmt.Errorf("expected key=value, got %q", line)
	}
	key = strings.TrimSpace(key)
	value = manifestUnescaper.Replace(value)

	if indented && d.param != nil {
		return d.paramField(key, value)
	}
	d.param = nil

	switch d.section {
	case "Plugin":
		return d.pluginField(key, value)
	case "Interfaces":
		if key == "Count" {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n < 0 {
				return fmt.Errorf("invalid interface count %q", value)
			}
			d.count = n
		}
		return nil
	case "Interface":
		return d.interfaceField(key, value)
	default:
		return nil
	}
}

func (d *manifestDecoder) sectionHeader(name string) error {
	d.iface = nil
	d.param = nil

	switch {
	case name == "Plugin":
		d.section = name
		d.sawPlugin = true
	case name == "Interfaces":
		d.section = name
	case strings.HasPrefix(name, "Interface_"):
		idx, err := strconv.Atoi(strings.TrimPrefix(name, "Interface_"))
		if err != nil || idx != len(d.m.Interfaces) {
			return fmt.Errorf("unexpected section [%s]", name)
		}
		d.m.Interfaces = append(d.m.Interfaces, ManifestInterface{})
		d.iface = &d.m.Interfaces[idx]
		d.section = "Interface"
	default:
		d.section = ""
	}
	return nil
}

func (d *manifestDecoder) paramHeader(name string) error {
	if d.iface == nil {
		return fmt.Errorf("parameter [%s] outside an interface", name)
	}
	idx, err := strconv.Atoi(name)
	if err != nil || idx != len(d.iface.Params) {
		return fmt.Errorf("unexpected parameter [%s]", name)
	}
	d.iface.Params = append(d.iface.Params, ManifestParam{})
	d.param = &d.iface.Params[idx]
	return nil
}

func (d *manifestDecoder) pluginField(key, value string) error {
	switch key {
	case "Name":
		d.m.Plugin.Name = value
	case "Version":
		d.m.Plugin.Version = value
	case "UID":
		d.m.Plugin.UID = value
	case "Path":
		d.m.Plugin.Path = value
	}
	return nil
}

func (d *manifestDecoder) interfaceField(key, value string) error {
	iface := d.iface
	number := strings.TrimSpace(value)
	var err error

	switch key {
	case "Name":
		iface.Name = value
	case "Description":
		iface.Description = value
	case "Version":
		iface.Version = value
	case "ParamCountType":
		iface.ParamCountType = value
	case "MinParamCount":
		iface.MinParamCount, err = strconv.Atoi(number)
	case "MaxParamCount":
		if number == manifestUnlimited {
			iface.MaxParamCount = Unbounded
		} else {
			iface.MaxParamCount, err = strconv.Atoi(number)
		}
	case "FixedParamCount":
		iface.FixedParamCount, err = strconv.Atoi(number)
	case "Params":
		iface.ParamsSummary = value
	}

	if err != nil {
		return fmt.Errorf("invalid %s %q", key, value)
	}
	return nil
}

func (d *manifestDecoder) paramField(key, value string) error {
	switch key {
	case "Name":
		d.param.Name = value
	case "Type":
		d.param.Type = value
	case "TypeName":
		d.param.TypeName = value
	}
	return nil
}

// ValidateManifest performs basic consistency checks on a manifest
func ValidateManifest(m *Manifest) []ValidationError {
	var errs []ValidationError

	if m.Plugin.Name == "" {
		errs = append(errs, ValidationError{Field: "plugin.name", Message: "Plugin name is required"})
	}
	if !ValidUID(m.Plugin.UID) {
		errs = append(errs, ValidationError{
			Field:   "plugin.uid",
			Message: fmt.Sprintf("UID must be %d characters from [0-9A-Za-z]", UIDLength),
		})
	}
	if m.Plugin.Path == "" {
		errs = append(errs, ValidationError{Field: "plugin.path", Message: "Plugin path is required"})
	}

	for i, iface := range m.Interfaces {
		field := fmt.Sprintf("interfaces[%d]", i)

		if ParseArityKind(iface.ParamCountType).String() != iface.ParamCountType {
			errs = append(errs, ValidationError{
				Field:   field + ".param_count_type",
				Message: fmt.Sprintf("Unknown param count type: %s", iface.ParamCountType),
			})
		}
		if iface.FixedParamCount != len(iface.Params) {
			errs = append(errs, ValidationError{
				Field:   field + ".fixed_param_count",
				Message: fmt.Sprintf("FixedParamCount is %d but %d parameters are listed", iface.FixedParamCount, len(iface.Params)),
			})
		}
		for j, p := range iface.Params {
			if ParseParamType(p.Type).String() != p.Type {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.params[%d].type", field, j),
					Message: fmt.Sprintf("Unknown parameter type: %s", p.Type),
				})
			}
		}
	}

	return errs
}

// ValidationError represents a manifest validation error
type ValidationError struct {
	Field   string `json:"field" yaml:"field"`
	Message string `json:"message" yaml:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
