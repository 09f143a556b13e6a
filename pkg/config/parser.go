package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/nxld/pkg/platform"
)

// MaxLineSize is the longest line the parser accepts.
const MaxLineSize = 1 << 20

// Option configures ParseFile.
type Option func(*options)

type options struct {
	log    *logrus.Logger
	format ModuleFormat
}

// WithLogger sets the logger used for parse and validation diagnostics
func WithLogger(log *logrus.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithModuleFormat overrides the module format enabled plugins are checked against.
// Defaults to the native platform.
func WithModuleFormat(format ModuleFormat) Option {
	return func(o *options) {
		o.format = format
	}
}

// ParseFile checks the encoding of path, parses it and validates the result.
func ParseFile(path string, opts ...Option) (*Document, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logrus.New()
	}
	if o.format == nil {
		o.format = platform.Native()
	}

	log := o.log.WithField("config", path)

	if err := checkEncoding(path); err != nil {
		pe := withPath(err, path)
		log.WithError(pe).Error("Configuration encoding check failed")
		return nil, pe
	}

	f, err := os.Open(path)
	if err != nil {
		pe := withPath(newError(FileError, "", err), path)
		log.WithError(pe).Error("Failed to open configuration file")
		return nil, pe
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		pe := withPath(err, path)
		log.WithError(pe).Error("Failed to parse configuration file")
		return nil, pe
	}
	doc.Path = path

	if err := NewValidator(o.format, o.log).Validate(doc); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"lock_mode":       doc.LockMode,
		"max_plugins":     doc.MaxRootPlugins,
		"enabled_plugins": len(doc.EnabledPlugins),
		"virtual_parents": len(doc.VirtualParents),
	}).Info("Configuration parsed")

	return doc, nil
}

// Parse reads an engine document from r. It does not validate the result
// beyond requiring an EngineCore section.
func Parse(r io.Reader) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), MaxLineSize)

	doc := &Document{}
	sawCore := false
	section := ""
	first := true

	for scanner.Scan() {
		raw := scanner.Bytes()
		if first {
			raw = bytes.TrimPrefix(raw, utf8BOM)
			first = false
		}

		line := strings.TrimSpace(string(raw))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") {
			end := strings.Index(line, "]")
			if end < 0 {
				continue
			}
			switch name := strings.TrimSpace(line[1:end]); name {
			case SectionEngineCore:
				section = name
				sawCore = true
			case SectionVirtualParent:
				section = name
			default:
				section = ""
			}
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch section {
		case SectionEngineCore:
			applyCoreKey(doc, key, value)
		case SectionVirtualParent:
			doc.VirtualParents = append(doc.VirtualParents, VirtualParent{Child: key, Parent: value})
		}
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, newError(MemoryError, fmt.Sprintf("line exceeds %d bytes", MaxLineSize), err)
		}
		return nil, newError(FileError, "", err)
	}

	if !sawCore {
		return nil, newError(MissingSection, "", nil)
	}

	return doc, nil
}

func applyCoreKey(doc *Document, key, value string) {
	switch key {
	case KeyLockMode:
		doc.LockMode = LockMode(leadingInt(value))
	case KeyMaxRootPlugins:
		doc.MaxRootPlugins = leadingInt(value)
	case KeyEnabledPlugins:
		doc.EnabledPlugins = splitPluginList(value)
	}
}

// leadingInt reads an optional sign and the digits that follow it, ignoring
// leading whitespace and anything after the digits. It returns 0 when no digit
// is present and saturates at the int32 range.
func leadingInt(s string) int {
	s = strings.TrimLeft(s, " \t\v\f\r\n")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	n := 0
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		if n <= math.MaxInt32 {
			n = n*10 + int(s[i]-'0')
		}
	}
	if n > math.MaxInt32 {
		n = math.MaxInt32
	}
	if neg {
		return -n
	}
	return n
}

// splitPluginList splits a comma-separated list, trimming tokens and dropping empty ones.
func splitPluginList(value string) []string {
	var plugins []string
	for _, token := range strings.Split(value, ",") {
		if token = strings.TrimSpace(token); token != "" {
			plugins = append(plugins, token)
		}
	}
	return plugins
}

func withPath(err error, path string) error {
	var pe *ParseError
	if errors.As(err, &pe) && pe.Path == "" {
		pe.Path = path
	}
	return err
}
