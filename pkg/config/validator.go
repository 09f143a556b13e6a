package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/nxld/pkg/platform"
)

// ModuleFormat reports the file extension loadable modules must carry.
// platform.Platform satisfies it.
type ModuleFormat interface {
	ModuleExt() string
}

// Validator enforces the cross-field and filesystem rules of a Document.
type Validator struct {
	format ModuleFormat
	log    *logrus.Logger
}

// NewValidator creates a validator. A nil format uses the native platform.
func NewValidator(format ModuleFormat, log *logrus.Logger) *Validator {
	if format == nil {
		format = platform.Native()
	}
	if log == nil {
		log = logrus.New()
	}

	return &Validator{
		format: format,
		log:    log,
	}
}

// Validate checks doc and returns the first violated rule as a *ParseError.
// Plugin paths are resolved relative to doc.Path.
func (v *Validator) Validate(doc *Document) error {
	if err := v.validate(doc); err != nil {
		err.Path = doc.Path
		v.log.WithFields(logrus.Fields{
			"config": doc.Path,
			"kind":   err.Kind.Name(),
		}).Error(err.Error())
		return err
	}
	return nil
}

func (v *Validator) validate(doc *Document) *ParseError {
	if !doc.LockMode.Valid() {
		return newError(InvalidLockMode, fmt.Sprintf("got %d", int(doc.LockMode)), nil)
	}

	if doc.Locked() && doc.MaxRootPlugins < 1 {
		return newError(InvalidMaxPlugins, fmt.Sprintf("MaxRootPlugins=%d", doc.MaxRootPlugins), nil)
	}

	if len(doc.EnabledPlugins) == 0 {
		return newError(EmptyPlugins, "", nil)
	}

	if doc.Locked() && len(doc.EnabledPlugins) > doc.MaxRootPlugins {
		return newError(InvalidMaxPlugins,
			fmt.Sprintf("%d plugins enabled, MaxRootPlugins=%d", len(doc.EnabledPlugins), doc.MaxRootPlugins), nil)
	}

	ext := v.format.ModuleExt()
	for i, entry := range doc.EnabledPlugins {
		if !platform.HasModuleExt(entry, ext) {
			return newError(PluginFormatMismatch, fmt.Sprintf("plugin %d %q (expected %s)", i, entry, ext), nil)
		}

		resolved := ResolvePath(doc.Path, entry)
		if _, err := os.Stat(resolved); err != nil {
			return newError(PluginNotFound, fmt.Sprintf("plugin %d %q resolved to %s", i, entry, resolved), err)
		}
	}

	for _, vp := range doc.VirtualParents {
		child := strings.TrimSpace(vp.Child)
		parent := strings.TrimSpace(vp.Parent)

		if !isEnabled(doc.EnabledPlugins, child) {
			return newError(VirtualParentInvalid, fmt.Sprintf("child %q", child), nil)
		}
		if !isEnabled(doc.EnabledPlugins, parent) {
			return newError(VirtualParentInvalid, fmt.Sprintf("parent %q of %q", parent, child), nil)
		}
	}

	return nil
}

func isEnabled(enabled []string, path string) bool {
	for _, entry := range enabled {
		if strings.TrimSpace(entry) == path {
			return true
		}
	}
	return false
}
