package platform

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	// ErrSymbolNotFound is returned by Module.Bind when the module does not export the symbol
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrModuleClosed is returned when a closed module is used
	ErrModuleClosed = errors.New("module closed")

	// ErrUnsupported is returned on operating systems without dynamic-module support
	ErrUnsupported = errors.New("dynamic modules are not supported on this platform")
)

// Module is an open dynamic module.
type Module interface {
	// Bind resolves symbol and stores a callable function in fptr. fptr must be
	// a non-nil pointer to a func variable whose signature matches the exported
	// C function.
	Bind(fptr any, symbol string) error

	// Close releases the module. Calling Close more than once is a no-op.
	Close() error
}

// Platform exposes the per-OS dynamic-module facts the engine relies on.
type Platform interface {
	// ModuleExt returns the file extension of loadable modules, including the dot.
	ModuleExt() string

	// Open loads the module at path.
	Open(path string) (Module, error)
}

// Native returns the Platform for the running operating system.
func Native() Platform {
	return nativePlatform{}
}

// HasModuleExt reports whether path ends in ext. The comparison ignores case and
// only considers the final path element.
func HasModuleExt(path, ext string) bool {
	got := filepath.Ext(path)
	if got == "" {
		return false
	}
	return strings.EqualFold(got, ext)
}
