//go:build darwin || freebsd || linux

package platform

import (
	"fmt"

	"github.com/ebitengine/purego"
)

type nativePlatform struct{}

func (nativePlatform) ModuleExt() string {
	return moduleExt
}

func (nativePlatform) Open(path string) (Module, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_LAZY|purego.RTLD_LOCAL)
	if err != nil {
		return nil, fmt.Errorf("dlopen %s: %w", path, err)
	}

	return &dlModule{path: path, handle: handle}, nil
}

// dlModule is a module opened with dlopen
type dlModule struct {
	path   string
	handle uintptr
}

func (m *dlModule) Bind(fptr any, symbol string) error {
	if m.handle == 0 {
		return ErrModuleClosed
	}

	addr, err := purego.Dlsym(m.handle, symbol)
	if err != nil || addr == 0 {
		return fmt.Errorf("%w: %s in %s", ErrSymbolNotFound, symbol, m.path)
	}

	return register(fptr, addr, symbol)
}

func (m *dlModule) Close() error {
	if m.handle == 0 {
		return nil
	}

	handle := m.handle
	m.handle = 0
	if err := purego.Dlclose(handle); err != nil {
		return fmt.Errorf("dlclose %s: %w", m.path, err)
	}
	return nil
}
