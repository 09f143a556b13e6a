//go:build windows

package platform

import (
	"fmt"

	"golang.org/x/sys/windows"
)

const moduleExt = ".dll"

type nativePlatform struct{}

func (nativePlatform) ModuleExt() string {
	return moduleExt
}

func (nativePlatform) Open(path string) (Module, error) {
	handle, err := windows.LoadLibrary(path)
	if err != nil {
		return nil, fmt.Errorf("LoadLibrary %s: %w", path, err)
	}

	return &dllModule{path: path, handle: handle}, nil
}

// dllModule is a module opened with LoadLibrary
type dllModule struct {
	path   string
	handle windows.Handle
}

func (m *dllModule) Bind(fptr any, symbol string) error {
	if m.handle == 0 {
		return ErrModuleClosed
	}

	addr, err := windows.GetProcAddress(m.handle, symbol)
	if err != nil || addr == 0 {
		return fmt.Errorf("%w: %s in %s", ErrSymbolNotFound, symbol, m.path)
	}

	return register(fptr, addr, symbol)
}

func (m *dllModule) Close() error {
	if m.handle == 0 {
		return nil
	}

	handle := m.handle
	m.handle = 0
	if err := windows.FreeLibrary(handle); err != nil {
		return fmt.Errorf("FreeLibrary %s: %w", m.path, err)
	}
	return nil
}
