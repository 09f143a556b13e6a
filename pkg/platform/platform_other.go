//go:build !darwin && !freebsd && !linux && !windows

package platform

const moduleExt = ".so"

type nativePlatform struct{}

func (nativePlatform) ModuleExt() string {
	return moduleExt
}

func (nativePlatform) Open(path string) (Module, error) {
	return nil, ErrUnsupported
}
