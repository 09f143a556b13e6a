//go:build darwin || freebsd || linux || windows

package platform

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// register binds the C function at addr to fptr.
// purego panics on unsupported signatures; that is reported as an error instead.
func register(fptr any, addr uintptr, symbol string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("bind %s: %v", symbol, r)
		}
	}()

	purego.RegisterFunc(fptr, addr)
	return nil
}
