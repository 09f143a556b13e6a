package observability

import "fmt"

// MustRecover converts a recovered value into an error. It returns nil when r is nil.
//
//	defer func() {
//	    if perr := observability.MustRecover(recover()); perr != nil {
//	        err = perr
//	    }
//	}()
//
// Use it around calls into code that may panic, such as entry points bound
// from a plugin module.
func MustRecover(r any) error {
	if r != nil {
		return fmt.Errorf("panic: %v", r)
	}
	return nil
}
