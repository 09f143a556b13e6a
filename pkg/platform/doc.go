// Package platform abstracts the host operating system's dynamic-module facilities.
//
// # Overview
//
// The core packages never call dlopen or LoadLibrary directly. They depend on
// the small Platform interface defined here, which exposes the facts that vary
// per operating system:
//
//   - the file extension a loadable module must carry (.so, .dylib, .dll)
//   - opening a module by path
//   - resolving an exported C symbol into a callable Go function
//   - closing the module
//
// Native returns the implementation for the running OS. Unix-like systems use
// purego's Dlopen/Dlsym/Dlclose; Windows uses LoadLibrary/GetProcAddress from
// golang.org/x/sys/windows. In both cases the resolved address is turned into
// a Go function with purego.RegisterFunc, so no cgo is required.
//
// # Usage Example
//
//	p := platform.Native()
//	mod, err := p.Open("/opt/plugins/echo.so")
//	if err != nil {
//		return err
//	}
//	defer mod.Close()
//
//	var getName func(buf unsafe.Pointer, size uintptr) int32
//	if err := mod.Bind(&getName, "nxld_plugin_get_name"); err != nil {
//		return err
//	}
//
// # Related Packages
//
//   - pkg/plugins: drives the introspection protocol through Module.Bind
//   - pkg/config: validates module extensions against Platform.ModuleExt
package platform
