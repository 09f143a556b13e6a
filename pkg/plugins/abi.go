package plugins

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/platinummonkey/nxld/pkg/platform"
)

// Symbols a plugin module exports.
const (
	SymbolGetName           = "nxld_plugin_get_name"
	SymbolGetVersion        = "nxld_plugin_get_version"
	SymbolGetInterfaceCount = "nxld_plugin_get_interface_count"
	SymbolGetInterfaceInfo  = "nxld_plugin_get_interface_info"
	SymbolGetParamCount     = "nxld_plugin_get_interface_param_count"
	SymbolGetParamInfo      = "nxld_plugin_get_interface_param_info"
)

// Buffer sizes handed to the module, including the terminating NUL.
const (
	NameBufferSize        = 256
	VersionBufferSize     = 64
	DescriptionBufferSize = 512
	TypeNameBufferSize    = 256
)

// C signatures of the protocol. size_t maps to uintptr, int and enums to int32.
// Every function returns 0 on success.
type (
	// int (char* name, size_t size)
	getStringFunc func(buf *byte, size uintptr) int32

	// int (size_t* count)
	getInterfaceCountFunc func(count *uintptr) int32

	// int (size_t index, char* name, size_t, char* desc, size_t, char* version, size_t)
	getInterfaceInfoFunc func(index uintptr, name *byte, nameSize uintptr, desc *byte, descSize uintptr, version *byte, versionSize uintptr) int32

	// int (size_t index, nxld_param_count_type_t* kind, int* min, int* max)
	getParamCountFunc func(index uintptr, kind *int32, min *int32, max *int32) int32

	// int (size_t index, int param, char* name, size_t, nxld_param_type_t* type, char* type_name, size_t)
	getParamInfoFunc func(index uintptr, param int32, name *byte, nameSize uintptr, typ *int32, typeName *byte, typeNameSize uintptr) int32
)

// capabilities is the resolved entry-point set of one module.
type capabilities struct {
	getName           getStringFunc
	getVersion        getStringFunc
	getInterfaceCount getInterfaceCountFunc
	getInterfaceInfo  getInterfaceInfoFunc

	// optional, both set or both nil
	getParamCount getParamCountFunc
	getParamInfo  getParamInfoFunc
}

func (c *capabilities) describesParams() bool {
	return c.getParamCount != nil && c.getParamInfo != nil
}

// resolveCapabilities binds every entry point of mod. It returns the names of
// the missing mandatory symbols in protocol order, or an error when binding
// fails for another reason.
func resolveCapabilities(mod platform.Module) (*capabilities, []string, error) {
	caps := &capabilities{}

	mandatory := []struct {
		symbol string
		fptr   any
	}{
		{SymbolGetName, &caps.getName},
		{SymbolGetVersion, &caps.getVersion},
		{SymbolGetInterfaceCount, &caps.getInterfaceCount},
		{SymbolGetInterfaceInfo, &caps.getInterfaceInfo},
	}

	var missing []string
	for _, m := range mandatory {
		if err := mod.Bind(m.fptr, m.symbol); err != nil {
			if !errors.Is(err, platform.ErrSymbolNotFound) {
				return nil, nil, fmt.Errorf("bind %s: %w", m.symbol, err)
			}
			missing = append(missing, m.symbol)
		}
	}
	if len(missing) > 0 {
		return nil, missing, nil
	}

	countErr := mod.Bind(&caps.getParamCount, SymbolGetParamCount)
	infoErr := mod.Bind(&caps.getParamInfo, SymbolGetParamInfo)
	if countErr != nil || infoErr != nil {
		caps.getParamCount = nil
		caps.getParamInfo = nil
	}

	return caps, nil, nil
}

// cString returns buf up to the first NUL
func cString(buf []byte) string {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		return string(buf[:i])
	}
	return string(buf)
}

// callString invokes a string getter with a fresh buffer of size bytes.
func callString(fn getStringFunc, size int) (string, bool) {
	buf := make([]byte, size)
	if fn(&buf[0], uintptr(len(buf))) != 0 {
		return "", false
	}
	return cString(buf), true
}
