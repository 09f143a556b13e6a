package plugins

import (
	"errors"
	"sync"

	"github.com/platinummonkey/nxld/pkg/platform"
)

// ParamType is the declared type of an interface parameter.
type ParamType int

const (
	ParamVoid ParamType = iota
	ParamInt
	ParamLong
	ParamFloat
	ParamDouble
	ParamChar
	ParamPointer
	ParamString
	ParamVariadic
	ParamAny
	ParamUnknown
)

var paramTypeNames = [...]string{
	ParamVoid:     "void",
	ParamInt:      "int",
	ParamLong:     "long",
	ParamFloat:    "float",
	ParamDouble:   "double",
	ParamChar:     "char",
	ParamPointer:  "pointer",
	ParamString:   "string",
	ParamVariadic: "variadic",
	ParamAny:      "any",
	ParamUnknown:  "unknown",
}

func (t ParamType) String() string {
	if t < 0 || int(t) >= len(paramTypeNames) {
		return "unknown"
	}
	return paramTypeNames[t]
}

// ParseParamType is the inverse of ParamType.String. Unrecognised names map to ParamUnknown.
func ParseParamType(s string) ParamType {
	for i, name := range paramTypeNames {
		if name == s {
			return ParamType(i)
		}
	}
	return ParamUnknown
}

// paramTypeFromWire converts a value reported by a module
func paramTypeFromWire(v int32) ParamType {
	if v < 0 || int(v) >= len(paramTypeNames) {
		return ParamUnknown
	}
	return ParamType(v)
}

// Param describes one interface parameter.
type Param struct {
	Name string
	Type ParamType
	// TypeName is set only when the module reported a custom type name
	TypeName string
	// Unresolved is set when the module failed to describe the parameter
	Unresolved bool
}

// ArityKind is an interface's parameter-count policy.
type ArityKind int

const (
	ArityFixed ArityKind = iota
	ArityVariable
	ArityUnknown
)

func (k ArityKind) String() string {
	switch k {
	case ArityFixed:
		return "fixed"
	case ArityVariable:
		return "variable"
	default:
		return "unknown"
	}
}

// ParseArityKind is the inverse of ArityKind.String
func ParseArityKind(s string) ArityKind {
	switch s {
	case "fixed":
		return ArityFixed
	case "variable":
		return ArityVariable
	default:
		return ArityUnknown
	}
}

func arityKindFromWire(v int32) ArityKind {
	switch v {
	case 0:
		return ArityFixed
	case 1:
		return ArityVariable
	default:
		return ArityUnknown
	}
}

// Unbounded is the Max of a variable arity without an upper limit
const Unbounded = -1

// Arity is the parameter-count policy of an interface as reported by the module.
type Arity struct {
	Kind ArityKind
	Min  int
	Max  int
}

// UnknownArity is recorded when the module does not describe its parameters.
var UnknownArity = Arity{Kind: ArityUnknown, Min: 0, Max: Unbounded}

// Enumerable reports how many parameters the module is asked to describe.
func (a Arity) Enumerable() int {
	if (a.Kind == ArityFixed || a.Kind == ArityVariable) && a.Min > 0 {
		return a.Min
	}
	return 0
}

// Interface is one interface declared by a plugin.
type Interface struct {
	Name        string
	Description string
	Version     string
	Arity       Arity
	// Params holds the fixed or minimum parameters only
	Params []Param
}

// Descriptor is the loaded description of a plugin module.
// It owns the module handle until Close or Unload.
type Descriptor struct {
	UID        string
	Name       string
	Version    string
	Path       string
	Interfaces []Interface

	// ManifestPath is set when the manifest was written
	ManifestPath string

	mu     sync.Mutex
	module platform.Module
}

// Loaded reports whether the module is still open
func (d *Descriptor) Loaded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.module != nil
}

// Unload closes the module but keeps the descriptor's metadata.
func (d *Descriptor) Unload() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.module == nil {
		return nil
	}
	mod := d.module
	d.module = nil
	return mod.Close()
}

// Close closes the module and releases the interface tree.
// It is safe to call more than once and on partially built descriptors.
func (d *Descriptor) Close() error {
	err := d.Unload()
	d.Interfaces = nil
	return err
}

// closeAll closes every descriptor, joining the errors
func closeAll(descriptors []*Descriptor) error {
	var errs []error
	for _, d := range descriptors {
		if err := d.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
