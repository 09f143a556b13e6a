package plugins

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/nxld/pkg/platform"
)

// writeCString copies s into the C buffer, truncating and NUL terminating it
func writeCString(buf *byte, size uintptr, s string) {
	if buf == nil || size == 0 {
		return
	}
	b := unsafe.Slice(buf, size)
	n := copy(b[:size-1], s)
	b[n] = 0
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeModule binds Go functions registered under symbol names
type fakeModule struct {
	symbols  map[string]any
	closes   int
	closeErr error
}

func (m *fakeModule) Bind(fptr any, symbol string) error {
	fn, ok := m.symbols[symbol]
	if !ok {
		return fmt.Errorf("%w: %s", platform.ErrSymbolNotFound, symbol)
	}
	reflect.ValueOf(fptr).Elem().Set(reflect.ValueOf(fn))
	return nil
}

func (m *fakeModule) Close() error {
	m.closes++
	return m.closeErr
}

// fakePlatform serves fake modules by path
type fakePlatform struct {
	modules map[string]*fakeModule
	opened  []string
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{modules: make(map[string]*fakeModule)}
}

func (p *fakePlatform) ModuleExt() string {
	return ".so"
}

func (p *fakePlatform) Open(path string) (platform.Module, error) {
	mod, ok := p.modules[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	p.opened = append(p.opened, path)
	return mod, nil
}

func (p *fakePlatform) add(path string, plugin fakePlugin) *fakeModule {
	mod := plugin.module()
	p.modules[path] = mod
	return mod
}

type fakeInterface struct {
	name        string
	description string
	version     string

	arity      Arity
	arityFails bool
	params     []Param
	// paramFails lists parameter indexes whose info call fails
	paramFails map[int]bool
}

// fakePlugin describes the behaviour of a fake module
type fakePlugin struct {
	name       string
	version    string
	interfaces []fakeInterface

	// describesParams exports the optional parameter entry points
	describesParams bool
	// omit drops symbols from the export table
	omit []string

	failName      bool
	failVersion   bool
	failCount     bool
	failInterface int // 1-based index of the interface whose info call fails, 0 for none
	reportedCount uintptr

	paramInfoCalls *[]string
	// onName runs before the name is reported
	onName func()
}

func (p fakePlugin) module() *fakeModule {
	symbols := map[string]any{
		SymbolGetName: getStringFunc(func(buf *byte, size uintptr) int32 {
			if p.onName != nil {
				p.onName()
			}
			if p.failName {
				return 1
			}
			writeCString(buf, size, p.name)
			return 0
		}),
		SymbolGetVersion: getStringFunc(func(buf *byte, size uintptr) int32 {
			if p.failVersion {
				return 1
			}
			writeCString(buf, size, p.version)
			return 0
		}),
		SymbolGetInterfaceCount: getInterfaceCountFunc(func(count *uintptr) int32 {
			if p.failCount {
				return -1
			}
			*count = uintptr(len(p.interfaces))
			if p.reportedCount != 0 {
				*count = p.reportedCount
			}
			return 0
		}),
		SymbolGetInterfaceInfo: getInterfaceInfoFunc(func(index uintptr, name *byte, nameSize uintptr, desc *byte, descSize uintptr, version *byte, versionSize uintptr) int32 {
			if p.failInterface != 0 && int(index) == p.failInterface-1 {
				return 1
			}
			if int(index) >= len(p.interfaces) {
				return 1
			}
			iface := p.interfaces[index]
			writeCString(name, nameSize, iface.name)
			writeCString(desc, descSize, iface.description)
			writeCString(version, versionSize, iface.version)
			return 0
		}),
	}

	if p.describesParams {
		symbols[SymbolGetParamCount] = getParamCountFunc(func(index uintptr, kind *int32, min *int32, max *int32) int32 {
			iface := p.interfaces[index]
			if iface.arityFails {
				return 1
			}
			*kind = int32(iface.arity.Kind)
			*min = int32(iface.arity.Min)
			*max = int32(iface.arity.Max)
			return 0
		})
		symbols[SymbolGetParamInfo] = getParamInfoFunc(func(index uintptr, param int32, name *byte, nameSize uintptr, typ *int32, typeName *byte, typeNameSize uintptr) int32 {
			if p.paramInfoCalls != nil {
				*p.paramInfoCalls = append(*p.paramInfoCalls, fmt.Sprintf("%d/%d", index, param))
			}
			iface := p.interfaces[index]
			if iface.paramFails[int(param)] || int(param) >= len(iface.params) {
				return 1
			}
			pr := iface.params[param]
			writeCString(name, nameSize, pr.Name)
			*typ = int32(pr.Type)
			writeCString(typeName, typeNameSize, pr.TypeName)
			return 0
		})
	}

	for _, s := range p.omit {
		delete(symbols, s)
	}

	return &fakeModule{symbols: symbols}
}

// echoPlugin is a well-behaved plugin with two interfaces
func echoPlugin() fakePlugin {
	return fakePlugin{
		name:            "echo",
		version:         "1.2.0",
		describesParams: true,
		interfaces: []fakeInterface{
			{
				name:        "Echo",
				description: "Returns its input",
				version:     "1.0",
				arity:       Arity{Kind: ArityFixed, Min: 2, Max: 2},
				params: []Param{
					{Name: "message", Type: ParamString},
					{Name: "ctx", Type: ParamPointer, TypeName: "echo_ctx_t*"},
				},
			},
			{
				name:        "Printf",
				description: "Formats and prints",
				version:     "1.1",
				arity:       Arity{Kind: ArityVariable, Min: 1, Max: Unbounded},
				params: []Param{
					{Name: "format", Type: ParamString},
				},
			},
		},
	}
}
