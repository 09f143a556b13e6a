package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/nxld/pkg/platform"
	"github.com/platinummonkey/nxld/pkg/plugins"
)

func writeCString(buf *byte, size uintptr, s string) {
	if buf == nil || size == 0 {
		return
	}
	b := unsafe.Slice(buf, size)
	n := copy(b[:size-1], s)
	b[n] = 0
}

type fakeModule struct {
	symbols map[string]any
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
	return nil
}

// fakePlatform serves fake modules by absolute path
type fakePlatform struct {
	modules map[string]*fakeModule
}

func (p *fakePlatform) ModuleExt() string {
	return ".so"
}

func (p *fakePlatform) Open(path string) (platform.Module, error) {
	mod, ok := p.modules[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	return mod, nil
}

// greeterModule exports one interface and no parameter descriptions
func greeterModule() *fakeModule {
	return &fakeModule{symbols: map[string]any{
		plugins.SymbolGetName: func(buf *byte, size uintptr) int32 {
			writeCString(buf, size, "greeter")
			return 0
		},
		plugins.SymbolGetVersion: func(buf *byte, size uintptr) int32 {
			writeCString(buf, size, "0.3.1")
			return 0
		},
		plugins.SymbolGetInterfaceCount: func(count *uintptr) int32 {
			*count = 1
			return 0
		},
		plugins.SymbolGetInterfaceInfo: func(index uintptr, name *byte, nameSize uintptr, desc *byte, descSize uintptr, version *byte, versionSize uintptr) int32 {
			writeCString(name, nameSize, "Greet")
			writeCString(desc, descSize, "Says hello")
			writeCString(version, versionSize, "1.0")
			return 0
		},
	}}
}

type fixture struct {
	dir        string
	configPath string
	app        *App
}

// newFixture writes a configuration enabling greeter.so and broken.so.
// Only greeter.so is served by the fake platform.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("NXLD_LOG_FILE", filepath.Join(dir, "nxld_parser.log"))
	t.Setenv("NXLD_OUTPUT", "")
	t.Setenv("NXLD_CATALOG", "")
	t.Setenv("NXLD_METRICS_FILE", "")
	t.Setenv("NXLD_LOG_LEVEL", "")
	t.Setenv("NXLD_VERBOSE", "")
	t.Setenv("NXLD_CONFIG", "")

	for _, m := range []string{"greeter.so", "broken.so"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, m), []byte("module"), 0644))
	}

	configPath := filepath.Join(dir, "NexusEngine.nxld")
	content := `[EngineCore]
LockMode=1
MaxRootPlugins=4
EnabledRootPlugins=./greeter.so, broken.so

[RootPluginVirtualParent]
broken.so=./greeter.so
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	p := &fakePlatform{modules: map[string]*fakeModule{
		filepath.Join(dir, "greeter.so"): greeterModule(),
	}}

	return &fixture{
		dir:        dir,
		configPath: configPath,
		app:        &App{Platform: p},
	}
}

// execute runs the command tree with args and returns stdout and stderr
func (f *fixture) execute(args ...string) (string, string, error) {
	cmd := NewRootCommand(f.app)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
