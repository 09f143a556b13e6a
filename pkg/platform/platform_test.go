package platform

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasModuleExt(t *testing.T) {
	tests := []struct {
		name string
		path string
		ext  string
		want bool
	}{
		{name: "exact match", path: "pluginA.so", ext: ".so", want: true},
		{name: "case insensitive", path: "pluginA.SO", ext: ".so", want: true},
		{name: "nested path", path: filepath.Join("plugins", "core", "a.dll"), ext: ".dll", want: true},
		{name: "wrong extension", path: "pluginA.dll", ext: ".so", want: false},
		{name: "no extension", path: "pluginA", ext: ".so", want: false},
		{name: "dot only in directory", path: filepath.Join("plugins.so", "pluginA"), ext: ".so", want: false},
		{name: "double extension uses last", path: "pluginA.so.bak", ext: ".so", want: false},
		{name: "hidden file", path: ".so", ext: ".so", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasModuleExt(tt.path, tt.ext))
		})
	}
}

func TestNative_ModuleExt(t *testing.T) {
	ext := Native().ModuleExt()

	switch runtime.GOOS {
	case "windows":
		assert.Equal(t, ".dll", ext)
	case "darwin":
		assert.Equal(t, ".dylib", ext)
	default:
		assert.Equal(t, ".so", ext)
	}
}

func TestNative_OpenMissingModule(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing"+Native().ModuleExt())

	mod, err := Native().Open(missing)
	require.Error(t, err)
	assert.Nil(t, mod)
}
