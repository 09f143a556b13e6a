package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type fakeFormat string

func (f fakeFormat) ModuleExt() string {
	return string(f)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// writeConfig writes content to dir/NexusEngine.nxld and creates every module
// file listed in modules next to it.
func writeConfig(t *testing.T, dir, content string, modules ...string) string {
	t.Helper()

	for _, m := range modules {
		p := filepath.Join(dir, m)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("module"), 0644))
	}

	path := filepath.Join(dir, DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
