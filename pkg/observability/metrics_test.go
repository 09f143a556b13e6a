package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoadMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewLoadMetrics(registry)

	require.NotNil(t, metrics)
	assert.NotNil(t, metrics.PluginLoadsTotal)
	assert.NotNil(t, metrics.PluginLoadDuration)
	assert.NotNil(t, metrics.ManifestWritesTotal)
	assert.NotNil(t, metrics.ConfigParsesTotal)
	assert.NotNil(t, metrics.BatchPluginsLoaded)
	assert.NotNil(t, metrics.BatchPluginsFailed)
}

func TestLoadMetrics_Record(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewLoadMetrics(registry)

	metrics.ObservePluginLoad(ResultSuccess, 2*time.Millisecond)
	metrics.ObservePluginLoad(ResultSuccess, 3*time.Millisecond)
	metrics.ObservePluginLoad("symbol_error", time.Millisecond)
	metrics.RecordManifestWrite(ResultError)
	metrics.RecordConfigParse(ResultSuccess)
	metrics.SetBatchResult(2, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.PluginLoadsTotal.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PluginLoadsTotal.WithLabelValues("symbol_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ManifestWritesTotal.WithLabelValues(ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ConfigParsesTotal.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.BatchPluginsLoaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BatchPluginsFailed))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.PluginLoadDuration))
}

func TestLoadMetrics_NilIsNoop(t *testing.T) {
	var metrics *LoadMetrics

	assert.NotPanics(t, func() {
		metrics.ObservePluginLoad(ResultSuccess, time.Second)
		metrics.RecordManifestWrite(ResultSuccess)
		metrics.RecordConfigParse(ResultError)
		metrics.SetBatchResult(1, 0)
	})
}

func TestWriteTextfile(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewLoadMetrics(registry)
	metrics.ObservePluginLoad(ResultSuccess, time.Millisecond)

	path := filepath.Join(t.TempDir(), "nxld.prom")
	require.NoError(t, WriteTextfile(registry, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `nxld_plugin_loads_total{result="success"} 1`))
}

func TestWriteTextfile_BadPath(t *testing.T) {
	err := WriteTextfile(prometheus.NewRegistry(), filepath.Join(t.TempDir(), "missing", "nxld.prom"))
	assert.Error(t, err)
}
