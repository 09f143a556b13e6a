package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels shared by the load and parse counters.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// LoadMetrics holds the Prometheus metrics of a plugin loading run.
// A nil *LoadMetrics is valid and records nothing.
type LoadMetrics struct {
	// Plugin metrics
	PluginLoadsTotal   *prometheus.CounterVec
	PluginLoadDuration prometheus.Histogram

	// Manifest metrics
	ManifestWritesTotal *prometheus.CounterVec

	// Configuration metrics
	ConfigParsesTotal *prometheus.CounterVec

	// Batch metrics
	BatchPluginsLoaded prometheus.Gauge
	BatchPluginsFailed prometheus.Gauge
}

// NewLoadMetrics creates and registers the loading metrics
func NewLoadMetrics(registry prometheus.Registerer) *LoadMetrics {
	m := &LoadMetrics{
		PluginLoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nxld_plugin_loads_total",
				Help: "Total number of plugin load attempts",
			},
			[]string{"result"},
		),
		PluginLoadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nxld_plugin_load_duration_seconds",
				Help:    "Plugin load and introspection duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
		),
		ManifestWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nxld_manifest_writes_total",
				Help: "Total number of manifest writes",
			},
			[]string{"status"},
		),
		ConfigParsesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nxld_config_parses_total",
				Help: "Total number of configuration parses",
			},
			[]string{"result"},
		),
		BatchPluginsLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "nxld_batch_plugins_loaded",
				Help: "Plugins loaded by the last batch",
			},
		),
		BatchPluginsFailed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "nxld_batch_plugins_failed",
				Help: "Plugins that failed to load in the last batch",
			},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.PluginLoadsTotal,
			m.PluginLoadDuration,
			m.ManifestWritesTotal,
			m.ConfigParsesTotal,
			m.BatchPluginsLoaded,
			m.BatchPluginsFailed,
		)
	}

	return m
}

// ObservePluginLoad records one load attempt
func (m *LoadMetrics) ObservePluginLoad(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.PluginLoadsTotal.WithLabelValues(result).Inc()
	m.PluginLoadDuration.Observe(duration.Seconds())
}

// RecordManifestWrite records a manifest write outcome
func (m *LoadMetrics) RecordManifestWrite(status string) {
	if m == nil {
		return
	}
	m.ManifestWritesTotal.WithLabelValues(status).Inc()
}

// RecordConfigParse records a configuration parse outcome
func (m *LoadMetrics) RecordConfigParse(result string) {
	if m == nil {
		return
	}
	m.ConfigParsesTotal.WithLabelValues(result).Inc()
}

// SetBatchResult records the totals of a finished batch
func (m *LoadMetrics) SetBatchResult(loaded, failed int) {
	if m == nil {
		return
	}
	m.BatchPluginsLoaded.Set(float64(loaded))
	m.BatchPluginsFailed.Set(float64(failed))
}

// WriteTextfile writes every metric in g to path in the Prometheus text format,
// for pickup by the node exporter textfile collector.
func WriteTextfile(g prometheus.Gatherer, path string) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
