// Package observability provides diagnostic logging and Prometheus metrics for nxld.
//
// # Overview
//
// Diagnostics are written through a Sink. OpenDiagnostics tries a primary sink
// and falls back to the built-in FileSink, then returns a logrus logger whose
// entries are forwarded to the sink by a hook.
//
// # Diagnostics
//
// Open the diagnostic log:
//
//	diag, err := observability.OpenDiagnostics(observability.DiagnosticsOptions{
//		Config: "nxld_parser.log",
//		Level:  logrus.InfoLevel,
//	})
//	defer diag.Close()
//	diag.Logger.WithField("plugin", path).Info("Plugin loaded")
//
// FileSink lines look like:
//
//	[2024-05-01 12:00:00] [INFO] Plugin loaded plugin=/opt/plugins/echo.so
//
// # Prometheus Metrics
//
// Initialize metrics:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewLoadMetrics(registry)
//	metrics.ObservePluginLoad(observability.ResultSuccess, time.Since(start))
//
// Export them for the node exporter textfile collector:
//
//	observability.WriteTextfile(registry, "/var/lib/node_exporter/nxld.prom")
//
// # Related Packages
//
//   - pkg/plugins: Loader and Batch record LoadMetrics
//   - pkg/cli: Builds the diagnostics from runtime settings
package observability
