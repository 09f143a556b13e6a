package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/platinummonkey/nxld/pkg/catalog"
	"github.com/platinummonkey/nxld/pkg/config"
	"github.com/platinummonkey/nxld/pkg/observability"
	"github.com/platinummonkey/nxld/pkg/plugins"
)

// runLoad parses the configuration, loads its enabled plugins and prints the summary.
func runLoad(cmd *cobra.Command, app *App) error {
	s := app.Settings

	diag, err := app.openDiagnostics(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer diag.Close()
	log := diag.Logger

	log.Info("Starting NXLD engine")
	log.WithField("config", s.ConfigPath).Info("Config file")

	registry := prometheus.NewRegistry()
	metrics := observability.NewLoadMetrics(registry)
	if s.MetricsFile != "" {
		defer writeMetrics(registry, s.MetricsFile, log)
	}

	doc, err := config.ParseFile(s.ConfigPath, config.WithLogger(log), config.WithModuleFormat(app.Platform))
	if err != nil {
		metrics.RecordConfigParse(observability.ResultError)
		log.WithError(err).Error("Parse failed")
		return fmt.Errorf("parse failed: %w", err)
	}
	metrics.RecordConfigParse(observability.ResultSuccess)
	log.Info("Parse successful")

	batchOpts := []plugins.BatchOption{plugins.WithBatchMetrics(metrics)}
	if s.CatalogPath != "" {
		cat, err := catalog.Open(s.CatalogPath)
		if err != nil {
			return err
		}
		defer cat.Close()
		batchOpts = append(batchOpts, plugins.WithRecorder(cat))
	}

	loader := plugins.NewLoader(app.Platform, log, plugins.WithMetrics(metrics))
	result, err := plugins.NewBatch(loader, log, batchOpts...).LoadAll(cmd.Context(), doc, s.ConfigPath)
	if err != nil {
		log.WithError(err).Error("Failed to load plugins")
		return fmt.Errorf("failed to load plugins: %w", err)
	}
	defer result.Close()

	report := newLoadReport(doc, result)
	if err := writeOutput(cmd.OutOrStdout(), s.Output, report, report.writeText); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"run_id": result.RunID,
		"loaded": result.SuccessCount(),
		"total":  result.Total,
	}).Info("Engine initialized successfully")
	return nil
}

func writeMetrics(g prometheus.Gatherer, path string, log *logrus.Logger) {
	if err := observability.WriteTextfile(g, path); err != nil {
		log.WithError(err).Warn("Failed to write metrics file")
	}
}
