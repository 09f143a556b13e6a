package plugins

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/nxld/pkg/config"
	"github.com/platinummonkey/nxld/pkg/observability"
)

// Recorder receives every successfully loaded descriptor of a batch
type Recorder interface {
	Record(ctx context.Context, runID string, d *Descriptor) error
}

// BatchFailure is a plugin entry that failed to load
type BatchFailure struct {
	Index int
	Entry string
	Path  string
	Err   error
}

// BatchResult is the outcome of a batch run
type BatchResult struct {
	RunID string
	// Loaded holds the successful loads in declared order
	Loaded   []*Descriptor
	Failures []BatchFailure
	Total    int

	registry *Registry
}

// SuccessCount returns the number of loaded plugins
func (r *BatchResult) SuccessCount() int {
	return len(r.Loaded)
}

// Registry returns the loaded descriptors indexed by UID
func (r *BatchResult) Registry() *Registry {
	return r.registry
}

// Close closes every loaded module
func (r *BatchResult) Close() error {
	if r == nil || r.registry == nil {
		return nil
	}
	return r.registry.Close()
}

// Batch loads every enabled plugin of a configuration document
type Batch struct {
	loader   *Loader
	recorder Recorder
	metrics  *observability.LoadMetrics
	log      *logrus.Logger
}

// BatchOption configures a Batch
type BatchOption func(*Batch)

// WithRecorder passes every loaded descriptor to rec
func WithRecorder(rec Recorder) BatchOption {
	return func(b *Batch) {
		b.recorder = rec
	}
}

// WithBatchMetrics records batch totals in m
func WithBatchMetrics(m *observability.LoadMetrics) BatchOption {
	return func(b *Batch) {
		b.metrics = m
	}
}

// NewBatch creates a batch orchestrator around loader
func NewBatch(loader *Loader, log *logrus.Logger, opts ...BatchOption) *Batch {
	if log == nil {
		log = logrus.New()
	}

	b := &Batch{
		loader: loader,
		log:    log,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// LoadAll loads every entry of doc.EnabledPlugins in declared order, resolving
// entries against the directory of configPath. A failing entry is logged and
// skipped. An error is returned only when the batch cannot start.
func (b *Batch) LoadAll(ctx context.Context, doc *config.Document, configPath string) (*BatchResult, error) {
	if doc == nil {
		return nil, errors.New("batch setup: nil configuration document")
	}
	if configPath == "" {
		return nil, errors.New("batch setup: empty configuration path")
	}
	if b.loader == nil {
		return nil, errors.New("batch setup: no loader")
	}

	result := &BatchResult{
		RunID:    uuid.New().String(),
		Total:    len(doc.EnabledPlugins),
		registry: NewRegistry(),
	}
	log := b.log.WithField("run_id", result.RunID)
	log.WithField("plugins", result.Total).Info("Loading enabled plugins")

	for i, entry := range doc.EnabledPlugins {
		path := config.ResolvePath(configPath, entry)
		entryLog := log.WithFields(logrus.Fields{"index": i, "entry": entry})

		if err := ctx.Err(); err != nil {
			entryLog.WithError(err).Warn("Batch interrupted, skipping entry")
			result.Failures = append(result.Failures, BatchFailure{Index: i, Entry: entry, Path: path, Err: err})
			continue
		}

		d, err := b.loader.Load(path)
		if err != nil {
			entryLog.WithError(err).Error("Plugin load failed, continuing with next entry")
			result.Failures = append(result.Failures, BatchFailure{Index: i, Entry: entry, Path: path, Err: err})
			continue
		}

		if err := result.registry.Register(d); err != nil {
			entryLog.WithError(err).Error("Failed to register plugin")
			if cerr := d.Close(); cerr != nil {
				entryLog.WithError(cerr).Warn("Failed to close plugin module")
			}
			result.Failures = append(result.Failures, BatchFailure{Index: i, Entry: entry, Path: path, Err: err})
			continue
		}
		result.Loaded = append(result.Loaded, d)

		if b.recorder != nil {
			if err := b.recorder.Record(ctx, result.RunID, d); err != nil {
				entryLog.WithError(err).Warn("Failed to record plugin load")
			}
		}
	}

	b.metrics.SetBatchResult(result.SuccessCount(), len(result.Failures))
	log.WithFields(logrus.Fields{
		"loaded": result.SuccessCount(),
		"failed": len(result.Failures),
		"total":  result.Total,
	}).Info("Batch load finished")

	return result, nil
}
