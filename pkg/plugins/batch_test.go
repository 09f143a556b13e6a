package plugins

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/nxld/pkg/config"
	"github.com/platinummonkey/nxld/pkg/observability"
)

type recordedLoad struct {
	runID string
	uid   string
}

type fakeRecorder struct {
	loads []recordedLoad
	err   error
}

func (r *fakeRecorder) Record(ctx context.Context, runID string, d *Descriptor) error {
	r.loads = append(r.loads, recordedLoad{runID: runID, uid: d.UID})
	return r.err
}

func namedPlugin(name string) fakePlugin {
	p := echoPlugin()
	p.name = name
	return p
}

func TestBatch_LoadAll_PreservesOrderAndSkipsFailures(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, config.DefaultConfigFile)

	p := newFakePlatform()
	p.add(filepath.Join(dir, "a.so"), namedPlugin("A"))
	broken := namedPlugin("B")
	broken.omit = []string{SymbolGetInterfaceInfo}
	p.add(filepath.Join(dir, "b.so"), broken)
	p.add(filepath.Join(dir, "c.so"), namedPlugin("C"))

	doc := &config.Document{EnabledPlugins: []string{"a.so", "./b.so", "c.so"}}
	recorder := &fakeRecorder{}
	metrics := observability.NewLoadMetrics(prometheus.NewRegistry())

	batch := NewBatch(newTestLoader(p), quietLogger(), WithRecorder(recorder), WithBatchMetrics(metrics))
	result, err := batch.LoadAll(context.Background(), doc, configPath)
	require.NoError(t, err)
	defer result.Close()

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.SuccessCount())
	require.Len(t, result.Loaded, 2)
	assert.Equal(t, "A", result.Loaded[0].Name)
	assert.Equal(t, "C", result.Loaded[1].Name)

	require.Len(t, result.Failures, 1)
	failure := result.Failures[0]
	assert.Equal(t, 1, failure.Index)
	assert.Equal(t, "./b.so", failure.Entry)
	assert.Equal(t, filepath.Join(dir, "b.so"), failure.Path)
	assert.ErrorIs(t, failure.Err, SymbolError)

	assert.NotEmpty(t, result.RunID)
	require.Len(t, recorder.loads, 2)
	for i, rec := range recorder.loads {
		assert.Equal(t, result.RunID, rec.runID)
		assert.Equal(t, result.Loaded[i].UID, rec.uid)
	}

	assert.Equal(t, 2, result.Registry().Count())
	assert.True(t, result.Registry().Has(result.Loaded[1].UID))

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.BatchPluginsLoaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.BatchPluginsFailed))
}

func TestBatch_LoadAll_DuplicatesLoadedIndependently(t *testing.T) {
	dir := t.TempDir()
	p := newFakePlatform()
	mod := p.add(filepath.Join(dir, "a.so"), namedPlugin("A"))

	doc := &config.Document{EnabledPlugins: []string{"a.so", "a.so"}}
	result, err := NewBatch(newTestLoader(p), quietLogger()).LoadAll(context.Background(), doc, filepath.Join(dir, "engine.nxld"))
	require.NoError(t, err)

	require.Equal(t, 2, result.SuccessCount())
	assert.NotEqual(t, result.Loaded[0].UID, result.Loaded[1].UID)
	assert.Len(t, p.opened, 2)

	require.NoError(t, result.Close())
	assert.Equal(t, 2, mod.closes)
}

func TestBatch_LoadAll_RegisterFailureClosesModule(t *testing.T) {
	dir := t.TempDir()
	p := newFakePlatform()
	p.add(filepath.Join(dir, "a.so"), namedPlugin("A"))

	loader := newTestLoader(p)
	// b.so restarts the generator so it is handed the UID a.so already holds
	clash := namedPlugin("B")
	clash.onName = func() { loader.uids = NewSeededUIDGenerator(42) }
	mod := p.add(filepath.Join(dir, "b.so"), clash)
	mod.closeErr = errors.New("module busy")

	var logs bytes.Buffer
	log := quietLogger()
	log.SetOutput(&logs)

	doc := &config.Document{EnabledPlugins: []string{"a.so", "b.so"}}
	result, err := NewBatch(loader, log).LoadAll(context.Background(), doc, filepath.Join(dir, "engine.nxld"))
	require.NoError(t, err)
	defer result.Close()

	require.Equal(t, 1, result.SuccessCount())
	assert.Equal(t, "A", result.Loaded[0].Name)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "b.so", result.Failures[0].Entry)
	assert.Contains(t, result.Failures[0].Err.Error(), "already registered")

	assert.Equal(t, 1, mod.closes)
	assert.Contains(t, logs.String(), "Failed to register plugin")
	assert.Contains(t, logs.String(), "Failed to close plugin module")
	assert.Contains(t, logs.String(), "module busy")
}

func TestBatch_LoadAll_AllFail(t *testing.T) {
	dir := t.TempDir()
	doc := &config.Document{EnabledPlugins: []string{"x.so", "y.so"}}

	result, err := NewBatch(newTestLoader(newFakePlatform()), quietLogger()).LoadAll(context.Background(), doc, filepath.Join(dir, "engine.nxld"))
	require.NoError(t, err)

	assert.Equal(t, 0, result.SuccessCount())
	assert.Len(t, result.Failures, 2)
	assert.Empty(t, result.Loaded)
}

func TestBatch_LoadAll_RecorderErrorIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	p := newFakePlatform()
	p.add(filepath.Join(dir, "a.so"), namedPlugin("A"))
	recorder := &fakeRecorder{err: errors.New("database is locked")}

	doc := &config.Document{EnabledPlugins: []string{"a.so"}}
	result, err := NewBatch(newTestLoader(p), quietLogger(), WithRecorder(recorder)).LoadAll(context.Background(), doc, filepath.Join(dir, "engine.nxld"))
	require.NoError(t, err)
	defer result.Close()

	assert.Equal(t, 1, result.SuccessCount())
	assert.Len(t, recorder.loads, 1)
}

func TestBatch_LoadAll_SetupErrors(t *testing.T) {
	loader := newTestLoader(newFakePlatform())
	doc := &config.Document{EnabledPlugins: []string{"a.so"}}

	tests := []struct {
		name       string
		batch      *Batch
		doc        *config.Document
		configPath string
	}{
		{name: "nil document", batch: NewBatch(loader, quietLogger()), configPath: "engine.nxld"},
		{name: "empty config path", batch: NewBatch(loader, quietLogger()), doc: doc},
		{name: "no loader", batch: NewBatch(nil, quietLogger()), doc: doc, configPath: "engine.nxld"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.batch.LoadAll(context.Background(), tt.doc, tt.configPath)
			assert.Error(t, err)
			assert.Nil(t, result)
		})
	}
}

func TestBatchResult_CloseNil(t *testing.T) {
	var r *BatchResult
	assert.NoError(t, r.Close())
}

func TestBatch_LoadAll_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	p := newFakePlatform()
	p.add(filepath.Join(dir, "a.so"), namedPlugin("A"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc := &config.Document{EnabledPlugins: []string{"a.so", "b.so"}}
	result, err := NewBatch(newTestLoader(p), quietLogger()).LoadAll(ctx, doc, filepath.Join(dir, "engine.nxld"))
	require.NoError(t, err)

	assert.Equal(t, 0, result.SuccessCount())
	require.Len(t, result.Failures, 2)
	assert.ErrorIs(t, result.Failures[0].Err, context.Canceled)
	assert.Empty(t, p.opened)
}
