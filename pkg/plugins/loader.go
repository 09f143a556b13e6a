package plugins

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/nxld/pkg/observability"
	"github.com/platinummonkey/nxld/pkg/platform"
)

// Limits on what a module may ask the loader to allocate.
const (
	MaxInterfaces = 1 << 16
	MaxParams     = 1 << 12
)

// Loader opens plugin modules and builds their descriptors
type Loader struct {
	platform platform.Platform
	uids     *UIDGenerator
	metrics  *observability.LoadMetrics
	log      *logrus.Logger
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithUIDGenerator sets the UID source. Defaults to a time-seeded generator.
func WithUIDGenerator(g *UIDGenerator) LoaderOption {
	return func(l *Loader) {
		l.uids = g
	}
}

// WithMetrics records load outcomes in m
func WithMetrics(m *observability.LoadMetrics) LoaderOption {
	return func(l *Loader) {
		l.metrics = m
	}
}

// NewLoader creates a new plugin loader
func NewLoader(p platform.Platform, log *logrus.Logger, opts ...LoaderOption) *Loader {
	if p == nil {
		p = platform.Native()
	}
	if log == nil {
		log = logrus.New()
	}

	l := &Loader{
		platform: p,
		log:      log,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.uids == nil {
		l.uids = NewUIDGenerator()
	}

	return l
}

// Load opens the module at path, runs the introspection protocol and writes
// its manifest. On failure the module is closed and a *LoadError is returned.
// A manifest write failure is logged and does not fail the load.
func (l *Loader) Load(path string) (*Descriptor, error) {
	start := time.Now()
	log := l.log.WithField("plugin", path)

	d, err := l.load(path, log)
	if err != nil {
		kind, _ := KindOf(err)
		log.WithError(err).WithField("kind", kind.Label()).Error("Failed to load plugin")
		l.metrics.ObservePluginLoad(kind.Label(), time.Since(start))
		return nil, err
	}
	l.metrics.ObservePluginLoad(observability.ResultSuccess, time.Since(start))

	manifestPath := ManifestPath(path)
	if err := WriteManifest(manifestPath, NewManifest(d)); err != nil {
		log.WithError(err).Warn("Failed to write plugin manifest")
		l.metrics.RecordManifestWrite(observability.ResultError)
	} else {
		d.ManifestPath = manifestPath
		log.WithField("manifest", manifestPath).Info("Plugin manifest written")
		l.metrics.RecordManifestWrite(observability.ResultSuccess)
	}

	log.WithFields(logrus.Fields{
		"uid":        d.UID,
		"name":       d.Name,
		"version":    d.Version,
		"interfaces": len(d.Interfaces),
	}).Info("Plugin loaded")

	return d, nil
}

func (l *Loader) load(path string, log *logrus.Entry) (*Descriptor, error) {
	mod, err := l.platform.Open(path)
	if err != nil {
		return nil, &LoadError{Kind: FileError, Path: path, Err: err}
	}

	d := &Descriptor{Path: path, module: mod}

	fail := func(err *LoadError) (*Descriptor, error) {
		if cerr := d.Close(); cerr != nil {
			log.WithError(cerr).Warn("Failed to close plugin module")
		}
		err.Path = path
		return nil, err
	}

	caps, missing, err := resolveCapabilities(mod)
	if err != nil {
		return fail(&LoadError{Kind: SymbolError, Err: err})
	}
	if len(missing) > 0 {
		return fail(&LoadError{Kind: SymbolError, Missing: missing})
	}
	if !caps.describesParams() {
		log.Debug("Plugin does not describe parameters")
	}

	if err := l.safeIntrospect(d, caps, log); err != nil {
		return fail(err)
	}

	d.UID = l.uids.Generate()
	return d, nil
}

// safeIntrospect reports a panic raised while calling into the module as a MetadataError
func (l *Loader) safeIntrospect(d *Descriptor, caps *capabilities, log *logrus.Entry) (lerr *LoadError) {
	defer func() {
		if err := observability.MustRecover(recover()); err != nil {
			log.WithError(err).Error("Plugin panicked during introspection")
			lerr = &LoadError{Kind: MetadataError, Err: err}
		}
	}()
	return l.introspect(d, caps, log)
}

func (l *Loader) introspect(d *Descriptor, caps *capabilities, log *logrus.Entry) *LoadError {
	name, ok := callString(caps.getName, NameBufferSize)
	if !ok {
		return &LoadError{Kind: MetadataError, Detail: "get name failed"}
	}
	version, ok := callString(caps.getVersion, VersionBufferSize)
	if !ok {
		return &LoadError{Kind: MetadataError, Detail: "get version failed"}
	}
	d.Name = name
	d.Version = version

	var count uintptr
	if caps.getInterfaceCount(&count) != 0 {
		return &LoadError{Kind: MetadataError, Detail: "get interface count failed"}
	}
	if count > MaxInterfaces {
		return &LoadError{Kind: MemoryError, Detail: fmt.Sprintf("interface count %d exceeds %d", count, MaxInterfaces)}
	}

	d.Interfaces = make([]Interface, 0, count)
	for i := uintptr(0); i < count; i++ {
		iface, err := l.introspectInterface(caps, i, log)
		if err != nil {
			return err
		}
		d.Interfaces = append(d.Interfaces, iface)
	}

	return nil
}

func (l *Loader) introspectInterface(caps *capabilities, i uintptr, log *logrus.Entry) (Interface, *LoadError) {
	name := make([]byte, NameBufferSize)
	desc := make([]byte, DescriptionBufferSize)
	version := make([]byte, VersionBufferSize)

	if caps.getInterfaceInfo(i,
		&name[0], uintptr(len(name)),
		&desc[0], uintptr(len(desc)),
		&version[0], uintptr(len(version))) != 0 {
		return Interface{}, &LoadError{Kind: MetadataError, Detail: fmt.Sprintf("get interface %d info failed", i)}
	}

	iface := Interface{
		Name:        cString(name),
		Description: cString(desc),
		Version:     cString(version),
		Arity:       UnknownArity,
	}

	if !caps.describesParams() {
		return iface, nil
	}

	var kind, minCount, maxCount int32
	if caps.getParamCount(i, &kind, &minCount, &maxCount) != 0 {
		log.WithField("interface", i).Warn("Failed to get parameter count")
		return iface, nil
	}
	iface.Arity = Arity{
		Kind: arityKindFromWire(kind),
		Min:  int(minCount),
		Max:  int(maxCount),
	}

	n := iface.Arity.Enumerable()
	if n > MaxParams {
		return Interface{}, &LoadError{Kind: MemoryError, Detail: fmt.Sprintf("interface %d parameter count %d exceeds %d", i, n, MaxParams)}
	}

	iface.Params = make([]Param, 0, n)
	for j := 0; j < n; j++ {
		iface.Params = append(iface.Params, l.introspectParam(caps, i, j, log))
	}

	return iface, nil
}

func (l *Loader) introspectParam(caps *capabilities, i uintptr, j int, log *logrus.Entry) Param {
	name := make([]byte, NameBufferSize)
	typeName := make([]byte, TypeNameBufferSize)
	var typ int32

	if caps.getParamInfo(i, int32(j),
		&name[0], uintptr(len(name)),
		&typ,
		&typeName[0], uintptr(len(typeName))) != 0 {
		log.WithFields(logrus.Fields{"interface": i, "param": j}).Warn("Failed to get parameter info")
		return Param{Type: ParamUnknown, Unresolved: true}
	}

	return Param{
		Name:     cString(name),
		Type:     paramTypeFromWire(typ),
		TypeName: cString(typeName),
	}
}
