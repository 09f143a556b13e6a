package observability

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Level is the severity understood by a diagnostic sink
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarning:
		return "WARNING"
	default:
		return "INFO"
	}
}

// Sink receives formatted diagnostic messages.
type Sink interface {
	// Init prepares the sink. config is sink specific; for FileSink it is the log file path.
	Init(config string) error
	Write(level Level, message string)
	Close() error
}

// timestampLayout matches "%Y-%m-%d %H:%M:%S"
const timestampLayout = "2006-01-02 15:04:05"

// FileSink appends "[time] [LEVEL] message" lines to a file.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
	now  func() time.Time
}

// NewFileSink creates an uninitialised file sink
func NewFileSink() *FileSink {
	return &FileSink{now: time.Now}
}

// Init opens path for appending, creating it if needed
func (s *FileSink) Init(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		s.file.Close()
		s.file = nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	s.file = f
	return nil
}

// Write appends one line. Writes before Init or after Close are dropped.
func (s *FileSink) Write(level Level, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return
	}
	fmt.Fprintf(s.file, "[%s] [%s] %s\n", s.now().Format(timestampLayout), level, message)
}

// Close closes the log file
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// DiagnosticsOptions configures OpenDiagnostics
type DiagnosticsOptions struct {
	// Primary is tried first; FileSink is used when it is nil or fails to initialise.
	Primary Sink

	// Config is passed to Sink.Init
	Config string

	Level logrus.Level

	// Mirror receives a copy of every entry in logrus text format. Nil discards.
	Mirror io.Writer
}

// Diagnostics owns the process diagnostic sink and the logger writing to it.
type Diagnostics struct {
	Logger *logrus.Logger

	sink     Sink
	fallback bool
}

// OpenDiagnostics initialises a sink and returns a logger that forwards every entry to it.
func OpenDiagnostics(opts DiagnosticsOptions) (*Diagnostics, error) {
	var sink Sink
	fallback := false

	if opts.Primary != nil {
		if err := opts.Primary.Init(opts.Config); err == nil {
			sink = opts.Primary
		}
	}

	if sink == nil {
		fs := NewFileSink()
		if err := fs.Init(opts.Config); err != nil {
			return nil, err
		}
		sink = fs
		fallback = true
	}

	log := logrus.New()
	log.SetLevel(opts.Level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if opts.Mirror != nil {
		log.SetOutput(opts.Mirror)
	} else {
		log.SetOutput(io.Discard)
	}
	log.AddHook(&sinkHook{sink: sink})

	return &Diagnostics{Logger: log, sink: sink, fallback: fallback}, nil
}

// Fallback reports whether the built-in file sink is in use
func (d *Diagnostics) Fallback() bool {
	return d.fallback
}

// Close tears down the sink. The logger must not be used afterwards.
func (d *Diagnostics) Close() error {
	if d == nil || d.sink == nil {
		return nil
	}
	err := d.sink.Close()
	d.sink = nil
	return err
}

// sinkHook forwards logrus entries to a Sink
type sinkHook struct {
	sink Sink
}

func (h *sinkHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *sinkHook) Fire(entry *logrus.Entry) error {
	h.sink.Write(sinkLevel(entry.Level), formatEntry(entry))
	return nil
}

func sinkLevel(level logrus.Level) Level {
	switch level {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		return LevelError
	case logrus.WarnLevel:
		return LevelWarning
	default:
		return LevelInfo
	}
}

// formatEntry renders the message followed by its fields in key order
func formatEntry(entry *logrus.Entry) string {
	if len(entry.Data) == 0 {
		return entry.Message
	}

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(entry.Message)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	return b.String()
}
