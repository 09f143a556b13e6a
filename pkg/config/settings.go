package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultConfigFile is the engine document read when none is given
	DefaultConfigFile = "NexusEngine.nxld"

	// DefaultLogFile is the diagnostic log written by the fallback sink
	DefaultLogFile = "nxld_parser.log"
)

// Output formats for command results.
const (
	OutputText = "text"
	OutputYAML = "yaml"
	OutputJSON = "json"
)

// Settings holds the runtime settings of the nxld command
type Settings struct {
	// ConfigPath is the engine document to load
	ConfigPath string

	// Diagnostics
	LogFile  string
	LogLevel string
	Verbose  bool

	// Optional outputs
	MetricsFile string
	CatalogPath string
	Output      string
}

// LoadSettings loads settings from environment variables
func LoadSettings() (*Settings, error) {
	s := &Settings{
		ConfigPath:  getEnv("NXLD_CONFIG", DefaultConfigFile),
		LogFile:     getEnv("NXLD_LOG_FILE", DefaultLogFile),
		LogLevel:    getEnv("NXLD_LOG_LEVEL", "info"),
		Verbose:     getEnvBool("NXLD_VERBOSE", false),
		MetricsFile: getEnv("NXLD_METRICS_FILE", ""),
		CatalogPath: getEnv("NXLD_CATALOG", ""),
		Output:      strings.ToLower(getEnv("NXLD_OUTPUT", OutputText)),
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("settings validation failed: %w", err)
	}

	return s, nil
}

// Validate checks if the settings are valid
func (s *Settings) Validate() error {
	if s.ConfigPath == "" {
		return fmt.Errorf("config path is required")
	}
	if s.LogFile == "" {
		return fmt.Errorf("log file is required")
	}

	if _, err := s.Level(); err != nil {
		return err
	}

	switch s.Output {
	case OutputText, OutputYAML, OutputJSON:
	default:
		return fmt.Errorf("invalid output format: %s (must be text, yaml, or json)", s.Output)
	}

	return nil
}

// Level parses LogLevel
func (s *Settings) Level() (logrus.Level, error) {
	level, err := logrus.ParseLevel(s.LogLevel)
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("invalid log level: %s", s.LogLevel)
	}
	return level, nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}
