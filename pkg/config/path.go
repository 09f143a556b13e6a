package config

import (
	"path/filepath"
	"strings"
)

// ResolvePath resolves a plugin entry against the directory of configPath.
// Absolute entries are returned unchanged. A leading "./" or ".\" is dropped.
func ResolvePath(configPath, entry string) string {
	if filepath.IsAbs(entry) {
		return entry
	}

	entry = strings.TrimPrefix(entry, "./")
	entry = strings.TrimPrefix(entry, `.\`)

	return filepath.Join(filepath.Dir(configPath), entry)
}
