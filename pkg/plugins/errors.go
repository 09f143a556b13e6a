package plugins

import (
	"errors"
	"fmt"
	"strings"
)

// LoadErrorKind classifies plugin load failures.
type LoadErrorKind int

const (
	FileError LoadErrorKind = iota + 1
	SymbolError
	MetadataError
	MemoryError
)

// Error returns the human-readable description of the kind
func (k LoadErrorKind) Error() string {
	switch k {
	case FileError:
		return "failed to load plugin file"
	case SymbolError:
		return "required symbols not found in plugin"
	case MetadataError:
		return "failed to get plugin metadata"
	case MemoryError:
		return "memory allocation error"
	default:
		return "unknown error"
	}
}

// Label returns the metrics label of the kind, e.g. "symbol_error"
func (k LoadErrorKind) Label() string {
	switch k {
	case FileError:
		return "file_error"
	case SymbolError:
		return "symbol_error"
	case MetadataError:
		return "metadata_error"
	case MemoryError:
		return "memory_error"
	default:
		return "unknown_error"
	}
}

// LoadError describes why a module could not be loaded.
type LoadError struct {
	Kind LoadErrorKind
	Path string
	// Missing lists the absent mandatory symbols of a SymbolError, in protocol order
	Missing []string
	Detail  string
	Err     error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "load %s: %s", e.Path, e.Kind.Error())
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, ": %s", strings.Join(e.Missing, ", "))
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes both the kind and the underlying cause
func (e *LoadError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the LoadErrorKind carried by err
func KindOf(err error) (LoadErrorKind, bool) {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind, true
	}
	var kind LoadErrorKind
	if errors.As(err, &kind) {
		return kind, true
	}
	return 0, false
}
