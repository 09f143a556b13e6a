package config

import (
	"errors"
	"fmt"
)

// ErrorKind classifies configuration failures.
type ErrorKind int

const (
	FileError ErrorKind = iota + 1
	EncodingError
	MissingSection
	InvalidLockMode
	InvalidMaxPlugins
	EmptyPlugins
	PluginNotFound
	PluginFormatMismatch
	VirtualParentInvalid
	MemoryError
)

// Error returns the human-readable description of the kind.
func (k ErrorKind) Error() string {
	switch k {
	case FileError:
		return "file read error"
	case EncodingError:
		return "encoding error: file is not valid UTF-8 or is a binary file"
	case MissingSection:
		return "configuration is missing the required [EngineCore] section"
	case InvalidLockMode:
		return "LockMode is invalid, only 0 (off) or 1 (on) are supported"
	case InvalidMaxPlugins:
		return "MaxRootPlugins must be >= 1 and cover every enabled plugin in lock mode"
	case EmptyPlugins:
		return "EnabledRootPlugins cannot be empty, at least 1 root plugin must be specified"
	case PluginNotFound:
		return "plugin file not found"
	case PluginFormatMismatch:
		return "plugin file format is invalid for this platform"
	case VirtualParentInvalid:
		return "plugin path in virtual parent config is not in EnabledRootPlugins"
	case MemoryError:
		return "memory allocation error"
	default:
		return "unknown error"
	}
}

// Name returns the identifier of the kind, e.g. "PluginNotFound"
func (k ErrorKind) Name() string {
	switch k {
	case FileError:
		return "FileError"
	case EncodingError:
		return "EncodingError"
	case MissingSection:
		return "MissingSection"
	case InvalidLockMode:
		return "InvalidLockMode"
	case InvalidMaxPlugins:
		return "InvalidMaxPlugins"
	case EmptyPlugins:
		return "EmptyPlugins"
	case PluginNotFound:
		return "PluginNotFound"
	case PluginFormatMismatch:
		return "PluginFormatMismatch"
	case VirtualParentInvalid:
		return "VirtualParentInvalid"
	case MemoryError:
		return "MemoryError"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// ParseError describes a configuration failure.
type ParseError struct {
	Kind   ErrorKind
	Path   string // configuration file, if known
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the underlying cause.
func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the ErrorKind carried by err.
func KindOf(err error) (ErrorKind, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	var kind ErrorKind
	if errors.As(err, &kind) {
		return kind, true
	}
	return 0, false
}

func newError(kind ErrorKind, detail string, err error) *ParseError {
	return &ParseError{Kind: kind, Detail: detail, Err: err}
}
