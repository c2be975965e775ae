package errors

import (
	"log/slog"
	"maps"
	"slices"
)

// ErrorCategory groups failures by who has to act on them.
type ErrorCategory string

const (
	// User input: flags, config files and the paths they name.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	// External binaries such as sass, cwebp or a font converter.
	CategoryTool ErrorCategory = "tool"

	// Asset production.
	CategoryTask       ErrorCategory = "task"
	CategoryTransform  ErrorCategory = "transform"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Long running serve and watch loops.
	CategoryServer   ErrorCategory = "server"
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

var exitCodes = map[ErrorCategory]int{
	CategoryValidation: 2,
	CategoryNotFound:   3,
	CategoryConfig:     7,
	CategoryTool:       8,
	CategoryInternal:   10,
	CategoryTask:       11,
	CategoryTransform:  11,
	CategoryFileSystem: 11,
	CategoryServer:     12,
	CategoryRuntime:    12,
}

// ExitCode is the process status for a failure of this category; unknown
// categories exit with 1.
func (c ErrorCategory) ExitCode() int {
	if code, ok := exitCodes[c]; ok {
		return code
	}
	return 1
}

// Hidden reports whether the message is withheld from the user unless
// running verbose.
func (c ErrorCategory) Hidden() bool {
	return c == CategoryInternal || c == CategoryRuntime
}

// Level is the log level the CLI reports the category at.
func (c ErrorCategory) Level() slog.Level {
	if c == CategoryTransform {
		return slog.LevelWarn
	}
	return slog.LevelError
}

// Fields is the structured context attached to an error.
type Fields map[string]any

// GetString returns the value of key when it is a string.
func (f Fields) GetString(key string) (string, bool) {
	s, ok := f[key].(string)
	return s, ok
}

// Attrs renders the fields as log attributes in key order.
func (f Fields) Attrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(f))
	for _, k := range slices.Sorted(maps.Keys(f)) {
		attrs = append(attrs, slog.Any(k, f[k]))
	}
	return attrs
}
