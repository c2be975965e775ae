package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, 0},
		{"validation", ValidationError("bad flag").Build(), 2},
		{"not found", NotFoundError("missing src").Build(), 3},
		{"config", ConfigError("bad config").Build(), 7},
		{"tool", ToolError("sass missing").Build(), 8},
		{"task", TaskError("3 files failed").Build(), 11},
		{"filesystem", NewError(CategoryFileSystem, "write denied").Build(), 11},
		{"server", NewError(CategoryServer, "port in use").Build(), 12},
		{"internal", InternalError("bug").Build(), 10},
		{"unknown category", NewError("weird", "x").Build(), 1},
		{"wrapped", fmt.Errorf("run: %w", ToolError("cwebp").Build()), 8},
		{"unclassified", stderrors.New("unknown error"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, ""},
		{"internal hidden", InternalError("internal issue").Build(), "Internal error occurred (use -v for details)"},
		{"config shown", ConfigError("bad config").Build(), "Error: bad config"},
		{"cause appended", WrapError(stderrors.New("exit status 1"), CategoryTool, "sass failed").Build(), "Error: sass failed: exit status 1"},
		{"unclassified", stderrors.New("unknown error"), "Error: unknown error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.FormatError(tt.err))
		})
	}

	verbose := NewCLIErrorAdapter(true, nil)
	assert.Equal(t, "Error: internal: boom", verbose.FormatError(InternalError("boom").Build()))
}

func TestCLIErrorAdapter_Report(t *testing.T) {
	var logs, out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	code := NewCLIErrorAdapter(false, logger).Report(&out, TaskError("2 files failed").WithContext("task", "images").Build())
	assert.Equal(t, 11, code)
	assert.Equal(t, "Error: 2 files failed\n", out.String())
	assert.Empty(t, logs.String(), "task failures are only printed")

	out.Reset()
	code = NewCLIErrorAdapter(true, logger).Report(&out, WrapError(stderrors.New("denied"), CategoryFileSystem, "write failed").WithContext("path", "build/a.css").Build())
	assert.Equal(t, 11, code)
	assert.Contains(t, logs.String(), "category=filesystem")
	assert.Contains(t, logs.String(), "path=build/a.css")
	assert.Contains(t, logs.String(), "error=denied")

	logs.Reset()
	out.Reset()
	assert.Equal(t, 1, NewCLIErrorAdapter(false, logger).Report(&out, stderrors.New("odd")))
	assert.Contains(t, logs.String(), "Unclassified error")
	assert.Equal(t, 0, NewCLIErrorAdapter(false, logger).Report(&out, nil))
}
