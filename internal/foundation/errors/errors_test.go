package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	cause := stderrors.New("exit status 1")
	b := WrapError(cause, CategoryTool, "cwebp failed").
		WithContext("file", "img/hero.png").
		WithContext("quality", 80)
	err := b.Build()

	assert.Equal(t, CategoryTool, err.Category())
	assert.Equal(t, "cwebp failed", err.Message())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "tool: cwebp failed: exit status 1", err.Error())

	file, ok := err.Context().GetString("file")
	require.True(t, ok)
	assert.Equal(t, "img/hero.png", file)
	_, ok = err.Context().GetString("quality")
	assert.False(t, ok)

	b.WithContext("file", "other.png")
	file, _ = err.Context().GetString("file")
	assert.Equal(t, "img/hero.png", file, "built error is detached from its builder")

	err.Context()["file"] = "mutated"
	file, _ = err.Context().GetString("file")
	assert.Equal(t, "img/hero.png", file)
}

func TestHasCategory(t *testing.T) {
	err := fmt.Errorf("build: %w", TaskError("2 files failed").Build())
	assert.True(t, HasCategory(err, CategoryTask))
	assert.False(t, HasCategory(err, CategoryTool))
	assert.False(t, HasCategory(stderrors.New("plain"), CategoryTask))

	ce, ok := AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, "2 files failed", ce.Message())
}

func TestConstructors(t *testing.T) {
	for want, b := range map[ErrorCategory]*ErrorBuilder{
		CategoryConfig:     ConfigError("x"),
		CategoryValidation: ValidationError("x"),
		CategoryNotFound:   NotFoundError("x"),
		CategoryTool:       ToolError("x"),
		CategoryTask:       TaskError("x"),
		CategoryInternal:   InternalError("x"),
	} {
		assert.Equal(t, want, b.Build().Category())
	}
}

func TestFieldsAttrsSorted(t *testing.T) {
	attrs := Fields{"b": 2, "a": "one"}.Attrs()
	require.Len(t, attrs, 2)
	assert.Equal(t, "a", attrs[0].Key)
	assert.Equal(t, "b", attrs[1].Key)
}

func TestCategoryLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, CategoryTransform.Level())
	assert.Equal(t, slog.LevelError, CategoryTool.Level())
}
