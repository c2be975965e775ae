package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunInfoChaining(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-1")
	ctx = WithTask(ctx, "styles")
	ctx = WithMode(ctx, "prod")
	ctx = WithStage(ctx, "compile")
	ctx = WithStage(ctx, "minify")

	assert.Equal(t, RunInfo{RunID: "run-1", Task: "styles", Mode: "prod", Stage: "minify"}, FromContext(ctx))
}

func TestAttrsSkipsEmpty(t *testing.T) {
	assert.Empty(t, Attrs(context.Background()))

	attrs := Attrs(WithTask(context.Background(), "html"))
	if assert.Len(t, attrs, 1) {
		assert.Equal(t, "html", attrs[0].Value.String())
	}
}

func TestLoggingIncludesRunInfo(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(prev)

	ctx := WithTask(WithRunID(context.Background(), "abc"), "html")
	InfoContext(ctx, "info message", slog.String("file", "index.html"))
	WarnContext(ctx, "warn message")
	DebugContext(ctx, "debug message")

	out := buf.String()
	for _, want := range []string{"run_id=abc", "task=html", "file=index.html", "info message", "warn message", "debug message"} {
		assert.Contains(t, out, want)
	}
}
