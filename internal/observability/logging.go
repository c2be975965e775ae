// Package observability carries task-run identity through a context so log
// lines emitted deep inside a transform can be tied to their run.
package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/sitepipe/internal/logfields"
)

// RunInfo identifies the run, task, mode and stage a log line belongs to.
type RunInfo struct {
	RunID string
	Task  string
	Mode  string
	Stage string
}

type runInfoKey struct{}

func with(ctx context.Context, set func(*RunInfo)) context.Context {
	ri := FromContext(ctx)
	set(&ri)
	return context.WithValue(ctx, runInfoKey{}, ri)
}

func WithRunID(ctx context.Context, id string) context.Context {
	return with(ctx, func(ri *RunInfo) { ri.RunID = id })
}

func WithTask(ctx context.Context, task string) context.Context {
	return with(ctx, func(ri *RunInfo) { ri.Task = task })
}

func WithMode(ctx context.Context, mode string) context.Context {
	return with(ctx, func(ri *RunInfo) { ri.Mode = mode })
}

// WithStage replaces any stage already set, so nested stages report the
// innermost one.
func WithStage(ctx context.Context, stage string) context.Context {
	return with(ctx, func(ri *RunInfo) { ri.Stage = stage })
}

// FromContext returns the RunInfo stored in ctx, or the zero value.
func FromContext(ctx context.Context) RunInfo {
	ri, _ := ctx.Value(runInfoKey{}).(RunInfo)
	return ri
}

// Attrs renders the non-empty RunInfo fields of ctx.
func Attrs(ctx context.Context) []slog.Attr {
	ri := FromContext(ctx)
	var attrs []slog.Attr
	for _, a := range []slog.Attr{
		logfields.RunID(ri.RunID),
		logfields.Task(ri.Task),
		logfields.Mode(ri.Mode),
		logfields.Stage(ri.Stage),
	} {
		if a.Value.String() != "" {
			attrs = append(attrs, a)
		}
	}
	return attrs
}

func logAt(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	slog.Default().LogAttrs(ctx, level, msg, append(Attrs(ctx), attrs...)...)
}

func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logAt(ctx, slog.LevelDebug, msg, attrs)
}

func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logAt(ctx, slog.LevelInfo, msg, attrs)
}

func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logAt(ctx, slog.LevelWarn, msg, attrs)
}
