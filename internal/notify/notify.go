// Package notify delivers task failures to people and systems. Transform code
// never calls it; the Reporter consumes finished task results.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"git.home.luguber.info/inful/sitepipe/internal/logfields"
)

// Notifier delivers one failure event.
type Notifier interface {
	Notify(ctx context.Context, ev FailureEvent) error
}

// LogNotifier writes each failure as a warning.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(ctx context.Context, ev FailureEvent) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.LogAttrs(ctx, slog.LevelWarn, "Task failure",
		logfields.Task(ev.Task),
		logfields.RunID(ev.RunID),
		logfields.Mode(ev.Mode),
		logfields.File(ev.File),
		logfields.Stage(ev.Stage),
		slog.String(logfields.KeyError, ev.Error))
	return nil
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev FailureEvent) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
