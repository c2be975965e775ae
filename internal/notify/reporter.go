package notify

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/metrics"
	"git.home.luguber.info/inful/sitepipe/internal/tasks"
)

// Reporter is the single consumer of task results: it records metrics and
// turns failures into notifications.
type Reporter struct {
	notifier Notifier
	recorder metrics.Recorder
}

// NewReporter returns a Reporter; nil arguments fall back to the log and a
// no-op recorder.
func NewReporter(n Notifier, r metrics.Recorder) *Reporter {
	if n == nil {
		n = LogNotifier{}
	}
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	return &Reporter{notifier: n, recorder: r}
}

// Recorder exposes the metrics sink.
func (r *Reporter) Recorder() metrics.Recorder { return r.recorder }

// Report handles the outcome of one task run. runErr is the fatal error
// returned by the runner, if any.
func (r *Reporter) Report(ctx context.Context, res tasks.Result, runErr error) {
	r.recorder.ObserveTaskDuration(res.Task, res.Duration)
	r.recorder.AddFiles(res.Task, len(res.Written), res.Skipped, len(res.Failures))

	outcome := res.Outcome()
	if runErr != nil {
		outcome = metrics.ResultFatal
	}
	r.recorder.IncTaskResult(res.Task, outcome)

	now := time.Now().UTC()
	for _, f := range res.Failures {
		r.send(ctx, FailureEvent{
			Task:      res.Task,
			RunID:     res.RunID,
			Mode:      res.Mode.String(),
			File:      f.File,
			Stage:     f.Stage,
			Error:     f.Err.Error(),
			Timestamp: now,
		})
	}
	if runErr != nil {
		r.send(ctx, FailureEvent{
			Task:      res.Task,
			RunID:     res.RunID,
			Mode:      res.Mode.String(),
			Stage:     "task",
			Error:     runErr.Error(),
			Timestamp: now,
		})
	}
}

func (r *Reporter) send(ctx context.Context, ev FailureEvent) {
	if err := r.notifier.Notify(ctx, ev); err != nil {
		slog.Warn("Failed to deliver notification", logfields.Task(ev.Task), logfields.Error(err))
	}
}
