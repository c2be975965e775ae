package metrics

import "time"

// ResultLabel enumerates task run outcomes for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultPartial ResultLabel = "partial" // some files failed
	ResultFatal   ResultLabel = "fatal"
)

// Recorder defines observability hooks for task runs and the preview server.
// Implementations may forward to Prometheus or anything else; NoopRecorder is
// the default so callers never nil-check.
type Recorder interface {
	ObserveTaskDuration(task string, d time.Duration)
	IncTaskResult(task string, result ResultLabel)
	AddFiles(task string, written, skipped, failed int)
	ObserveBuildDuration(mode string, d time.Duration)
	SetReloadClients(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveTaskDuration(string, time.Duration)  {}
func (NoopRecorder) IncTaskResult(string, ResultLabel)          {}
func (NoopRecorder) AddFiles(string, int, int, int)             {}
func (NoopRecorder) ObserveBuildDuration(string, time.Duration) {}
func (NoopRecorder) SetReloadClients(int)                       {}
