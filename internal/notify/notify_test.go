package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepipe/internal/config"
	"git.home.luguber.info/inful/sitepipe/internal/metrics"
	"git.home.luguber.info/inful/sitepipe/internal/retry"
	"git.home.luguber.info/inful/sitepipe/internal/tasks"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []FailureEvent
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, ev FailureEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

type fakeRecorder struct {
	metrics.NoopRecorder
	results map[string]metrics.ResultLabel
	files   map[string][3]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{results: map[string]metrics.ResultLabel{}, files: map[string][3]int{}}
}

func (f *fakeRecorder) IncTaskResult(task string, r metrics.ResultLabel) { f.results[task] = r }
func (f *fakeRecorder) AddFiles(task string, w, s, failed int)           { f.files[task] = [3]int{w, s, failed} }

func TestReporter_FailuresBecomeEvents(t *testing.T) {
	n := &recordingNotifier{}
	rec := newFakeRecorder()
	rep := NewReporter(n, rec)

	res := tasks.Result{
		Task:    "styles",
		RunID:   "run-1",
		Mode:    config.ModeProd,
		Written: []string{"prod/css/a.css"},
		Skipped: 2,
		Failures: []tasks.Failure{
			{Task: "styles", File: "main.scss", Stage: "compile", Err: errors.New("undefined variable")},
		},
		Duration: time.Second,
	}
	rep.Report(context.Background(), res, nil)

	require.Len(t, n.events, 1)
	ev := n.events[0]
	assert.Equal(t, "styles", ev.Task)
	assert.Equal(t, "run-1", ev.RunID)
	assert.Equal(t, "prod", ev.Mode)
	assert.Equal(t, "main.scss", ev.File)
	assert.Equal(t, "compile", ev.Stage)
	assert.Equal(t, "undefined variable", ev.Error)
	assert.Equal(t, metrics.ResultPartial, rec.results["styles"])
	assert.Equal(t, [3]int{1, 2, 1}, rec.files["styles"])
}

func TestReporter_FatalRun(t *testing.T) {
	n := &recordingNotifier{err: errors.New("offline")}
	rec := newFakeRecorder()
	NewReporter(n, rec).Report(context.Background(), tasks.Result{Task: "html", Mode: config.ModeDev}, errors.New("disk full"))

	require.Len(t, n.events, 1)
	assert.Equal(t, "task", n.events[0].Stage)
	assert.Equal(t, "disk full", n.events[0].Error)
	assert.Equal(t, metrics.ResultFatal, rec.results["html"])
}

func TestReporter_Success(t *testing.T) {
	n := &recordingNotifier{}
	rec := newFakeRecorder()
	NewReporter(n, rec).Report(context.Background(), tasks.Result{Task: "files"}, nil)
	assert.Empty(t, n.events)
	assert.Equal(t, metrics.ResultSuccess, rec.results["files"])
}

func TestMulti(t *testing.T) {
	a, b := &recordingNotifier{}, &recordingNotifier{err: errors.New("b failed")}
	err := Multi{a, nil, b}.Notify(context.Background(), FailureEvent{Task: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b failed")
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	l := LogNotifier{Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	require.NoError(t, l.Notify(context.Background(), FailureEvent{Task: "html", File: "index.html", Stage: "include", Error: "missing"}))
	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "file=index.html")
	assert.Contains(t, out, "error=missing")
}

func TestNATSNotifier_PublishesJSON(t *testing.T) {
	var subject string
	var payload []byte
	n := &NATSNotifier{subject: "builds.failures", publish: func(s string, data []byte) error {
		subject, payload = s, data
		return nil
	}}
	require.NoError(t, n.Notify(context.Background(), FailureEvent{Task: "images", File: "a.png", Stage: "cwebp", Error: "boom"}))
	assert.Equal(t, "builds.failures", subject)

	var ev FailureEvent
	require.NoError(t, json.Unmarshal(payload, &ev))
	assert.Equal(t, "a.png", ev.File)
	assert.False(t, ev.Timestamp.IsZero())

	n.publish = func(string, []byte) error { return errors.New("no connection") }
	assert.Error(t, n.Notify(context.Background(), FailureEvent{}))
	n.Close()
}

func TestNATSNotifier_RetriesPublish(t *testing.T) {
	calls := 0
	n := &NATSNotifier{
		subject: DefaultSubject,
		policy:  retry.NewPolicy(retry.Fixed, time.Millisecond, time.Millisecond, 2),
		publish: func(string, []byte) error {
			calls++
			if calls < 3 {
				return errors.New("slow consumer")
			}
			return nil
		},
	}
	require.NoError(t, n.Notify(context.Background(), FailureEvent{Task: "styles"}))
	assert.Equal(t, 3, calls)
}

func TestNewNATSNotifier_ConnectFailure(t *testing.T) {
	_, err := NewNATSNotifier("nats://127.0.0.1:1", "")
	assert.Error(t, err)
}
