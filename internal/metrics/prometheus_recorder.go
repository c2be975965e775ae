package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sitepipe"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg           *prom.Registry
	taskDuration  *prom.HistogramVec
	taskResults   *prom.CounterVec
	files         *prom.CounterVec
	buildDuration *prom.HistogramVec
	reloadClients prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg,
// or on a fresh registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.taskDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Duration of individual asset task runs",
		Buckets:   prom.DefBuckets,
	}, []string{"task"})
	pr.taskResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_results_total",
		Help:      "Task run counts by outcome",
	}, []string{"task", "result"})
	pr.files = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "files_total",
		Help:      "Files handled by asset tasks, by disposition",
	}, []string{"task", "disposition"})
	pr.buildDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "build_duration_seconds",
		Help:      "Total clean-and-build duration",
		Buckets:   prom.DefBuckets,
	}, []string{"mode"})
	pr.reloadClients = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "livereload_clients",
		Help:      "Connected live reload clients",
	})
	reg.MustRegister(pr.taskDuration, pr.taskResults, pr.files, pr.buildDuration, pr.reloadClients)
	return pr
}

// Handler serves the recorder's registry.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (p *PrometheusRecorder) ObserveTaskDuration(task string, d time.Duration) {
	if p == nil {
		return
	}
	p.taskDuration.WithLabelValues(task).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTaskResult(task string, result ResultLabel) {
	if p == nil {
		return
	}
	p.taskResults.WithLabelValues(task, string(result)).Inc()
}

func (p *PrometheusRecorder) AddFiles(task string, written, skipped, failed int) {
	if p == nil {
		return
	}
	p.files.WithLabelValues(task, "written").Add(float64(written))
	p.files.WithLabelValues(task, "skipped").Add(float64(skipped))
	p.files.WithLabelValues(task, "failed").Add(float64(failed))
}

func (p *PrometheusRecorder) ObserveBuildDuration(mode string, d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetReloadClients(n int) {
	if p == nil {
		return
	}
	p.reloadClients.Set(float64(n))
}
