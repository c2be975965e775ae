// Package metrics records task and preview server metrics.
//
// Components receive a Recorder and default to NoopRecorder, so metrics
// collection never needs nil checks. The serve command swaps in a
// PrometheusRecorder and mounts its Handler when metrics are enabled:
//
//	rec := metrics.NewPrometheusRecorder(nil)
//	mux.Handle(cfg.Metrics.Path, rec.Handler())
package metrics
