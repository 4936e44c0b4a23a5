// Package metrics records build and rebuild metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so callers never nil-check before recording:
//
//	type Builder struct {
//	    recorder metrics.Recorder
//	}
//
//	b := build.New(cfg) // NoopRecorder
//	b.WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// The dev server exposes the Prometheus registry at /metrics.
package metrics
