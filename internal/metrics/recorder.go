// Package metrics records sitemap collection metrics.
//
// Components hold a Recorder and default to NoopRecorder, so nothing needs a
// nil check. PrometheusRecorder is swapped in by the server.
package metrics

import "time"

// ResultLabel classifies the outcome of a collection pass.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines the observability hooks used by the sitemap service.
type Recorder interface {
	ObserveCollectDuration(d time.Duration)
	IncCollectResult(result ResultLabel)
	SetLinkCount(n int)
	IncCache(format string, hit bool)
	IncContentEvent(event string)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveCollectDuration(time.Duration) {}
func (NoopRecorder) IncCollectResult(ResultLabel)         {}
func (NoopRecorder) SetLinkCount(int)                     {}
func (NoopRecorder) IncCache(string, bool)                {}
func (NoopRecorder) IncContentEvent(string)               {}
