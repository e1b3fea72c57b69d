package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sitemapd"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	collectDuration prom.Histogram
	collectResults  *prom.CounterVec
	links           prom.Gauge
	cache           *prom.CounterVec
	contentEvents   *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		collectDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "collect_duration_seconds",
			Help:      "Duration of link collection passes",
			Buckets:   prom.DefBuckets,
		}),
		collectResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "collect_results_total",
			Help:      "Collection passes by outcome",
		}, []string{"result"}),
		links: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "links",
			Help:      "Number of links in the last collected sitemap",
		}),
		cache: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Rendered sitemap cache lookups by format and outcome",
		}, []string{"format", "outcome"}),
		contentEvents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "content_events_total",
			Help:      "Content change events seen by the watcher",
		}, []string{"event"}),
	}
	reg.MustRegister(pr.collectDuration, pr.collectResults, pr.links, pr.cache, pr.contentEvents)
	return pr
}

func (p *PrometheusRecorder) ObserveCollectDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.collectDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCollectResult(result ResultLabel) {
	if p == nil {
		return
	}
	p.collectResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) SetLinkCount(n int) {
	if p == nil {
		return
	}
	p.links.Set(float64(n))
}

func (p *PrometheusRecorder) IncCache(format string, hit bool) {
	if p == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	p.cache.WithLabelValues(format, outcome).Inc()
}

func (p *PrometheusRecorder) IncContentEvent(event string) {
	if p == nil {
		return
	}
	p.contentEvents.WithLabelValues(event).Inc()
}

// HTTPHandler returns an http.Handler that serves the metrics in reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

var _ Recorder = (*PrometheusRecorder)(nil)
var _ Recorder = NoopRecorder{}
