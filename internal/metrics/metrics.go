// Package metrics exposes extraction counters on a private Prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Extraction outcomes used as label values.
const (
	Found    = "found"
	NotFound = "not_found"
	Failed   = "failed"
)

// Recorder records extraction metrics. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	extractions    *prometheus.CounterVec
	duration       prometheus.Histogram
	sourceAttempts prometheus.Counter
	dynamic        *prometheus.CounterVec
	sessionsOpen   prometheus.Gauge
}

// New creates a Recorder with its own registry, including Go runtime and
// process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()

	r := &Recorder{
		registry: reg,
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidlink",
			Name:      "extractions_total",
			Help:      "Completed extractions by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vidlink",
			Name:      "extraction_duration_seconds",
			Help:      "Wall-clock duration of successful extraction attempts.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
		sourceAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vidlink",
			Name:      "source_fetch_attempts_total",
			Help:      "Source page fetch attempts, including retries.",
		}),
		dynamic: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vidlink",
			Name:      "dynamic_invocations_total",
			Help:      "Dynamic resolver invocations by stage outcome.",
		}, []string{"outcome"}),
		sessionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vidlink",
			Name:      "browser_sessions_open",
			Help:      "Browser sessions currently open.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.extractions,
		r.duration,
		r.sourceAttempts,
		r.dynamic,
		r.sessionsOpen,
	)

	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Extraction counts a finished extraction. Failed ones skip the duration histogram.
func (r *Recorder) Extraction(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.extractions.WithLabelValues(outcome).Inc()
	if outcome != Failed {
		r.duration.Observe(d.Seconds())
	}
}

// SourceAttempt counts one source page fetch, retries included.
func (r *Recorder) SourceAttempt() {
	if r == nil {
		return
	}
	r.sourceAttempts.Inc()
}

// Dynamic counts a browser stage run by its outcome label.
func (r *Recorder) Dynamic(outcome string) {
	if r == nil {
		return
	}
	r.dynamic.WithLabelValues(outcome).Inc()
}

// SessionOpened increments the open browser sessions gauge.
func (r *Recorder) SessionOpened() {
	if r == nil {
		return
	}
	r.sessionsOpen.Inc()
}

// SessionClosed decrements the open browser sessions gauge.
func (r *Recorder) SessionClosed() {
	if r == nil {
		return
	}
	r.sessionsOpen.Dec()
}
