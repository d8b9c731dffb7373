package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stage_analytics"

// Recorder owns the service's collectors. A nil *Recorder records nothing.
type Recorder struct {
	registry      *prometheus.Registry
	reportSeconds *prometheus.HistogramVec
	skippedEvents *prometheus.CounterVec
	cacheRequests *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		reportSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "report_seconds",
				Help:      "Time spent building an analytics report",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"report"},
		),
		skippedEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "skipped_events_total",
				Help:      "Stage events excluded from analytics, by reason",
			},
			[]string{"reason"},
		),
		cacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_requests_total",
				Help:      "Report cache lookups, by result",
			},
			[]string{"result"},
		),
	}
}

func (r *Recorder) ObserveReport(report string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.reportSeconds.WithLabelValues(report).Observe(elapsed.Seconds())
}

func (r *Recorder) SkippedEvent(reason string) {
	if r == nil {
		return
	}
	r.skippedEvents.WithLabelValues(reason).Inc()
}

// CacheResult counts a lookup as "hit", "miss" or "error".
func (r *Recorder) CacheResult(result string) {
	if r == nil {
		return
	}
	r.cacheRequests.WithLabelValues(result).Inc()
}

func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
