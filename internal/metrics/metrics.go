package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the calendar service collectors.
	Registry = prometheus.NewRegistry()

	aggregationPasses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "macro_calendar",
			Subsystem: "aggregation",
			Name:      "passes_total",
			Help:      "Total number of aggregation passes by outcome.",
		},
		[]string{"status"},
	)

	aggregationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "macro_calendar",
			Subsystem: "aggregation",
			Name:      "duration_seconds",
			Help:      "Duration of full aggregation passes.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2m
		},
	)

	queryFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "macro_calendar",
			Subsystem: "aggregation",
			Name:      "query_failures_total",
			Help:      "News search queries that returned no usable result.",
		},
	)

	articlesSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "macro_calendar",
			Subsystem: "aggregation",
			Name:      "articles_skipped_total",
			Help:      "Articles dropped before merging, by reason.",
		},
		[]string{"reason"},
	)

	cacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "macro_calendar",
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Calendar cache lookups by result.",
		},
		[]string{"result"},
	)

	eventsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "macro_calendar",
			Name:      "events",
			Help:      "Events produced by the most recent successful pass.",
		},
	)
)

func init() {
	Registry.MustRegister(
		aggregationPasses,
		aggregationDuration,
		queryFailures,
		articlesSkipped,
		cacheRequests,
		eventsGauge,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObservePass records the outcome of one aggregation pass.
func ObservePass(duration time.Duration, events int, err error) {
	aggregationDuration.Observe(duration.Seconds())
	if err != nil {
		aggregationPasses.WithLabelValues("error").Inc()
		return
	}
	aggregationPasses.WithLabelValues("success").Inc()
	eventsGauge.Set(float64(events))
}

func QueryFailed() {
	queryFailures.Inc()
}

// ArticleSkipped counts an article dropped for reason ("untrusted", "unclassified", "undated").
func ArticleSkipped(reason string) {
	articlesSkipped.WithLabelValues(reason).Inc()
}

func CacheHit() {
	cacheRequests.WithLabelValues("hit").Inc()
}

func CacheMiss() {
	cacheRequests.WithLabelValues("miss").Inc()
}
