package prometheus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	// Pipeline latency buckets in milliseconds.
	latencyBuckets = []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500}

	QueriesBlocked = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentguard_queries_blocked_total",
			Help: "Queries blocked before any results were fetched",
		},
		[]string{"category"},
	)

	ResultsDropped = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentguard_results_dropped_total",
			Help: "Result items dropped from responses",
		},
		[]string{"reason"},
	)

	ResultsAnnotated = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentguard_results_annotated_total",
			Help: "Result items retained with a warn or resource annotation",
		},
		[]string{"action"},
	)

	ClassifierFailures = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "contentguard_classifier_failures_total",
			Help: "Classifier calls that timed out or failed; scoring degraded to lexical-only",
		},
	)

	BlocklistReloads = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "contentguard_blocklist_reloads_total",
			Help: "Blocklist reload attempts by outcome",
		},
		[]string{"status"},
	)

	PipelineLatency = promauto.With(registerer).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "contentguard_pipeline_latency_ms",
			Help:    "End-to-end pipeline latency in milliseconds",
			Buckets: latencyBuckets,
		},
	)
)

func init() {
	registerer.MustRegister(collectors.NewGoCollector())
	registerer.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Handler serves the private registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
