package aggregator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration observes aggregator HTTP request latency.
	RequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "aggregator_request_duration_seconds",
		Help:    "Latency of aggregator HTTP requests.",
		Buckets: prometheus.DefBuckets,
	})

	// RequestErrorsTotal counts retried/failed requests by operation and
	// error class.
	RequestErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aggregator_request_errors_total",
		Help: "Total aggregator request errors, by operation and error class.",
	}, []string{"operation", "class"})
)
