package exchange

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration observes HTTP latency to the exchange by method.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "exchange_request_duration_seconds",
		Help:    "Latency of exchange HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	// RequestErrorsTotal counts retried/failed requests by operation and
	// error class.
	RequestErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exchange_request_errors_total",
		Help: "Total exchange request errors, by operation and error class.",
	}, []string{"operation", "class"})
)
