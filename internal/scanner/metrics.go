package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AlertsEmittedTotal tracks alerts emitted by direction.
	AlertsEmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kalshi_odds_scanner_alerts_emitted_total",
		Help: "Total number of alerts emitted by the scanner",
	}, []string{"direction"})

	// AlertEdgeBps tracks the edge distribution of emitted alerts.
	AlertEdgeBps = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kalshi_odds_scanner_alert_edge_bps",
		Help:    "Edge in basis points of emitted alerts",
		Buckets: []float64{10, 25, 50, 100, 200, 500, 1000, 2000, 5000},
	})

	// ScanDurationSeconds tracks per-market scan latency.
	ScanDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kalshi_odds_scanner_scan_duration_seconds",
		Help:    "Duration of a single market scan",
		Buckets: prometheus.DefBuckets,
	})

	// QuotesRejectedTotal tracks quotes/books dropped from comparison by
	// reason.
	QuotesRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kalshi_odds_scanner_quotes_rejected_total",
		Help: "Total number of quotes or books dropped from comparison",
	}, []string{"reason"})
)
