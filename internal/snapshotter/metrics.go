package snapshotter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SnapshotsTakenTotal counts successfully persisted snapshots.
	SnapshotsTakenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kalshi_odds_snapshotter_snapshots_taken_total",
		Help: "Total number of snapshots successfully taken and persisted",
	})

	// SnapshotErrorsTotal counts fetch or persistence failures.
	SnapshotErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kalshi_odds_snapshotter_errors_total",
		Help: "Total number of snapshot fetch or persistence errors",
	})
)
