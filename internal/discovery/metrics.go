package discovery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ContractsDiscoveredTotal counts same-day-expiry candidates found
	// across all pagination pages.
	ContractsDiscoveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kalshi_odds_discovery_contracts_discovered_total",
		Help: "Total number of same-day candidate contracts discovered",
	})

	// DiscoveryRejectedTotal tallies filter-stack rejections by reason.
	DiscoveryRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kalshi_odds_discovery_rejected_total",
		Help: "Total number of candidate contracts rejected by the discovery filter stack",
	}, []string{"reason"})

	// DiscoveryErrorsTotal counts pagination failures.
	DiscoveryErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kalshi_odds_discovery_errors_total",
		Help: "Total number of discovery pagination errors",
	})
)
