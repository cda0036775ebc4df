package risk

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersApprovedTotal counts orders that passed every risk check.
	OrdersApprovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "risk_orders_approved_total",
		Help: "Total number of orders approved by the risk gate.",
	})

	// OrdersRejectedTotal counts rejected orders by the failing check.
	OrdersRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "risk_orders_rejected_total",
		Help: "Total number of orders rejected by the risk gate, by reason.",
	}, []string{"reason"})

	// DuplicateOrdersTotal counts submissions rejected as duplicates via
	// the idempotency key set.
	DuplicateOrdersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "risk_duplicate_orders_total",
		Help: "Total number of order submissions rejected as duplicates.",
	})

	// DailyPnLDollars reports the current trading day's realized PnL.
	DailyPnLDollars = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "risk_daily_pnl_dollars",
		Help: "Realized profit and loss for the current trading day, in dollars.",
	})

	// OpenExposureDollars reports total dollar exposure across open
	// positions.
	OpenExposureDollars = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "risk_open_exposure_dollars",
		Help: "Total dollar exposure across open positions.",
	})

	// OpenPositionsGauge reports the current count of open positions.
	OpenPositionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "risk_open_positions",
		Help: "Current number of open positions.",
	})

	// BreakerEnabled is 1 when the circuit breaker permits trading, 0
	// when it has tripped.
	BreakerEnabled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "risk_circuit_breaker_enabled",
		Help: "1 if the balance circuit breaker currently permits trading, 0 if tripped.",
	})

	// BreakerBalance is the last observed exchange account balance.
	BreakerBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "risk_circuit_breaker_balance_dollars",
		Help: "Last observed exchange account balance, in dollars.",
	})

	// BreakerDisableThreshold is the balance below which the breaker trips.
	BreakerDisableThreshold = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "risk_circuit_breaker_disable_threshold_dollars",
		Help: "Balance threshold below which the circuit breaker disables trading.",
	})

	// BreakerEnableThreshold is the balance above which the breaker
	// re-enables trading after tripping.
	BreakerEnableThreshold = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "risk_circuit_breaker_enable_threshold_dollars",
		Help: "Balance threshold above which the circuit breaker re-enables trading.",
	})

	// BreakerAvgTradeSize is the rolling average dollar size of recent
	// trades used to derive the disable threshold.
	BreakerAvgTradeSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "risk_circuit_breaker_avg_trade_size_dollars",
		Help: "Rolling average trade size feeding the circuit breaker thresholds.",
	})

	// BreakerStateChanges counts every enable/disable transition.
	BreakerStateChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "risk_circuit_breaker_state_changes_total",
		Help: "Total number of circuit breaker enable/disable transitions.",
	})

	// BreakerCheckDuration observes the latency of each balance check.
	BreakerCheckDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "risk_circuit_breaker_check_duration_seconds",
		Help:    "Latency of circuit breaker balance checks.",
		Buckets: prometheus.DefBuckets,
	})
)
