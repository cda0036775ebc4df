package ordermanager

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersCreatedTotal counts orders generated from signals, by mode.
	OrdersCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ordermanager_orders_created_total",
		Help: "Total orders generated from signals, by execution mode.",
	}, []string{"mode"})

	// OrdersFilledTotal counts orders that reached FILLED, by mode.
	OrdersFilledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ordermanager_orders_filled_total",
		Help: "Total orders that reached a filled terminal state, by execution mode.",
	}, []string{"mode"})

	// OrdersRejectedTotal counts orders rejected at submission, by reason.
	OrdersRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ordermanager_orders_rejected_total",
		Help: "Total orders rejected before or at submission, by reason.",
	}, []string{"reason"})

	// SignalsSkippedTotal counts signals that never became an order.
	SignalsSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ordermanager_signals_skipped_total",
		Help: "Total signals that did not produce an order, by reason.",
	}, []string{"reason"})
)
