// Package strategy defines the trading-strategy plug-in interface and an
// explicit, startup-populated registry of implementations. Unlike the
// reference implementation's decorator-based auto-registration at import
// time, strategies here are registered explicitly by the caller that
// constructs the registry — no package-level side effects or runtime type
// introspection.
package strategy

import (
	"github.com/kalshi-odds/scanner/pkg/types"
)

// Strategy is the common interface every plug-in implements.
type Strategy interface {
	// Name is the unique identifier used in signals, backtests, and the
	// registry.
	Name() string
	// Description is a human-readable summary of the strategy's logic.
	Description() string
	// Evaluate produces a Signal for a contract given its current
	// features and optional historical snapshots (for momentum/trend
	// strategies).
	Evaluate(contract *types.Contract, features types.FeatureSnapshot, history []types.Snapshot) types.Signal
	// EvaluateSnapshot is the backtest-facing entry point: a pure
	// evaluation against one historical snapshot and the snapshots
	// preceding it. Satisfies internal/backtest.Strategy structurally.
	EvaluateSnapshot(snap types.Snapshot, history []types.Snapshot) (types.Signal, bool)
}

// ValidateSignal applies the strategy-agnostic sanity checks every signal
// must pass regardless of which strategy produced it.
func ValidateSignal(s types.Signal) bool {
	if s.FairProb < 0 || s.FairProb > 1 {
		return false
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return false
	}
	if s.EntryPrice != 0 && (s.EntryPrice < 1 || s.EntryPrice > 99) {
		return false
	}
	return true
}

// Registry holds the strategies active for a runner. It is populated once
// at startup by explicit Register calls; there is no auto-discovery.
type Registry struct {
	strategies map[string]Strategy
	order      []string
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// Register adds a strategy under its own Name(). Registering the same name
// twice replaces the previous entry and keeps its original position.
func (r *Registry) Register(s Strategy) {
	name := s.Name()
	if _, exists := r.strategies[name]; !exists {
		r.order = append(r.order, name)
	}
	r.strategies[name] = s
}

// Get returns the strategy registered under name, or false if none is.
func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// All returns every registered strategy in registration order.
func (r *Registry) All() []Strategy {
	out := make([]Strategy, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.strategies[name])
	}
	return out
}

// Names returns every registered strategy name in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// clip bounds v to [lo, hi].
func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func noTradeSignal(name, ticker string, fairProb float64, reason string) types.Signal {
	return types.Signal{
		StrategyName: name,
		Ticker:       ticker,
		Side:         types.OrderSideNone,
		FairProb:     fairProb,
		MarketProb:   fairProb,
		Reasoning:    reason,
	}
}

