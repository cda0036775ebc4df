// Package risk enforces the pre-trade risk gate: eight ordered checks,
// fractional-Kelly position sizing, idempotency-key bookkeeping, and
// per-ticker fill/position/PnL accounting. State is stateful across one
// trading day and reset at the start of each cycle.
package risk

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kalshi-odds/scanner/pkg/types"
)

// Config enumerates the gate's configurable limits.
type Config struct {
	MaxDailyLossDollars         float64
	MaxTradesPerDay             int
	MaxOpenPositions            int
	MaxTotalExposureDollars     float64
	MaxPerMarketExposureDollars float64
	MinExpectedValue            float64
	ConfidenceThreshold         float64
	MinWinRate                  float64
	MinBacktestSamples          int

	UseKellySizing             bool
	KellyFraction              float64
	DefaultPositionSizeDollars float64
}

// DefaultConfig returns the gate's documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxDailyLossDollars:         500,
		MaxTradesPerDay:             50,
		MaxOpenPositions:            10,
		MaxTotalExposureDollars:     2000,
		MaxPerMarketExposureDollars: 300,
		MinExpectedValue:            0.01,
		ConfidenceThreshold:         0.5,
		MinWinRate:                  0.55,
		MinBacktestSamples:          20,
		UseKellySizing:              true,
		KellyFraction:               0.25,
		DefaultPositionSizeDollars:  50,
	}
}

// Check is the outcome of the pre-trade gate: pass/fail, a reason when
// failed, and the contracts allowed when passed.
type Check struct {
	Passed      bool
	Reason      string
	AllowedSize int // contracts
}

// state is the mutable, day-scoped risk state reset at the start of each
// trading cycle.
type state struct {
	tradesToday          int
	dailyRealizedPnL     float64
	dailyUnrealizedPnL   float64
	openPositions        map[string]*types.Position
	totalExposure        float64
	pendingOrderExposure float64
}

func newState() *state {
	return &state{openPositions: make(map[string]*types.Position)}
}

func (s *state) dailyTotalPnL() float64 {
	return s.dailyRealizedPnL + s.dailyUnrealizedPnL
}

// Gate is the central risk manager: one per trading day, reset between
// days via Reset.
type Gate struct {
	cfg Config

	mu              sync.Mutex
	state           *state
	idempotencyKeys map[string]bool
}

// New constructs a Gate, filling unset numeric fields with documented
// defaults. MinExpectedValue is not defaulted: zero stays zero.
func New(cfg Config) *Gate {
	def := DefaultConfig()
	if cfg.MaxDailyLossDollars == 0 {
		cfg.MaxDailyLossDollars = def.MaxDailyLossDollars
	}
	if cfg.MaxTradesPerDay == 0 {
		cfg.MaxTradesPerDay = def.MaxTradesPerDay
	}
	if cfg.MaxOpenPositions == 0 {
		cfg.MaxOpenPositions = def.MaxOpenPositions
	}
	if cfg.MaxTotalExposureDollars == 0 {
		cfg.MaxTotalExposureDollars = def.MaxTotalExposureDollars
	}
	if cfg.MaxPerMarketExposureDollars == 0 {
		cfg.MaxPerMarketExposureDollars = def.MaxPerMarketExposureDollars
	}
	if cfg.ConfidenceThreshold == 0 {
		cfg.ConfidenceThreshold = def.ConfidenceThreshold
	}
	if cfg.MinWinRate == 0 {
		cfg.MinWinRate = def.MinWinRate
	}
	if cfg.MinBacktestSamples == 0 {
		cfg.MinBacktestSamples = def.MinBacktestSamples
	}
	if cfg.KellyFraction == 0 {
		cfg.KellyFraction = def.KellyFraction
	}
	if cfg.DefaultPositionSizeDollars == 0 {
		cfg.DefaultPositionSizeDollars = def.DefaultPositionSizeDollars
	}
	return &Gate{cfg: cfg, state: newState(), idempotencyKeys: make(map[string]bool)}
}

// Reset clears daily tracking and the idempotency key set; call at the
// start of every trading cycle.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = newState()
	g.idempotencyKeys = make(map[string]bool)
}

// CheckOrder runs the eight-check pre-trade gate in order and, if every
// check passes, computes the allowed contract size.
func (g *Gate) CheckOrder(signal types.Signal, proposedSizeDollars float64) Check {
	g.mu.Lock()
	defer g.mu.Unlock()

	checks := []struct {
		reason string
		check  func() Check
	}{
		{"daily_loss", g.checkDailyLoss},
		{"max_trades", g.checkMaxTrades},
		{"max_positions", g.checkMaxPositions},
		{"total_exposure", func() Check { return g.checkTotalExposure(proposedSizeDollars) }},
		{"market_exposure", func() Check { return g.checkMarketExposure(signal.Ticker, proposedSizeDollars) }},
		{"signal_quality", func() Check { return g.checkSignalQuality(signal) }},
	}
	for _, c := range checks {
		if result := c.check(); !result.Passed {
			OrdersRejectedTotal.WithLabelValues(c.reason).Inc()
			return result
		}
	}

	OrdersApprovedTotal.Inc()
	return Check{Passed: true, AllowedSize: g.calculateAllowedSize(signal, proposedSizeDollars)}
}

func (g *Gate) checkDailyLoss() Check {
	if g.state.dailyTotalPnL() < -g.cfg.MaxDailyLossDollars {
		return Check{Reason: fmt.Sprintf("daily loss limit breached: $%.2f", g.state.dailyTotalPnL())}
	}
	return Check{Passed: true}
}

func (g *Gate) checkMaxTrades() Check {
	if g.state.tradesToday >= g.cfg.MaxTradesPerDay {
		return Check{Reason: fmt.Sprintf("max trades reached: %d", g.state.tradesToday)}
	}
	return Check{Passed: true}
}

func (g *Gate) checkMaxPositions() Check {
	if len(g.state.openPositions) >= g.cfg.MaxOpenPositions {
		return Check{Reason: fmt.Sprintf("max positions reached: %d", len(g.state.openPositions))}
	}
	return Check{Passed: true}
}

func (g *Gate) checkTotalExposure(proposed float64) Check {
	newTotal := g.state.totalExposure + g.state.pendingOrderExposure + proposed
	if newTotal > g.cfg.MaxTotalExposureDollars {
		return Check{Reason: fmt.Sprintf("total exposure limit: $%.2f > $%.2f", newTotal, g.cfg.MaxTotalExposureDollars)}
	}
	return Check{Passed: true}
}

func (g *Gate) checkMarketExposure(ticker string, proposed float64) Check {
	existing := 0.0
	if pos, ok := g.state.openPositions[ticker]; ok {
		existing, _ = pos.CostBasis().Float64()
	}
	newExposure := existing + proposed
	if newExposure > g.cfg.MaxPerMarketExposureDollars {
		return Check{Reason: fmt.Sprintf("market exposure limit: $%.2f > $%.2f", newExposure, g.cfg.MaxPerMarketExposureDollars)}
	}
	return Check{Passed: true}
}

func (g *Gate) checkSignalQuality(signal types.Signal) Check {
	if signal.ExpectedValue < g.cfg.MinExpectedValue {
		return Check{Reason: fmt.Sprintf("EV too low: %.3f < %.3f", signal.ExpectedValue, g.cfg.MinExpectedValue)}
	}
	if signal.Confidence < g.cfg.ConfidenceThreshold {
		return Check{Reason: fmt.Sprintf("confidence too low: %.2f < %.2f", signal.Confidence, g.cfg.ConfidenceThreshold)}
	}
	if signal.BacktestWinRate != nil && *signal.BacktestWinRate < g.cfg.MinWinRate {
		return Check{Reason: fmt.Sprintf("backtest win rate too low: %.1f%%", *signal.BacktestWinRate*100)}
	}
	if signal.BacktestSamples != nil && *signal.BacktestSamples < g.cfg.MinBacktestSamples {
		return Check{Reason: fmt.Sprintf("insufficient backtest samples: %d", *signal.BacktestSamples)}
	}
	return Check{Passed: true}
}

// calculateAllowedSize computes the contract count via fractional-Kelly
// sizing (when enabled) or a fixed-size fallback, capped by the proposed
// dollar size, the per-market cap, and remaining headroom under the total
// cap.
func (g *Gate) calculateAllowedSize(signal types.Signal, proposed float64) int {
	entryPrice := signal.EntryPrice
	if entryPrice == 0 {
		entryPrice = 50
	}

	var maxSize float64
	if g.cfg.UseKellySizing && signal.ExpectedValue > 0 {
		winPayout := float64(100-entryPrice) / float64(entryPrice)

		p := signal.FairProb
		if signal.Side == types.OrderSideNo {
			p = 1 - signal.FairProb
		}
		q := 1 - p

		kellySize := 0.0
		if winPayout > 0 {
			kelly := (p*winPayout - q) / winPayout
			if kelly < 0 {
				kelly = 0
			}
			kelly *= g.cfg.KellyFraction
			kellySize = kelly * g.cfg.MaxTotalExposureDollars
		}

		maxSize = minOf(proposed, kellySize, g.cfg.MaxPerMarketExposureDollars,
			g.cfg.MaxTotalExposureDollars-g.state.totalExposure)
	} else {
		maxSize = minOf(proposed, g.cfg.DefaultPositionSizeDollars, g.cfg.MaxPerMarketExposureDollars)
	}

	contracts := int(maxSize * 100 / float64(entryPrice))
	if contracts < 1 {
		contracts = 1
	}
	return contracts
}

func minOf(values ...float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// CheckIdempotency reports whether key is new (true, order may proceed) or
// already spent today (false, caller should skip silently).
func (g *Gate) CheckIdempotency(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idempotencyKeys[key] {
		DuplicateOrdersTotal.Inc()
		return false
	}
	return true
}

// RecordOrderSubmitted marks key spent and tallies the submission's
// exposure into the pending book.
func (g *Gate) RecordOrderSubmitted(order *types.Order) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.idempotencyKeys[order.IdempotencyKey] = true
	g.state.tradesToday++
	notional, _ := order.NotionalValue().Float64()
	g.state.pendingOrderExposure += notional
}

// RecordFill folds a filled order into the per-ticker position (weighted
// average entry on additions) and recomputes total exposure.
func (g *Gate) RecordFill(order *types.Order) {
	g.mu.Lock()
	defer g.mu.Unlock()

	notional, _ := order.NotionalValue().Float64()
	g.state.pendingOrderExposure -= notional
	if g.state.pendingOrderExposure < 0 {
		g.state.pendingOrderExposure = 0
	}

	price := order.Price
	if order.AverageFillPrice != nil {
		p, _ := order.AverageFillPrice.Float64()
		price = int(p)
	}
	fillPrice := decimal.NewFromInt(int64(price))

	pos, ok := g.state.openPositions[order.Ticker]
	if !ok {
		g.state.openPositions[order.Ticker] = &types.Position{
			Ticker:         order.Ticker,
			Side:           order.Side,
			Quantity:       order.FilledQuantity,
			VWAPEntryPrice: fillPrice,
		}
	} else {
		pos.AddQuantity(order.FilledQuantity, fillPrice)
	}

	g.recalculateExposure()
}

// RecordPnL credits realized P&L from a closed position and evicts the
// ticker from the open-position book.
func (g *Gate) RecordPnL(ticker string, realizedPnL float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.dailyRealizedPnL += realizedPnL
	delete(g.state.openPositions, ticker)
	g.recalculateExposure()
}

// UpdateUnrealizedPnL recomputes the day's unrealized P&L from current
// marks on every open position.
func (g *Gate) UpdateUnrealizedPnL() {
	g.mu.Lock()
	defer g.mu.Unlock()
	total := 0.0
	for _, pos := range g.state.openPositions {
		pnl, _ := pos.UnrealizedPnL().Float64()
		total += pnl
	}
	g.state.dailyUnrealizedPnL = total
	DailyPnLDollars.Set(g.state.dailyTotalPnL())
}

func (g *Gate) recalculateExposure() {
	total := 0.0
	for _, pos := range g.state.openPositions {
		basis, _ := pos.CostBasis().Float64()
		total += basis
	}
	g.state.totalExposure = total
	OpenExposureDollars.Set(total)
	OpenPositionsGauge.Set(float64(len(g.state.openPositions)))
	DailyPnLDollars.Set(g.state.dailyTotalPnL())
}

// DailySummary snapshots the day's P&L and trading activity.
func (g *Gate) DailySummary(date time.Time) *types.DailyPnL {
	g.mu.Lock()
	defer g.mu.Unlock()

	summary := types.NewDailyPnL(date.UTC().Format("2006-01-02"))
	summary.Realized = decimal.NewFromFloat(g.state.dailyRealizedPnL)
	summary.Unrealized = decimal.NewFromFloat(g.state.dailyUnrealizedPnL)
	summary.TradesPlaced = g.state.tradesToday
	summary.PeakExposure = decimal.NewFromFloat(g.state.totalExposure)
	summary.EndingExposure = decimal.NewFromFloat(g.state.totalExposure)
	for ticker := range g.state.openPositions {
		summary.MarketsTraded[ticker] = struct{}{}
	}
	return summary
}
