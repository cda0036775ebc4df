package strategy

import (
	"fmt"

	"github.com/kalshi-odds/scanner/pkg/types"
)

// MispricingConfig holds MispricingStrategy's tunables.
type MispricingConfig struct {
	MinDepthImbalance float64
	MaxSpreadCents    float64
	MinVolume         float64
	ConfidenceScale   float64
}

// DefaultMispricingConfig returns the strategy's documented defaults.
func DefaultMispricingConfig() MispricingConfig {
	return MispricingConfig{
		MinDepthImbalance: 0.30,
		MaxSpreadCents:    5,
		MinVolume:         100,
		ConfidenceScale:   0.5,
	}
}

// MispricingStrategy detects mispriced contracts using orderbook depth
// imbalance: significant imbalance is read as informed flow predicting
// short-term price movement in its direction.
type MispricingStrategy struct {
	cfg MispricingConfig
}

// NewMispricingStrategy constructs a MispricingStrategy, filling unset
// numeric fields with documented defaults.
func NewMispricingStrategy(cfg MispricingConfig) *MispricingStrategy {
	def := DefaultMispricingConfig()
	if cfg.MinDepthImbalance == 0 {
		cfg.MinDepthImbalance = def.MinDepthImbalance
	}
	if cfg.MaxSpreadCents == 0 {
		cfg.MaxSpreadCents = def.MaxSpreadCents
	}
	if cfg.MinVolume == 0 {
		cfg.MinVolume = def.MinVolume
	}
	if cfg.ConfidenceScale == 0 {
		cfg.ConfidenceScale = def.ConfidenceScale
	}
	return &MispricingStrategy{cfg: cfg}
}

func (m *MispricingStrategy) Name() string { return "mispricing_v1" }

func (m *MispricingStrategy) Description() string {
	return "Detects mispriced contracts by analyzing orderbook depth imbalance: " +
		"buys YES when bid depth significantly exceeds ask depth, NO otherwise."
}

// Evaluate implements Strategy.
func (m *MispricingStrategy) Evaluate(contract *types.Contract, f types.FeatureSnapshot, _ []types.Snapshot) types.Signal {
	marketProb := f.Mid / 100
	noTrade := noTradeSignal(m.Name(), f.Ticker, marketProb, "no signal generated")

	if f.SpreadCents > m.cfg.MaxSpreadCents {
		noTrade.Reasoning = fmt.Sprintf("spread too wide: %.1fc > %.1fc", f.SpreadCents, m.cfg.MaxSpreadCents)
		return noTrade
	}
	if f.Volume24h < m.cfg.MinVolume {
		noTrade.Reasoning = fmt.Sprintf("volume too low: %.0f < %.0f", f.Volume24h, m.cfg.MinVolume)
		return noTrade
	}
	if abs(f.DepthImbalance) < m.cfg.MinDepthImbalance {
		noTrade.Reasoning = fmt.Sprintf("depth imbalance too small: %.2f", f.DepthImbalance)
		return noTrade
	}
	if f.Mid == 0 {
		noTrade.Reasoning = "cannot calculate mid price"
		return noTrade
	}

	adjustment := f.DepthImbalance * 0.1
	fairProb := clip(marketProb+adjustment, 0.05, 0.95)
	edge := fairProb - marketProb

	var side types.OrderSide
	var entryPrice int
	switch {
	case edge > 0.02:
		side = types.OrderSideYes
		entryPrice = int(f.Mid) + 1
	case edge < -0.02:
		side = types.OrderSideNo
		edge = -edge
		entryPrice = 100 - int(f.Mid) + 1
	default:
		noTrade.Reasoning = fmt.Sprintf("edge too small: %.3f", abs(edge))
		return noTrade
	}

	confidence := minF(abs(f.DepthImbalance)*m.cfg.ConfidenceScale, 0.9)
	confidence *= (m.cfg.MaxSpreadCents - f.SpreadCents + 1) / m.cfg.MaxSpreadCents

	probWin := fairProb
	if side == types.OrderSideNo {
		probWin = 1 - fairProb
	}
	payout := float64(100-entryPrice) / 100
	cost := float64(entryPrice) / 100
	ev := probWin*payout - (1-probWin)*cost

	direction := "overvalued"
	if side == types.OrderSideYes {
		direction = "undervalued"
	}

	return types.Signal{
		StrategyName:  m.Name(),
		Ticker:        f.Ticker,
		Side:          side,
		Confidence:    confidence,
		FairProb:      fairProb,
		MarketProb:    marketProb,
		Edge:          edge,
		ExpectedValue: ev,
		EntryPrice:    entryPrice,
		Features:      f,
		Reasoning: fmt.Sprintf("depth imbalance %.2f suggests %s (fair: %.1f%% vs market: %.1f%%)",
			f.DepthImbalance, direction, fairProb*100, marketProb*100),
	}
}

// EvaluateSnapshot adapts Evaluate to the backtest harness's per-snapshot
// interface: a Snapshot carries everything Evaluate needs as a
// FeatureSnapshot, and mispricing has no use for history.
func (m *MispricingStrategy) EvaluateSnapshot(snap types.Snapshot, _ []types.Snapshot) (types.Signal, bool) {
	f := types.FeatureSnapshot{
		Ticker:         snap.Ticker,
		Mid:            snap.Mid,
		SpreadCents:    snap.Spread,
		Volume24h:      snap.Volume24h,
		BidDepth:       snap.BidDepth,
		AskDepth:       snap.AskDepth,
		DepthImbalance: snap.DepthImbalance,
	}
	if f.Mid == 0 {
		f.Mid = snap.LastPrice
	}
	signal := m.Evaluate(nil, f, nil)
	return signal, signal.IsTradeable()
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
