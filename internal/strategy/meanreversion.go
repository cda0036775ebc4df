package strategy

import (
	"fmt"

	"github.com/kalshi-odds/scanner/pkg/types"
)

// MeanReversionConfig holds MeanReversionStrategy's tunables.
type MeanReversionConfig struct {
	LookbackPeriods    int
	DeviationThreshold float64
	MaxSpreadCents     float64
	MinVolume          float64
	MinDepth           int
}

// DefaultMeanReversionConfig returns the strategy's documented defaults.
func DefaultMeanReversionConfig() MeanReversionConfig {
	return MeanReversionConfig{
		LookbackPeriods:    6,
		DeviationThreshold: 0.03,
		MaxSpreadCents:     4,
		MinVolume:          200,
		MinDepth:           100,
	}
}

// MeanReversionStrategy trades liquid, tight-spread contracts when price
// deviates from its short-term moving average, betting on reversion.
type MeanReversionStrategy struct {
	cfg MeanReversionConfig
}

// NewMeanReversionStrategy constructs a MeanReversionStrategy, filling
// unset numeric fields with documented defaults.
func NewMeanReversionStrategy(cfg MeanReversionConfig) *MeanReversionStrategy {
	def := DefaultMeanReversionConfig()
	if cfg.LookbackPeriods == 0 {
		cfg.LookbackPeriods = def.LookbackPeriods
	}
	if cfg.DeviationThreshold == 0 {
		cfg.DeviationThreshold = def.DeviationThreshold
	}
	if cfg.MaxSpreadCents == 0 {
		cfg.MaxSpreadCents = def.MaxSpreadCents
	}
	if cfg.MinVolume == 0 {
		cfg.MinVolume = def.MinVolume
	}
	if cfg.MinDepth == 0 {
		cfg.MinDepth = def.MinDepth
	}
	return &MeanReversionStrategy{cfg: cfg}
}

func (r *MeanReversionStrategy) Name() string { return "mean_reversion_v1" }

func (r *MeanReversionStrategy) Description() string {
	return fmt.Sprintf("Mean reversion strategy that trades when price deviates from short-term "+
		"moving average by more than %.0f%%, betting on reversion toward the average.", r.cfg.DeviationThreshold*100)
}

// Evaluate implements Strategy.
func (r *MeanReversionStrategy) Evaluate(contract *types.Contract, f types.FeatureSnapshot, history []types.Snapshot) types.Signal {
	marketProb := f.Mid / 100
	noTrade := noTradeSignal(r.Name(), f.Ticker, marketProb, "no signal generated")

	if f.SpreadCents > r.cfg.MaxSpreadCents {
		noTrade.Reasoning = fmt.Sprintf("spread too wide: %.1fc", f.SpreadCents)
		return noTrade
	}
	if f.Volume24h < r.cfg.MinVolume {
		noTrade.Reasoning = fmt.Sprintf("volume too low: %.0f", f.Volume24h)
		return noTrade
	}
	if f.BidDepth+f.AskDepth < r.cfg.MinDepth {
		noTrade.Reasoning = fmt.Sprintf("depth too low: %d", f.BidDepth+f.AskDepth)
		return noTrade
	}
	if f.Mid == 0 {
		noTrade.Reasoning = "cannot calculate mid price"
		return noTrade
	}
	if len(history) < r.cfg.LookbackPeriods {
		noTrade.Reasoning = fmt.Sprintf("insufficient history: need %d snapshots, have %d", r.cfg.LookbackPeriods, len(history))
		return noTrade
	}

	recent := history[len(history)-r.cfg.LookbackPeriods:]
	ma := movingAverage(recent)
	if ma == 0 {
		noTrade.Reasoning = "moving average is zero"
		return noTrade
	}

	deviation := (f.Mid - ma) / ma
	if abs(deviation) < r.cfg.DeviationThreshold {
		noTrade.Reasoning = fmt.Sprintf("deviation %.2f%% below threshold %.0f%%", deviation*100, r.cfg.DeviationThreshold*100)
		return noTrade
	}

	var side types.OrderSide
	var entryPrice int
	if deviation > 0 {
		side = types.OrderSideNo
		entryPrice = 100 - int(f.Mid) + 1
	} else {
		side = types.OrderSideYes
		entryPrice = int(f.Mid) - 1
	}

	fairProb := ma / 100
	edge := abs(fairProb - marketProb)

	deviationFactor := minF(abs(deviation)/r.cfg.DeviationThreshold, 2.0) / 2
	liquidityFactor := minF(f.Volume24h/500, 1.0)
	confidence := deviationFactor * liquidityFactor * 0.7

	expectedMove := abs(f.Mid - ma)
	const probReversion = 0.6
	ev := (probReversion*expectedMove - (1-probReversion)*expectedMove) / 100

	return types.Signal{
		StrategyName:  r.Name(),
		Ticker:        f.Ticker,
		Side:          side,
		Confidence:    confidence,
		FairProb:      fairProb,
		MarketProb:    marketProb,
		Edge:          edge,
		ExpectedValue: ev,
		EntryPrice:    entryPrice,
		Features:      f,
		Reasoning: fmt.Sprintf("price %.0fc deviates %.1f%% from MA %.0fc; expect reversion toward %.0fc",
			f.Mid, deviation*100, ma, ma),
	}
}

// EvaluateSnapshot adapts Evaluate to the backtest harness's per-snapshot
// interface, computing the lookback moving average from the preceding
// snapshots in the series.
func (r *MeanReversionStrategy) EvaluateSnapshot(snap types.Snapshot, history []types.Snapshot) (types.Signal, bool) {
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
	signal := r.Evaluate(nil, f, history)
	return signal, signal.IsTradeable()
}

// movingAverage averages each snapshot's mid price, falling back to last
// traded price when mid is unset.
func movingAverage(snapshots []types.Snapshot) float64 {
	if len(snapshots) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range snapshots {
		price := s.Mid
		if price == 0 {
			price = s.LastPrice
		}
		sum += price
	}
	return sum / float64(len(snapshots))
}
