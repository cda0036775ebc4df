package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalshi-odds/scanner/pkg/types"
)

// alternatingStrategy always goes long YES; fireAll switches between firing
// on every snapshot and never firing, so tests control trade count
// deterministically.
type alternatingStrategy struct {
	name    string
	fireAll bool
}

func (s *alternatingStrategy) Name() string { return s.name }

func (s *alternatingStrategy) EvaluateSnapshot(snap types.Snapshot, _ []types.Snapshot) (types.Signal, bool) {
	if !s.fireAll {
		return types.Signal{}, false
	}
	return types.Signal{Side: types.OrderSideYes, Ticker: snap.Ticker, StrategyName: s.name}, true
}

func seriesWithTrend(ticker string, mids []float64) []types.Snapshot {
	out := make([]types.Snapshot, len(mids))
	base := time.Now().Add(-time.Duration(len(mids)) * time.Hour)
	for i, m := range mids {
		out[i] = types.Snapshot{Ticker: ticker, Timestamp: base.Add(time.Duration(i) * time.Hour), Mid: m}
	}
	return out
}

func TestBacktestInsufficientSamples(t *testing.T) {
	h := New(DefaultConfig())
	s := &alternatingStrategy{name: "s", fireAll: true}
	result := h.BacktestStrategy(s, seriesWithTrend("T1", []float64{50, 51, 52}))
	assert.False(t, result.IsValid)
}

func TestBacktestRisingSeriesProfitsLong(t *testing.T) {
	h := New(Config{MinBacktestSamples: 5})
	s := &alternatingStrategy{name: "s", fireAll: true}
	mids := make([]float64, 25)
	for i := range mids {
		mids[i] = 40 + float64(i)
	}
	result := h.BacktestStrategy(s, seriesWithTrend("T1", mids))
	require.True(t, result.IsValid)
	assert.Equal(t, 1.0, result.WinRate)
	assert.Greater(t, result.TotalReturn, 0.0)
	assert.Equal(t, 0.0, result.MaxDrawdown)
}

func TestBacktestNoSignalsIsInsufficientData(t *testing.T) {
	h := New(Config{MinBacktestSamples: 5})
	s := &alternatingStrategy{name: "s", fireAll: false}
	mids := make([]float64, 25)
	for i := range mids {
		mids[i] = 50
	}
	result := h.BacktestStrategy(s, seriesWithTrend("T1", mids))
	assert.False(t, result.IsValid)
}

func TestMaxDrawdownComputation(t *testing.T) {
	dd := maxDrawdown([]float64{1, 1, -3, 1})
	assert.InDelta(t, 3.0, dd, 1e-9)
}

func TestWalkForwardInsufficientData(t *testing.T) {
	h := New(DefaultConfig())
	s := &alternatingStrategy{name: "s", fireAll: true}
	result := h.WalkForward(s, seriesWithTrend("T1", []float64{50, 51}), 5)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.FailureReason, "insufficient")
}

// TestWalkForwardFailsOnWinRateThreshold checks the failure-reason
// reporting path: a flat mid-price series makes every synthetic trade a
// breakeven (pnl == 0, so never counted a win), which drives the overall
// win rate to 0% against a 70% requirement.
func TestWalkForwardFailsOnWinRateThreshold(t *testing.T) {
	h := New(Config{MinBacktestSamples: 20, MinTrainSamples: 20, MinTestSamples: 5, MinWinRate: 0.70, MaxDrawdown: 0.50})
	s := &alternatingStrategy{name: "flat", fireAll: true}
	mids := make([]float64, 200)
	for i := range mids {
		mids[i] = 50
	}
	result := h.WalkForward(s, seriesWithTrend("T1", mids), 10)
	require.True(t, result.IsValid)
	assert.False(t, result.MeetsThreshold)
	assert.Contains(t, result.FailureReason, "win rate")
}

func TestValidateForMarketRejectsTooFewTrades(t *testing.T) {
	h := New(Config{MinBacktestSamples: 5, MinWinRate: 0.5, MaxDrawdown: 0.5})
	s := &alternatingStrategy{name: "s", fireAll: true}
	mids := []float64{50, 50, 50, 50, 51}
	ok, result, reason := h.ValidateForMarket(s, seriesWithTrend("T1", mids))
	assert.False(t, ok)
	require.NotNil(t, result)
	assert.NotEmpty(t, reason)
	assert.Contains(t, reason, "too few trades")
}
