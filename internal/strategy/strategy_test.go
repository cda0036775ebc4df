package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalshi-odds/scanner/pkg/types"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	m := NewMispricingStrategy(MispricingConfig{})
	reg.Register(m)

	got, ok := reg.Get("mispricing_v1")
	require.True(t, ok)
	assert.Equal(t, m, got)
	assert.Equal(t, []string{"mispricing_v1"}, reg.Names())
}

func TestRegistryReplaceKeepsPosition(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewMispricingStrategy(MispricingConfig{}))
	reg.Register(NewMeanReversionStrategy(MeanReversionConfig{}))
	reg.Register(NewMispricingStrategy(MispricingConfig{ConfidenceScale: 0.9}))

	assert.Equal(t, []string{"mispricing_v1", "mean_reversion_v1"}, reg.Names())
	assert.Len(t, reg.All(), 2)
}

func TestMispricingNoTradeOnWideSpread(t *testing.T) {
	s := NewMispricingStrategy(MispricingConfig{})
	f := types.FeatureSnapshot{Ticker: "T1", Mid: 50, SpreadCents: 10, Volume24h: 200, DepthImbalance: 0.5}
	sig := s.Evaluate(nil, f, nil)
	assert.False(t, sig.IsTradeable())
}

func TestMispricingFiresOnStrongBidImbalance(t *testing.T) {
	s := NewMispricingStrategy(MispricingConfig{})
	f := types.FeatureSnapshot{Ticker: "T1", Mid: 50, SpreadCents: 2, Volume24h: 500, DepthImbalance: 0.6}
	sig := s.Evaluate(nil, f, nil)
	require.True(t, sig.IsTradeable())
	assert.Equal(t, types.OrderSideYes, sig.Side)
	assert.True(t, ValidateSignal(sig))
}

func TestMispricingFiresOnStrongAskImbalance(t *testing.T) {
	s := NewMispricingStrategy(MispricingConfig{})
	f := types.FeatureSnapshot{Ticker: "T1", Mid: 50, SpreadCents: 2, Volume24h: 500, DepthImbalance: -0.6}
	sig := s.Evaluate(nil, f, nil)
	require.True(t, sig.IsTradeable())
	assert.Equal(t, types.OrderSideNo, sig.Side)
}

func historySeries(n int, mid float64) []types.Snapshot {
	out := make([]types.Snapshot, n)
	now := time.Now()
	for i := range out {
		out[i] = types.Snapshot{Ticker: "T1", Timestamp: now.Add(time.Duration(i) * time.Minute), Mid: mid}
	}
	return out
}

func TestMeanReversionRequiresLookbackHistory(t *testing.T) {
	s := NewMeanReversionStrategy(MeanReversionConfig{})
	f := types.FeatureSnapshot{Ticker: "T1", Mid: 60, SpreadCents: 1, Volume24h: 300, BidDepth: 60, AskDepth: 60}
	sig := s.Evaluate(nil, f, historySeries(3, 50))
	assert.False(t, sig.IsTradeable())
}

func TestMeanReversionFadesUpwardDeviation(t *testing.T) {
	s := NewMeanReversionStrategy(MeanReversionConfig{})
	f := types.FeatureSnapshot{Ticker: "T1", Mid: 60, SpreadCents: 1, Volume24h: 300, BidDepth: 60, AskDepth: 60}
	sig := s.Evaluate(nil, f, historySeries(6, 50))
	require.True(t, sig.IsTradeable())
	assert.Equal(t, types.OrderSideNo, sig.Side)
}

func TestMeanReversionFadesDownwardDeviation(t *testing.T) {
	s := NewMeanReversionStrategy(MeanReversionConfig{})
	f := types.FeatureSnapshot{Ticker: "T1", Mid: 40, SpreadCents: 1, Volume24h: 300, BidDepth: 60, AskDepth: 60}
	sig := s.Evaluate(nil, f, historySeries(6, 50))
	require.True(t, sig.IsTradeable())
	assert.Equal(t, types.OrderSideYes, sig.Side)
}

func TestMeanReversionNoTradeBelowThreshold(t *testing.T) {
	s := NewMeanReversionStrategy(MeanReversionConfig{})
	f := types.FeatureSnapshot{Ticker: "T1", Mid: 50.5, SpreadCents: 1, Volume24h: 300, BidDepth: 60, AskDepth: 60}
	sig := s.Evaluate(nil, f, historySeries(6, 50))
	assert.False(t, sig.IsTradeable())
}

func TestValidateSignalRejectsOutOfRangeFairProb(t *testing.T) {
	assert.False(t, ValidateSignal(types.Signal{FairProb: 1.5}))
	assert.False(t, ValidateSignal(types.Signal{Confidence: -0.1}))
	assert.False(t, ValidateSignal(types.Signal{EntryPrice: 100}))
	assert.True(t, ValidateSignal(types.Signal{FairProb: 0.5, Confidence: 0.5, EntryPrice: 50}))
}
