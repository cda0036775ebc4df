package opportunity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalshi-odds/scanner/pkg/types"
)

func alertWithEdge(marketKey string, edgeBps float64, size int) types.Alert {
	return types.Alert{
		MarketKey:     marketKey,
		Direction:     types.DirectionExchangeCheap,
		EdgeBps:       edgeBps,
		ExchangeSize:  size,
		ContractID:    "T1",
		BookNoVigProb: 0.5,
		Confidence:    types.ConfidenceFromScore(0.8),
	}
}

// TestScenarioS3OpportunityAggregation matches spec scenario S3.
func TestScenarioS3OpportunityAggregation(t *testing.T) {
	edges := []float64{900, 1200, 1500, 1800, 2100}
	alerts := make([]types.Alert, 0, len(edges))
	for i, e := range edges {
		a := alertWithEdge("nba_test", e, 100)
		a.AlertID = "alert" + string(rune('A'+i))
		alerts = append(alerts, a)
	}

	liquidity := map[string]int{"T1": 100}
	opps := Aggregate(alerts, liquidity, nil)

	require.Len(t, opps, 1)
	opp := opps[0]
	assert.Equal(t, 5, opp.BookCount)
	assert.InDelta(t, 1500, opp.EdgeBps, 1e-9)
	assert.InDelta(t, 2100, opp.BestBook.EdgeBps, 1e-9)
	assert.InDelta(t, 900, opp.WorstBook.EdgeBps, 1e-9)
	assert.InDelta(t, 418, opp.RankScore, 5)
}

func TestAggregateIsDeterministicUnderFixedInput(t *testing.T) {
	alerts := []types.Alert{
		{AlertID: "1", MarketKey: "a", Direction: types.DirectionExchangeCheap, EdgeBps: 100, ExchangeSize: 10, ContractID: "A"},
		{AlertID: "2", MarketKey: "b", Direction: types.DirectionExchangeCheap, EdgeBps: 500, ExchangeSize: 10, ContractID: "B"},
	}
	first := Aggregate(alerts, nil, nil)
	second := Aggregate(alerts, nil, nil)
	require.Len(t, first, 2)
	assert.Equal(t, first[0].MarketKey, second[0].MarketKey)
	assert.Equal(t, "b", first[0].MarketKey) // higher edge ranks first
}

func TestAggregateEmptyInput(t *testing.T) {
	opps := Aggregate(nil, nil, nil)
	assert.Empty(t, opps)
}

func TestMedianEvenAndOdd(t *testing.T) {
	assert.InDelta(t, 2.0, median([]float64{1, 2, 3}), 1e-9)
	assert.InDelta(t, 2.5, median([]float64{1, 2, 3, 4}), 1e-9)
	assert.Equal(t, 0.0, median(nil))
}
