// Package opportunity fuses per-bookmaker alerts into ranked opportunities,
// one per (mapping key, direction) group.
package opportunity

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kalshi-odds/scanner/pkg/types"
)

// groupKey identifies one (mapping key, direction) aggregation group.
type groupKey struct {
	MarketKey string
	Direction types.Direction
}

// Aggregate groups alerts by (mapping_key, direction) and produces one
// ranked Opportunity per group, sorted by rank_score descending. Given a
// fixed input list the output is deterministic; ties break by mapping_key
// then direction.
func Aggregate(alerts []types.Alert, exchangeLiquidity map[string]int, kalshiURL func(ticker string) string) []types.Opportunity {
	groups := make(map[groupKey][]types.Alert)
	order := make([]groupKey, 0)

	for _, a := range alerts {
		key := groupKey{MarketKey: a.MarketKey, Direction: a.Direction}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], a)
	}

	opportunities := make([]types.Opportunity, 0, len(order))
	for _, key := range order {
		group := groups[key]
		opportunities = append(opportunities, buildOpportunity(key, group, exchangeLiquidity, kalshiURL))
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		if opportunities[i].RankScore != opportunities[j].RankScore {
			return opportunities[i].RankScore > opportunities[j].RankScore
		}
		if opportunities[i].MarketKey != opportunities[j].MarketKey {
			return opportunities[i].MarketKey < opportunities[j].MarketKey
		}
		return opportunities[i].Direction < opportunities[j].Direction
	})

	return opportunities
}

func buildOpportunity(key groupKey, group []types.Alert, exchangeLiquidity map[string]int, kalshiURL func(string) string) types.Opportunity {
	noVigProbs := make([]float64, len(group))
	edgeBpsValues := make([]float64, len(group))
	for i, a := range group {
		noVigProbs[i] = a.BookNoVigProb
		edgeBpsValues[i] = a.EdgeBps
	}

	bookFairProb := median(noVigProbs)
	edgeBps := median(edgeBpsValues)
	edgeCents := edgeBps / 100

	bestIdx, worstIdx := bestWorstIndexByEdge(group)
	best, worst := group[bestIdx], group[worstIdx]
	confidence := maxConfidence(group)

	liquidity := 0
	if exchangeLiquidity != nil {
		liquidity = exchangeLiquidity[best.ContractID]
	} else {
		liquidity = best.ExchangeSize
	}
	if liquidity < 1 {
		liquidity = 1
	}

	rankScore := edgeCents * math.Sqrt(float64(liquidity)) * (1 + math.Log1p(float64(len(group))))

	deepLink := ""
	if kalshiURL != nil {
		deepLink = kalshiURL(best.ContractID)
	}

	return types.Opportunity{
		MarketKey:       key.MarketKey,
		Direction:       key.Direction,
		BookFairProb:    bookFairProb,
		BookCount:       len(group),
		BestBook:        &group[bestIdx],
		WorstBook:       &group[worstIdx],
		EdgeCents:       edgeCents,
		EdgeBps:         edgeBps,
		ExchangeAction:  exchangeActionText(key.Direction, best),
		HedgeAction:     hedgeActionText(best),
		PnlPer100Shares: edgeCents,
		MaxShares:       liquidity,
		Confidence:      confidence,
		RankScore:       rankScore,
		RawAlertCount:   len(group),
		DeepLink:        deepLink,
	}
}

func exchangeActionText(direction types.Direction, a types.Alert) string {
	cents := int(a.ExchangePrice * 100)
	if direction == types.DirectionExchangeCheap {
		return fmt.Sprintf("buy YES at %d cents", cents)
	}
	return fmt.Sprintf("sell YES at %d cents", cents)
}

func hedgeActionText(a types.Alert) string {
	return fmt.Sprintf("take %s at %s on %s", a.Selection, oddsString(a.RawOddsValue, a.RawOddsFormat), a.Bookmaker)
}

func oddsString(value float64, format types.OddsFormat) string {
	if format == types.OddsFormatAmerican {
		if value > 0 {
			return fmt.Sprintf("+%d", int(value))
		}
		return fmt.Sprintf("%d", int(value))
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", value), "0"), ".")
}

func bestWorstIndexByEdge(group []types.Alert) (bestIdx, worstIdx int) {
	for i, a := range group {
		if a.EdgeBps > group[bestIdx].EdgeBps {
			bestIdx = i
		}
		if a.EdgeBps < group[worstIdx].EdgeBps {
			worstIdx = i
		}
	}
	return bestIdx, worstIdx
}

func maxConfidence(group []types.Alert) types.Confidence {
	best := types.ConfidenceLow
	for _, a := range group {
		best = types.MaxConfidence(best, a.Confidence)
	}
	return best
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
