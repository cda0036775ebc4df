package backtest

import (
	"fmt"

	"github.com/kalshi-odds/scanner/pkg/types"
)

const defaultFolds = 5

// WalkForward partitions snapshots into nFolds sequential segments (default
// 5 if nFolds <= 0), backtests each fold with at least MinTestSamples rows,
// and aggregates trades, win rate, return, max drawdown, and mean per-fold
// Sharpe across the folds that ran.
func (h *Harness) WalkForward(strategy Strategy, snapshots []types.Snapshot, nFolds int) types.WalkForwardResult {
	ticker := "unknown"
	if len(snapshots) > 0 {
		ticker = snapshots[0].Ticker
	}

	if nFolds <= 0 {
		nFolds = defaultFolds
	}

	if len(snapshots) < h.cfg.MinTrainSamples+h.cfg.MinTestSamples {
		return types.WalkForwardResult{
			StrategyName:  strategy.Name(),
			Ticker:        ticker,
			IsValid:       false,
			FailureReason: "insufficient data for walk-forward",
		}
	}

	foldSize := len(snapshots) / nFolds
	if foldSize < h.cfg.MinTestSamples {
		nFolds = len(snapshots) / h.cfg.MinTestSamples
		if nFolds < 1 {
			nFolds = 1
		}
		foldSize = len(snapshots) / nFolds
	}

	var foldResults []types.BacktestResult
	allWins, allTrades := 0, 0
	var totalReturn float64
	var drawdowns, sharpes []float64

	for i := 0; i < nFolds; i++ {
		start := i * foldSize
		end := start + foldSize
		if i == nFolds-1 {
			end = len(snapshots)
		}
		fold := snapshots[start:end]
		if len(fold) < h.cfg.MinTestSamples {
			continue
		}

		result := h.BacktestStrategy(strategy, fold)
		foldResults = append(foldResults, result)

		if result.IsValid && result.NumTrades > 0 {
			wins := int(result.WinRate * float64(result.NumTrades))
			allWins += wins
			allTrades += result.NumTrades
			totalReturn += result.TotalReturn
			drawdowns = append(drawdowns, result.MaxDrawdown)
			if result.SharpeRatio != nil {
				sharpes = append(sharpes, *result.SharpeRatio)
			}
		}
	}

	if allTrades == 0 {
		return types.WalkForwardResult{
			StrategyName:  strategy.Name(),
			Ticker:        ticker,
			FoldResults:   foldResults,
			IsValid:       false,
			FailureReason: "no trades generated across folds",
		}
	}

	overallWinRate := float64(allWins) / float64(allTrades)
	avgSharpe := mean(sharpes)
	maxDD := 0.0
	for _, dd := range drawdowns {
		if dd > maxDD {
			maxDD = dd
		}
	}

	meetsThreshold := overallWinRate >= h.cfg.MinWinRate &&
		allTrades >= h.cfg.MinBacktestSamples &&
		maxDD <= h.cfg.MaxDrawdown

	failureReason := ""
	switch {
	case meetsThreshold:
	case overallWinRate < h.cfg.MinWinRate:
		failureReason = fmt.Sprintf("win rate %.1f%% < %.0f%%", overallWinRate*100, h.cfg.MinWinRate*100)
	case allTrades < h.cfg.MinBacktestSamples:
		failureReason = fmt.Sprintf("trades %d < %d", allTrades, h.cfg.MinBacktestSamples)
	case maxDD > h.cfg.MaxDrawdown:
		failureReason = fmt.Sprintf("max drawdown %.1f%% > %.0f%%", maxDD*100, h.cfg.MaxDrawdown*100)
	}

	return types.WalkForwardResult{
		StrategyName:   strategy.Name(),
		Ticker:         ticker,
		TotalTrades:    allTrades,
		OverallWinRate: overallWinRate,
		OverallReturn:  totalReturn,
		AvgFoldSharpe:  avgSharpe,
		MaxDrawdown:    maxDD,
		FoldResults:    foldResults,
		IsValid:        true,
		MeetsThreshold: meetsThreshold,
		FailureReason:  failureReason,
	}
}

// ValidateForMarket runs a single-pass backtest and validates it against
// the harness's thresholds plus a minimum trade count of 5, per the
// documented per-market validation gate.
func (h *Harness) ValidateForMarket(strategy Strategy, snapshots []types.Snapshot) (bool, *types.BacktestResult, string) {
	if len(snapshots) < h.cfg.MinBacktestSamples {
		return false, nil, fmt.Sprintf("insufficient samples: %d < %d", len(snapshots), h.cfg.MinBacktestSamples)
	}

	result := h.BacktestStrategy(strategy, snapshots)
	if !result.IsValid {
		return false, &result, result.ReasonInvalid
	}
	if result.NumTrades < 5 {
		return false, &result, fmt.Sprintf("too few trades: %d", result.NumTrades)
	}
	if result.WinRate < h.cfg.MinWinRate {
		return false, &result, fmt.Sprintf("win rate %.1f%% < %.0f%%", result.WinRate*100, h.cfg.MinWinRate*100)
	}
	if result.MaxDrawdown > h.cfg.MaxDrawdown {
		return false, &result, fmt.Sprintf("max drawdown %.1f%% > %.0f%%", result.MaxDrawdown*100, h.cfg.MaxDrawdown*100)
	}

	return true, &result, ""
}
