// Package backtest replays a strategy's own evaluation against a historical
// snapshot series, single-pass or walk-forward, and validates the result
// against configured thresholds.
package backtest

import (
	"math"

	"github.com/kalshi-odds/scanner/pkg/types"
)

// Strategy is the subset of the strategy interface the harness needs: a
// name for labeling results, and a pure per-snapshot evaluation given the
// snapshots preceding it in the series. Real strategies (internal/strategy)
// satisfy this structurally.
type Strategy interface {
	Name() string
	EvaluateSnapshot(snap types.Snapshot, history []types.Snapshot) (types.Signal, bool)
}

// Config enumerates the harness's tunables.
type Config struct {
	// MinBacktestSamples is the minimum snapshot count required to attempt
	// a single-pass backtest at all.
	MinBacktestSamples int
	// MinTrainSamples and MinTestSamples gate walk-forward fold sizing.
	MinTrainSamples int
	MinTestSamples  int
	// MinWinRate and MaxDrawdown are the walk-forward validity thresholds.
	MinWinRate  float64
	MaxDrawdown float64
}

// DefaultConfig returns the harness's documented defaults.
func DefaultConfig() Config {
	return Config{
		MinBacktestSamples: 20,
		MinTrainSamples:    20,
		MinTestSamples:     10,
		MinWinRate:         0.55,
		MaxDrawdown:        0.25,
	}
}

// Harness runs single-pass and walk-forward backtests.
type Harness struct {
	cfg Config
}

// New constructs a Harness, filling unset numeric fields with documented
// defaults.
func New(cfg Config) *Harness {
	def := DefaultConfig()
	if cfg.MinBacktestSamples == 0 {
		cfg.MinBacktestSamples = def.MinBacktestSamples
	}
	if cfg.MinTrainSamples == 0 {
		cfg.MinTrainSamples = def.MinTrainSamples
	}
	if cfg.MinTestSamples == 0 {
		cfg.MinTestSamples = def.MinTestSamples
	}
	if cfg.MinWinRate == 0 {
		cfg.MinWinRate = def.MinWinRate
	}
	if cfg.MaxDrawdown == 0 {
		cfg.MaxDrawdown = def.MaxDrawdown
	}
	return &Harness{cfg: cfg}
}

type trade struct {
	pnl float64
	won bool
}

// BacktestStrategy runs a single-pass backtest: the strategy evaluates each
// snapshot but the last, and any tradeable signal's synthetic exit is the
// very next snapshot in the series.
func (h *Harness) BacktestStrategy(strategy Strategy, snapshots []types.Snapshot) types.BacktestResult {
	ticker := "unknown"
	if len(snapshots) > 0 {
		ticker = snapshots[0].Ticker
	}
	if len(snapshots) < h.cfg.MinBacktestSamples {
		return types.InsufficientData(strategy.Name(), ticker, len(snapshots))
	}

	var trades []trade
	for i := 0; i < len(snapshots)-1; i++ {
		signal, ok := strategy.EvaluateSnapshot(snapshots[i], snapshots[:i])
		if !ok || !signal.IsTradeable() {
			continue
		}

		entry := snapshots[i].Mid
		if entry == 0 {
			entry = snapshots[i].LastPrice
		}
		next := snapshots[i+1]
		exit := next.Mid
		if exit == 0 {
			exit = next.LastPrice
		}

		var pnl float64
		if signal.Side == types.OrderSideYes {
			pnl = (exit - entry) / 100
		} else {
			pnl = (entry - exit) / 100
		}
		trades = append(trades, trade{pnl: pnl, won: pnl > 0})
	}

	if len(trades) == 0 {
		return types.InsufficientData(strategy.Name(), ticker, len(snapshots))
	}

	return buildResult(strategy.Name(), ticker, len(snapshots), trades)
}

// buildResult computes win rate, return, drawdown, Sharpe, and profit
// factor from a realized trade list.
func buildResult(strategyName, ticker string, numSamples int, trades []trade) types.BacktestResult {
	wins, losses := 0, 0
	var pnls []float64
	var winPnls, lossPnls []float64
	total := 0.0

	for _, t := range trades {
		pnls = append(pnls, t.pnl)
		total += t.pnl
		if t.won {
			wins++
			winPnls = append(winPnls, t.pnl)
		} else {
			losses++
			lossPnls = append(lossPnls, t.pnl)
		}
	}

	winRate := float64(wins) / float64(len(trades))
	avgReturn := total / float64(len(trades))
	maxDD := maxDrawdown(pnls)
	sharpe := annualizedSharpe(pnls)

	avgWin := mean(winPnls)
	avgLoss := mean(lossPnls)

	profitFactor := 0.0
	if losses > 0 && avgLoss < 0 {
		grossProfit := float64(wins) * avgWin
		grossLoss := math.Abs(float64(losses) * avgLoss)
		if grossLoss > 0 {
			profitFactor = grossProfit / grossLoss
		}
	}

	return types.BacktestResult{
		StrategyName: strategyName,
		Ticker:       ticker,
		NumSamples:   numSamples,
		NumTrades:    len(trades),
		WinRate:      winRate,
		TotalReturn:  total,
		AvgReturn:    avgReturn,
		MaxDrawdown:  maxDD,
		SharpeRatio:  &sharpe,
		AvgWin:       avgWin,
		AvgLoss:      avgLoss,
		ProfitFactor: profitFactor,
		IsValid:      true,
	}
}

// maxDrawdown returns the largest peak-to-trough drop in the cumulative
// return curve.
func maxDrawdown(pnls []float64) float64 {
	cumulative, peak, maxDD := 0.0, 0.0, 0.0
	for _, p := range pnls {
		cumulative += p
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// annualizedSharpe computes √252 · mean/stdev of per-trade returns,
// treating each trade as one trading-day observation.
func annualizedSharpe(pnls []float64) float64 {
	m := mean(pnls)
	sd := stdev(pnls, m)
	if sd == 0 {
		return 0
	}
	return (m / sd) * math.Sqrt(252)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdev(values []float64, m float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}
