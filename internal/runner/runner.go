// Package runner drives the daily trading cycle: discover same-day
// contracts, snapshot them, evaluate every registered strategy, validate
// the resulting signals against a historical backtest, and route the
// survivors through the order manager up to the day's trade cap. It is
// an injected-dependency orchestrator rather than a single monolithic
// method, so each step can be tested and replaced independently.
package runner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/internal/backtest"
	"github.com/kalshi-odds/scanner/internal/discovery"
	"github.com/kalshi-odds/scanner/internal/notify"
	"github.com/kalshi-odds/scanner/internal/ordermanager"
	"github.com/kalshi-odds/scanner/internal/risk"
	"github.com/kalshi-odds/scanner/internal/snapshotter"
	"github.com/kalshi-odds/scanner/internal/storage"
	"github.com/kalshi-odds/scanner/internal/strategy"
	"github.com/kalshi-odds/scanner/pkg/types"
)

// Config wires every package the cycle touches plus the runner's own
// tunables. All fields are required except the window durations,
// MaxTradesPerDay (default 50) and logger, which fall back to documented
// defaults, and RunSummaryPath, which is optional.
type Config struct {
	Discovery   *discovery.Service
	Snapshotter *snapshotter.Service
	Strategies  *strategy.Registry
	Backtest    *backtest.Harness
	Risk        *risk.Gate
	Orders      *ordermanager.Manager
	Store       storage.Store
	Notifier    *notify.Notifier
	Logger      *zap.Logger

	Mode                       types.TradingMode
	MaxTradesPerDay            int
	ConfidenceThreshold        float64
	MinExpectedValue           float64
	MinWinRate                 float64
	MinBacktestSamples         int
	DefaultPositionSizeDollars float64

	// EvaluationWindow bounds how much history strategies see when
	// evaluating a contract; BacktestWindow bounds how much history the
	// per-signal backtest validation replays.
	EvaluationWindow time.Duration
	BacktestWindow   time.Duration

	// RunSummaryPath, when set, appends each cycle's Summary as one JSONL
	// record for operators to grep without a database.
	RunSummaryPath string
}

const (
	defaultEvaluationWindow = 7 * 24 * time.Hour
	defaultBacktestWindow   = 30 * 24 * time.Hour
)

// Runner executes trading cycles against its wired dependencies.
type Runner struct {
	cfg Config
}

// New constructs a Runner, filling unset tunables with documented defaults.
func New(cfg Config) *Runner {
	if cfg.EvaluationWindow == 0 {
		cfg.EvaluationWindow = defaultEvaluationWindow
	}
	if cfg.BacktestWindow == 0 {
		cfg.BacktestWindow = defaultBacktestWindow
	}
	if cfg.MaxTradesPerDay == 0 {
		cfg.MaxTradesPerDay = 50
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Runner{cfg: cfg}
}

// Summary mirrors the reference run()'s return dict: a record of what one
// cycle did, for logging, alerting, and the operator CLI's "show" command.
type Summary struct {
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	DurationSeconds   float64   `json:"duration_seconds"`
	Mode              string    `json:"mode"`
	MarketsDiscovered int       `json:"markets_discovered"`
	MarketsTradeable  int       `json:"markets_tradeable"`
	SignalsGenerated  int       `json:"signals_generated"`
	SignalsValid      int       `json:"signals_valid"`
	OrdersPlaced      int       `json:"orders_placed"`
	OrdersFilled      int       `json:"orders_filled"`
	Errors            []string  `json:"errors"`
}

// RunCycle runs the full discover-snapshot-evaluate-validate-trade pipeline
// once, treating now as the reference instant for same-day contract
// selection and risk-gate bookkeeping. A discovery error is recorded on the
// returned Summary and ends the cycle's work early; later per-contract
// errors are recorded and the cycle moves on. The daily P&L snapshot,
// notification, and summary log always run, matching the reference
// implementation's try/except/finally shape.
func (r *Runner) RunCycle(ctx context.Context, now time.Time) (summary *Summary, err error) {
	ref := now.UTC()
	summary = &Summary{StartTime: ref, Mode: string(r.cfg.Mode)}
	r.cfg.Risk.Reset()

	defer func() {
		summary.EndTime = time.Now().UTC()
		summary.DurationSeconds = summary.EndTime.Sub(summary.StartTime).Seconds()
		r.finalizeCycle(ctx, ref, summary)
	}()

	results, derr := r.cfg.Discovery.Discover(ctx, ref)
	if derr != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("discovery: %v", derr))
		return summary, nil
	}
	summary.MarketsDiscovered = len(results)

	var tradeable []discovery.Result
	for _, res := range results {
		if res.Passed() {
			tradeable = append(tradeable, res)
		}
	}
	summary.MarketsTradeable = len(tradeable)

	signals := r.evaluateStrategies(ctx, ref, tradeable, summary)
	summary.SignalsGenerated = len(signals)

	valid := r.validateSignals(ctx, ref, signals, summary)
	summary.SignalsValid = len(valid)

	sort.Slice(valid, func(i, j int) bool { return valid[i].ExpectedValue > valid[j].ExpectedValue })

	r.placeOrders(ctx, valid, summary)

	return summary, nil
}

// evaluateStrategies snapshots each tradeable contract and runs every
// registered strategy against its current features and recent history,
// keeping only the tradeable, sanity-checked signals.
func (r *Runner) evaluateStrategies(ctx context.Context, ref time.Time, tradeable []discovery.Result, summary *Summary) []types.Signal {
	since := ref.Add(-r.cfg.EvaluationWindow)
	var signals []types.Signal

	for _, res := range tradeable {
		if _, serr := r.cfg.Snapshotter.SnapshotOne(ctx, res.Contract.Ticker); serr != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("snapshot %s: %v", res.Contract.Ticker, serr))
		}

		history, herr := r.cfg.Snapshotter.History(ctx, res.Contract.Ticker, since)
		if herr != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("history %s: %v", res.Contract.Ticker, herr))
			continue
		}

		features := featuresFromResult(res)
		contract := res.Contract
		for _, strat := range r.cfg.Strategies.All() {
			signal := strat.Evaluate(&contract, features, history)
			if !signal.IsTradeable() || !strategy.ValidateSignal(signal) {
				continue
			}
			signals = append(signals, signal)
		}
	}

	return signals
}

// validateSignals replays each candidate signal's own strategy against a
// longer history window through the backtest harness, attaching the
// result and keeping only signals that clear MeetsThresholds.
func (r *Runner) validateSignals(ctx context.Context, ref time.Time, signals []types.Signal, summary *Summary) []types.Signal {
	since := ref.Add(-r.cfg.BacktestWindow)
	var valid []types.Signal

	for _, signal := range signals {
		strat, ok := r.cfg.Strategies.Get(signal.StrategyName)
		if !ok {
			continue
		}

		history, herr := r.cfg.Snapshotter.History(ctx, signal.Ticker, since)
		if herr != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("backtest history %s: %v", signal.Ticker, herr))
			continue
		}

		ok, result, reason := r.cfg.Backtest.ValidateForMarket(strat, history)
		if !ok {
			r.cfg.Logger.Debug("signal-failed-backtest-validation",
				zap.String("ticker", signal.Ticker), zap.String("strategy", signal.StrategyName), zap.String("reason", reason))
			continue
		}

		signal.BacktestWinRate = &result.WinRate
		signal.BacktestSamples = &result.NumTrades
		signal.BacktestSharpe = result.SharpeRatio

		if !signal.MeetsThresholds(r.cfg.ConfidenceThreshold, r.cfg.MinExpectedValue, r.cfg.MinWinRate, r.cfg.MinBacktestSamples) {
			continue
		}
		valid = append(valid, signal)
	}

	return valid
}

// placeOrders feeds validated signals, highest expected value first,
// through the order manager until MaxTradesPerDay is reached, persisting
// every order the manager actually creates and any immediate fill.
func (r *Runner) placeOrders(ctx context.Context, valid []types.Signal, summary *Summary) {
	placed := 0
	for _, signal := range valid {
		if placed >= r.cfg.MaxTradesPerDay {
			break
		}

		order, oerr := r.cfg.Orders.ProcessSignal(ctx, signal, r.cfg.DefaultPositionSizeDollars)
		if oerr != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("process signal %s: %v", signal.Ticker, oerr))
			continue
		}
		if order == nil {
			continue
		}
		placed++
		summary.OrdersPlaced++

		if serr := r.cfg.Store.SaveOrder(ctx, order); serr != nil && !types.IsDuplicateKey(serr) {
			summary.Errors = append(summary.Errors, fmt.Sprintf("save order %s: %v", order.ID, serr))
		}

		if order.Status != types.OrderStatusFilled {
			continue
		}
		summary.OrdersFilled++

		fill := types.FillFromOrder(order, "sim-"+order.ID, fillPriceCents(order), order.FilledQuantity, decimal.Zero, *order.FilledAt)
		if ferr := r.cfg.Store.SaveFill(ctx, fill); ferr != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("save fill %s: %v", order.ID, ferr))
		}
	}
}

// finalizeCycle computes and persists the day's P&L, sends the run
// completion alert, and appends the summary record. It runs unconditionally
// from RunCycle's deferred cleanup, regardless of where the cycle stopped.
func (r *Runner) finalizeCycle(ctx context.Context, ref time.Time, summary *Summary) {
	r.cfg.Risk.UpdateUnrealizedPnL()
	pnl := r.cfg.Risk.DailySummary(ref)
	if serr := r.cfg.Store.SaveDailyPnL(ctx, pnl); serr != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("save daily pnl: %v", serr))
	}

	if len(summary.Errors) > 0 {
		r.cfg.Notifier.Send("Trading Run Completed With Errors",
			fmt.Sprintf("%d/%d orders filled, %d errors", summary.OrdersFilled, summary.OrdersPlaced, len(summary.Errors)),
			notify.LevelWarning)
	} else {
		r.cfg.Notifier.SendRunSummary(summary.OrdersPlaced, summary.OrdersFilled)
	}

	if r.cfg.RunSummaryPath != "" {
		if jerr := notify.AppendJSONL(r.cfg.RunSummaryPath, summary); jerr != nil {
			r.cfg.Logger.Error("append-run-summary-failed", zap.Error(jerr))
		}
	}

	r.cfg.Logger.Info("trading-cycle-complete",
		zap.Int("discovered", summary.MarketsDiscovered),
		zap.Int("tradeable", summary.MarketsTradeable),
		zap.Int("signals", summary.SignalsGenerated),
		zap.Int("valid", summary.SignalsValid),
		zap.Int("placed", summary.OrdersPlaced),
		zap.Int("filled", summary.OrdersFilled),
		zap.Int("errors", len(summary.Errors)),
		zap.Float64("duration-seconds", summary.DurationSeconds))
}

// RunSnapshotOnly snapshots exactly the given tickers without running the
// discovery, strategy, or trading steps, for scheduled off-cycle polling
// of markets the runner already holds positions in.
func (r *Runner) RunSnapshotOnly(ctx context.Context, tickers []string) error {
	snaps, err := r.cfg.Snapshotter.SnapshotMany(ctx, tickers)
	if err != nil {
		return fmt.Errorf("snapshot-only run: %w", err)
	}
	r.cfg.Logger.Info("snapshot-only-complete", zap.Int("requested", len(tickers)), zap.Int("captured", len(snaps)))
	return nil
}

func featuresFromResult(res discovery.Result) types.FeatureSnapshot {
	book := res.Book
	return types.FeatureSnapshot{
		Ticker:         res.Contract.Ticker,
		Mid:            book.Mid(),
		SpreadCents:    book.SpreadCents(),
		Volume24h:      res.Contract.Volume24h,
		BidDepth:       book.YesBidSize,
		AskDepth:       book.YesAskSize,
		DepthImbalance: book.DepthImbalance(),
	}
}

// fillPriceCents returns the order's realized fill price in cents, falling
// back to its limit price if no average fill price was recorded.
func fillPriceCents(order *types.Order) int {
	if order.AverageFillPrice == nil {
		return order.Price
	}
	f, _ := order.AverageFillPrice.Float64()
	return int(f)
}
