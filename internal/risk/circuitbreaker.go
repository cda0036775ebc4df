package risk

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// BalanceFetcher fetches the exchange account's settlement currency
// balance. The real implementation lives in internal/exchange; tests use a
// fake.
type BalanceFetcher interface {
	GetBalance(ctx context.Context) (dollars float64, err error)
}

// BalanceCircuitBreaker halts trading when the exchange account balance
// falls below a threshold derived from recent trade sizes, and re-enables
// it once the balance recovers past a higher threshold. The gap between
// the two thresholds (hysteresis) prevents rapid flapping around a single
// boundary.
type BalanceCircuitBreaker struct {
	enabled atomic.Bool

	checkInterval   time.Duration
	client          BalanceFetcher
	logger          *zap.Logger
	tradeMultiplier float64
	minAbsolute     float64
	hysteresisRatio float64

	mu               sync.RWMutex
	lastBalance      float64
	lastCheck        time.Time
	recentTrades     []float64
	disableThreshold float64
	enableThreshold  float64
}

// BreakerConfig holds circuit breaker configuration.
type BreakerConfig struct {
	CheckInterval   time.Duration
	TradeMultiplier float64
	MinAbsolute     float64
	HysteresisRatio float64
	Client          BalanceFetcher
	Logger          *zap.Logger
}

// BreakerStatus is a snapshot of the breaker's current state, suitable for
// a debug endpoint.
type BreakerStatus struct {
	Enabled          bool
	LastBalance      float64
	LastCheck        time.Time
	DisableThreshold float64
	EnableThreshold  float64
	AvgTradeSize     float64
	RecentTradeCount int
}

const recentTradeWindow = 20

// NewBreaker constructs a BalanceCircuitBreaker, starting enabled.
func NewBreaker(cfg BreakerConfig) (*BalanceCircuitBreaker, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("balance fetcher cannot be nil")
	}
	if cfg.CheckInterval <= 0 {
		return nil, fmt.Errorf("check interval must be positive")
	}
	if cfg.TradeMultiplier <= 0 {
		return nil, fmt.Errorf("trade multiplier must be positive")
	}
	if cfg.MinAbsolute <= 0 {
		return nil, fmt.Errorf("min absolute must be positive")
	}
	if cfg.HysteresisRatio < 1.0 {
		return nil, fmt.Errorf("hysteresis ratio must be >= 1.0")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	b := &BalanceCircuitBreaker{
		checkInterval:    cfg.CheckInterval,
		client:           cfg.Client,
		logger:           cfg.Logger,
		tradeMultiplier:  cfg.TradeMultiplier,
		minAbsolute:      cfg.MinAbsolute,
		hysteresisRatio:  cfg.HysteresisRatio,
		recentTrades:     make([]float64, 0, recentTradeWindow),
		disableThreshold: cfg.MinAbsolute,
		enableThreshold:  cfg.MinAbsolute * cfg.HysteresisRatio,
	}
	b.enabled.Store(true)

	BreakerEnabled.Set(1)
	BreakerDisableThreshold.Set(b.disableThreshold)
	BreakerEnableThreshold.Set(b.enableThreshold)

	return b, nil
}

// IsEnabled reports whether trading should proceed. Lock-free, safe on hot
// paths.
func (b *BalanceCircuitBreaker) IsEnabled() bool {
	return b.enabled.Load()
}

// RecordTrade folds a completed trade's dollar size into the rolling
// window and recalculates both thresholds.
func (b *BalanceCircuitBreaker) RecordTrade(tradeSize float64) {
	if tradeSize <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.recentTrades = append(b.recentTrades, tradeSize)
	if len(b.recentTrades) > recentTradeWindow {
		b.recentTrades = b.recentTrades[1:]
	}

	avg := average(b.recentTrades)
	b.disableThreshold = math.Max(avg*b.tradeMultiplier, b.minAbsolute)
	b.enableThreshold = b.disableThreshold * b.hysteresisRatio

	BreakerAvgTradeSize.Set(avg)
	BreakerDisableThreshold.Set(b.disableThreshold)
	BreakerEnableThreshold.Set(b.enableThreshold)
}

// CheckBalance fetches the current balance and applies the hysteresis
// state transition: disable when enabled and balance drops below the
// disable threshold, re-enable when disabled and balance recovers past the
// (higher) enable threshold.
func (b *BalanceCircuitBreaker) CheckBalance(ctx context.Context) error {
	start := time.Now()
	defer func() { BreakerCheckDuration.Observe(time.Since(start).Seconds()) }()

	balance, err := b.client.GetBalance(ctx)
	if err != nil {
		return fmt.Errorf("get balance: %w", err)
	}

	b.mu.Lock()
	disableThreshold := b.disableThreshold
	enableThreshold := b.enableThreshold
	b.lastBalance = balance
	b.lastCheck = time.Now()
	b.mu.Unlock()

	BreakerBalance.Set(balance)

	currentlyEnabled := b.enabled.Load()
	shouldDisable := currentlyEnabled && balance < disableThreshold
	shouldEnable := !currentlyEnabled && balance >= enableThreshold

	switch {
	case shouldDisable:
		b.enabled.Store(false)
		BreakerEnabled.Set(0)
		BreakerStateChanges.Inc()
		b.logger.Warn("circuit-breaker-disabled",
			zap.Float64("balance", balance),
			zap.Float64("disable-threshold", disableThreshold))
	case shouldEnable:
		b.enabled.Store(true)
		BreakerEnabled.Set(1)
		BreakerStateChanges.Inc()
		b.logger.Info("circuit-breaker-enabled",
			zap.Float64("balance", balance),
			zap.Float64("enable-threshold", enableThreshold))
	}

	return nil
}

// Start runs an immediate balance check, then continues checking on
// checkInterval until ctx is cancelled.
func (b *BalanceCircuitBreaker) Start(ctx context.Context) {
	if err := b.CheckBalance(ctx); err != nil {
		b.logger.Error("initial-balance-check-failed", zap.Error(err))
	}
	go b.monitorLoop(ctx)
}

func (b *BalanceCircuitBreaker) monitorLoop(ctx context.Context) {
	ticker := time.NewTicker(b.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := b.CheckBalance(ctx); err != nil {
				b.logger.Error("balance-check-error", zap.Error(err))
			}
		}
	}
}

// Status returns a snapshot suitable for a debug endpoint.
func (b *BalanceCircuitBreaker) Status() BreakerStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return BreakerStatus{
		Enabled:          b.enabled.Load(),
		LastBalance:      b.lastBalance,
		LastCheck:        b.lastCheck,
		DisableThreshold: b.disableThreshold,
		EnableThreshold:  b.enableThreshold,
		AvgTradeSize:     average(b.recentTrades),
		RecentTradeCount: len(b.recentTrades),
	}
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
