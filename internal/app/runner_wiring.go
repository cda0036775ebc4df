package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/internal/backtest"
	"github.com/kalshi-odds/scanner/internal/discovery"
	"github.com/kalshi-odds/scanner/internal/exchange"
	"github.com/kalshi-odds/scanner/internal/notify"
	"github.com/kalshi-odds/scanner/internal/ordermanager"
	"github.com/kalshi-odds/scanner/internal/risk"
	"github.com/kalshi-odds/scanner/internal/runner"
	"github.com/kalshi-odds/scanner/internal/snapshotter"
	"github.com/kalshi-odds/scanner/internal/storage"
	"github.com/kalshi-odds/scanner/internal/strategy"
	"github.com/kalshi-odds/scanner/pkg/config"
	"github.com/kalshi-odds/scanner/pkg/types"
)

// RunnerBundle holds everything the runner subcommands (runner run,
// runner snapshot, runner report) need, plus the components that must be
// torn down afterward.
type RunnerBundle struct {
	Runner  *runner.Runner
	Store   storage.Store
	Breaker *risk.BalanceCircuitBreaker // nil when circuit breaker is disabled
}

// BuildRunner wires the daily-trading-cycle dependency graph: one exchange
// client, one storage backend, a strategy registry seeded with every known
// strategy, a single shared risk.Gate feeding both the runner and the
// order manager, and, when enabled, a balance circuit breaker gating
// RunCycle on exchange solvency.
func BuildRunner(ctx context.Context, cfg *config.Config, logger *zap.Logger, mode types.TradingMode) (*RunnerBundle, error) {
	exchangeClient := exchange.New(exchange.Config{
		BaseURL:        cfg.ExchangeBaseURL,
		APIKeyID:       cfg.ExchangeAPIKeyID,
		PrivateKeyPath: cfg.ExchangePrivateKey,
		Logger:         logger,
	})

	store, err := storage.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("construct storage: %w", err)
	}

	contractBlacklist := make(map[string]bool, len(cfg.ContractBlacklist))
	for _, ticker := range cfg.ContractBlacklist {
		contractBlacklist[ticker] = true
	}

	registry := strategy.NewRegistry()
	registry.Register(strategy.NewMeanReversionStrategy(strategy.MeanReversionConfig{
		MaxSpreadCents: cfg.MaxSpreadCents,
		MinVolume:      cfg.MinVolume24h,
		MinDepth:       cfg.MinDepth,
	}))
	registry.Register(strategy.NewMispricingStrategy(strategy.MispricingConfig{
		MaxSpreadCents: cfg.MaxSpreadCents,
		MinVolume:      cfg.MinVolume24h,
	}))

	riskGate := risk.New(risk.Config{
		MaxDailyLossDollars:         cfg.MaxDailyLossDollars,
		MaxTradesPerDay:             cfg.MaxTradesPerDay,
		MaxOpenPositions:            cfg.MaxOpenPositions,
		MaxTotalExposureDollars:     cfg.MaxTotalExposureDollars,
		MaxPerMarketExposureDollars: cfg.MaxPerMarketExposureDollars,
		MinExpectedValue:            cfg.MinExpectedValue,
		ConfidenceThreshold:         cfg.ConfidenceThreshold,
		MinWinRate:                  cfg.MinWinRate,
		MinBacktestSamples:          cfg.MinBacktestSamples,
		UseKellySizing:              cfg.UseKellySizing,
		KellyFraction:               cfg.KellyFraction,
		DefaultPositionSizeDollars:  cfg.DefaultPositionSizeDollars,
	})

	var breaker *risk.BalanceCircuitBreaker
	if cfg.CircuitBreakerEnabled {
		breaker, err = risk.NewBreaker(risk.BreakerConfig{
			CheckInterval:   cfg.CircuitBreakerCheckInterval,
			TradeMultiplier: cfg.CircuitBreakerTradeMultiplier,
			MinAbsolute:     cfg.CircuitBreakerMinAbsolute,
			HysteresisRatio: cfg.CircuitBreakerHysteresisRatio,
			Client:          exchangeClient,
			Logger:          logger,
		})
		if err != nil {
			return nil, fmt.Errorf("construct circuit breaker: %w", err)
		}
		breaker.Start(ctx)
	}

	orders := ordermanager.New(ordermanager.Config{
		Mode:           mode,
		Client:         exchangeClient,
		Risk:           riskGate,
		Logger:         logger,
		LimitOnly:      cfg.LimitOnly,
		DefaultSizeUSD: cfg.DefaultPositionSizeDollars,
		FillSimulator:  ordermanager.NewPaperFillSimulator(cfg.PaperFillProbability, cfg.PaperSlippageCents),
	})

	r := runner.New(runner.Config{
		Discovery: discovery.New(discovery.Config{
			Client:               exchangeClient,
			Logger:                logger,
			MaxPages:              cfg.DiscoveryMaxPages,
			PageSize:              cfg.DiscoveryPageSize,
			InterPageDelay:        cfg.DiscoveryInterPageDelay,
			InterBookDelay:        cfg.DiscoveryInterBookDelay,
			CategoryWhitelist:     cfg.CategoryWhitelist,
			CategoryBlacklist:     cfg.CategoryBlacklist,
			ContractBlacklist:     contractBlacklist,
			MinVolume24h:          cfg.MinVolume24h,
			MaxSpreadCents:        cfg.MaxSpreadCents,
			MinDepth:              cfg.MinDepth,
			TradingCutoffMinutes:  float64(cfg.TradingCutoffMinutes),
		}),
		Snapshotter: snapshotter.New(snapshotter.Config{
			Client:        exchangeClient,
			Store:         runner.NewSnapshotStore(store),
			Interval:      cfg.SnapshotInterval,
			RecoveryDelay: cfg.SnapshotRecoveryDelay,
			Logger:        logger,
		}),
		Strategies: registry,
		Backtest: backtest.New(backtest.Config{
			MinBacktestSamples: cfg.MinBacktestSamples,
			MinWinRate:         cfg.MinWinRate,
			MaxDrawdown:        cfg.MaxDrawdownPercent,
		}),
		Risk:                       riskGate,
		Orders:                     orders,
		Store:                      store,
		Notifier:                   notify.New(notify.Config{WebhookURL: cfg.AlertChannelURL, Logger: logger}),
		Logger:                     logger,
		Mode:                       mode,
		MaxTradesPerDay:            cfg.MaxTradesPerDay,
		ConfidenceThreshold:        cfg.ConfidenceThreshold,
		MinExpectedValue:           cfg.MinExpectedValue,
		MinWinRate:                 cfg.MinWinRate,
		MinBacktestSamples:         cfg.MinBacktestSamples,
		DefaultPositionSizeDollars: cfg.DefaultPositionSizeDollars,
		RunSummaryPath:             cfg.LastOpportunitiesPath + ".runs.jsonl",
	})

	return &RunnerBundle{Runner: r, Store: store, Breaker: breaker}, nil
}
