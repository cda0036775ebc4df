// Package app wires the scanner's external clients, matcher, scanner, and
// storage into the operator-facing commands: sync-markets, sync-odds,
// scan, run, detail, execute, and show. It is a struct of injected
// services built by a constructor and shut down in dependency order,
// driven by one-shot CLI commands and a bounded scan loop.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/internal/aggregator"
	"github.com/kalshi-odds/scanner/internal/exchange"
	"github.com/kalshi-odds/scanner/internal/matcher"
	"github.com/kalshi-odds/scanner/internal/notify"
	"github.com/kalshi-odds/scanner/internal/opportunity"
	"github.com/kalshi-odds/scanner/internal/scanner"
	"github.com/kalshi-odds/scanner/internal/storage"
	"github.com/kalshi-odds/scanner/pkg/cache"
	"github.com/kalshi-odds/scanner/pkg/config"
	"github.com/kalshi-odds/scanner/pkg/healthprobe"
	"github.com/kalshi-odds/scanner/pkg/httpserver"
	"github.com/kalshi-odds/scanner/pkg/types"
)

// App wires together every component the operator CLI surface needs.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	exchange   *exchange.Client
	aggregator *aggregator.Client
	matcher    *matcher.Matcher
	scanner    *scanner.Scanner
	store      storage.Store
	notifier   *notify.Notifier
	cache      cache.Cache

	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server

	mu                sync.RWMutex
	lastOpportunities []types.Opportunity

	ctx    context.Context
	cancel context.CancelFunc
}

// New constructs an App: exchange and aggregator HTTP clients, a loaded
// mapping registry, the scanner, storage, and a notifier, plus the
// health/metrics HTTP server every long-running command starts.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	exchangeClient := exchange.New(exchange.Config{
		BaseURL:        cfg.ExchangeBaseURL,
		APIKeyID:       cfg.ExchangeAPIKeyID,
		PrivateKeyPath: cfg.ExchangePrivateKey,
		Logger:         logger,
	})

	aggregatorClient := aggregator.New(aggregator.Config{
		BaseURL: cfg.AggregatorBaseURL,
		APIKey:  cfg.AggregatorAPIKey,
		Logger:  logger,
	})

	mappingMatcher := matcher.New(matcher.Config{
		MappingFile:  cfg.MappingRegistryPath,
		FuzzyEnabled: cfg.AutoMapEnabled,
		Logger:       logger,
	})
	if _, err := mappingMatcher.LoadMappings(); err != nil {
		cancel()
		return nil, fmt.Errorf("load mapping registry: %w", err)
	}

	dislocationScanner := scanner.New(scanner.Config{
		ExchangeSlippageBuffer: cfg.SlippageBufferBps / 10000,
		SportsbookFriction:     cfg.SportsbookFrictionBps / 10000,
		MinEdgeBps:             cfg.MinEdgeBps,
		MinLiquidity:           int(cfg.MinLiquidity),
		MaxStaleness:           cfg.MaxStaleness,
		Logger:                 logger,
	})

	store, err := storage.New(ctx, cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("construct storage: %w", err)
	}

	notifier := notify.New(notify.Config{WebhookURL: cfg.AlertChannelURL, Logger: logger})

	metaCache, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10000,
		MaxCost:     2000,
		BufferItems: 64,
		Logger:      logger,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("construct cache: %w", err)
	}

	healthChecker := healthprobe.New(cfg.ScanLivenessWindow)

	a := &App{
		cfg:           cfg,
		logger:        logger,
		exchange:      exchangeClient,
		aggregator:    aggregatorClient,
		matcher:       mappingMatcher,
		scanner:       dislocationScanner,
		store:         store,
		notifier:      notifier,
		cache:         metaCache,
		healthChecker: healthChecker,
		ctx:           ctx,
		cancel:        cancel,
	}

	a.httpServer = httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Opportunities: a.LastOpportunities,
	})

	return a, nil
}

// LastOpportunities returns the most recent scan cycle's ranked
// opportunities. Safe to call concurrently with a running scan loop.
func (a *App) LastOpportunities() ([]types.Opportunity, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]types.Opportunity, len(a.lastOpportunities))
	copy(out, a.lastOpportunities)
	return out, nil
}

func (a *App) setLastOpportunities(opps []types.Opportunity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastOpportunities = opps
}

// StartHTTPServer starts the health/metrics server in the background. Only
// the continuous run command needs it; one-shot commands skip it.
func (a *App) StartHTTPServer() {
	go func() {
		if err := a.httpServer.Start(); err != nil {
			a.logger.Error("http-server-error", zap.Error(err))
		}
	}()
	a.healthChecker.SetReady(true)
}

// Close shuts down every owned resource in dependency order: HTTP server
// first so it stops accepting new opportunity reads, then the cache and the
// storage backend.
func (a *App) Close() error {
	a.healthChecker.SetReady(false)
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	a.cache.Close()

	if err := a.store.Close(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}
	return nil
}
