// Package snapshotter runs a background polling loop that records
// top-of-book state for a configured ticker set, building the historical
// series the backtest harness replays.
package snapshotter

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/pkg/types"
)

// Client is the subset of exchange operations the snapshotter needs.
type Client interface {
	Contract(ctx context.Context, ticker string) (*types.Contract, error)
	TopOfBook(ctx context.Context, ticker string) (*types.TopOfBook, error)
}

// Store persists and serves snapshot history.
type Store interface {
	Save(ctx context.Context, snap *types.Snapshot) error
	History(ctx context.Context, ticker string, since time.Time) ([]types.Snapshot, error)
	Retain(ctx context.Context, cutoff time.Time) (int, error)
}

// Config enumerates the snapshotter's tunables.
type Config struct {
	Client        Client
	Store         Store
	Tickers       []string
	Interval      time.Duration
	RecoveryDelay time.Duration
	Logger        *zap.Logger
}

// DefaultConfig returns the snapshotter's documented defaults.
func DefaultConfig() Config {
	return Config{
		Interval:      5 * time.Minute,
		RecoveryDelay: 60 * time.Second,
	}
}

// Service polls a fixed ticker set at a fixed interval, writing one
// Snapshot per ticker per cycle.
type Service struct {
	cfg Config
}

// New constructs a Service, filling unset numeric fields with documented
// defaults.
func New(cfg Config) *Service {
	def := DefaultConfig()
	if cfg.Interval == 0 {
		cfg.Interval = def.Interval
	}
	if cfg.RecoveryDelay == 0 {
		cfg.RecoveryDelay = def.RecoveryDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Service{cfg: cfg}
}

// Run polls the configured ticker set until ctx is cancelled. On a
// transient poll error it backs off for RecoveryDelay instead of the
// normal Interval and continues; it never returns a non-nil error except
// ctx.Err() on shutdown.
func (s *Service) Run(ctx context.Context) error {
	s.cfg.Logger.Info("snapshotter-starting",
		zap.Duration("interval", s.cfg.Interval),
		zap.Int("tickers", len(s.cfg.Tickers)))

	for {
		_, err := s.pollOnce(ctx)
		delay := s.cfg.Interval
		if err != nil {
			s.cfg.Logger.Error("snapshot-cycle-failed", zap.Error(err))
			delay = s.cfg.RecoveryDelay
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.cfg.Logger.Info("snapshotter-stopping")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// pollOnce snapshots every configured ticker once and returns how many
// succeeded.
func (s *Service) pollOnce(ctx context.Context) (int, error) {
	snaps, err := s.SnapshotMany(ctx, s.cfg.Tickers)
	if err != nil {
		return 0, err
	}
	return len(snaps), nil
}

// SnapshotOne fetches the current contract and top-of-book for ticker,
// derives a Snapshot, and persists it.
func (s *Service) SnapshotOne(ctx context.Context, ticker string) (*types.Snapshot, error) {
	book, err := s.cfg.Client.TopOfBook(ctx, ticker)
	if err != nil {
		SnapshotErrorsTotal.Inc()
		return nil, fmt.Errorf("top of book %q: %w", ticker, err)
	}

	lastPrice, volume24h := 0.0, 0.0
	if contract, err := s.cfg.Client.Contract(ctx, ticker); err == nil && contract != nil {
		lastPrice = float64(contract.LastPrice)
		volume24h = contract.Volume24h
	}

	snap := types.SnapshotFromTopOfBook(book, lastPrice, volume24h, nil)

	if s.cfg.Store != nil {
		if err := s.cfg.Store.Save(ctx, snap); err != nil {
			SnapshotErrorsTotal.Inc()
			return nil, fmt.Errorf("save snapshot %q: %w", ticker, err)
		}
	}

	SnapshotsTakenTotal.Inc()
	return snap, nil
}

// SnapshotMany snapshots each ticker in order, logging and skipping any
// individual failure so one bad ticker doesn't abort the whole cycle.
func (s *Service) SnapshotMany(ctx context.Context, tickers []string) ([]*types.Snapshot, error) {
	snaps := make([]*types.Snapshot, 0, len(tickers))
	for _, ticker := range tickers {
		snap, err := s.SnapshotOne(ctx, ticker)
		if err != nil {
			s.cfg.Logger.Warn("snapshot-failed", zap.String("ticker", ticker), zap.Error(err))
			continue
		}
		snaps = append(snaps, snap)
	}

	s.cfg.Logger.Debug("batch-snapshot-complete",
		zap.Int("total", len(tickers)),
		zap.Int("successful", len(snaps)))

	return snaps, nil
}

// History returns the ticker's snapshot history since the given instant.
func (s *Service) History(ctx context.Context, ticker string, since time.Time) ([]types.Snapshot, error) {
	if s.cfg.Store == nil {
		return nil, nil
	}
	return s.cfg.Store.History(ctx, ticker, since)
}

// Retain deletes snapshots older than cutoff and returns the number
// removed.
func (s *Service) Retain(ctx context.Context, cutoff time.Time) (int, error) {
	if s.cfg.Store == nil {
		return 0, nil
	}
	deleted, err := s.cfg.Store.Retain(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("retain snapshots before %s: %w", cutoff, err)
	}
	s.cfg.Logger.Info("snapshots-retained", zap.Time("cutoff", cutoff), zap.Int("deleted", deleted))
	return deleted, nil
}
