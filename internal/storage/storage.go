// Package storage persists the system's relational state: orders, fills,
// snapshots, daily P&L, contracts, quotes, and alerts under one schema.
// Two implementations exist, selected by config.StorageMode: PostgresStore
// for durable deployments and ConsoleStore for dependency-free local runs.
package storage

import (
	"context"
	"time"

	"github.com/kalshi-odds/scanner/pkg/types"
)

// SnapshotRecord is one persisted top-of-book observation for a ticker.
type SnapshotRecord struct {
	Ticker         string
	Timestamp      time.Time
	LastPrice      int
	Bid            float64
	Ask            float64
	Mid            float64
	Spread         float64
	Volume24h      float64
	BidDepth       int
	AskDepth       int
	DepthImbalance float64
	OrderbookJSON  []byte
}

// Store is the persistence boundary every aggregate root in the system
// writes through.
type Store interface {
	SaveOrder(ctx context.Context, order *types.Order) error
	SaveFill(ctx context.Context, fill *types.Fill) error
	SaveSnapshot(ctx context.Context, snap SnapshotRecord) error

	// SnapshotHistory returns every snapshot for ticker captured at or after
	// since, ordered oldest first.
	SnapshotHistory(ctx context.Context, ticker string, since time.Time) ([]SnapshotRecord, error)
	SaveDailyPnL(ctx context.Context, pnl *types.DailyPnL) error
	SaveContract(ctx context.Context, contract *types.Contract) error
	SaveQuote(ctx context.Context, quote *types.Quote) error
	SaveAlert(ctx context.Context, alert *types.Alert) error

	// DeleteSnapshotsOlderThan removes snapshot rows captured before cutoff,
	// implementing the retention_days policy, and returns the row count
	// removed.
	DeleteSnapshotsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	Close() error
}
