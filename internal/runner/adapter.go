package runner

import (
	"context"
	"time"

	"github.com/kalshi-odds/scanner/internal/storage"
	"github.com/kalshi-odds/scanner/pkg/types"
)

// snapshotStore adapts storage.Store's SnapshotRecord shape to the
// snapshotter.Store interface's types.Snapshot shape, so the same
// persistence backend serves both the append-only write path and the
// history reads the strategy/backtest pipeline needs.
type snapshotStore struct {
	store storage.Store
}

func newSnapshotStore(store storage.Store) *snapshotStore {
	return &snapshotStore{store: store}
}

// NewSnapshotStore exposes the adapter to callers outside this package
// (internal/app's wiring) that need to hand a storage.Store to
// snapshotter.New without duplicating the shape translation.
func NewSnapshotStore(store storage.Store) *snapshotStore {
	return newSnapshotStore(store)
}

func (s *snapshotStore) Save(ctx context.Context, snap *types.Snapshot) error {
	return s.store.SaveSnapshot(ctx, storage.SnapshotRecord{
		Ticker:         snap.Ticker,
		Timestamp:      snap.Timestamp,
		LastPrice:      int(snap.LastPrice),
		Bid:            snap.Bid,
		Ask:            snap.Ask,
		Mid:            snap.Mid,
		Spread:         snap.Spread,
		Volume24h:      snap.Volume24h,
		BidDepth:       snap.BidDepth,
		AskDepth:       snap.AskDepth,
		DepthImbalance: snap.DepthImbalance,
		OrderbookJSON:  snap.OrderbookJSON,
	})
}

func (s *snapshotStore) History(ctx context.Context, ticker string, since time.Time) ([]types.Snapshot, error) {
	records, err := s.store.SnapshotHistory(ctx, ticker, since)
	if err != nil {
		return nil, err
	}
	out := make([]types.Snapshot, len(records))
	for i, r := range records {
		out[i] = types.Snapshot{
			Ticker:         r.Ticker,
			Timestamp:      r.Timestamp,
			LastPrice:      float64(r.LastPrice),
			Bid:            r.Bid,
			Ask:            r.Ask,
			Mid:            r.Mid,
			Spread:         r.Spread,
			Volume24h:      r.Volume24h,
			BidDepth:       r.BidDepth,
			AskDepth:       r.AskDepth,
			DepthImbalance: r.DepthImbalance,
			OrderbookJSON:  r.OrderbookJSON,
		}
	}
	return out, nil
}

func (s *snapshotStore) Retain(ctx context.Context, cutoff time.Time) (int, error) {
	n, err := s.store.DeleteSnapshotsOlderThan(ctx, cutoff)
	return int(n), err
}
