package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/pkg/types"
)

// SaveSnapshot inserts an append-only top-of-book observation.
func (p *PostgresStore) SaveSnapshot(ctx context.Context, snap SnapshotRecord) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO snapshots (
			ticker, ts, last_price, bid, ask, mid, spread, volume_24h,
			bid_depth, ask_depth, depth_imbalance, orderbook_json
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		snap.Ticker, snap.Timestamp, snap.LastPrice, snap.Bid, snap.Ask,
		snap.Mid, snap.Spread, snap.Volume24h, snap.BidDepth, snap.AskDepth,
		snap.DepthImbalance, snap.OrderbookJSON,
	)
	if err != nil {
		p.logger.Error("save-snapshot-failed", zap.String("ticker", snap.Ticker), zap.Error(err))
		return &types.StorageError{Op: "save-snapshot", Err: err}
	}
	return nil
}

// SnapshotHistory returns ticker's snapshot rows captured at or after since,
// ordered oldest first, for the backtest harness to replay.
func (p *PostgresStore) SnapshotHistory(ctx context.Context, ticker string, since time.Time) ([]SnapshotRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT ticker, ts, last_price, bid, ask, mid, spread, volume_24h,
			bid_depth, ask_depth, depth_imbalance, orderbook_json
		FROM snapshots
		WHERE ticker = $1 AND ts >= $2
		ORDER BY ts ASC
	`, ticker, since)
	if err != nil {
		p.logger.Error("snapshot-history-query-failed", zap.String("ticker", ticker), zap.Error(err))
		return nil, &types.StorageError{Op: "snapshot-history", Err: err}
	}
	defer rows.Close()

	var history []SnapshotRecord
	for rows.Next() {
		var rec SnapshotRecord
		if err := rows.Scan(&rec.Ticker, &rec.Timestamp, &rec.LastPrice, &rec.Bid, &rec.Ask,
			&rec.Mid, &rec.Spread, &rec.Volume24h, &rec.BidDepth, &rec.AskDepth,
			&rec.DepthImbalance, &rec.OrderbookJSON); err != nil {
			return nil, &types.StorageError{Op: "snapshot-history", Err: err}
		}
		history = append(history, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.StorageError{Op: "snapshot-history", Err: err}
	}
	return history, nil
}

// DeleteSnapshotsOlderThan implements the retention_days policy: rows
// captured strictly before cutoff are removed on demand.
func (p *PostgresStore) DeleteSnapshotsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := p.db.ExecContext(ctx, `DELETE FROM snapshots WHERE ts < $1`, cutoff)
	if err != nil {
		p.logger.Error("delete-snapshots-failed", zap.Error(err))
		return 0, &types.StorageError{Op: "delete-snapshots", Err: err}
	}
	return result.RowsAffected()
}
