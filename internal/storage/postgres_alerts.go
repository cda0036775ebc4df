package storage

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/pkg/types"
)

// SaveAlert inserts an immutable alert row.
func (p *PostgresStore) SaveAlert(ctx context.Context, alert *types.Alert) error {
	raw, err := json.Marshal(alert)
	if err != nil {
		return &types.StorageError{Op: "save-alert", Err: err}
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO alerts (
			alert_id, ts, market_key, direction, edge_pct, edge_bps,
			confidence, confidence_score, contract_id, bookmaker, raw_json
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (alert_id) DO NOTHING
	`,
		alert.AlertID, alert.Timestamp, alert.MarketKey, string(alert.Direction),
		alert.EdgePct, alert.EdgeBps, string(alert.Confidence), alert.ConfidenceScore,
		alert.ContractID, alert.Bookmaker, raw,
	)
	if err != nil {
		p.logger.Error("save-alert-failed", zap.String("alert-id", alert.AlertID), zap.Error(err))
		return &types.StorageError{Op: "save-alert", Err: err}
	}
	return nil
}
