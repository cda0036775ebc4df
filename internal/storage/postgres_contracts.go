package storage

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/pkg/types"
)

// SaveContract upserts a contract by ticker, the exchange-wide identity.
func (p *PostgresStore) SaveContract(ctx context.Context, contract *types.Contract) error {
	raw, err := json.Marshal(contract)
	if err != nil {
		return &types.StorageError{Op: "save-contract", Err: err}
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO contracts (ticker, event, title, outcome_side, close_time, status, last_price, fetched_at, raw_json)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (ticker) DO UPDATE SET
			event = EXCLUDED.event,
			title = EXCLUDED.title,
			outcome_side = EXCLUDED.outcome_side,
			close_time = EXCLUDED.close_time,
			status = EXCLUDED.status,
			last_price = EXCLUDED.last_price,
			fetched_at = EXCLUDED.fetched_at,
			raw_json = EXCLUDED.raw_json
	`,
		contract.Ticker, contract.EventTicker, contract.Title, string(contract.OutcomeSide),
		contract.CloseTime, string(contract.Status), contract.LastPrice, contract.FetchedAt, raw,
	)
	if err != nil {
		p.logger.Error("save-contract-failed", zap.String("ticker", contract.Ticker), zap.Error(err))
		return &types.StorageError{Op: "save-contract", Err: err}
	}
	return nil
}
