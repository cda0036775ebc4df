package storage

import (
	"context"

	"go.uber.org/zap"

	"github.com/google/uuid"
	"github.com/kalshi-odds/scanner/pkg/types"
)

// SaveFill inserts an append-only fill row.
func (p *PostgresStore) SaveFill(ctx context.Context, fill *types.Fill) error {
	id := fill.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO fills (id, order_id, exchange_trade_id, ticker, side, price, quantity, notional, fees, ts)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		id, fill.OrderID, fill.ExchangeTradeID, fill.Ticker, string(fill.Side),
		fill.Price, fill.Quantity, fill.Notional, fill.Fees, fill.Timestamp,
	)
	if err != nil {
		p.logger.Error("save-fill-failed", zap.String("order-id", fill.OrderID), zap.Error(err))
		return &types.StorageError{Op: "save-fill", Err: err}
	}
	return nil
}
