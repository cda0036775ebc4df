package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/pkg/types"
)

// SaveOrder upserts order by ID and reports a constraint violation on
// idempotency_key as types.ErrDuplicateIdempotencyKey: a genuine duplicate
// is treated as success for the already-persisted order, not a failure.
func (p *PostgresStore) SaveOrder(ctx context.Context, order *types.Order) error {
	var avgFillPrice sql.NullFloat64
	if order.AverageFillPrice != nil {
		f, _ := order.AverageFillPrice.Float64()
		avgFillPrice = sql.NullFloat64{Float64: f, Valid: true}
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO orders (
			id, idempotency_key, exchange_order_id, ticker, side, type, price,
			quantity, strategy, signal_confidence, expected_value, status,
			filled_quantity, average_fill_price, created_at, submitted_at,
			filled_at, error_message
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		ON CONFLICT (id) DO UPDATE SET
			exchange_order_id = EXCLUDED.exchange_order_id,
			status = EXCLUDED.status,
			filled_quantity = EXCLUDED.filled_quantity,
			average_fill_price = EXCLUDED.average_fill_price,
			submitted_at = EXCLUDED.submitted_at,
			filled_at = EXCLUDED.filled_at,
			error_message = EXCLUDED.error_message
	`,
		order.ID, order.IdempotencyKey, order.ExchangeOrderID, order.Ticker,
		string(order.Side), string(order.Type), order.Price, order.Quantity,
		order.StrategyName, order.SignalConfidence, order.ExpectedValue,
		string(order.Status), order.FilledQuantity, avgFillPrice,
		order.CreatedAt, order.SubmittedAt, order.FilledAt, order.ErrorMessage,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == "orders_idempotency_key_key" {
			return &types.StorageError{Op: "save-order", Err: types.ErrDuplicateIdempotencyKey}
		}
		p.logger.Error("save-order-failed", zap.String("order-id", order.ID), zap.Error(err))
		return &types.StorageError{Op: "save-order", Err: err}
	}
	return nil
}
