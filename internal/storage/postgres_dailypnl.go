package storage

import (
	"context"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/pkg/types"
)

// SaveDailyPnL upserts the day's summary row, keyed by calendar date.
func (p *PostgresStore) SaveDailyPnL(ctx context.Context, pnl *types.DailyPnL) error {
	markets := make([]string, 0, len(pnl.MarketsTraded))
	for ticker := range pnl.MarketsTraded {
		markets = append(markets, ticker)
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO daily_pnl (
			date, realized, unrealized, fees, placed, filled, won, lost,
			peak_exposure, ending_exposure, markets_traded
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (date) DO UPDATE SET
			realized = EXCLUDED.realized,
			unrealized = EXCLUDED.unrealized,
			fees = EXCLUDED.fees,
			placed = EXCLUDED.placed,
			filled = EXCLUDED.filled,
			won = EXCLUDED.won,
			lost = EXCLUDED.lost,
			peak_exposure = EXCLUDED.peak_exposure,
			ending_exposure = EXCLUDED.ending_exposure,
			markets_traded = EXCLUDED.markets_traded
	`,
		pnl.Date, pnl.Realized, pnl.Unrealized, pnl.Fees, pnl.TradesPlaced,
		pnl.TradesFilled, pnl.TradesWon, pnl.TradesLost, pnl.PeakExposure,
		pnl.EndingExposure, pq.Array(markets),
	)
	if err != nil {
		p.logger.Error("save-daily-pnl-failed", zap.String("date", pnl.Date), zap.Error(err))
		return &types.StorageError{Op: "save-daily-pnl", Err: err}
	}
	return nil
}
