package storage

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/pkg/types"
)

// SaveQuote inserts an append-only quote row.
func (p *PostgresStore) SaveQuote(ctx context.Context, quote *types.Quote) error {
	raw, err := json.Marshal(quote)
	if err != nil {
		return &types.StorageError{Op: "save-quote", Err: err}
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO quotes (source, bookmaker, event, market_type, selection, odds_format, odds_value, ts, raw_json)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		quote.Source, quote.Bookmaker, quote.EventID, quote.MarketType,
		quote.Selection, string(quote.OddsFormat), quote.OddsValue, quote.CapturedAt, raw,
	)
	if err != nil {
		p.logger.Error("save-quote-failed", zap.String("event-id", quote.EventID), zap.Error(err))
		return &types.StorageError{Op: "save-quote", Err: err}
	}
	return nil
}
