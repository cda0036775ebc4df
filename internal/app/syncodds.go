package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/internal/aggregator"
	"github.com/kalshi-odds/scanner/pkg/types"
)

// SyncOdds fetches the aggregator's current odds for sport and persists
// every parsed quote, returning the count synced.
func (a *App) SyncOdds(ctx context.Context, sport string) (int, error) {
	quotes, err := a.aggregator.GetOdds(ctx, aggregator.GetOddsOptions{
		Sport:      sport,
		Regions:    "us",
		Markets:    "h2h",
		OddsFormat: types.OddsFormatAmerican,
	})
	if err != nil {
		return 0, fmt.Errorf("get odds for %s: %w", sport, err)
	}

	saved := 0
	for i := range quotes {
		if serr := a.store.SaveQuote(ctx, &quotes[i]); serr != nil {
			a.logger.Error("save-quote-failed", zap.String("event", quotes[i].EventID), zap.Error(serr))
			continue
		}
		saved++
	}

	a.logger.Info("sync-odds-complete", zap.String("sport", sport), zap.Int("quotes", saved))
	return saved, nil
}
