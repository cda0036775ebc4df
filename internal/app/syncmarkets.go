package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// SyncMarkets paginates the exchange's full contract listing and persists
// each page, returning the total contract count synced.
func (a *App) SyncMarkets(ctx context.Context) (int, error) {
	total := 0
	cursor := ""
	for page := 0; page < a.cfg.DiscoveryMaxPages; page++ {
		contracts, next, err := a.exchange.ListContracts(ctx, a.cfg.DiscoveryPageSize, cursor)
		if err != nil {
			return total, fmt.Errorf("list contracts (page %d): %w", page, err)
		}

		for i := range contracts {
			if serr := a.store.SaveContract(ctx, &contracts[i]); serr != nil {
				a.logger.Error("save-contract-failed", zap.String("ticker", contracts[i].Ticker), zap.Error(serr))
				continue
			}
			total++
		}

		if next == "" {
			break
		}
		cursor = next
	}

	a.logger.Info("sync-markets-complete", zap.Int("contracts", total))
	return total, nil
}
