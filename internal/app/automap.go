package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/internal/matcher"
	"github.com/kalshi-odds/scanner/pkg/types"
)

// autoMapContractsTTL bounds how long a sport's contract listing is reused
// across auto-map runs: the exchange's contract catalogue for same-day
// markets changes slowly compared to odds, so refetching it on every scan
// tick in a `run --interval` loop is wasted work.
const autoMapContractsTTL = 10 * time.Minute

// autoMap runs the team-code auto-mapper for sport against the quotes just
// fetched this cycle, merges any newly matched mappings into the on-disk
// registry, and reloads the matcher so the rest of this cycle sees them.
// It never overwrites a manually curated entry for a contract the
// auto-mapper did not match this run.
func (a *App) autoMap(ctx context.Context, sport string, quotes []types.Quote) error {
	contracts, err := a.autoMapContracts(ctx, sport)
	if err != nil {
		return fmt.Errorf("list contracts for auto-map: %w", err)
	}

	events := buildAggregatorEvents(quotes)
	existing := a.currentMappingRegistry()

	updated := matcher.BuildMappings(sport, contracts, events, existing, a.logger)
	if !sameMappings(existing, updated) {
		if err := matcher.WriteMappings(a.cfg.MappingRegistryPath, updated); err != nil {
			return fmt.Errorf("write mapping registry: %w", err)
		}
		count, err := a.matcher.LoadMappings()
		if err != nil {
			return fmt.Errorf("reload mapping registry: %w", err)
		}

		a.logger.Info("auto-map-applied",
			zap.String("sport", sport), zap.Int("mappings", count))
	}

	if candidates := a.matcher.FuzzyCandidates(contracts, quotes); len(candidates) > 0 {
		a.logger.Info("auto-map-fuzzy-suggestions",
			zap.String("sport", sport), zap.Int("count", len(candidates)))
		for _, c := range candidates {
			a.logger.Info("fuzzy-candidate",
				zap.String("contract", c.ContractTicker), zap.String("event", c.EventID),
				zap.String("selection", c.Selection), zap.Float64("score", c.Score))
		}
	}

	return nil
}

// autoMapContracts returns the exchange's current contract listing for
// sport, served from a.cache when a fresh copy was fetched within
// autoMapContractsTTL.
func (a *App) autoMapContracts(ctx context.Context, sport string) ([]types.Contract, error) {
	cacheKey := "automap-contracts:" + sport
	if cached, ok := a.cache.Get(cacheKey); ok {
		if contracts, ok := cached.([]types.Contract); ok {
			return contracts, nil
		}
	}

	var contracts []types.Contract
	cursor := ""
	for page := 0; page < a.cfg.DiscoveryMaxPages; page++ {
		batch, next, err := a.exchange.ListContracts(ctx, a.cfg.DiscoveryPageSize, cursor)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, batch...)
		if next == "" {
			break
		}
		cursor = next
	}

	a.cache.Set(cacheKey, contracts, autoMapContractsTTL)
	return contracts, nil
}

// currentMappingRegistry snapshots the matcher's in-memory mappings back
// into the on-disk registry shape, so BuildMappings can merge against it.
func (a *App) currentMappingRegistry() types.MappingRegistry {
	keys := a.matcher.AllMarketKeys()
	registry := types.MappingRegistry{Markets: make([]types.MarketMapping, 0, len(keys))}
	for _, key := range keys {
		if mapping, ok := a.matcher.Mapping(key); ok {
			registry.Markets = append(registry.Markets, mapping)
		}
	}
	return registry
}

// buildAggregatorEvents groups quotes by event, taking the first two
// distinct selections seen as the event's two team names — sufficient for
// the auto-mapper's order-insensitive team-code match.
func buildAggregatorEvents(quotes []types.Quote) []matcher.AggregatorEvent {
	byEvent := make(map[string]*matcher.AggregatorEvent)
	order := make([]string, 0)

	for _, q := range quotes {
		ev, ok := byEvent[q.EventID]
		if !ok {
			ev = &matcher.AggregatorEvent{EventID: q.EventID, EventTitle: q.EventTitle}
			byEvent[q.EventID] = ev
			order = append(order, q.EventID)
		}
		switch {
		case ev.HomeTeam == "":
			ev.HomeTeam = q.Selection
		case ev.AwayTeam == "" && q.Selection != ev.HomeTeam:
			ev.AwayTeam = q.Selection
		}
	}

	events := make([]matcher.AggregatorEvent, 0, len(order))
	for _, id := range order {
		events = append(events, *byEvent[id])
	}
	return events
}

func sameMappings(a, b types.MappingRegistry) bool {
	if len(a.Markets) != len(b.Markets) {
		return false
	}
	byKey := make(map[string]types.MarketMapping, len(a.Markets))
	for _, m := range a.Markets {
		byKey[m.MarketKey] = m
	}
	for _, m := range b.Markets {
		prev, ok := byKey[m.MarketKey]
		if !ok || prev != m {
			return false
		}
	}
	return true
}
