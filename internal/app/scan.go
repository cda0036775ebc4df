package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/internal/aggregator"
	"github.com/kalshi-odds/scanner/internal/notify"
	"github.com/kalshi-odds/scanner/internal/opportunity"
	"github.com/kalshi-odds/scanner/pkg/types"
)

// Scan runs one dislocation-detection cycle for sport: fetch current
// bookmaker odds, resolve each quote to its mapped exchange contract,
// compare against the contract's top-of-book, and aggregate the resulting
// alerts into ranked opportunities. The result replaces LastOpportunities
// and is written to the last-opportunities scratch file for detail/execute
// to read back by index.
func (a *App) Scan(ctx context.Context, sport string) ([]types.Opportunity, error) {
	now := time.Now().UTC()

	quotes, err := a.aggregator.GetOdds(ctx, aggregator.GetOddsOptions{
		Sport:      sport,
		Regions:    "us",
		Markets:    "h2h",
		OddsFormat: types.OddsFormatAmerican,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch odds for %s: %w", sport, err)
	}

	for i := range quotes {
		if serr := a.store.SaveQuote(ctx, &quotes[i]); serr != nil {
			a.logger.Error("save-quote-failed", zap.String("event", quotes[i].EventID), zap.Error(serr))
		}
	}

	if a.cfg.AutoMapEnabled {
		if aerr := a.autoMap(ctx, sport, quotes); aerr != nil {
			a.logger.Error("auto-map-failed", zap.String("sport", sport), zap.Error(aerr))
		}
	}

	byMarketKey := make(map[string][]types.Quote)
	for _, q := range quotes {
		mapping, ok := a.matcher.ResolveByAggregator(q.EventID, q.MarketType, q.Selection)
		if !ok {
			continue
		}
		byMarketKey[mapping.MarketKey] = append(byMarketKey[mapping.MarketKey], q)
	}

	var (
		alerts            []types.Alert
		exchangeLiquidity = make(map[string]int)
	)
	for marketKey, marketQuotes := range byMarketKey {
		mapping, ok := a.matcher.Mapping(marketKey)
		if !ok {
			continue
		}

		book, berr := a.exchange.TopOfBook(ctx, mapping.Exchange.ContractTicker)
		if berr != nil {
			a.logger.Error("top-of-book-failed",
				zap.String("market-key", marketKey), zap.String("ticker", mapping.Exchange.ContractTicker), zap.Error(berr))
			continue
		}

		exchangeLiquidity[book.Ticker] = book.YesBidSize + book.YesAskSize

		found := a.scanner.Compare(marketKey, book, marketQuotes, now)
		alerts = append(alerts, found...)
	}

	for i := range alerts {
		if serr := a.store.SaveAlert(ctx, &alerts[i]); serr != nil {
			a.logger.Error("save-alert-failed", zap.String("alert-id", alerts[i].AlertID), zap.Error(serr))
		}
		if a.cfg.AlertLogPath != "" {
			if jerr := notify.AppendJSONL(a.cfg.AlertLogPath, alerts[i]); jerr != nil {
				a.logger.Error("append-alert-log-failed", zap.Error(jerr))
			}
		}
	}

	opportunities := opportunity.Aggregate(alerts, exchangeLiquidity, kalshiDeepLink)
	a.setLastOpportunities(opportunities)
	a.healthChecker.RecordScan(now)

	if werr := a.writeLastOpportunities(opportunities); werr != nil {
		a.logger.Error("write-last-opportunities-failed", zap.Error(werr))
	}

	a.logger.Info("scan-complete",
		zap.String("sport", sport),
		zap.Int("quotes", len(quotes)),
		zap.Int("alerts", len(alerts)),
		zap.Int("opportunities", len(opportunities)))

	if len(opportunities) > 0 {
		a.notifier.Send("Dislocations Found",
			fmt.Sprintf("%d opportunities ranked, top edge %.1f bps", len(opportunities), opportunities[0].EdgeBps),
			notify.LevelSuccess)
	}

	return opportunities, nil
}

// kalshiDeepLink builds the operator-facing market page URL for a ticker,
// distinct from the trading API host the exchange client talks to.
func kalshiDeepLink(ticker string) string {
	return fmt.Sprintf("https://kalshi.com/markets/%s", strings.ToLower(ticker))
}
