package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/pkg/types"
)

// ConsoleStore implements Store by pretty-printing every write to
// standard output. Used for dependency-free local runs where no
// PostgreSQL instance is configured.
type ConsoleStore struct {
	logger *zap.Logger
}

// NewConsoleStore constructs a ConsoleStore.
func NewConsoleStore(logger *zap.Logger) *ConsoleStore {
	logger.Info("console-store-initialized")
	return &ConsoleStore{logger: logger}
}

func (c *ConsoleStore) SaveOrder(ctx context.Context, order *types.Order) error {
	fmt.Printf("[order] %s %s %s x%d @%d¢ status=%s\n",
		order.Ticker, order.Side, order.StrategyName, order.Quantity, order.Price, order.Status)
	return nil
}

func (c *ConsoleStore) SaveFill(ctx context.Context, fill *types.Fill) error {
	fmt.Printf("[fill] %s %s x%d @%d¢\n", fill.Ticker, fill.Side, fill.Quantity, fill.Price)
	return nil
}

func (c *ConsoleStore) SaveSnapshot(ctx context.Context, snap SnapshotRecord) error {
	fmt.Printf("[snapshot] %s mid=%.2f spread=%.2f vol24h=%.0f\n", snap.Ticker, snap.Mid, snap.Spread, snap.Volume24h)
	return nil
}

func (c *ConsoleStore) SaveDailyPnL(ctx context.Context, pnl *types.DailyPnL) error {
	total := pnl.TotalPnL()
	fmt.Printf("[daily-pnl] %s total=%s placed=%d filled=%d\n", pnl.Date, total.String(), pnl.TradesPlaced, pnl.TradesFilled)
	return nil
}

func (c *ConsoleStore) SaveContract(ctx context.Context, contract *types.Contract) error {
	fmt.Printf("[contract] %s %s status=%s last=%d¢\n", contract.Ticker, contract.Title, contract.Status, contract.LastPrice)
	return nil
}

func (c *ConsoleStore) SaveQuote(ctx context.Context, quote *types.Quote) error {
	fmt.Printf("[quote] %s %s %s %s=%.2f\n", quote.Bookmaker, quote.EventID, quote.Selection, quote.OddsFormat, quote.OddsValue)
	return nil
}

func (c *ConsoleStore) SaveAlert(ctx context.Context, alert *types.Alert) error {
	fmt.Printf("[alert] %s %s %s edge=%.1fbps confidence=%s\n",
		alert.MarketKey, alert.Direction, alert.Bookmaker, alert.EdgeBps, alert.Confidence)
	return nil
}

func (c *ConsoleStore) SnapshotHistory(ctx context.Context, ticker string, since time.Time) ([]SnapshotRecord, error) {
	return nil, nil
}

func (c *ConsoleStore) DeleteSnapshotsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	c.logger.Info("console-store-retention-noop", zap.Time("cutoff", cutoff))
	return 0, nil
}

// Close is a no-op for console storage.
func (c *ConsoleStore) Close() error {
	c.logger.Info("closing-console-store")
	return nil
}
