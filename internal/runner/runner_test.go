package runner

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/internal/backtest"
	"github.com/kalshi-odds/scanner/internal/discovery"
	"github.com/kalshi-odds/scanner/internal/exchange"
	"github.com/kalshi-odds/scanner/internal/notify"
	"github.com/kalshi-odds/scanner/internal/ordermanager"
	"github.com/kalshi-odds/scanner/internal/risk"
	"github.com/kalshi-odds/scanner/internal/snapshotter"
	"github.com/kalshi-odds/scanner/internal/storage"
	"github.com/kalshi-odds/scanner/internal/strategy"
	"github.com/kalshi-odds/scanner/pkg/types"
)

// fakeExchange satisfies discovery.ExchangeClient, snapshotter.Client, and
// ordermanager.ExchangeClient off one fixed contract/book pair, with a
// per-instance book override so tests can walk its history forward.
type fakeExchange struct {
	mu        sync.Mutex
	contracts []types.Contract
	books     map[string]*types.TopOfBook
	orderSeq  int
}

func newFakeExchange(ticker string, closeTime time.Time) *fakeExchange {
	return &fakeExchange{
		contracts: []types.Contract{{
			Ticker:    ticker,
			Category:  "sports",
			Status:    types.ContractStatusActive,
			CloseTime: closeTime,
			LastPrice: 55,
			Volume24h: 5000,
		}},
		books: map[string]*types.TopOfBook{
			ticker: {
				Ticker:     ticker,
				YesBid:     0.54,
				YesAsk:     0.56,
				YesBidSize: 200,
				YesAskSize: 180,
				CapturedAt: closeTime.Add(-2 * time.Hour),
			},
		},
	}
}

func (f *fakeExchange) ListContracts(ctx context.Context, limit int, cursor string) ([]types.Contract, string, error) {
	if cursor != "" {
		return nil, "", nil
	}
	return f.contracts, "", nil
}

func (f *fakeExchange) Contract(ctx context.Context, ticker string) (*types.Contract, error) {
	for _, c := range f.contracts {
		if c.Ticker == ticker {
			cp := c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeExchange) TopOfBook(ctx context.Context, ticker string) (*types.TopOfBook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	book, ok := f.books[ticker]
	if !ok {
		return nil, nil
	}
	cp := *book
	return &cp, nil
}

func (f *fakeExchange) PlaceOrder(ctx context.Context, req exchange.PlaceOrderRequest) (*exchange.OrderAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderSeq++
	return &exchange.OrderAck{ExchangeOrderID: "fake-order", Status: "resting"}, nil
}

func (f *fakeExchange) CancelOrder(ctx context.Context, exchangeOrderID string) error { return nil }

func (f *fakeExchange) GetOrder(ctx context.Context, exchangeOrderID string) (*exchange.ExchangeOrderStatus, error) {
	return &exchange.ExchangeOrderStatus{Status: "resting"}, nil
}

// fakeStore implements storage.Store in memory, recording everything saved
// so the test can assert on the end state without a database.
type fakeStore struct {
	mu        sync.Mutex
	orders    []*types.Order
	fills     []*types.Fill
	snapshots []storage.SnapshotRecord
	pnls      []*types.DailyPnL
	history   []storage.SnapshotRecord
}

func (s *fakeStore) SaveOrder(ctx context.Context, order *types.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, order)
	return nil
}

func (s *fakeStore) SaveFill(ctx context.Context, fill *types.Fill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fills = append(s.fills, fill)
	return nil
}

func (s *fakeStore) SaveSnapshot(ctx context.Context, snap storage.SnapshotRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snap)
	return nil
}

func (s *fakeStore) SnapshotHistory(ctx context.Context, ticker string, since time.Time) ([]storage.SnapshotRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history, nil
}

func (s *fakeStore) SaveDailyPnL(ctx context.Context, pnl *types.DailyPnL) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pnls = append(s.pnls, pnl)
	return nil
}

func (s *fakeStore) SaveContract(ctx context.Context, contract *types.Contract) error { return nil }
func (s *fakeStore) SaveQuote(ctx context.Context, quote *types.Quote) error           { return nil }
func (s *fakeStore) SaveAlert(ctx context.Context, alert *types.Alert) error           { return nil }
func (s *fakeStore) DeleteSnapshotsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}
func (s *fakeStore) Close() error { return nil }

// alwaysYesStrategy always emits a high-confidence YES signal, used to drive
// a full cycle through to order placement deterministically.
type alwaysYesStrategy struct{}

func (alwaysYesStrategy) Name() string        { return "always-yes" }
func (alwaysYesStrategy) Description() string { return "test fixture: always signals YES" }

func (alwaysYesStrategy) Evaluate(contract *types.Contract, features types.FeatureSnapshot, history []types.Snapshot) types.Signal {
	return types.Signal{
		Ticker:        contract.Ticker,
		StrategyName:  "always-yes",
		Side:          types.OrderSideYes,
		Confidence:    0.9,
		FairProb:      0.65,
		MarketProb:    0.55,
		Edge:          0.1,
		ExpectedValue: 0.2,
		EntryPrice:    55,
	}
}

func (alwaysYesStrategy) EvaluateSnapshot(snap types.Snapshot, history []types.Snapshot) (types.Signal, bool) {
	return types.Signal{
		Ticker:        snap.Ticker,
		StrategyName:  "always-yes",
		Side:          types.OrderSideYes,
		Confidence:    0.9,
		FairProb:      0.65,
		MarketProb:    0.55,
		Edge:          0.1,
		ExpectedValue: 0.2,
		EntryPrice:    55,
	}, true
}

func syntheticHistory(ticker string, ref time.Time, n int) []storage.SnapshotRecord {
	out := make([]storage.SnapshotRecord, 0, n)
	for i := 0; i < n; i++ {
		ts := ref.Add(-time.Duration(n-i) * time.Hour)
		mid := 50.0 + float64(i%5)
		out = append(out, storage.SnapshotRecord{
			Ticker: ticker, Timestamp: ts, LastPrice: int(mid), Mid: mid,
			Bid: mid - 1, Ask: mid + 1, Spread: 2, Volume24h: 1000,
			BidDepth: 100, AskDepth: 100,
		})
	}
	return out
}

func newTestRunner(t *testing.T, exch *fakeExchange, store *fakeStore, mode types.TradingMode) *Runner {
	t.Helper()
	logger := zap.NewNop()

	reg := strategy.NewRegistry()
	reg.Register(alwaysYesStrategy{})

	riskGate := risk.New(risk.Config{
		MaxTradesPerDay: 10, MinExpectedValue: 0.01, ConfidenceThreshold: 0.5,
		MinWinRate: 0.5, MinBacktestSamples: 20, UseKellySizing: false,
		DefaultPositionSizeDollars: 50,
	})

	return New(Config{
		Discovery: discovery.New(discovery.Config{Client: exch, Logger: logger, MaxSpreadCents: 10}),
		Snapshotter: snapshotter.New(snapshotter.Config{
			Client: exch, Store: newSnapshotStore(store), Logger: logger,
		}),
		Strategies: reg,
		Backtest: backtest.New(backtest.Config{
			MinBacktestSamples: 20, MinWinRate: 0.5, MaxDrawdown: 0.9,
		}),
		Risk: riskGate,
		Orders: ordermanager.New(ordermanager.Config{
			Mode: mode, Client: exch, Risk: riskGate, Logger: logger,
			FillSimulator: ordermanager.NewPaperFillSimulator(1.0, 1),
		}),
		Store:                      store,
		Notifier:                   notify.New(notify.Config{Logger: logger}),
		Logger:                     logger,
		Mode:                       mode,
		MaxTradesPerDay:            10,
		ConfidenceThreshold:        0.5,
		MinExpectedValue:           0.01,
		MinWinRate:                 0.5,
		MinBacktestSamples:         20,
		DefaultPositionSizeDollars: 50,
	})
}

func TestRunner_RunCycle_PlacesAndFillsOrder(t *testing.T) {
	ref := time.Date(2026, 7, 29, 18, 0, 0, 0, time.UTC)
	exch := newFakeExchange("KXTEST-26JUL29", ref.Add(6*time.Hour))
	store := &fakeStore{history: syntheticHistory("KXTEST-26JUL29", ref, 30)}

	r := newTestRunner(t, exch, store, types.TradingModePaper)

	summary, err := r.RunCycle(context.Background(), ref)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if summary.MarketsDiscovered != 1 || summary.MarketsTradeable != 1 {
		t.Fatalf("expected 1 discovered/tradeable market, got %+v", summary)
	}
	if summary.SignalsGenerated == 0 {
		t.Fatalf("expected at least one signal, got %+v", summary)
	}
	if summary.SignalsValid == 0 {
		t.Fatalf("expected at least one valid signal, got %+v", summary)
	}
	if summary.OrdersPlaced == 0 {
		t.Fatalf("expected at least one order placed, got %+v", summary)
	}
	if summary.OrdersFilled == 0 {
		t.Fatalf("expected the fill-probability-1.0 simulator to fill the order, got %+v", summary)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.orders) != summary.OrdersPlaced {
		t.Errorf("expected %d saved orders, got %d", summary.OrdersPlaced, len(store.orders))
	}
	if len(store.fills) != summary.OrdersFilled {
		t.Errorf("expected %d saved fills, got %d", summary.OrdersFilled, len(store.fills))
	}
	if len(store.pnls) != 1 {
		t.Errorf("expected one daily PnL snapshot saved, got %d", len(store.pnls))
	}
}

func TestRunner_RunCycle_NoHistorySkipsBacktestValidation(t *testing.T) {
	ref := time.Date(2026, 7, 29, 18, 0, 0, 0, time.UTC)
	exch := newFakeExchange("KXTEST-26JUL29", ref.Add(6*time.Hour))
	store := &fakeStore{} // no history at all

	r := newTestRunner(t, exch, store, types.TradingModePaper)

	summary, err := r.RunCycle(context.Background(), ref)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if summary.SignalsGenerated == 0 {
		t.Fatalf("expected the strategy to still fire without history, got %+v", summary)
	}
	if summary.SignalsValid != 0 {
		t.Fatalf("expected zero valid signals with insufficient backtest history, got %+v", summary)
	}
	if summary.OrdersPlaced != 0 {
		t.Fatalf("expected no orders placed without backtest validation, got %+v", summary)
	}
}

func TestRunner_RunCycle_EmptyDiscoveryStillRunsCleanup(t *testing.T) {
	ref := time.Date(2026, 7, 29, 18, 0, 0, 0, time.UTC)
	exch := newFakeExchange("KXTEST-26JUL29", ref.Add(6*time.Hour))
	exch.contracts = nil // ListContracts now returns an empty, non-erroring page
	store := &fakeStore{}

	r := newTestRunner(t, exch, store, types.TradingModeDryRun)

	summary, err := r.RunCycle(context.Background(), ref)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if summary.MarketsDiscovered != 0 {
		t.Fatalf("expected zero markets discovered, got %d", summary.MarketsDiscovered)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.pnls) != 1 {
		t.Fatalf("expected cleanup to still persist a daily PnL snapshot, got %d", len(store.pnls))
	}
}

func TestRunner_RunSnapshotOnly(t *testing.T) {
	ref := time.Date(2026, 7, 29, 18, 0, 0, 0, time.UTC)
	exch := newFakeExchange("KXTEST-26JUL29", ref.Add(6*time.Hour))
	store := &fakeStore{}

	r := newTestRunner(t, exch, store, types.TradingModeDryRun)

	if err := r.RunSnapshotOnly(context.Background(), []string{"KXTEST-26JUL29"}); err != nil {
		t.Fatalf("RunSnapshotOnly: %v", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.snapshots) != 1 {
		t.Fatalf("expected one snapshot saved, got %d", len(store.snapshots))
	}
}
