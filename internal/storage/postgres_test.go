package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/pkg/types"
)

func testOrder() *types.Order {
	avg := decimal.NewFromInt(55)
	now := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	return &types.Order{
		ID:               "order-1",
		IdempotencyKey:   "2026-07-29|KXTICKER|strat|yes",
		ExchangeOrderID:  "ex-1",
		Ticker:           "KXTICKER",
		Side:             types.OrderSideYes,
		Type:             types.OrderTypeLimit,
		Price:            55,
		Quantity:         10,
		StrategyName:     "strat",
		SignalConfidence: 0.9,
		ExpectedValue:    1.5,
		Status:           types.OrderStatusFilled,
		FilledQuantity:   10,
		AverageFillPrice: &avg,
		CreatedAt:        now,
	}
}

func TestPostgresStore_SaveOrderUpsert(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := &PostgresStore{db: db, logger: logger}
	order := testOrder()

	mock.ExpectExec("INSERT INTO orders").
		WithArgs(
			order.ID, order.IdempotencyKey, order.ExchangeOrderID, order.Ticker,
			string(order.Side), string(order.Type), order.Price, order.Quantity,
			order.StrategyName, order.SignalConfidence, order.ExpectedValue,
			string(order.Status), order.FilledQuantity, sqlmock.AnyArg(),
			order.CreatedAt, order.SubmittedAt, order.FilledAt, order.ErrorMessage,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.SaveOrder(context.Background(), order); err != nil {
		t.Fatalf("SaveOrder: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStore_SaveOrderDuplicateIdempotencyKeyIsSuccess(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := &PostgresStore{db: db, logger: logger}
	order := testOrder()

	mock.ExpectExec("INSERT INTO orders").
		WithArgs(
			order.ID, order.IdempotencyKey, order.ExchangeOrderID, order.Ticker,
			string(order.Side), string(order.Type), order.Price, order.Quantity,
			order.StrategyName, order.SignalConfidence, order.ExpectedValue,
			string(order.Status), order.FilledQuantity, sqlmock.AnyArg(),
			order.CreatedAt, order.SubmittedAt, order.FilledAt, order.ErrorMessage,
		).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "orders_idempotency_key_key"})

	err = store.SaveOrder(context.Background(), order)
	if err == nil {
		t.Fatal("expected wrapped error, got nil")
	}
	if !types.IsDuplicateKey(err) {
		t.Errorf("expected IsDuplicateKey(err) true, got false for %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStore_SaveOrderOtherDBErrorIsNotDuplicate(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := &PostgresStore{db: db, logger: logger}
	order := testOrder()

	mock.ExpectExec("INSERT INTO orders").
		WithArgs(
			order.ID, order.IdempotencyKey, order.ExchangeOrderID, order.Ticker,
			string(order.Side), string(order.Type), order.Price, order.Quantity,
			order.StrategyName, order.SignalConfidence, order.ExpectedValue,
			string(order.Status), order.FilledQuantity, sqlmock.AnyArg(),
			order.CreatedAt, order.SubmittedAt, order.FilledAt, order.ErrorMessage,
		).
		WillReturnError(sqlmock.ErrCancelled)

	err = store.SaveOrder(context.Background(), order)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if types.IsDuplicateKey(err) {
		t.Error("expected IsDuplicateKey(err) false for a non-constraint error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStore_SaveFill(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := &PostgresStore{db: db, logger: logger}
	fill := &types.Fill{
		ID:              "fill-1",
		OrderID:         "order-1",
		ExchangeTradeID: "trade-1",
		Ticker:          "KXTICKER",
		Side:            types.OrderSideYes,
		Price:           56,
		Quantity:        10,
		Notional:        decimal.NewFromFloat(5.6),
		Fees:            decimal.Zero,
		Timestamp:       time.Date(2026, 7, 29, 12, 5, 0, 0, time.UTC),
	}

	mock.ExpectExec("INSERT INTO fills").
		WithArgs(fill.ID, fill.OrderID, fill.ExchangeTradeID, fill.Ticker,
			string(fill.Side), fill.Price, fill.Quantity, fill.Notional, fill.Fees, fill.Timestamp).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.SaveFill(context.Background(), fill); err != nil {
		t.Fatalf("SaveFill: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStore_SaveContractUpsert(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := &PostgresStore{db: db, logger: logger}
	contract := &types.Contract{
		Ticker:      "KXTICKER",
		EventTicker: "KXEVENT",
		Title:       "Will X happen?",
		OutcomeSide: types.OrderSideYes,
		Status:      types.ContractStatusActive,
		CloseTime:   time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC),
		LastPrice:   55,
		FetchedAt:   time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec("INSERT INTO contracts").
		WithArgs(
			contract.Ticker, contract.EventTicker, contract.Title, string(contract.OutcomeSide),
			contract.CloseTime, string(contract.Status), contract.LastPrice, contract.FetchedAt,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.SaveContract(context.Background(), contract); err != nil {
		t.Fatalf("SaveContract: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStore_SaveQuote(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := &PostgresStore{db: db, logger: logger}
	quote := &types.Quote{
		Source:      "the-odds-api",
		Bookmaker:   "draftkings",
		EventID:     "evt-1",
		MarketType:  "h2h",
		Selection:   "Team A",
		OddsFormat:  types.OddsFormatAmerican,
		OddsValue:   -120,
		CapturedAt:  time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec("INSERT INTO quotes").
		WithArgs(
			quote.Source, quote.Bookmaker, quote.EventID, quote.MarketType,
			quote.Selection, string(quote.OddsFormat), quote.OddsValue, quote.CapturedAt,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.SaveQuote(context.Background(), quote); err != nil {
		t.Fatalf("SaveQuote: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStore_SaveAlertOnConflictDoNothing(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := &PostgresStore{db: db, logger: logger}
	alert := &types.Alert{
		AlertID:         "alert-1",
		Timestamp:       time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC),
		MarketKey:       "KXTICKER|draftkings|Team A",
		Direction:       types.DirectionExchangeCheap,
		EdgePct:         3.2,
		EdgeBps:         320,
		Confidence:      types.ConfidenceHigh,
		ConfidenceScore: 0.9,
		ContractID:      "KXTICKER",
		Bookmaker:       "draftkings",
	}

	mock.ExpectExec("INSERT INTO alerts").
		WithArgs(
			alert.AlertID, alert.Timestamp, alert.MarketKey, string(alert.Direction),
			alert.EdgePct, alert.EdgeBps, string(alert.Confidence), alert.ConfidenceScore,
			alert.ContractID, alert.Bookmaker, sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.SaveAlert(context.Background(), alert); err != nil {
		t.Fatalf("SaveAlert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStore_SaveDailyPnLUpsert(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := &PostgresStore{db: db, logger: logger}
	pnl := types.NewDailyPnL("2026-07-29")
	pnl.RecordTrade("KXTICKER", true, nil)

	mock.ExpectExec("INSERT INTO daily_pnl").
		WithArgs(
			pnl.Date, pnl.Realized, pnl.Unrealized, pnl.Fees, pnl.TradesPlaced,
			pnl.TradesFilled, pnl.TradesWon, pnl.TradesLost, pnl.PeakExposure,
			pnl.EndingExposure, pq.Array([]string{"KXTICKER"}),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.SaveDailyPnL(context.Background(), pnl); err != nil {
		t.Fatalf("SaveDailyPnL: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStore_SnapshotHistory(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := &PostgresStore{db: db, logger: logger}
	since := time.Date(2026, 7, 22, 0, 0, 0, 0, time.UTC)
	ts := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"ticker", "ts", "last_price", "bid", "ask", "mid", "spread", "volume_24h",
		"bid_depth", "ask_depth", "depth_imbalance", "orderbook_json",
	}).AddRow("KXTICKER", ts, 55, 0.54, 0.56, 55.0, 2.0, 1000.0, 100, 80, 0.1, []byte(nil))

	mock.ExpectQuery("SELECT (.+) FROM snapshots").
		WithArgs("KXTICKER", since).
		WillReturnRows(rows)

	history, err := store.SnapshotHistory(context.Background(), "KXTICKER", since)
	if err != nil {
		t.Fatalf("SnapshotHistory: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 row, got %d", len(history))
	}
	if history[0].Ticker != "KXTICKER" || history[0].LastPrice != 55 {
		t.Errorf("unexpected row: %+v", history[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStore_DeleteSnapshotsOlderThan(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := &PostgresStore{db: db, logger: logger}
	cutoff := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("DELETE FROM snapshots").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := store.DeleteSnapshotsOlderThan(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("DeleteSnapshotsOlderThan: %v", err)
	}
	if n != 7 {
		t.Errorf("expected 7 rows removed, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStore_Close(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}

	store := &PostgresStore{db: db, logger: logger}
	mock.ExpectClose()

	if err := store.Close(); err != nil {
		t.Errorf("expected no error on close, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStoreImplementations_SatisfyInterface(t *testing.T) {
	var _ Store = (*PostgresStore)(nil)
	var _ Store = (*ConsoleStore)(nil)
}
