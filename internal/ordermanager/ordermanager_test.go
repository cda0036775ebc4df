package ordermanager

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalshi-odds/scanner/internal/risk"
	"github.com/kalshi-odds/scanner/pkg/types"
)

func goodSignal(ticker string) types.Signal {
	return types.Signal{
		Ticker:         ticker,
		StrategyName:   "mispricing",
		Side:           types.OrderSideYes,
		Confidence:     0.8,
		FairProb:       0.6,
		MarketProb:     0.5,
		Edge:           0.1,
		ExpectedValue:  0.05,
		EntryPrice:     50,
		BacktestWinRate: floatPtr(0.6),
		BacktestSamples: intPtr(30),
	}
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func newGate() *risk.Gate {
	return risk.New(risk.Config{UseKellySizing: false, DefaultPositionSizeDollars: 40})
}

func TestProcessSignalSkipsUntradeable(t *testing.T) {
	m := New(Config{Mode: types.TradingModeDryRun, Risk: newGate()})
	sig := goodSignal("NBA-1")
	sig.Side = types.OrderSideNone

	order, err := m.ProcessSignal(context.Background(), sig, 40)
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestProcessSignalDryRunProducesPendingOrder(t *testing.T) {
	m := New(Config{Mode: types.TradingModeDryRun, Risk: newGate(), LimitOnly: true})

	order, err := m.ProcessSignal(context.Background(), goodSignal("NBA-1"), 40)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, types.OrderStatusPending, order.Status)
	assert.Equal(t, types.OrderTypeLimit, order.Type)
	assert.Greater(t, order.Quantity, 0)
}

func TestProcessSignalSkipsDuplicateIdempotencyKey(t *testing.T) {
	m := New(Config{Mode: types.TradingModeDryRun, Risk: newGate()})

	sig := goodSignal("NBA-1")
	first, err := m.ProcessSignal(context.Background(), sig, 40)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := m.ProcessSignal(context.Background(), sig, 40)
	require.NoError(t, err)
	assert.Nil(t, second)
}

func TestProcessSignalSkipsWhenRiskRejects(t *testing.T) {
	gate := risk.New(risk.Config{MinExpectedValue: 10})
	m := New(Config{Mode: types.TradingModeDryRun, Risk: gate})

	order, err := m.ProcessSignal(context.Background(), goodSignal("NBA-1"), 40)
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestProcessSignalPaperModeFillsOrRests(t *testing.T) {
	sim := NewPaperFillSimulator(1.0, 1) // always fills
	gate := newGate()
	m := New(Config{Mode: types.TradingModePaper, Risk: gate, FillSimulator: sim})

	order, err := m.ProcessSignal(context.Background(), goodSignal("NBA-1"), 40)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, types.OrderStatusFilled, order.Status)
	assert.Equal(t, order.Quantity, order.FilledQuantity)
	require.NotNil(t, order.AverageFillPrice)
}

func TestProcessSignalPaperModeNeverFills(t *testing.T) {
	sim := NewPaperFillSimulator(1, 1)
	sim.FillProbability = -1 // rand.Float64() is never < 0, so the order always rests
	m := New(Config{Mode: types.TradingModePaper, Risk: newGate(), FillSimulator: sim})

	order, err := m.ProcessSignal(context.Background(), goodSignal("NBA-1"), 40)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, types.OrderStatusOpen, order.Status)
}

type fakeExchangeClient struct {
	placeErr   error
	ack        *OrderAck
	cancelErr  error
	orderState *ExchangeOrderStatus
	getErr     error
}

func (f *fakeExchangeClient) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*OrderAck, error) {
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	return f.ack, nil
}

func (f *fakeExchangeClient) CancelOrder(ctx context.Context, exchangeOrderID string) error {
	return f.cancelErr
}

func (f *fakeExchangeClient) GetOrder(ctx context.Context, exchangeOrderID string) (*ExchangeOrderStatus, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.orderState, nil
}

func TestProcessSignalLiveModeSubmitsAndAcks(t *testing.T) {
	client := &fakeExchangeClient{ack: &OrderAck{ExchangeOrderID: "exch-1", Status: "resting"}}
	m := New(Config{Mode: types.TradingModeLive, Risk: newGate(), Client: client})

	order, err := m.ProcessSignal(context.Background(), goodSignal("NBA-1"), 40)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, "exch-1", order.ExchangeOrderID)
	assert.Equal(t, types.OrderStatusOpen, order.Status)
}

func TestProcessSignalLiveModeSurfacesRejection(t *testing.T) {
	client := &fakeExchangeClient{placeErr: errors.New("market closed")}
	m := New(Config{Mode: types.TradingModeLive, Risk: newGate(), Client: client})

	order, err := m.ProcessSignal(context.Background(), goodSignal("NBA-1"), 40)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, types.OrderStatusRejected, order.Status)
	assert.Contains(t, order.ErrorMessage, "market closed")
}

func TestProcessSignalLiveModeWithoutClientRejectsLocally(t *testing.T) {
	m := New(Config{Mode: types.TradingModeLive, Risk: newGate()})

	order, err := m.ProcessSignal(context.Background(), goodSignal("NBA-1"), 40)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, types.OrderStatusRejected, order.Status)
}

func TestSyncOrderStatusPromotesToFilledAndRecordsFill(t *testing.T) {
	client := &fakeExchangeClient{ack: &OrderAck{ExchangeOrderID: "exch-1", Status: "resting"}}
	gate := newGate()
	m := New(Config{Mode: types.TradingModeLive, Risk: gate, Client: client})

	order, err := m.ProcessSignal(context.Background(), goodSignal("NBA-1"), 40)
	require.NoError(t, err)
	require.NotNil(t, order)

	client.orderState = &ExchangeOrderStatus{ExchangeOrderID: "exch-1", Status: "executed", FilledQuantity: order.Quantity, AverageFillPrice: 51}
	synced, err := m.SyncOrderStatus(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, synced)
	assert.Equal(t, types.OrderStatusFilled, synced.Status)
	require.NotNil(t, synced.AverageFillPrice)
}

func TestCancelOrderLocalWhenNeverSubmitted(t *testing.T) {
	m := New(Config{Mode: types.TradingModeDryRun, Risk: newGate()})
	order, err := m.ProcessSignal(context.Background(), goodSignal("NBA-1"), 40)
	require.NoError(t, err)
	require.NotNil(t, order)

	ok, err := m.CancelOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, types.OrderStatusCancelled, m.Get(order.ID).Status)
}

func TestCancelOrderForwardsToExchangeWhenSubmitted(t *testing.T) {
	client := &fakeExchangeClient{ack: &OrderAck{ExchangeOrderID: "exch-1", Status: "resting"}}
	m := New(Config{Mode: types.TradingModeLive, Risk: newGate(), Client: client})

	order, err := m.ProcessSignal(context.Background(), goodSignal("NBA-1"), 40)
	require.NoError(t, err)
	require.NotNil(t, order)

	ok, err := m.CancelOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, types.OrderStatusCancelled, m.Get(order.ID).Status)
}

func TestCancelOrderUnknownReturnsFalse(t *testing.T) {
	m := New(Config{Mode: types.TradingModeDryRun, Risk: newGate()})
	ok, err := m.CancelOrder(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
