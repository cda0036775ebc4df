// Package ordermanager turns a tradeable strategy signal into an order,
// routes it through the risk gate and the configured execution mode, and
// tracks its lifecycle to a terminal status: a Config struct, a
// constructor, and an explicit order state machine.
package ordermanager

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/internal/exchange"
	"github.com/kalshi-odds/scanner/internal/risk"
	"github.com/kalshi-odds/scanner/pkg/types"
)

// PlaceOrderRequest, OrderAck, and ExchangeOrderStatus are the exchange
// client's order-submission DTOs, reused directly rather than re-declared:
// the order manager is a concrete consumer of internal/exchange, not a
// boundary that needs its own copy of the wire shape.
type (
	PlaceOrderRequest   = exchange.PlaceOrderRequest
	OrderAck            = exchange.OrderAck
	ExchangeOrderStatus = exchange.ExchangeOrderStatus
)

// ExchangeClient is the subset of exchange operations the order manager
// needs to submit, cancel, and reconcile live/paper-routed orders. A real
// implementation lives in internal/exchange; tests use a fake.
type ExchangeClient interface {
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*OrderAck, error)
	CancelOrder(ctx context.Context, exchangeOrderID string) error
	GetOrder(ctx context.Context, exchangeOrderID string) (*ExchangeOrderStatus, error)
}

// Config configures a Manager.
type Config struct {
	Mode           types.TradingMode
	Client         ExchangeClient
	Risk           *risk.Gate
	Logger         *zap.Logger
	LimitOnly      bool // when false, orders are submitted as MARKET type
	DefaultSizeUSD float64

	FillSimulator *PaperFillSimulator // used only in TradingModePaper
}

// Manager creates orders from signals, enforces idempotency via the risk
// gate, and routes execution to dry-run logging, the paper-fill
// simulator, or the live exchange client.
type Manager struct {
	cfg Config

	mu     sync.Mutex
	orders map[string]*types.Order
}

// New constructs a Manager. A nil FillSimulator is replaced with one using
// documented defaults so paper mode always has a simulator to route to.
func New(cfg Config) *Manager {
	if cfg.FillSimulator == nil {
		cfg.FillSimulator = NewPaperFillSimulator(0, 0)
	}
	if cfg.DefaultSizeUSD == 0 {
		cfg.DefaultSizeUSD = 50
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Manager{cfg: cfg, orders: make(map[string]*types.Order)}
}

// ProcessSignal runs the full create-check-route pipeline for one signal.
// It returns (nil, nil) whenever the signal is skipped rather than
// rejected by an error — not tradeable, failed the risk gate, or a
// duplicate idempotency key — matching process_signal's "Optional[Order]"
// return.
func (m *Manager) ProcessSignal(ctx context.Context, signal types.Signal, positionSizeDollars float64) (*types.Order, error) {
	if !signal.IsTradeable() {
		SignalsSkippedTotal.WithLabelValues("not_tradeable").Inc()
		m.cfg.Logger.Debug("signal-not-tradeable", zap.String("ticker", signal.Ticker))
		return nil, nil
	}

	if positionSizeDollars <= 0 {
		positionSizeDollars = m.cfg.DefaultSizeUSD
	}

	check := m.cfg.Risk.CheckOrder(signal, positionSizeDollars)
	if !check.Passed {
		SignalsSkippedTotal.WithLabelValues("risk_rejected").Inc()
		m.cfg.Logger.Info("signal-rejected-by-risk",
			zap.String("ticker", signal.Ticker),
			zap.String("strategy", signal.StrategyName),
			zap.String("reason", check.Reason))
		return nil, nil
	}

	order := m.createOrder(signal, check.AllowedSize)

	if !m.cfg.Risk.CheckIdempotency(order.IdempotencyKey) {
		SignalsSkippedTotal.WithLabelValues("duplicate").Inc()
		m.cfg.Logger.Info("duplicate-order-skipped",
			zap.String("ticker", signal.Ticker),
			zap.String("idempotency-key", order.IdempotencyKey))
		return nil, nil
	}

	OrdersCreatedTotal.WithLabelValues(string(m.cfg.Mode)).Inc()

	switch m.cfg.Mode {
	case types.TradingModeDryRun:
		return m.dryRunOrder(order), nil
	case types.TradingModePaper:
		return m.paperOrder(order), nil
	default:
		return m.liveOrder(ctx, order)
	}
}

// createOrder builds an Order from a signal and the risk gate's allowed
// contract size, matching OrderManager._create_order's field mapping.
func (m *Manager) createOrder(signal types.Signal, quantity int) *types.Order {
	orderType := types.OrderTypeMarket
	if m.cfg.LimitOnly {
		orderType = types.OrderTypeLimit
	}

	price := signal.EntryPrice
	if price == 0 {
		price = 50
	}

	now := time.Now().UTC()
	order := &types.Order{
		ID:               uuid.NewString(),
		IdempotencyKey:   types.GenerateIdempotencyKey(now, signal.Ticker, signal.StrategyName, signal.Side),
		Ticker:           signal.Ticker,
		Side:             signal.Side,
		Type:             orderType,
		Price:            price,
		Quantity:         quantity,
		StrategyName:     signal.StrategyName,
		SignalConfidence: signal.Confidence,
		ExpectedValue:    signal.ExpectedValue,
		Status:           types.OrderStatusPending,
		CreatedAt:        now,
	}

	m.cfg.Logger.Info("order-created",
		zap.String("ticker", order.Ticker),
		zap.String("side", string(order.Side)),
		zap.Int("price", order.Price),
		zap.Int("quantity", order.Quantity),
		zap.String("strategy", order.StrategyName),
		zap.String("idempotency-key", order.IdempotencyKey))

	return order
}

// dryRunOrder logs the order without submitting it anywhere.
func (m *Manager) dryRunOrder(order *types.Order) *types.Order {
	notional, _ := order.NotionalValue().Float64()
	m.cfg.Logger.Info("dry-run-order",
		zap.String("ticker", order.Ticker),
		zap.String("side", string(order.Side)),
		zap.Int("price", order.Price),
		zap.Int("quantity", order.Quantity),
		zap.Float64("notional", notional),
		zap.String("strategy", order.StrategyName))

	order.Status = types.OrderStatusPending
	m.put(order)
	return order
}

// paperOrder submits the order to the in-process fill simulator and
// records any resulting fill with the risk gate.
func (m *Manager) paperOrder(order *types.Order) *types.Order {
	m.cfg.Risk.RecordOrderSubmitted(order)

	order.SubmittedAt = ptrTime(time.Now().UTC())
	m.cfg.FillSimulator.Fill(order, time.Now().UTC())
	m.put(order)

	if order.Status == types.OrderStatusFilled {
		m.cfg.Risk.RecordFill(order)
		OrdersFilledTotal.WithLabelValues(string(types.TradingModePaper)).Inc()
	}

	m.cfg.Logger.Info("paper-order-result",
		zap.String("ticker", order.Ticker),
		zap.String("status", string(order.Status)),
		zap.Int("filled-quantity", order.FilledQuantity))

	return order
}

// liveOrder submits the order to the real exchange client.
func (m *Manager) liveOrder(ctx context.Context, order *types.Order) (*types.Order, error) {
	if m.cfg.Client == nil {
		order.Status = types.OrderStatusRejected
		order.ErrorMessage = "live trading not configured"
		m.cfg.Logger.Error("live-order-blocked", zap.String("reason", order.ErrorMessage))
		OrdersRejectedTotal.WithLabelValues("no_client").Inc()
		m.put(order)
		return order, nil
	}

	m.cfg.Risk.RecordOrderSubmitted(order)

	action := "buy"
	ack, err := m.cfg.Client.PlaceOrder(ctx, PlaceOrderRequest{
		Ticker:         order.Ticker,
		Side:           order.Side,
		Action:         action,
		Count:          order.Quantity,
		Type:           order.Type,
		PriceCents:     order.Price,
		IdempotencyKey: order.IdempotencyKey,
	})
	if err != nil {
		order.Status = types.OrderStatusRejected
		order.ErrorMessage = err.Error()
		m.cfg.Logger.Error("live-order-failed", zap.String("ticker", order.Ticker), zap.Error(err))
		m.put(order)
		return order, nil
	}

	order.ExchangeOrderID = ack.ExchangeOrderID
	order.Status = statusFromExchange(ack.Status)
	order.SubmittedAt = ptrTime(time.Now().UTC())
	m.put(order)

	m.cfg.Logger.Info("live-order-submitted",
		zap.String("ticker", order.Ticker),
		zap.String("exchange-order-id", order.ExchangeOrderID),
		zap.String("status", string(order.Status)))

	return order, nil
}

// SyncOrderStatus reconciles a tracked order against the exchange's
// current view, promoting to FILLED and recording the fill with the risk
// gate on the first transition.
func (m *Manager) SyncOrderStatus(ctx context.Context, orderID string) (*types.Order, error) {
	order := m.Get(orderID)
	if order == nil {
		return nil, nil
	}
	if order.ExchangeOrderID == "" || m.cfg.Client == nil {
		return order, nil
	}

	updated, err := m.cfg.Client.GetOrder(ctx, order.ExchangeOrderID)
	if err != nil {
		m.cfg.Logger.Error("order-sync-failed", zap.String("order-id", orderID), zap.Error(err))
		return order, err
	}

	m.mu.Lock()
	wasFilled := order.Status == types.OrderStatusFilled
	order.Status = statusFromExchange(updated.Status)
	order.FilledQuantity = updated.FilledQuantity
	justFilled := order.Status == types.OrderStatusFilled && !wasFilled
	if justFilled {
		avg := decimal.NewFromFloat(updated.AverageFillPrice)
		order.AverageFillPrice = &avg
		order.FilledAt = ptrTime(time.Now().UTC())
	}
	m.mu.Unlock()

	if justFilled {
		m.cfg.Risk.RecordFill(order)
		OrdersFilledTotal.WithLabelValues(string(m.cfg.Mode)).Inc()
	}

	return order, nil
}

// CancelOrder cancels a tracked order. Orders never submitted to the
// exchange (dry-run, or rejected before acknowledgement) cancel locally;
// live/paper orders with an exchange order ID are forwarded.
func (m *Manager) CancelOrder(ctx context.Context, orderID string) (bool, error) {
	order := m.Get(orderID)
	if order == nil {
		return false, nil
	}

	if order.ExchangeOrderID == "" || m.cfg.Client == nil {
		m.mu.Lock()
		order.Status = types.OrderStatusCancelled
		m.mu.Unlock()
		return true, nil
	}

	if err := m.cfg.Client.CancelOrder(ctx, order.ExchangeOrderID); err != nil {
		return false, err
	}

	m.mu.Lock()
	order.Status = types.OrderStatusCancelled
	m.mu.Unlock()
	return true, nil
}

// Get returns a tracked order by its local ID, or nil if unknown.
func (m *Manager) Get(orderID string) *types.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[orderID]
}

// Orders returns every order tracked this session, including terminal
// ones; callers should not mutate the returned slice's elements.
func (m *Manager) Orders() []*types.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*types.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out
}

func (m *Manager) put(order *types.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
}

func statusFromExchange(raw string) types.OrderStatus {
	switch raw {
	case "resting":
		return types.OrderStatusOpen
	case "executed":
		return types.OrderStatusFilled
	case "canceled", "cancelled":
		return types.OrderStatusCancelled
	case "pending":
		return types.OrderStatusSubmitted
	default:
		return types.OrderStatusOpen
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
