package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Order tracks one submission's full lifecycle. FilledQuantity <= Quantity
// always holds; AverageFillPrice is set iff FilledQuantity > 0; Status
// transitions monotonically toward a terminal state.
type Order struct {
	ID               string
	IdempotencyKey   string
	ExchangeOrderID  string
	Ticker           string
	Side             OrderSide
	Type             OrderType
	Price            int // cents, 1..99
	Quantity         int
	StrategyName     string
	SignalConfidence float64
	ExpectedValue    float64
	Status           OrderStatus
	FilledQuantity   int
	AverageFillPrice *decimal.Decimal
	ErrorMessage     string

	CreatedAt   time.Time
	SubmittedAt *time.Time
	FilledAt    *time.Time
}

// GenerateIdempotencyKey builds the canonical key
// "YYYY-MM-DD|ticker|strategy|side" for a given UTC date.
func GenerateIdempotencyKey(date time.Time, ticker, strategy string, side OrderSide) string {
	return fmt.Sprintf("%s|%s|%s|%s", date.UTC().Format("2006-01-02"), ticker, strategy, side)
}

// IsComplete reports whether the order has reached a terminal status.
func (o *Order) IsComplete() bool {
	return o.Status.IsTerminal()
}

// RemainingQuantity is Quantity minus FilledQuantity, floored at zero.
func (o *Order) RemainingQuantity() int {
	r := o.Quantity - o.FilledQuantity
	if r < 0 {
		return 0
	}
	return r
}

// NotionalValue is the order's dollar notional at its limit price.
func (o *Order) NotionalValue() decimal.Decimal {
	return decimal.NewFromInt(int64(o.Quantity)).
		Mul(decimal.NewFromInt(int64(o.Price))).
		Div(decimal.NewFromInt(100))
}

// FillRate is FilledQuantity / Quantity, zero when Quantity is zero.
func (o *Order) FillRate() float64 {
	if o.Quantity == 0 {
		return 0
	}
	return float64(o.FilledQuantity) / float64(o.Quantity)
}

// Fill is an append-only child of Order.
type Fill struct {
	ID              string
	OrderID         string
	ExchangeTradeID string
	Ticker          string
	Side            OrderSide
	Price           int // cents
	Quantity        int
	Notional        decimal.Decimal
	Fees            decimal.Decimal
	Timestamp       time.Time
}

// FillFromOrder constructs a Fill recording a complete or partial execution
// of order at the given price/quantity.
func FillFromOrder(order *Order, exchangeTradeID string, price, quantity int, fees decimal.Decimal, ts time.Time) *Fill {
	notional := decimal.NewFromInt(int64(quantity)).
		Mul(decimal.NewFromInt(int64(price))).
		Div(decimal.NewFromInt(100))
	return &Fill{
		OrderID:         order.ID,
		ExchangeTradeID: exchangeTradeID,
		Ticker:          order.Ticker,
		Side:            order.Side,
		Price:           price,
		Quantity:        quantity,
		Notional:        notional,
		Fees:            fees,
		Timestamp:       ts,
	}
}
