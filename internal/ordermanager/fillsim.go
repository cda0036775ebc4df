package ordermanager

import (
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kalshi-odds/scanner/pkg/types"
)

// PaperFillSimulator probabilistically fills paper orders with slippage:
// a fraction of submissions fill immediately at a slipped price, the rest
// stay open.
type PaperFillSimulator struct {
	FillProbability float64 // in [0,1]
	SlippageCents   int
	rand            *rand.Rand
}

// NewPaperFillSimulator constructs a simulator, filling unset fields with
// documented defaults (0.8 fill probability, 1 cent of slippage).
func NewPaperFillSimulator(fillProbability float64, slippageCents int) *PaperFillSimulator {
	if fillProbability <= 0 {
		fillProbability = 0.8
	}
	if slippageCents <= 0 {
		slippageCents = 1
	}
	return &PaperFillSimulator{
		FillProbability: fillProbability,
		SlippageCents:   slippageCents,
		rand:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Fill applies the simulator's fill/slippage model to order in place,
// returning the *types.Fill it produced (nil when the order rests open).
func (s *PaperFillSimulator) Fill(order *types.Order, now time.Time) *types.Fill {
	if s.rand.Float64() >= s.FillProbability {
		order.Status = types.OrderStatusOpen
		return nil
	}

	fillPrice := order.Price
	if order.Side == types.OrderSideYes {
		fillPrice += s.SlippageCents
		if fillPrice > 99 {
			fillPrice = 99
		}
	} else {
		fillPrice -= s.SlippageCents
		if fillPrice < 1 {
			fillPrice = 1
		}
	}

	avg := decimal.NewFromInt(int64(fillPrice))
	order.Status = types.OrderStatusFilled
	order.FilledQuantity = order.Quantity
	order.AverageFillPrice = &avg
	order.FilledAt = &now

	return types.FillFromOrder(order, "paper-"+order.ID, fillPrice, order.Quantity, decimal.Zero, now)
}
