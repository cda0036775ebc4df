package ordermanager

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalshi-odds/scanner/pkg/types"
)

func TestPaperFillSimulatorAppliesYesSlippage(t *testing.T) {
	sim := NewPaperFillSimulator(1.0, 2)
	order := &types.Order{Ticker: "NBA-1", Side: types.OrderSideYes, Price: 50, Quantity: 10}

	fill := sim.Fill(order, time.Now())
	require.NotNil(t, fill)
	assert.Equal(t, types.OrderStatusFilled, order.Status)
	assert.Equal(t, 52, fill.Price)
}

func TestPaperFillSimulatorAppliesNoSlippage(t *testing.T) {
	sim := NewPaperFillSimulator(1.0, 2)
	order := &types.Order{Ticker: "NBA-1", Side: types.OrderSideNo, Price: 50, Quantity: 10}

	fill := sim.Fill(order, time.Now())
	require.NotNil(t, fill)
	assert.Equal(t, 48, fill.Price)
}

func TestPaperFillSimulatorCapsSlippageAtBounds(t *testing.T) {
	sim := NewPaperFillSimulator(1.0, 5)

	yes := &types.Order{Ticker: "NBA-1", Side: types.OrderSideYes, Price: 97, Quantity: 1}
	fill := sim.Fill(yes, time.Now())
	require.NotNil(t, fill)
	assert.Equal(t, 99, fill.Price)

	no := &types.Order{Ticker: "NBA-1", Side: types.OrderSideNo, Price: 3, Quantity: 1}
	fill = sim.Fill(no, time.Now())
	require.NotNil(t, fill)
	assert.Equal(t, 1, fill.Price)
}

func TestPaperFillSimulatorNeverFillsRestsOpen(t *testing.T) {
	sim := NewPaperFillSimulator(1, 1)
	sim.FillProbability = -1
	order := &types.Order{Ticker: "NBA-1", Side: types.OrderSideYes, Price: 50, Quantity: 10}

	fill := sim.Fill(order, time.Now())
	assert.Nil(t, fill)
	assert.Equal(t, types.OrderStatusOpen, order.Status)
}

func TestNewPaperFillSimulatorAppliesDefaults(t *testing.T) {
	sim := NewPaperFillSimulator(0, 0)
	assert.Equal(t, 0.8, sim.FillProbability)
	assert.Equal(t, 1, sim.SlippageCents)
}
