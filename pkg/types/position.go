package types

import "github.com/shopspring/decimal"

// Position is the net state of one ticker: side, open quantity, a
// volume-weighted entry price, and the current mark.
type Position struct {
	Ticker           string
	Side             OrderSide
	Quantity         int
	VWAPEntryPrice   decimal.Decimal // cents
	CurrentMarkPrice decimal.Decimal // cents
}

// CostBasis is Quantity * VWAPEntryPrice, in dollars.
func (p *Position) CostBasis() decimal.Decimal {
	return decimal.NewFromInt(int64(p.Quantity)).Mul(p.VWAPEntryPrice).Div(decimal.NewFromInt(100))
}

// CurrentValue is Quantity * CurrentMarkPrice, in dollars.
func (p *Position) CurrentValue() decimal.Decimal {
	return decimal.NewFromInt(int64(p.Quantity)).Mul(p.CurrentMarkPrice).Div(decimal.NewFromInt(100))
}

// UnrealizedPnL is CurrentValue - CostBasis.
func (p *Position) UnrealizedPnL() decimal.Decimal {
	return p.CurrentValue().Sub(p.CostBasis())
}

// UnrealizedPnLPercent is UnrealizedPnL / CostBasis, zero if cost basis is
// zero.
func (p *Position) UnrealizedPnLPercent() decimal.Decimal {
	basis := p.CostBasis()
	if basis.IsZero() {
		return decimal.Zero
	}
	return p.UnrealizedPnL().Div(basis)
}

// UpdatePrice sets the current mark.
func (p *Position) UpdatePrice(mark decimal.Decimal) {
	p.CurrentMarkPrice = mark
}

// AddQuantity folds an additional fill into the position at a
// volume-weighted average entry price.
func (p *Position) AddQuantity(qty int, price decimal.Decimal) {
	if p.Quantity == 0 {
		p.Quantity = qty
		p.VWAPEntryPrice = price
		return
	}
	totalCost := p.VWAPEntryPrice.Mul(decimal.NewFromInt(int64(p.Quantity))).
		Add(price.Mul(decimal.NewFromInt(int64(qty))))
	p.Quantity += qty
	p.VWAPEntryPrice = totalCost.Div(decimal.NewFromInt(int64(p.Quantity)))
}

// ReduceQuantity reduces the open quantity by qty, used on a closing fill.
// It never goes negative.
func (p *Position) ReduceQuantity(qty int) {
	p.Quantity -= qty
	if p.Quantity < 0 {
		p.Quantity = 0
	}
}

// DailyPnL is keyed by local-calendar date.
type DailyPnL struct {
	Date           string // YYYY-MM-DD, local calendar
	Realized       decimal.Decimal
	Unrealized     decimal.Decimal
	Fees           decimal.Decimal
	TradesPlaced   int
	TradesFilled   int
	TradesWon      int
	TradesLost     int
	PeakExposure   decimal.Decimal
	EndingExposure decimal.Decimal
	MarketsTraded  map[string]struct{}
}

// NewDailyPnL returns a zeroed DailyPnL for the given date.
func NewDailyPnL(date string) *DailyPnL {
	return &DailyPnL{Date: date, MarketsTraded: make(map[string]struct{})}
}

// TotalPnL is Realized + Unrealized - Fees.
func (d *DailyPnL) TotalPnL() decimal.Decimal {
	return d.Realized.Add(d.Unrealized).Sub(d.Fees)
}

// WinRate is TradesWon / (TradesWon + TradesLost), zero if no decided trades
// yet.
func (d *DailyPnL) WinRate() float64 {
	decided := d.TradesWon + d.TradesLost
	if decided == 0 {
		return 0
	}
	return float64(d.TradesWon) / float64(decided)
}

// FillRate is TradesFilled / TradesPlaced, zero if nothing was placed.
func (d *DailyPnL) FillRate() float64 {
	if d.TradesPlaced == 0 {
		return 0
	}
	return float64(d.TradesFilled) / float64(d.TradesPlaced)
}

// RecordTrade tallies a placed trade and, when won is non-nil, a decided
// win/loss.
func (d *DailyPnL) RecordTrade(ticker string, filled bool, won *bool) {
	d.TradesPlaced++
	d.MarketsTraded[ticker] = struct{}{}
	if filled {
		d.TradesFilled++
	}
	if won != nil {
		if *won {
			d.TradesWon++
		} else {
			d.TradesLost++
		}
	}
}

// UpdateExposure records the current total exposure, tracking the day's
// peak.
func (d *DailyPnL) UpdateExposure(current decimal.Decimal) {
	d.EndingExposure = current
	if current.GreaterThan(d.PeakExposure) {
		d.PeakExposure = current
	}
}
