package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/internal/exchange"
	"github.com/kalshi-odds/scanner/pkg/types"
)

// ErrExecutionDisabled is returned by Execute for a real (non-dry-run)
// submission when EXECUTION_ENABLED is false.
var ErrExecutionDisabled = errors.New("execution disabled: set EXECUTION_ENABLED=true")

// ErrExecutionNotConfirmed is returned by Execute for a real submission
// made without --confirm, the operator CLI's explicit opt-in per
// opportunity.
var ErrExecutionNotConfirmed = errors.New("execution requires --confirm")

// Execute places only the exchange leg of opportunity n: the hedge leg on
// the sportsbook side is informational only, since the scanner has no
// sportsbook order-placement interface. shares is clamped to the
// opportunity's observed MaxShares. dryRun logs the order that would be
// placed without calling the exchange; a real submission additionally
// requires EXECUTION_ENABLED and confirm, matching the CLI's safety gate
// for an operation that risks real capital.
func (a *App) Execute(ctx context.Context, n, shares int, dryRun, confirm bool) (*exchange.OrderAck, error) {
	opp, err := a.Detail(n)
	if err != nil {
		return nil, err
	}
	if opp.BestBook == nil {
		return nil, fmt.Errorf("opportunity %d has no exchange leg", n)
	}
	if shares <= 0 {
		return nil, fmt.Errorf("shares must be positive, got %d", shares)
	}
	if shares > opp.MaxShares {
		a.logger.Warn("execute-shares-clamped",
			zap.Int("requested", shares), zap.Int("max-shares", opp.MaxShares))
		shares = opp.MaxShares
	}

	action := "buy"
	if opp.Direction == types.DirectionExchangeRich {
		action = "sell"
	}

	req := exchange.PlaceOrderRequest{
		Ticker:         opp.BestBook.ContractID,
		Side:           types.OrderSideYes,
		Action:         action,
		Count:          shares,
		Type:           types.OrderTypeLimit,
		PriceCents:     int(opp.BestBook.ExchangePrice * 100),
		IdempotencyKey: uuid.NewString(),
	}

	if dryRun {
		a.logger.Info("execute-dry-run",
			zap.String("ticker", req.Ticker), zap.String("action", req.Action),
			zap.Int("shares", shares), zap.Int("price-cents", req.PriceCents))
		return &exchange.OrderAck{ExchangeOrderID: "dry-run", Status: "dry_run"}, nil
	}

	if !a.cfg.ExecutionEnabled {
		return nil, ErrExecutionDisabled
	}
	if !confirm {
		return nil, ErrExecutionNotConfirmed
	}

	ack, err := a.exchange.PlaceOrder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("place order for opportunity %d: %w", n, err)
	}

	order := &types.Order{
		ID:              req.IdempotencyKey,
		IdempotencyKey:  req.IdempotencyKey,
		ExchangeOrderID: ack.ExchangeOrderID,
		Ticker:          req.Ticker,
		Side:            req.Side,
		Type:            req.Type,
		Price:           req.PriceCents,
		Quantity:        shares,
		Status:          types.OrderStatusSubmitted,
		CreatedAt:       time.Now().UTC(),
	}
	now := order.CreatedAt
	order.SubmittedAt = &now
	if serr := a.store.SaveOrder(ctx, order); serr != nil && !types.IsDuplicateKey(serr) {
		a.logger.Error("save-manual-order-failed", zap.String("order-id", order.ID), zap.Error(serr))
	}

	return ack, nil
}
