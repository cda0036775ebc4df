// Package exchange is the HTTP client for the binary prediction-market
// exchange: contract listings, top-of-book, order placement, and balance.
package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/pkg/types"
)

// Config configures a Client.
type Config struct {
	BaseURL           string
	APIKeyID          string
	PrivateKeyPath    string
	HTTPTimeout       time.Duration
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	Logger            *zap.Logger
}

// DefaultConfig returns the client's retry/timeout defaults: base backoff
// 1s, max 10s, three attempts.
func DefaultConfig() Config {
	return Config{
		HTTPTimeout:       30 * time.Second,
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Client talks to the exchange's REST API. All list/get operations are
// read-only and safe to call concurrently; PlaceOrder/CancelOrder mutate
// exchange-side state and are idempotent only via the caller-supplied
// idempotency key.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

// New constructs a Client, filling unset fields with documented defaults.
func New(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = def.HTTPTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	if cfg.BackoffMultiplier == 0 {
		cfg.BackoffMultiplier = def.BackoffMultiplier
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		logger:     cfg.Logger,
	}
}

// eventPage and contractPage mirror the exchange's cursor-paginated list
// envelopes.
type eventPage struct {
	Events     []exchangeEvent `json:"events"`
	NextCursor string          `json:"cursor"`
}

type exchangeEvent struct {
	EventTicker string `json:"event_ticker"`
	SeriesTicker string `json:"series_ticker"`
	Title       string `json:"title"`
}

type contractPage struct {
	Markets    []contractDTO `json:"markets"`
	NextCursor string        `json:"cursor"`
}

type contractDTO struct {
	Ticker        string  `json:"ticker"`
	EventTicker   string  `json:"event_ticker"`
	SeriesTicker  string  `json:"series_ticker"`
	Title         string  `json:"title"`
	Category      string  `json:"category"`
	YesSubTitle   string  `json:"yes_sub_title"`
	Status        string  `json:"status"`
	CloseTime     string  `json:"close_time"`
	LastPrice     int     `json:"last_price"`
	Volume24h     float64 `json:"volume_24h"`
	SettlementVal *int    `json:"settlement_value"`
}

func (d contractDTO) toContract() types.Contract {
	closeTime, _ := time.Parse(time.RFC3339, d.CloseTime)
	return types.Contract{
		Ticker:        d.Ticker,
		EventTicker:   d.EventTicker,
		SeriesTicker:  d.SeriesTicker,
		Title:         d.Title,
		Category:      d.Category,
		OutcomeSide:   types.OrderSideYes,
		Status:        types.ContractStatus(d.Status),
		CloseTime:     closeTime,
		LastPrice:     d.LastPrice,
		Volume24h:     d.Volume24h,
		SettlementVal: d.SettlementVal,
		FetchedAt:     time.Now().UTC(),
	}
}

// ListEvents paginates the exchange's event listing.
func (c *Client) ListEvents(ctx context.Context, cursor string) (tickers []string, nextCursor string, err error) {
	path := "/trade-api/v2/events"
	if cursor != "" {
		path += "?cursor=" + cursor
	}
	var page eventPage
	if err := c.getJSON(ctx, "list-events", path, &page); err != nil {
		return nil, "", err
	}
	for _, e := range page.Events {
		tickers = append(tickers, e.EventTicker)
	}
	return tickers, page.NextCursor, nil
}

// ListContracts implements the discovery.ExchangeClient interface: paginate
// the exchange's market listing, PageSize contracts at a time.
func (c *Client) ListContracts(ctx context.Context, limit int, cursor string) ([]types.Contract, string, error) {
	path := fmt.Sprintf("/trade-api/v2/markets?limit=%d", limit)
	if cursor != "" {
		path += "&cursor=" + cursor
	}
	var page contractPage
	if err := c.getJSON(ctx, "list-contracts", path, &page); err != nil {
		return nil, "", err
	}
	contracts := make([]types.Contract, len(page.Markets))
	for i, m := range page.Markets {
		contracts[i] = m.toContract()
	}
	return contracts, page.NextCursor, nil
}

// GetContract fetches a single contract by ticker.
func (c *Client) GetContract(ctx context.Context, ticker string) (*types.Contract, error) {
	var wrapper struct {
		Market contractDTO `json:"market"`
	}
	if err := c.getJSON(ctx, "get-contract", "/trade-api/v2/markets/"+ticker, &wrapper); err != nil {
		return nil, err
	}
	contract := wrapper.Market.toContract()
	return &contract, nil
}

type topOfBookDTO struct {
	Orderbook struct {
		Yes [][2]int `json:"yes"`
		No  [][2]int `json:"no"`
	} `json:"orderbook"`
}

// TopOfBook implements discovery.ExchangeClient/snapshotter.Client: fetches
// the best bid/ask on both sides of ticker's orderbook.
func (c *Client) TopOfBook(ctx context.Context, ticker string) (*types.TopOfBook, error) {
	var dto topOfBookDTO
	if err := c.getJSON(ctx, "get-top-of-book", "/trade-api/v2/markets/"+ticker+"/orderbook", &dto); err != nil {
		return nil, err
	}

	book := &types.TopOfBook{Ticker: ticker, CapturedAt: time.Now().UTC()}
	if len(dto.Orderbook.Yes) > 0 {
		best := dto.Orderbook.Yes[len(dto.Orderbook.Yes)-1]
		book.YesBid = float64(best[0]) / 100
		book.YesBidSize = best[1]
	}
	if len(dto.Orderbook.No) > 0 {
		best := dto.Orderbook.No[len(dto.Orderbook.No)-1]
		book.NoBid = float64(best[0]) / 100
		book.NoBidSize = best[1]
		book.YesAsk = 1 - book.NoBid
		book.YesAskSize = best[1]
	}
	return book, nil
}

// Contract is a convenience alias satisfying snapshotter.Client alongside
// TopOfBook.
func (c *Client) Contract(ctx context.Context, ticker string) (*types.Contract, error) {
	return c.GetContract(ctx, ticker)
}

// PlaceOrderRequest mirrors the exchange's order submission payload.
type PlaceOrderRequest struct {
	Ticker         string
	Side           types.OrderSide
	Action         string // "buy" or "sell"
	Count          int
	Type           types.OrderType
	PriceCents     int // yes_price or no_price depending on Side
	IdempotencyKey string
}

// OrderAck is the exchange's acknowledgement of a placed order.
type OrderAck struct {
	ExchangeOrderID string
	Status          string
}

// PlaceOrder submits an order. A 4xx business rejection (market closed,
// invalid price) surfaces as *types.UpstreamBusinessError and is not
// retried.
func (c *Client) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*OrderAck, error) {
	priceField := "yes_price"
	if req.Side == types.OrderSideNo {
		priceField = "no_price"
	}
	body := map[string]any{
		"ticker":          req.Ticker,
		"side":            string(req.Side),
		"action":          req.Action,
		"count":           req.Count,
		"type":            string(req.Type),
		priceField:        req.PriceCents,
		"client_order_id": req.IdempotencyKey,
	}

	var resp struct {
		Order struct {
			OrderID string `json:"order_id"`
			Status  string `json:"status"`
		} `json:"order"`
	}
	if err := c.postJSON(ctx, "place-order", "/trade-api/v2/portfolio/orders", body, &resp); err != nil {
		return nil, err
	}
	return &OrderAck{ExchangeOrderID: resp.Order.OrderID, Status: resp.Order.Status}, nil
}

// CancelOrder cancels a previously placed order by its exchange order ID.
func (c *Client) CancelOrder(ctx context.Context, exchangeOrderID string) error {
	return c.deleteJSON(ctx, "cancel-order", "/trade-api/v2/portfolio/orders/"+exchangeOrderID)
}

// ExchangeOrderStatus mirrors the exchange's order status response.
type ExchangeOrderStatus struct {
	ExchangeOrderID  string
	Status           string
	FilledQuantity   int
	AverageFillPrice float64
}

// GetOrder fetches an order's current exchange-side status.
func (c *Client) GetOrder(ctx context.Context, exchangeOrderID string) (*ExchangeOrderStatus, error) {
	var resp struct {
		Order struct {
			OrderID          string  `json:"order_id"`
			Status           string  `json:"status"`
			FilledQuantity   int     `json:"filled_quantity"`
			AverageFillPrice float64 `json:"average_fill_price"`
		} `json:"order"`
	}
	if err := c.getJSON(ctx, "get-order", "/trade-api/v2/portfolio/orders/"+exchangeOrderID, &resp); err != nil {
		return nil, err
	}
	return &ExchangeOrderStatus{
		ExchangeOrderID:  resp.Order.OrderID,
		Status:           resp.Order.Status,
		FilledQuantity:   resp.Order.FilledQuantity,
		AverageFillPrice: resp.Order.AverageFillPrice,
	}, nil
}

type exchangeFillDTO struct {
	TradeID  string  `json:"trade_id"`
	OrderID  string  `json:"order_id"`
	Ticker   string  `json:"ticker"`
	Side     string  `json:"side"`
	Price    int     `json:"price"`
	Count    int     `json:"count"`
	CreateTS int64   `json:"created_time"`
}

// GetFills lists recent fills, optionally restricted to one ticker.
func (c *Client) GetFills(ctx context.Context, ticker string, limit int) ([]types.Fill, error) {
	path := fmt.Sprintf("/trade-api/v2/portfolio/fills?limit=%d", limit)
	if ticker != "" {
		path += "&ticker=" + ticker
	}
	var resp struct {
		Fills []exchangeFillDTO `json:"fills"`
	}
	if err := c.getJSON(ctx, "get-fills", path, &resp); err != nil {
		return nil, err
	}
	fills := make([]types.Fill, len(resp.Fills))
	for i, f := range resp.Fills {
		fills[i] = types.Fill{
			OrderID:         f.OrderID,
			ExchangeTradeID: f.TradeID,
			Ticker:          f.Ticker,
			Side:            types.OrderSide(f.Side),
			Price:           f.Price,
			Quantity:        f.Count,
			Timestamp:       time.Unix(f.CreateTS, 0).UTC(),
		}
	}
	return fills, nil
}

// GetBalance implements risk.BalanceFetcher: returns the exchange account's
// settlement currency balance in dollars.
func (c *Client) GetBalance(ctx context.Context) (float64, error) {
	var resp struct {
		BalanceCents int64 `json:"balance"`
	}
	if err := c.getJSON(ctx, "get-balance", "/trade-api/v2/portfolio/balance", &resp); err != nil {
		return 0, err
	}
	return float64(resp.BalanceCents) / 100, nil
}

type positionDTO struct {
	Ticker           string `json:"ticker"`
	Side             string `json:"side"`
	Quantity         int    `json:"position"`
	MarketExposure   int    `json:"market_exposure"`
}

// GetPositions lists the account's current open positions.
func (c *Client) GetPositions(ctx context.Context) ([]types.Position, error) {
	var resp struct {
		Positions []positionDTO `json:"market_positions"`
	}
	if err := c.getJSON(ctx, "get-positions", "/trade-api/v2/portfolio/positions", &resp); err != nil {
		return nil, err
	}
	positions := make([]types.Position, len(resp.Positions))
	for i, p := range resp.Positions {
		positions[i] = types.Position{Ticker: p.Ticker, Side: types.OrderSide(p.Side), Quantity: p.Quantity}
	}
	return positions, nil
}

// --- transport plumbing ---

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	return c.doWithRetry(ctx, op, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
		if err != nil {
			return err
		}
		return c.do(req, out)
	})
}

func (c *Client) postJSON(ctx context.Context, op, path string, body, out any) error {
	return c.doWithRetry(ctx, op, func() error {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(buf))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		return c.do(req, out)
	})
}

func (c *Client) deleteJSON(ctx context.Context, op, path string) error {
	return c.doWithRetry(ctx, op, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.cfg.BaseURL+path, nil)
		if err != nil {
			return err
		}
		return c.do(req, nil)
	})
}

func (c *Client) authHeaders(req *http.Request) {
	req.Header.Set("KALSHI-ACCESS-KEY", c.cfg.APIKeyID)
	// Request signing against PrivateKeyPath happens here in a live
	// deployment; callers only need to set the key id and pass the
	// idempotency key through.
}

func (c *Client) do(req *http.Request, out any) error {
	c.authHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	RequestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
	if err != nil {
		return &types.TransportError{Upstream: "exchange", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &types.RateLimitError{Upstream: "exchange", RetryAfter: resp.Header.Get("Retry-After")}
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &types.AuthError{Upstream: "exchange", Reason: resp.Status}
	}
	if resp.StatusCode >= 400 {
		var body struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return &types.UpstreamBusinessError{Upstream: "exchange", Code: body.Code, Message: body.Message}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// doWithRetry retries transport and rate-limit errors with exponential
// backoff: transport failures back off exponentially up to MaxRetries
// attempts; rate limits sleep the hinted interval and retry once without
// consuming a backoff attempt.
func (c *Client) doWithRetry(ctx context.Context, op string, fn func() error) error {
	backoff := c.cfg.InitialBackoff
	rateLimitRetried := false

	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var rle *types.RateLimitError
		if asRateLimit(err, &rle) && !rateLimitRetried {
			rateLimitRetried = true
			RequestErrorsTotal.WithLabelValues(op, "rate_limit").Inc()
			if !sleep(ctx, retryAfterDelay(rle.RetryAfter)) {
				return ctx.Err()
			}
			attempt--
			continue
		}

		var te *types.TransportError
		if !asTransport(err, &te) {
			return err
		}

		RequestErrorsTotal.WithLabelValues(op, "transport").Inc()
		if attempt == c.cfg.MaxRetries-1 {
			return fmt.Errorf("max retries (%d) exceeded for %s: %w", c.cfg.MaxRetries, op, err)
		}

		c.logger.Warn("exchange-request-retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		if !sleep(ctx, backoff) {
			return ctx.Err()
		}
		backoff = time.Duration(float64(backoff) * c.cfg.BackoffMultiplier)
		if backoff > c.cfg.MaxBackoff {
			backoff = c.cfg.MaxBackoff
		}
	}
	return fmt.Errorf("unreachable")
}

func asRateLimit(err error, target **types.RateLimitError) bool {
	if rle, ok := err.(*types.RateLimitError); ok {
		*target = rle
		return true
	}
	return false
}

func asTransport(err error, target **types.TransportError) bool {
	if te, ok := err.(*types.TransportError); ok {
		*target = te
		return true
	}
	return false
}

func retryAfterDelay(hint string) time.Duration {
	if hint == "" {
		return time.Second
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(hint)); err == nil {
		return time.Duration(secs) * time.Second
	}
	return time.Second
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
