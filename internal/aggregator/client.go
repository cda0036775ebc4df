// Package aggregator is the HTTP client for the sportsbook odds
// aggregator: list sports, list events, and fetch odds, parsed into
// types.Quote records.
package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/pkg/types"
)

// Config configures a Client.
type Config struct {
	BaseURL           string
	APIKey            string
	HTTPTimeout       time.Duration
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	Logger            *zap.Logger
}

// DefaultConfig mirrors the exchange client's retry defaults.
func DefaultConfig() Config {
	return Config{
		HTTPTimeout:       30 * time.Second,
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Client talks to the aggregator's REST API.
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
	return &Client{cfg: cfg, httpClient: &http.Client{Timeout: cfg.HTTPTimeout}, logger: cfg.Logger}
}

// ListSports lists the aggregator's supported sport keys.
func (c *Client) ListSports(ctx context.Context) ([]string, error) {
	var sports []struct {
		Key string `json:"key"`
	}
	if err := c.getJSON(ctx, "list-sports", "/v4/sports", &sports); err != nil {
		return nil, err
	}
	keys := make([]string, len(sports))
	for i, s := range sports {
		keys[i] = s.Key
	}
	return keys, nil
}

// eventDTO mirrors one raw event entry returned by list_events/get_odds,
// each containing bookmakers, each containing markets, each containing
// outcomes.
type eventDTO struct {
	ID          string        `json:"id"`
	SportKey    string        `json:"sport_key"`
	CommenceAt  string        `json:"commence_time"`
	HomeTeam    string        `json:"home_team"`
	AwayTeam    string        `json:"away_team"`
	Bookmakers  []bookmakerDTO `json:"bookmakers"`
}

type bookmakerDTO struct {
	Key        string      `json:"key"`
	LastUpdate string      `json:"last_update"`
	Markets    []marketDTO `json:"markets"`
}

type marketDTO struct {
	Key      string       `json:"key"`
	Outcomes []outcomeDTO `json:"outcomes"`
}

type outcomeDTO struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

// ListEvents lists upcoming events for a sport (no odds attached).
func (c *Client) ListEvents(ctx context.Context, sport string) ([]string, error) {
	var events []eventDTO
	if err := c.getJSON(ctx, "list-events", "/v4/sports/"+sport+"/events", &events); err != nil {
		return nil, err
	}
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids, nil
}

// GetOddsOptions controls a get_odds call.
type GetOddsOptions struct {
	Sport       string
	Regions     string
	Markets     string
	OddsFormat  types.OddsFormat
	Bookmakers  []string
}

// GetOdds fetches current odds for sport and parses every bookmaker's
// every market into flat Quote records. Unknown market types are skipped.
func (c *Client) GetOdds(ctx context.Context, opts GetOddsOptions) ([]types.Quote, error) {
	format := "american"
	if opts.OddsFormat == types.OddsFormatDecimal {
		format = "decimal"
	}
	path := fmt.Sprintf("/v4/sports/%s/odds?regions=%s&markets=%s&oddsFormat=%s",
		opts.Sport, opts.Regions, opts.Markets, format)

	var events []eventDTO
	if err := c.getJSON(ctx, "get-odds", path, &events); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var quotes []types.Quote
	for _, e := range events {
		scheduledAt, _ := time.Parse(time.RFC3339, e.CommenceAt)
		for _, bm := range e.Bookmakers {
			capturedAt := now
			if ts, err := time.Parse(time.RFC3339, bm.LastUpdate); err == nil {
				capturedAt = ts
			}
			for _, m := range bm.Markets {
				if !knownMarketType(m.Key) {
					continue
				}
				for _, o := range m.Outcomes {
					quotes = append(quotes, types.Quote{
						Source:      "aggregator",
						Bookmaker:   bm.Key,
						EventID:     e.ID,
						EventTitle:  fmt.Sprintf("%s @ %s", e.AwayTeam, e.HomeTeam),
						Sport:       e.SportKey,
						ScheduledAt: scheduledAt,
						MarketType:  m.Key,
						Selection:   o.Name,
						Point:       o.Point,
						OddsFormat:  opts.OddsFormat,
						OddsValue:   o.Price,
						CapturedAt:  capturedAt,
					})
				}
			}
		}
	}
	return quotes, nil
}

// knownMarketType reports whether the aggregator market key is one the
// matcher/scanner understand. Head-to-head (moneyline) is the only market
// type the scanner reasons over; GetOdds drops spreads/totals markets here,
// before any quote is built from them.
func knownMarketType(key string) bool {
	return key == "h2h"
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	backoff := c.cfg.InitialBackoff
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		err := c.fetch(ctx, path, out)
		if err == nil {
			return nil
		}

		if _, ok := err.(*types.RateLimitError); ok {
			RequestErrorsTotal.WithLabelValues(op, "rate_limit").Inc()
			if !sleep(ctx, time.Second) {
				return ctx.Err()
			}
			continue
		}

		if _, ok := err.(*types.TransportError); !ok {
			return err
		}

		RequestErrorsTotal.WithLabelValues(op, "transport").Inc()
		if attempt == c.cfg.MaxRetries {
			return fmt.Errorf("max retries (%d) exceeded for %s: %w", c.cfg.MaxRetries, op, err)
		}
		c.logger.Warn("aggregator-request-retrying",
			zap.String("operation", op), zap.Int("attempt", attempt+1), zap.Error(err))
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

func (c *Client) fetch(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-api-key", c.cfg.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	RequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return &types.TransportError{Upstream: "aggregator", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &types.RateLimitError{Upstream: "aggregator", RetryAfter: resp.Header.Get("Retry-After")}
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return &types.AuthError{Upstream: "aggregator", Reason: resp.Status}
	}
	if resp.StatusCode >= 400 {
		var body struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return &types.UpstreamBusinessError{Upstream: "aggregator", Message: body.Message}
	}
	return json.NewDecoder(resp.Body).Decode(out)
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
