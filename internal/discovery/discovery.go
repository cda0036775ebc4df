// Package discovery finds contracts expiring on the current UTC calendar
// date and narrows them to a tradeable set through an ordered filter stack.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/pkg/types"
)

// ExchangeClient is the subset of exchange operations discovery needs. A
// real implementation lives in internal/exchange; tests use a fake.
type ExchangeClient interface {
	ListContracts(ctx context.Context, limit int, cursor string) (contracts []types.Contract, nextCursor string, err error)
	TopOfBook(ctx context.Context, ticker string) (*types.TopOfBook, error)
}

// Config enumerates discovery's tunables.
type Config struct {
	Client ExchangeClient
	Logger *zap.Logger

	// MaxPages bounds pagination against the exchange's contract listing.
	MaxPages int
	// PageSize is the page limit passed to each list call.
	PageSize int
	// InterPageDelay is slept between pagination requests to respect rate
	// limits.
	InterPageDelay time.Duration
	// InterBookDelay is slept between per-contract top-of-book fetches.
	InterBookDelay time.Duration

	// CategoryWhitelist, if non-empty, admits only contracts whose
	// category contains one of these substrings (case-insensitive).
	CategoryWhitelist []string
	// CategoryBlacklist rejects any contract whose category contains one
	// of these substrings.
	CategoryBlacklist []string
	// ContractBlacklist rejects contracts by exact ticker.
	ContractBlacklist map[string]bool
	// MinVolume24h is the minimum 24h volume to pass the liquidity filter.
	MinVolume24h float64
	// MaxSpreadCents is the maximum YES-side spread, in cents.
	MaxSpreadCents float64
	// MinDepth is the minimum combined bid+ask size.
	MinDepth int
	// TradingCutoffMinutes rejects contracts closing sooner than this.
	TradingCutoffMinutes float64
}

// DefaultConfig returns discovery's documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxPages:             10,
		PageSize:             100,
		InterPageDelay:       500 * time.Millisecond,
		InterBookDelay:       300 * time.Millisecond,
		MinVolume24h:         0,
		MaxSpreadCents:       5,
		MinDepth:             0,
		TradingCutoffMinutes: 0,
	}
}

// Rejection reasons tallied by the filter stack, in the order they are
// checked.
const (
	ReasonNotInWhitelist  = "not_in_whitelist"
	ReasonInBlacklist     = "in_blacklist"
	ReasonBlacklisted     = "contract_blacklisted"
	ReasonLowVolume       = "low_volume"
	ReasonNoOrderbook     = "no_orderbook"
	ReasonSpreadTooWide   = "spread_too_wide"
	ReasonLowDepth        = "low_depth"
	ReasonTooCloseToClose = "too_close_to_expiry"
	ReasonNotActive       = "not_active"
	ReasonAlreadySettled  = "already_settled"
)

// Result is one outcome of the filter stack: either the contract passed
// (Reason == "") or it was rejected for exactly one reason.
type Result struct {
	Contract types.Contract
	Book     *types.TopOfBook
	Reason   string
}

// Passed reports whether the contract is tradeable.
func (r Result) Passed() bool {
	return r.Reason == ""
}

// Service runs the discovery pipeline on demand. Unlike the snapshotter it
// has no independent polling loop of its own; the runner calls Discover
// once per trading cycle.
type Service struct {
	cfg Config
}

// New constructs a Service, filling unset numeric fields with documented
// defaults.
func New(cfg Config) *Service {
	def := DefaultConfig()
	if cfg.MaxPages == 0 {
		cfg.MaxPages = def.MaxPages
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.InterPageDelay == 0 {
		cfg.InterPageDelay = def.InterPageDelay
	}
	if cfg.InterBookDelay == 0 {
		cfg.InterBookDelay = def.InterBookDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Service{cfg: cfg}
}

// Discover runs the full pipeline: paginate the exchange, retain contracts
// expiring on ref's UTC calendar date, fetch a top-of-book for each
// candidate, and apply the filter stack. It returns one Result per
// candidate considered, preserving pass/reject detail for observability.
func (s *Service) Discover(ctx context.Context, ref time.Time) ([]Result, error) {
	candidates, err := s.sameDayContracts(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("list same-day contracts: %w", err)
	}

	ContractsDiscoveredTotal.Add(float64(len(candidates)))

	results := make([]Result, 0, len(candidates))
	tallies := make(map[string]int)

	for i, c := range candidates {
		if i > 0 {
			sleep(ctx, s.cfg.InterBookDelay)
		}

		book, err := s.cfg.Client.TopOfBook(ctx, c.Ticker)
		if err != nil {
			s.cfg.Logger.Warn("top-of-book-fetch-failed", zap.String("ticker", c.Ticker), zap.Error(err))
			book = nil
		}

		reason := s.check(c, book, ref)
		if reason != "" {
			tallies[reason]++
			DiscoveryRejectedTotal.WithLabelValues(reason).Inc()
		}

		results = append(results, Result{Contract: c, Book: book, Reason: reason})
	}

	passed := 0
	for _, r := range results {
		if r.Passed() {
			passed++
		}
	}

	s.cfg.Logger.Info("discovery-complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("tradeable", passed),
		zap.Any("rejection-reasons", tallies))

	return results, nil
}

// sameDayContracts paginates the exchange's contract listing, bounded at
// MaxPages, and retains only contracts whose close time falls on ref's UTC
// calendar date.
func (s *Service) sameDayContracts(ctx context.Context, ref time.Time) ([]types.Contract, error) {
	var same []types.Contract
	cursor := ""

	for page := 0; page < s.cfg.MaxPages; page++ {
		contracts, next, err := s.cfg.Client.ListContracts(ctx, s.cfg.PageSize, cursor)
		if err != nil {
			DiscoveryErrorsTotal.Inc()
			return nil, fmt.Errorf("list contracts page %d: %w", page, err)
		}

		for _, c := range contracts {
			if c.ExpiresOnUTCDate(ref) {
				same = append(same, c)
			}
		}

		if next == "" || len(contracts) == 0 {
			break
		}
		cursor = next

		if page < s.cfg.MaxPages-1 {
			sleep(ctx, s.cfg.InterPageDelay)
		}
	}

	return same, nil
}

// check runs the ordered filter stack against one candidate and returns the
// first rejection reason encountered, or "" if the contract passes all
// filters.
func (s *Service) check(c types.Contract, book *types.TopOfBook, ref time.Time) string {
	category := strings.ToLower(c.Category)

	if len(s.cfg.CategoryWhitelist) > 0 && !containsAny(category, s.cfg.CategoryWhitelist) {
		return ReasonNotInWhitelist
	}
	if containsAny(category, s.cfg.CategoryBlacklist) {
		return ReasonInBlacklist
	}
	if s.cfg.ContractBlacklist[c.Ticker] {
		return ReasonBlacklisted
	}
	if c.Volume24h < s.cfg.MinVolume24h {
		return ReasonLowVolume
	}
	if book == nil {
		return ReasonNoOrderbook
	}
	if book.SpreadCents() > s.cfg.MaxSpreadCents {
		return ReasonSpreadTooWide
	}
	if book.YesBidSize+book.YesAskSize < s.cfg.MinDepth {
		return ReasonLowDepth
	}
	if c.MinutesToClose(ref) < s.cfg.TradingCutoffMinutes {
		return ReasonTooCloseToClose
	}
	if c.Status != types.ContractStatusActive {
		return ReasonNotActive
	}
	if c.Settled() {
		return ReasonAlreadySettled
	}
	return ""
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
