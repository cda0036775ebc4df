// Package scanner compares a mapped exchange contract's top-of-book against
// every relevant bookmaker quote and emits alerts above a configured edge
// threshold.
package scanner

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/internal/oddsmath"
	"github.com/kalshi-odds/scanner/pkg/types"
)

// Config enumerates the scanner's tunables, each documented with its
// effect.
type Config struct {
	// ExchangeSlippageBuffer is added to the exchange ask when buying the
	// exchange side and subtracted from the exchange bid when selling.
	ExchangeSlippageBuffer float64
	// SportsbookFriction is multiplied into the bookmaker no-vig
	// probability before comparison, representing realistic hedge
	// execution.
	SportsbookFriction float64
	// MinEdgeBps is the lower alert threshold.
	MinEdgeBps float64
	// MinLiquidity is the minimum size available at the exchange leg.
	MinLiquidity int
	// MaxStaleness rejects quotes or books older than this.
	MaxStaleness time.Duration

	Logger *zap.Logger
}

// DefaultConfig returns the scanner's documented defaults.
func DefaultConfig() Config {
	return Config{
		ExchangeSlippageBuffer: 0.005,
		SportsbookFriction:     0.01,
		MinEdgeBps:             50,
		MinLiquidity:           10,
		MaxStaleness:           60 * time.Second,
	}
}

// Scanner emits alerts for mapped markets.
type Scanner struct {
	cfg Config
}

// New constructs a Scanner, filling unset numeric fields with documented
// defaults.
func New(cfg Config) *Scanner {
	def := DefaultConfig()
	if cfg.ExchangeSlippageBuffer == 0 {
		cfg.ExchangeSlippageBuffer = def.ExchangeSlippageBuffer
	}
	if cfg.SportsbookFriction == 0 {
		cfg.SportsbookFriction = def.SportsbookFriction
	}
	if cfg.MinEdgeBps == 0 {
		cfg.MinEdgeBps = def.MinEdgeBps
	}
	if cfg.MinLiquidity == 0 {
		cfg.MinLiquidity = def.MinLiquidity
	}
	if cfg.MaxStaleness == 0 {
		cfg.MaxStaleness = def.MaxStaleness
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Scanner{cfg: cfg}
}

// Compare runs the scanner algorithm for one mapped market: it compares the
// exchange top-of-book against every relevant bookmaker quote for the same
// event and market type, and returns the alerts produced, in the order the
// quotes were processed.
func (s *Scanner) Compare(marketKey string, book *types.TopOfBook, quotes []types.Quote, now time.Time) []types.Alert {
	if book == nil || !book.Valid() {
		QuotesRejectedTotal.WithLabelValues("invalid_book").Inc()
		return nil
	}
	if book.Staleness(now) > s.cfg.MaxStaleness {
		QuotesRejectedTotal.WithLabelValues("stale_book").Inc()
		return nil
	}

	buyPrice := math.Min(1, book.YesAsk+s.cfg.ExchangeSlippageBuffer)
	sellPrice := math.Max(0, book.YesBid-s.cfg.ExchangeSlippageBuffer)

	var alerts []types.Alert
	for i := range quotes {
		q := &quotes[i]
		if q.Staleness(now) > s.cfg.MaxStaleness {
			QuotesRejectedTotal.WithLabelValues("stale_quote").Inc()
			continue
		}

		implied, err := impliedProbability(q)
		if err != nil {
			QuotesRejectedTotal.WithLabelValues("bad_odds").Inc()
			continue
		}

		noVig, overround, oppositeFound := s.noVigProbability(implied, q, quotes)
		comparisonP := noVig * (1 - s.cfg.SportsbookFriction)

		if alert, ok := s.buildCheapAlert(marketKey, book, q, buyPrice, comparisonP, noVig, overround, oppositeFound, now); ok {
			alerts = append(alerts, alert)
		}
		if alert, ok := s.buildRichAlert(marketKey, book, q, sellPrice, comparisonP, noVig, overround, oppositeFound, now); ok {
			alerts = append(alerts, alert)
		}
	}

	return alerts
}

func impliedProbability(q *types.Quote) (float64, error) {
	switch q.OddsFormat {
	case types.OddsFormatAmerican:
		return oddsmath.AmericanToProb(q.OddsValue)
	case types.OddsFormatDecimal:
		return oddsmath.DecimalToProb(q.OddsValue)
	default:
		return 0, fmt.Errorf("unknown odds format %q", q.OddsFormat)
	}
}

// noVigProbability locates the opposite-selection quote from the same
// bookmaker+event+market-type. If found, two-way normalizes; otherwise
// falls back to the raw implied probability with overround=1.
func (s *Scanner) noVigProbability(implied float64, q *types.Quote, all []types.Quote) (noVig, overround float64, oppositeFound bool) {
	for i := range all {
		other := &all[i]
		if other == q || other.Selection == q.Selection {
			continue
		}
		if !q.SameMarket(other) {
			continue
		}
		oppImplied, err := impliedProbability(other)
		if err != nil {
			continue
		}
		pA, _ := oddsmath.NoVigTwoWay(implied, oppImplied)
		return pA, implied + oppImplied, true
	}
	return implied, 1.0, false
}

func (s *Scanner) buildCheapAlert(marketKey string, book *types.TopOfBook, q *types.Quote, buyPrice, comparisonP, noVig, overround float64, oppositeFound bool, now time.Time) (types.Alert, bool) {
	edge := comparisonP - buyPrice
	if edge*10000 < s.cfg.MinEdgeBps || book.YesAskSize < s.cfg.MinLiquidity {
		return types.Alert{}, false
	}
	return s.emit(marketKey, types.DirectionExchangeCheap, book, q, edge, buyPrice, book.YesAskSize, noVig, overround, oppositeFound, now), true
}

func (s *Scanner) buildRichAlert(marketKey string, book *types.TopOfBook, q *types.Quote, sellPrice, comparisonP, noVig, overround float64, oppositeFound bool, now time.Time) (types.Alert, bool) {
	edge := sellPrice - comparisonP
	if edge*10000 < s.cfg.MinEdgeBps || book.YesBidSize < s.cfg.MinLiquidity {
		return types.Alert{}, false
	}
	return s.emit(marketKey, types.DirectionExchangeRich, book, q, edge, sellPrice, book.YesBidSize, noVig, overround, oppositeFound, now), true
}

func (s *Scanner) emit(marketKey string, direction types.Direction, book *types.TopOfBook, q *types.Quote, edge, exchangePrice float64, exchangeSize int, noVig, overround float64, oppositeFound bool, now time.Time) types.Alert {
	exchangeAge := book.Staleness(now)
	quoteAge := q.Staleness(now)
	score := s.confidenceScore(edge*10000, exchangeAge, quoteAge, exchangeSize, overround)

	notes := ""
	if !oppositeFound {
		notes = "no opposite-side quote found; overround assumed 1.0"
	}

	alertID := uuid.NewString()
	AlertsEmittedTotal.WithLabelValues(string(direction)).Inc()
	AlertEdgeBps.Observe(edge * 10000)

	return types.Alert{
		AlertID:           alertID,
		Timestamp:         now,
		MarketKey:         marketKey,
		Direction:         direction,
		EdgePct:           edge * 100,
		EdgeBps:           edge * 10000,
		Confidence:        types.ConfidenceFromScore(score),
		ConfidenceScore:   score,
		ContractID:        book.Ticker,
		ExchangePrice:     exchangePrice,
		ExchangeSize:      exchangeSize,
		Bookmaker:         q.Bookmaker,
		Selection:         q.Selection,
		BookNoVigProb:     noVig,
		ExchangeStaleness: exchangeAge,
		QuoteStaleness:    quoteAge,
		Notes:             notes,
		RawOddsValue:      q.OddsValue,
		RawOddsFormat:     q.OddsFormat,
	}
}

// confidenceScore implements the scanner's tiered scoring: edge, freshness,
// liquidity, and overround contributions summed into a [0,1] score.
func (s *Scanner) confidenceScore(edgeBps float64, exchangeAge, quoteAge time.Duration, exchangeSize int, overround float64) float64 {
	score := 0.0

	switch {
	case edgeBps >= 200:
		score += 0.4
	case edgeBps >= 100:
		score += 0.3
	case edgeBps >= 50:
		score += 0.2
	default:
		score += 0.1
	}

	maxAge := exchangeAge
	if quoteAge > maxAge {
		maxAge = quoteAge
	}
	switch {
	case maxAge < 10*time.Second:
		score += 0.3
	case maxAge < 30*time.Second:
		score += 0.2
	case maxAge < 60*time.Second:
		score += 0.1
	}

	switch {
	case exchangeSize >= 100:
		score += 0.20
	case exchangeSize >= 50:
		score += 0.15
	case exchangeSize >= 20:
		score += 0.10
	default:
		score += 0.05
	}

	switch {
	case overround < 1.03:
		score += 0.10
	case overround < 1.05:
		score += 0.05
	}

	if score > 1 {
		score = 1
	}
	return score
}
