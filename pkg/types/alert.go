package types

import "time"

// Alert is produced by the scanner for one contract x one bookmaker x one
// direction. It is immutable once emitted.
type Alert struct {
	AlertID           string    `json:"alert_id"`
	Timestamp         time.Time `json:"ts"`
	MarketKey         string    `json:"market_key"`
	Direction         Direction `json:"direction"`
	EdgePct           float64   `json:"edge_pct"`
	EdgeBps           float64   `json:"edge_bps"`
	Confidence        Confidence `json:"confidence"`
	ConfidenceScore   float64   `json:"confidence_score"`
	ContractID        string    `json:"contract_id"`
	ExchangePrice     float64   `json:"exchange_price"`
	ExchangeSize      int       `json:"exchange_size"`
	Bookmaker         string    `json:"bookmaker"`
	Selection         string    `json:"selection"`
	// BookNoVigProb is the two-way no-vig implied probability before
	// sportsbook friction is applied; friction is folded in only when
	// comparing against the exchange price, not stored here.
	BookNoVigProb     float64   `json:"book_no_vig_prob"`
	ExchangeStaleness time.Duration `json:"exchange_staleness"`
	QuoteStaleness    time.Duration `json:"quote_staleness"`
	Notes             string    `json:"notes"`

	// RawOddsValue/RawOddsFormat preserve the source quote's display so the
	// aggregator can format odds strings faithfully.
	RawOddsValue  float64    `json:"raw_odds_value"`
	RawOddsFormat OddsFormat `json:"raw_odds_format"`
}
