package types

// Opportunity is produced by the aggregator by grouping alerts on
// (mapping key, direction).
type Opportunity struct {
	MarketKey        string     `json:"market_key"`
	Direction        Direction  `json:"direction"`
	BookFairProb     float64    `json:"book_fair_prob"`
	BookCount        int        `json:"book_count"`
	BestBook         *Alert     `json:"best_book"`
	WorstBook        *Alert     `json:"worst_book"`
	EdgeCents        float64    `json:"edge_cents"`
	EdgeBps          float64    `json:"edge_bps"`
	ExchangeAction   string     `json:"exchange_action"`
	HedgeAction      string     `json:"hedge_action"`
	PnlPer100Shares  float64    `json:"pnl_per_100_shares"`
	MaxShares        int        `json:"max_shares"`
	Confidence       Confidence `json:"confidence"`
	RankScore        float64    `json:"rank_score"`
	RawAlertCount    int        `json:"raw_alert_count"`
	DeepLink         string     `json:"deep_link"`
}
