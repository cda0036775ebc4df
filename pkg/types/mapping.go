package types

// MarketMapping pairs one exchange contract side with one aggregator
// selection under a stable, human-readable key, e.g.
// "nba_20260214_LALBOS_LAL". Updates replace the entire entry.
type MarketMapping struct {
	MarketKey string `yaml:"market_key" json:"market_key"`

	Exchange MappingExchangeSide `yaml:"exchange" json:"exchange"`
	Odds     MappingOddsSide     `yaml:"odds" json:"odds"`
}

// MappingExchangeSide identifies the exchange-side leg of a mapping.
type MappingExchangeSide struct {
	ContractTicker string    `yaml:"contract_id" json:"contract_id"`
	Side           OrderSide `yaml:"side" json:"side"`
}

// MappingOddsSide identifies the aggregator-side leg of a mapping.
type MappingOddsSide struct {
	EventID    string `yaml:"event_id" json:"event_id"`
	MarketType string `yaml:"market_type" json:"market_type"`
	Selection  string `yaml:"selection" json:"selection"`
}

// MappingRegistry is the on-disk logical schema: a flat list of mappings
// under a "markets" key, matching the mapping-registry file format.
type MappingRegistry struct {
	Markets []MarketMapping `yaml:"markets" json:"markets"`
}

// OddsKey is the composite reverse-index key (event_id, market_type,
// selection) used to look up a mapping from the aggregator side.
type OddsKey struct {
	EventID    string
	MarketType string
	Selection  string
}
