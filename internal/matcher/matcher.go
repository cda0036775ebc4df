// Package matcher pairs exchange contracts with aggregator selections
// through a manually curated YAML registry, with an auto-mapper and a
// fuzzy candidate suggester layered on top.
package matcher

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kalshi-odds/scanner/pkg/types"
)

// Matcher loads and indexes a mapping registry, and resolves contracts to
// aggregator selections and back.
type Matcher struct {
	mappingFile    string
	fuzzyEnabled   bool
	fuzzyThreshold float64
	logger         *zap.Logger

	mappings      map[string]types.MarketMapping
	exchangeToKey map[string]string
	oddsToKey     map[types.OddsKey]string
}

// Config configures a Matcher.
type Config struct {
	MappingFile    string
	FuzzyEnabled   bool
	FuzzyThreshold float64
	Logger         *zap.Logger
}

// New constructs a Matcher with empty indexes; call LoadMappings to
// populate them.
func New(cfg Config) *Matcher {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.FuzzyThreshold == 0 {
		cfg.FuzzyThreshold = 0.75
	}
	return &Matcher{
		mappingFile:    cfg.MappingFile,
		fuzzyEnabled:   cfg.FuzzyEnabled,
		fuzzyThreshold: cfg.FuzzyThreshold,
		logger:         cfg.Logger,
		mappings:       make(map[string]types.MarketMapping),
		exchangeToKey:  make(map[string]string),
		oddsToKey:      make(map[types.OddsKey]string),
	}
}

// LoadMappings reads the mapping registry file and (re)builds the forward
// and reverse indexes. Malformed entries (missing market_key) are skipped
// and counted. Returns the number of mappings loaded.
func (m *Matcher) LoadMappings() (int, error) {
	if m.mappingFile == "" {
		return 0, nil
	}
	data, err := os.ReadFile(m.mappingFile)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read mapping file: %w", err)
	}

	var registry types.MappingRegistry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return 0, fmt.Errorf("parse mapping file: %w", err)
	}

	mappings := make(map[string]types.MarketMapping, len(registry.Markets))
	exchangeToKey := make(map[string]string, len(registry.Markets))
	oddsToKey := make(map[types.OddsKey]string, len(registry.Markets))
	skipped := 0

	for _, entry := range registry.Markets {
		if entry.MarketKey == "" {
			skipped++
			continue
		}
		mappings[entry.MarketKey] = entry

		if entry.Exchange.ContractTicker != "" {
			exchangeToKey[entry.Exchange.ContractTicker] = entry.MarketKey
		}
		if entry.Odds.EventID != "" && entry.Odds.MarketType != "" && entry.Odds.Selection != "" {
			key := types.OddsKey{EventID: entry.Odds.EventID, MarketType: entry.Odds.MarketType, Selection: entry.Odds.Selection}
			oddsToKey[key] = entry.MarketKey
		}
	}

	m.mappings = mappings
	m.exchangeToKey = exchangeToKey
	m.oddsToKey = oddsToKey

	m.logger.Info("mapping_registry_loaded",
		zap.Int("count", len(mappings)),
		zap.Int("skipped", skipped),
		zap.String("path", m.mappingFile))

	return len(mappings), nil
}

// ResolveByExchange returns the mapping for a contract ticker, if any.
func (m *Matcher) ResolveByExchange(ticker string) (types.MarketMapping, bool) {
	key, ok := m.exchangeToKey[ticker]
	if !ok {
		return types.MarketMapping{}, false
	}
	mapping, ok := m.mappings[key]
	return mapping, ok
}

// ResolveByAggregator returns the mapping for an (event, market type,
// selection) triple, if any.
func (m *Matcher) ResolveByAggregator(eventID, marketType, selection string) (types.MarketMapping, bool) {
	key, ok := m.oddsToKey[types.OddsKey{EventID: eventID, MarketType: marketType, Selection: selection}]
	if !ok {
		return types.MarketMapping{}, false
	}
	mapping, ok := m.mappings[key]
	return mapping, ok
}

// Mapping returns the full entry for a market key.
func (m *Matcher) Mapping(marketKey string) (types.MarketMapping, bool) {
	mapping, ok := m.mappings[marketKey]
	return mapping, ok
}

// AllMarketKeys returns every currently loaded market key.
func (m *Matcher) AllMarketKeys() []string {
	keys := make([]string, 0, len(m.mappings))
	for k := range m.mappings {
		keys = append(keys, k)
	}
	return keys
}

// Count returns the number of loaded mappings.
func (m *Matcher) Count() int {
	return len(m.mappings)
}

// WriteMappings atomically rewrites the mapping registry file: the new
// content is written to a temp file in the same directory, then renamed
// over the target, so a reader never observes a partial write.
func WriteMappings(path string, registry types.MappingRegistry) error {
	data, err := yaml.Marshal(registry)
	if err != nil {
		return fmt.Errorf("marshal mapping registry: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".mappings-*.yaml.tmp")
	if err != nil {
		return fmt.Errorf("create temp mapping file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp mapping file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp mapping file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp mapping file: %w", err)
	}
	return nil
}

// Candidate is a suggested pairing between an unmapped contract and an
// unmapped quote, scored by title similarity. Candidates are suggestions
// for manual review only — they are never auto-applied.
type Candidate struct {
	ContractTicker string
	ContractTitle  string
	EventID        string
	MarketType     string
	Selection      string
	EventTitle     string
	Score          float64
}

// FuzzyCandidates compares every currently-unmapped contract title against
// every currently-unmapped quote's event title, using token-sort string
// similarity in [0,1]. Only pairs where neither side is already mapped are
// considered. The result is sorted by score descending and truncated to the
// top 50.
func (m *Matcher) FuzzyCandidates(contracts []types.Contract, quotes []types.Quote) []Candidate {
	if !m.fuzzyEnabled {
		return nil
	}

	var candidates []Candidate
	for _, c := range contracts {
		if _, mapped := m.exchangeToKey[c.Ticker]; mapped {
			continue
		}
		for _, q := range quotes {
			key := types.OddsKey{EventID: q.EventID, MarketType: q.MarketType, Selection: q.Selection}
			if _, mapped := m.oddsToKey[key]; mapped {
				continue
			}
			score := tokenSortRatio(c.Title, q.EventTitle)
			if score >= m.fuzzyThreshold {
				candidates = append(candidates, Candidate{
					ContractTicker: c.Ticker,
					ContractTitle:  c.Title,
					EventID:        q.EventID,
					MarketType:     q.MarketType,
					Selection:      q.Selection,
					EventTitle:     q.EventTitle,
					Score:          score,
				})
			}
		}
	}

	sortCandidatesDescending(candidates)
	if len(candidates) > 50 {
		candidates = candidates[:50]
	}
	return candidates
}

func sortCandidatesDescending(c []Candidate) {
	for i := 1; i < len(c); i++ {
		for j := i; j > 0 && c[j].Score > c[j-1].Score; j-- {
			c[j], c[j-1] = c[j-1], c[j]
		}
	}
}
