package matcher

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kalshi-odds/scanner/pkg/types"
)

// sportToSeries maps an aggregator sport key to the exchange series ticker
// prefix used for that sport's game-winner markets.
var sportToSeries = map[string]string{
	"basketball_nba":    "NBA",
	"americanfootball_nfl": "NFL",
}

// teamCodeKeywords maps an exchange team code to the keyword substrings
// seen in aggregator team names for that franchise. Used to match a ticker's
// embedded game code against the two team names on an aggregator event.
var teamCodeKeywords = map[string][]string{
	// NBA
	"LAL": {"lakers"},
	"LAC": {"clippers"},
	"BOS": {"celtics"},
	"GSW": {"warriors", "golden state"},
	"MIA": {"heat"},
	"MIL": {"bucks"},
	"PHX": {"suns"},
	"DEN": {"nuggets"},
	"DAL": {"mavericks", "mavs"},
	"NYK": {"knicks"},
	"BKN": {"nets"},
	"PHI": {"76ers", "sixers"},
	"CHI": {"bulls"},
	"TOR": {"raptors"},
	"ATL": {"hawks"},
	"CLE": {"cavaliers", "cavs"},
	"MEM": {"grizzlies"},
	"NOP": {"pelicans"},
	"SAC": {"kings"},
	"MIN": {"timberwolves", "wolves"},
	"OKC": {"thunder"},
	"POR": {"trail blazers", "blazers"},
	"UTA": {"jazz"},
	"SAS": {"spurs"},
	"HOU": {"rockets"},
	"IND": {"pacers"},
	"ORL": {"magic"},
	"WAS": {"wizards"},
	"CHA": {"hornets"},
	"DET": {"pistons"},

	// NFL
	"KC":  {"chiefs"},
	"SF":  {"49ers"},
	"BUF": {"bills"},
	"PHI_NFL": {"eagles"},
	"BAL": {"ravens"},
	"DAL_NFL": {"cowboys"},
	"DET_NFL": {"lions"},
	"GB":  {"packers"},
	"MIA_NFL": {"dolphins"},
	"CIN": {"bengals"},
	"NYJ": {"jets"},
	"NYG": {"giants"},
	"NE":  {"patriots"},
	"PIT": {"steelers"},
	"CLE_NFL": {"browns"},
	"HOU_NFL": {"texans"},
	"JAX": {"jaguars"},
	"TEN": {"titans"},
	"IND_NFL": {"colts"},
	"DEN_NFL": {"broncos"},
	"LV":  {"raiders"},
	"LAC_NFL": {"chargers"},
	"LAR": {"rams"},
	"SEA": {"seahawks"},
	"ARI": {"cardinals"},
	"CHI_NFL": {"bears"},
	"MIN_NFL": {"vikings"},
	"NO":  {"saints"},
	"TB":  {"buccaneers", "bucs"},
	"ATL_NFL": {"falcons"},
	"CAR": {"panthers"},
	"WAS_NFL": {"commanders"},
}

var monthAbbrev = map[time.Month]string{
	time.January: "JAN", time.February: "FEB", time.March: "MAR", time.April: "APR",
	time.May: "MAY", time.June: "JUN", time.July: "JUL", time.August: "AUG",
	time.September: "SEP", time.October: "OCT", time.November: "NOV", time.December: "DEC",
}

// parsedTicker is the decomposition of an exchange ticker in the
// SERIES-YYMMMDDGAMECODE-SIDE format.
type parsedTicker struct {
	Series   string
	Date     time.Time
	GameCode string
	Side     string
}

// parseTicker decomposes a ticker into its series prefix, embedded date, two
// concatenated team codes, and side code. A ticker that doesn't fit the
// expected shape is not an error — auto-mapping simply skips it, which is
// how the operator notices registry gaps relative to total contracts.
func parseTicker(ticker string) (parsedTicker, bool) {
	parts := strings.Split(ticker, "-")
	if len(parts) != 3 {
		return parsedTicker{}, false
	}
	series, body, side := parts[0], parts[1], parts[2]
	if len(body) < 9 {
		return parsedTicker{}, false
	}

	dateStr := body[:7] // YYMMMDD
	gameCode := body[7:]

	year := dateStr[:2]
	monStr := strings.ToUpper(dateStr[2:5])
	day := dateStr[5:7]

	var month time.Month
	found := false
	for m, abbr := range monthAbbrev {
		if abbr == monStr {
			month = m
			found = true
			break
		}
	}
	if !found {
		return parsedTicker{}, false
	}

	date, err := time.Parse("06-01-02", fmt.Sprintf("%s-%02d-%s", year, int(month), day))
	if err != nil {
		return parsedTicker{}, false
	}

	return parsedTicker{Series: series, Date: date, GameCode: gameCode, Side: side}, true
}

// gameCodes splits a concatenated game code into its two team codes: a
// 6-character code splits into two 3-character codes, a 4-character code
// into two 2-character codes.
func gameCodes(code string) (string, string, bool) {
	switch len(code) {
	case 6:
		return code[:3], code[3:], true
	case 4:
		return code[:2], code[2:], true
	default:
		return "", "", false
	}
}

// marketKeyFromTicker builds the canonical mapping key
// "<sport>_<YYYYMMDD>_<gamecode>_<side>".
func marketKeyFromTicker(sport string, pt parsedTicker) string {
	return fmt.Sprintf("%s_%s_%s_%s", strings.ToLower(sport), pt.Date.Format("20060102"), pt.GameCode, pt.Side)
}

// matchEventToCodes reports whether an aggregator event's two team names
// match team codes A and B in either order, and if so which name
// corresponds to which code.
func matchEventToCodes(homeTeam, awayTeam, codeA, codeB string) (teamForA string, ok bool) {
	kwA, okA := teamCodeKeywords[codeA]
	kwB, okB := teamCodeKeywords[codeB]
	if !okA || !okB {
		return "", false
	}

	home, away := strings.ToLower(homeTeam), strings.ToLower(awayTeam)

	homeMatchesA := containsAny(home, kwA)
	awayMatchesB := containsAny(away, kwB)
	if homeMatchesA && awayMatchesB {
		return homeTeam, true
	}

	homeMatchesB := containsAny(home, kwB)
	awayMatchesA := containsAny(away, kwA)
	if homeMatchesB && awayMatchesA {
		return awayTeam, true
	}

	return "", false
}

func containsAny(haystack string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

// AggregatorEvent is the minimal shape the auto-mapper needs from an
// aggregator event to attempt a team-code match.
type AggregatorEvent struct {
	EventID   string
	HomeTeam  string
	AwayTeam  string
	EventTitle string
}

// BuildMappings runs the auto-mapper over a set of exchange contracts for
// one sport's series, against the current aggregator events for that sport.
// It merges with the existing registry: rows whose contract ticker was not
// matched this run are preserved, rows whose contract was matched are
// replaced with the freshly computed entry.
func BuildMappings(sport string, contracts []types.Contract, events []AggregatorEvent, existing types.MappingRegistry, logger *zap.Logger) types.MappingRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}

	marketType := "h2h"
	matchedTickers := make(map[string]types.MarketMapping)

	for _, c := range contracts {
		pt, ok := parseTicker(c.Ticker)
		if !ok {
			continue
		}
		codeA, codeB, ok := gameCodes(pt.GameCode)
		if !ok {
			continue
		}
		if pt.Side != codeA && pt.Side != codeB {
			continue
		}

		var matched *AggregatorEvent
		var selection string
		for i := range events {
			ev := &events[i]
			if ev.HomeTeam == "" || ev.AwayTeam == "" {
				continue
			}
			teamForA, ok := matchEventToCodes(ev.HomeTeam, ev.AwayTeam, codeA, codeB)
			if !ok {
				continue
			}
			matched = ev
			if pt.Side == codeA {
				selection = teamForA
			} else if teamForA == ev.HomeTeam {
				selection = ev.AwayTeam
			} else {
				selection = ev.HomeTeam
			}
			break
		}

		if matched == nil {
			continue
		}

		marketKey := marketKeyFromTicker(sport, pt)
		matchedTickers[c.Ticker] = types.MarketMapping{
			MarketKey: marketKey,
			Exchange: types.MappingExchangeSide{
				ContractTicker: c.Ticker,
				Side:           c.OutcomeSide,
			},
			Odds: types.MappingOddsSide{
				EventID:    matched.EventID,
				MarketType: marketType,
				Selection:  selection,
			},
		}
	}

	merged := make([]types.MarketMapping, 0, len(existing.Markets)+len(matchedTickers))
	seenKeys := make(map[string]struct{})

	for _, entry := range existing.Markets {
		if fresh, ok := matchedTickers[entry.Exchange.ContractTicker]; ok {
			merged = append(merged, fresh)
			seenKeys[fresh.MarketKey] = struct{}{}
			delete(matchedTickers, entry.Exchange.ContractTicker)
			continue
		}
		merged = append(merged, entry)
		seenKeys[entry.MarketKey] = struct{}{}
	}
	for _, fresh := range matchedTickers {
		if _, dup := seenKeys[fresh.MarketKey]; dup {
			continue
		}
		merged = append(merged, fresh)
	}

	logger.Info("automap_complete",
		zap.String("sport", sport),
		zap.Int("contracts_considered", len(contracts)),
		zap.Int("total_mappings", len(merged)))

	return types.MappingRegistry{Markets: merged}
}
