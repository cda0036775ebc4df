package aggregator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalshi-odds/scanner/pkg/types"
)

func testClient(baseURL string) *Client {
	return New(Config{
		BaseURL:           baseURL,
		MaxRetries:        2,
		InitialBackoff:    2 * time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
	})
}

const sampleOddsResponse = `[{
	"id": "evt-1",
	"sport_key": "basketball_nba",
	"commence_time": "2026-07-29T23:00:00Z",
	"home_team": "Lakers",
	"away_team": "Celtics",
	"bookmakers": [{
		"key": "draftkings",
		"last_update": "2026-07-29T20:00:00Z",
		"markets": [{
			"key": "h2h",
			"outcomes": [
				{"name": "Lakers", "price": -150},
				{"name": "Celtics", "price": 130}
			]
		}, {
			"key": "spreads",
			"outcomes": [{"name": "Lakers", "price": -110, "point": -3.5}]
		}]
	}]
}]`

func TestGetOddsParsesH2HAndSkipsSpreads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleOddsResponse))
	}))
	defer server.Close()

	client := testClient(server.URL)
	quotes, err := client.GetOdds(context.Background(), GetOddsOptions{
		Sport:      "basketball_nba",
		Regions:    "us",
		Markets:    "h2h",
		OddsFormat: types.OddsFormatAmerican,
	})
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "draftkings", quotes[0].Bookmaker)
	assert.Equal(t, "h2h", quotes[0].MarketType)
	assert.Equal(t, -150.0, quotes[0].OddsValue)
}

func TestListSportsParsesKeys(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"key":"basketball_nba"},{"key":"americanfootball_nfl"}]`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	sports, err := client.ListSports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"basketball_nba", "americanfootball_nfl"}, sports)
}

func TestGetOddsSurfacesAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := testClient(server.URL)
	_, err := client.GetOdds(context.Background(), GetOddsOptions{Sport: "basketball_nba"})
	require.Error(t, err)
}
