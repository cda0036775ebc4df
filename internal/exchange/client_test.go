package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	return New(Config{
		BaseURL:           baseURL,
		MaxRetries:        3,
		InitialBackoff:    5 * time.Millisecond,
		MaxBackoff:        20 * time.Millisecond,
		BackoffMultiplier: 2.0,
	})
}

func TestListContractsParsesPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"markets":[{"ticker":"NBA-1","category":"sports","status":"active","volume_24h":500}],"cursor":"next"}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	contracts, cursor, err := client.ListContracts(context.Background(), 100, "")
	require.NoError(t, err)
	assert.Equal(t, "next", cursor)
	require.Len(t, contracts, 1)
	assert.Equal(t, "NBA-1", contracts[0].Ticker)
	assert.Equal(t, 500.0, contracts[0].Volume24h)
}

func TestGetBalanceConvertsCentsToDollars(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"balance":150000}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	balance, err := client.GetBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1500.0, balance)
}

func TestDoRetriesOnTransportErrorThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			// simulate connection reset by closing without writing
			hj, ok := w.(http.Hijacker)
			if ok {
				conn, _, _ := hj.Hijack()
				conn.Close()
				return
			}
		}
		_, _ = w.Write([]byte(`{"balance":100}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	_, err := client.GetBalance(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, attempts.Load(), int32(3))
}

func TestDoSurfacesAuthErrorWithoutRetry(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := testClient(server.URL)
	_, err := client.GetBalance(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestDoRetriesRateLimitOnceThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"balance":100}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	balance, err := client.GetBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, balance)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestPlaceOrderSurfacesBusinessRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"market_closed","message":"market is closed"}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	_, err := client.PlaceOrder(context.Background(), PlaceOrderRequest{Ticker: "NBA-1", Count: 1, PriceCents: 50})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "market is closed")
}
