package coingecko

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(url string) *Client {
	return NewClient(
		WithBaseURL(url),
		WithRateInterval(time.Microsecond),
	)
}

func TestTopMarkets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "market_cap_desc", r.URL.Query().Get("order"))
		assert.Equal(t, "2", r.URL.Query().Get("per_page"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":"bitcoin","symbol":"btc","name":"Bitcoin","market_cap":1000000},
			{"id":"ethereum","symbol":"eth","name":"Ethereum","market_cap":500000}
		]`))
	}))
	defer srv.Close()

	markets, err := testClient(srv.URL).TopMarkets(context.Background(), "usd", 2)
	require.NoError(t, err)
	require.Len(t, markets, 2)
	assert.Equal(t, "bitcoin", markets[0].ID)
	assert.Equal(t, "btc", markets[0].Symbol)
	assert.Equal(t, "ethereum", markets[1].ID)
}

func TestMarketChart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/bitcoin/market_chart", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("days"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"prices":[[1724457600000,60000.5],[1724544000000,61250.25]]}`))
	}))
	defer srv.Close()

	chart, err := testClient(srv.URL).MarketChart(context.Background(), "bitcoin", "usd", 7)
	require.NoError(t, err)
	require.Len(t, chart.Prices, 2)
	assert.Equal(t, 1724457600000.0, chart.Prices[0][0])
	assert.Equal(t, 60000.5, chart.Prices[0][1])
}

func TestRateLimitError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).TopMarkets(context.Background(), "usd", 5)
	require.Error(t, err)

	var rateErr *RateLimitError
	assert.True(t, errors.As(err, &rateErr))
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("coin not found"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).MarketChart(context.Background(), "nope", "usd", 7)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "coin not found")
}

func TestContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := testClient(srv.URL).TopMarkets(ctx, "usd", 5)
	assert.Error(t, err)
}
