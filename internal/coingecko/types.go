// Package coingecko provides a client for the CoinGecko public API.
// This package centralizes all CoinGecko interactions for the application.
package coingecko

import (
	"fmt"
	"time"
)

// Market is one row of the coins/markets listing.
type Market struct {
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	MarketCap float64 `json:"market_cap"`
}

// MarketChart is the historical price payload for one coin. Each entry is a
// [unix-ms-timestamp, price] pair.
type MarketChart struct {
	Prices [][2]float64 `json:"prices"`
}

// APIError represents an error from the CoinGecko API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("CoinGecko API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// RateLimitError represents a rate limit error.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("CoinGecko rate limit exceeded, retry after %v", e.RetryAfter)
}
