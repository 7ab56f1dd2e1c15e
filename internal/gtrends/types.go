// Package gtrends provides a client for the unofficial Google Trends widget
// API, covering the explore -> interest-over-time flow.
package gtrends

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimelinePoint is one interest-over-time sample. Values holds one score per
// requested keyword, in request order.
type TimelinePoint struct {
	Time   time.Time
	Values []float64
}

// exploreResponse is the answer to the explore call. Each widget carries the
// token and request blob that must be echoed back verbatim to the widget
// data endpoint.
type exploreResponse struct {
	Widgets []widget `json:"widgets"`
}

type widget struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Request json.RawMessage `json:"request"`
}

// multilineResponse is the answer to the widgetdata/multiline call.
type multilineResponse struct {
	Default struct {
		TimelineData []timelineEntry `json:"timelineData"`
	} `json:"default"`
}

type timelineEntry struct {
	Time  string    `json:"time"` // unix seconds, as a string
	Value []float64 `json:"value"`
}

// APIError represents an error from the trends API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Google Trends API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// RateLimitError represents a rate limit error (HTTP 429).
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("Google Trends rate limit exceeded, retry after %v", e.RetryAfter)
}
