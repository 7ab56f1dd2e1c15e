package gtrends

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the base URL for the Google Trends site.
	DefaultBaseURL = "https://trends.google.com"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateInterval is the default delay between requests. The widget
	// API throttles aggressively, so stay well under one request per second.
	DefaultRateInterval = 5 * time.Second

	// userAgent mimics a regular browser; the widget API rejects the Go
	// default agent.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Client is a Google Trends widget API client.
type Client struct {
	baseURL    string
	hl         string
	tz         int
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateInterval sets a custom minimum delay between requests.
func WithRateInterval(interval time.Duration) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// NewClient creates a new Google Trends client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		hl:      "en-US",
		tz:      360,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(DefaultRateInterval), 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs a GET request and strips the anti-JSON-hijacking prefix
// (")]}'" plus optional comma/newline) Google prepends to every widget
// API response.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &RateLimitError{RetryAfter: time.Second}
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	if c.logger != nil {
		c.logger.Debug().
			Str("url", c.baseURL+path).
			Msg("Google Trends API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{RetryAfter: time.Minute}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	idx := bytes.IndexAny(body, "{[")
	if idx < 0 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    "response contains no JSON payload",
			Endpoint:   path,
		}
	}

	if err := json.Unmarshal(body[idx:], result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// explore registers a keyword batch and returns the interest-over-time
// widget (token + request blob) needed for the data call.
func (c *Client) explore(ctx context.Context, keywords []string, timeframe string) (*widget, error) {
	type comparisonItem struct {
		Keyword string `json:"keyword"`
		Time    string `json:"time"`
		Geo     string `json:"geo"`
	}
	reqPayload := struct {
		ComparisonItem []comparisonItem `json:"comparisonItem"`
		Category       int              `json:"category"`
		Property       string           `json:"property"`
	}{Category: 0, Property: ""}

	for _, kw := range keywords {
		reqPayload.ComparisonItem = append(reqPayload.ComparisonItem, comparisonItem{
			Keyword: kw,
			Time:    timeframe,
			Geo:     "",
		})
	}

	blob, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal explore request: %w", err)
	}

	params := url.Values{}
	params.Set("hl", c.hl)
	params.Set("tz", strconv.Itoa(c.tz))
	params.Set("req", string(blob))

	var result exploreResponse
	if err := c.get(ctx, "/trends/api/explore", params, &result); err != nil {
		return nil, err
	}

	for i := range result.Widgets {
		if result.Widgets[i].ID == "TIMESERIES" {
			return &result.Widgets[i], nil
		}
	}
	return nil, &APIError{
		StatusCode: http.StatusOK,
		Message:    "no TIMESERIES widget in explore response",
		Endpoint:   "/trends/api/explore",
	}
}

// InterestOverTime returns the interest-over-time series for up to five
// keywords. Each returned point carries one score per keyword, in the order
// the keywords were requested.
func (c *Client) InterestOverTime(ctx context.Context, keywords []string, timeframe string) ([]TimelinePoint, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	if len(keywords) > 5 {
		return nil, fmt.Errorf("at most 5 keywords per request, got %d", len(keywords))
	}

	w, err := c.explore(ctx, keywords, timeframe)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("hl", c.hl)
	params.Set("tz", strconv.Itoa(c.tz))
	params.Set("req", string(w.Request))
	params.Set("token", w.Token)

	var result multilineResponse
	if err := c.get(ctx, "/trends/api/widgetdata/multiline", params, &result); err != nil {
		return nil, err
	}

	points := make([]TimelinePoint, 0, len(result.Default.TimelineData))
	for _, entry := range result.Default.TimelineData {
		secs, err := strconv.ParseInt(entry.Time, 10, 64)
		if err != nil {
			continue
		}
		points = append(points, TimelinePoint{
			Time:   time.Unix(secs, 0).UTC(),
			Values: entry.Value,
		})
	}

	return points, nil
}
