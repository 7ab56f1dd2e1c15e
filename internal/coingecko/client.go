package coingecko

import (
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
	// DefaultBaseURL is the base URL for the CoinGecko API.
	DefaultBaseURL = "https://api.coingecko.com/api/v3"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateInterval is the default delay between requests. The free
	// tier allows roughly 30 requests per minute.
	DefaultRateInterval = 2 * time.Second
)

// Client is a CoinGecko API client.
type Client struct {
	baseURL    string
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

// NewClient creates a new CoinGecko API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
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

// get performs a GET request to the API.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return &RateLimitError{RetryAfter: time.Second}
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if c.logger != nil {
		c.logger.Debug().
			Str("url", c.baseURL+path).
			Msg("CoinGecko API request")
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

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// TopMarkets retrieves the top coins by market capitalization.
func (c *Client) TopMarkets(ctx context.Context, vsCurrency string, limit int) ([]Market, error) {
	params := url.Values{}
	params.Set("vs_currency", vsCurrency)
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(limit))
	params.Set("page", "1")
	params.Set("sparkline", "false")

	var result []Market
	if err := c.get(ctx, "/coins/markets", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// MarketChart retrieves historical price data for a coin over the trailing
// number of days. Timestamps in the response are unix milliseconds.
func (c *Client) MarketChart(ctx context.Context, coinID, vsCurrency string, days int) (*MarketChart, error) {
	params := url.Values{}
	params.Set("vs_currency", vsCurrency)
	params.Set("days", strconv.Itoa(days))

	var result MarketChart
	if err := c.get(ctx, "/coins/"+coinID+"/market_chart", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
