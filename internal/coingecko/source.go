package coingecko

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cryptoweekly/internal/interfaces"
	"github.com/ternarybob/cryptoweekly/internal/models"
)

// weeklyWindowDays is the trailing window every run covers.
const weeklyWindowDays = 7

// Source adapts the CoinGecko client to the pipeline's price feed contract.
type Source struct {
	client     *Client
	vsCurrency string
	topN       int
	logger     arbor.ILogger
}

// Compile-time assertion
var _ interfaces.PriceSource = (*Source)(nil)

// NewSource creates a price feed source for the top-N asset universe.
func NewSource(client *Client, vsCurrency string, topN int, logger arbor.ILogger) *Source {
	return &Source{
		client:     client,
		vsCurrency: vsCurrency,
		topN:       topN,
		logger:     logger,
	}
}

// FetchWeekly resolves the current top-N universe and pulls each coin's
// 7-day price history. Any API failure aborts the whole acquisition; a
// partial universe would silently skew every downstream KPI.
func (s *Source) FetchWeekly(ctx context.Context) ([]models.PricePoint, []models.Asset, error) {
	markets, err := s.client.TopMarkets(ctx, s.vsCurrency, s.topN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve top-%d coins: %w", s.topN, err)
	}

	universe := make([]models.Asset, 0, len(markets))
	var points []models.PricePoint

	for _, m := range markets {
		symbol := strings.ToLower(m.Symbol)

		chart, err := s.client.MarketChart(ctx, m.ID, s.vsCurrency, weeklyWindowDays)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch price history for %s: %w", m.ID, err)
		}

		for _, p := range chart.Prices {
			points = append(points, models.PricePoint{
				Timestamp: time.UnixMilli(int64(p[0])).UTC(),
				Symbol:    symbol,
				Price:     p[1],
			})
		}

		universe = append(universe, models.Asset{ID: m.ID, Symbol: symbol})

		s.logger.Debug().
			Str("coin", m.ID).
			Int("samples", len(chart.Prices)).
			Msg("Price history fetched")
	}

	s.logger.Info().
		Int("assets", len(universe)).
		Int("samples", len(points)).
		Msg("Price feed acquired")

	return points, universe, nil
}
