package gtrends

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cryptoweekly/internal/interfaces"
	"github.com/ternarybob/cryptoweekly/internal/models"
)

// maxKeywordsPerBatch is the hard limit the Trends comparison API enforces.
const maxKeywordsPerBatch = 5

// Source fetches search-interest series for a universe of assets. Each asset
// is queried under two keywords, its coin ID ("bitcoin") and its ticker
// symbol ("btc"), and both series are emitted keyed by the raw keyword.
type Source struct {
	client    *Client
	timeframe string
	batchSize int
	logger    arbor.ILogger
}

// Compile-time assertion
var _ interfaces.TrendSource = (*Source)(nil)

// NewSource creates a trend source backed by the given client. batchSize is
// how many keywords go into one comparison request; values outside 1..5 are
// clamped to the API limit.
func NewSource(client *Client, timeframe string, batchSize int, logger arbor.ILogger) *Source {
	if batchSize < 1 || batchSize > maxKeywordsPerBatch {
		batchSize = maxKeywordsPerBatch
	}
	return &Source{
		client:    client,
		timeframe: timeframe,
		batchSize: batchSize,
		logger:    logger,
	}
}

// FetchWeekly fetches interest-over-time scores for every asset in the
// universe. Any failed batch fails the whole fetch.
func (s *Source) FetchWeekly(ctx context.Context, universe []models.Asset) ([]models.TrendPoint, error) {
	keywords := make([]string, 0, len(universe)*2)
	for _, asset := range universe {
		if asset.ID != "" {
			keywords = append(keywords, asset.ID)
		}
		if asset.Symbol != "" && asset.Symbol != asset.ID {
			keywords = append(keywords, asset.Symbol)
		}
	}
	if len(keywords) == 0 {
		return nil, nil
	}

	var points []models.TrendPoint
	for start := 0; start < len(keywords); start += s.batchSize {
		end := start + s.batchSize
		if end > len(keywords) {
			end = len(keywords)
		}
		batch := keywords[start:end]

		if s.logger != nil {
			s.logger.Debug().
				Int("batch_size", len(batch)).
				Str("timeframe", s.timeframe).
				Msg("Fetching trend batch")
		}

		timeline, err := s.client.InterestOverTime(ctx, batch, s.timeframe)
		if err != nil {
			return nil, fmt.Errorf("trend batch %v failed: %w", batch, err)
		}

		for _, pt := range timeline {
			for i, kw := range batch {
				if i >= len(pt.Values) {
					break
				}
				points = append(points, models.TrendPoint{
					Timestamp: pt.Time,
					Key:       kw,
					Score:     pt.Values[i],
				})
			}
		}
	}

	if s.logger != nil {
		s.logger.Info().
			Int("points", len(points)).
			Int("keywords", len(keywords)).
			Msg("Fetched trend data")
	}

	return points, nil
}
