package aligner

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cryptoweekly/internal/models"
)

// Service aligns raw price and trend samples onto a shared daily calendar.
//
// Both feeds are resampled to one value per asset per UTC day (arithmetic
// mean of the day's samples), then joined on the intersection of the two
// date sets. A date survives the join only when both feeds have at least
// one sample for it; individual cells within a surviving date may still be
// NaN when a particular asset has no sample that day.
type Service struct {
	logger arbor.ILogger
}

// NewService creates an aligner service.
func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

// Align builds the merged daily table from raw samples. The universe maps
// trend keywords (coin IDs and ticker symbols) back to the symbol that
// names the asset's columns.
func (s *Service) Align(prices []models.PricePoint, trends []models.TrendPoint, universe []models.Asset) *models.MergedTable {
	keyToSym := make(map[string]string, len(universe)*2)
	for _, asset := range universe {
		sym := strings.ToLower(asset.Symbol)
		if asset.ID != "" {
			keyToSym[strings.ToLower(asset.ID)] = sym
		}
		if asset.Symbol != "" {
			keyToSym[sym] = sym
		}
	}

	priceDaily := s.resamplePrices(prices)
	trendDaily := s.resampleTrends(trends, keyToSym)

	assets := s.assetColumns(prices)
	dates := intersectDates(dateSet(priceDaily), dateSet(trendDaily))

	table := models.NewMergedTable(dates, assets)
	for _, sym := range assets {
		priceCol := make([]float64, len(dates))
		trendCol := make([]float64, len(dates))
		for i, d := range dates {
			priceCol[i] = lookup(priceDaily, d, sym)
			trendCol[i] = lookup(trendDaily, d, sym)
		}
		table.Price[sym] = priceCol
		table.Trend[sym] = trendCol
	}

	if s.logger != nil {
		s.logger.Info().
			Int("dates", len(dates)).
			Int("assets", len(assets)).
			Msg("Aligned price and trend feeds")
	}

	return table
}

// cellAccum accumulates samples for one (day, symbol) cell.
type cellAccum struct {
	sum   float64
	count int
}

type dailyGrid map[time.Time]map[string]*cellAccum

func (g dailyGrid) add(day time.Time, sym string, v float64) {
	row, ok := g[day]
	if !ok {
		row = make(map[string]*cellAccum)
		g[day] = row
	}
	cell, ok := row[sym]
	if !ok {
		cell = &cellAccum{}
		row[sym] = cell
	}
	cell.sum += v
	cell.count++
}

func (s *Service) resamplePrices(prices []models.PricePoint) dailyGrid {
	grid := make(dailyGrid)
	for _, p := range prices {
		grid.add(truncateToDay(p.Timestamp), strings.ToLower(p.Symbol), p.Price)
	}
	return grid
}

// resampleTrends sums the scores of all keywords mapping to the same asset
// at the same raw timestamp, then averages those summed samples per day.
func (s *Service) resampleTrends(trends []models.TrendPoint, keyToSym map[string]string) dailyGrid {
	type sampleKey struct {
		ts  time.Time
		sym string
	}
	merged := make(map[sampleKey]float64)
	order := make([]sampleKey, 0, len(trends))
	for _, t := range trends {
		sym, ok := keyToSym[strings.ToLower(t.Key)]
		if !ok {
			continue
		}
		k := sampleKey{ts: t.Timestamp, sym: sym}
		if _, seen := merged[k]; !seen {
			order = append(order, k)
		}
		merged[k] += t.Score
	}

	grid := make(dailyGrid)
	for _, k := range order {
		grid.add(truncateToDay(k.ts), k.sym, merged[k])
	}
	return grid
}

// assetColumns returns the sorted set of symbols with at least one price
// sample. Trend-only keywords never create a column.
func (s *Service) assetColumns(prices []models.PricePoint) []string {
	seen := make(map[string]bool)
	for _, p := range prices {
		seen[strings.ToLower(p.Symbol)] = true
	}
	assets := make([]string, 0, len(seen))
	for sym := range seen {
		assets = append(assets, sym)
	}
	sort.Strings(assets)
	return assets
}

func truncateToDay(ts time.Time) time.Time {
	u := ts.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func dateSet(grid dailyGrid) map[time.Time]bool {
	set := make(map[time.Time]bool, len(grid))
	for d := range grid {
		set[d] = true
	}
	return set
}

func intersectDates(a, b map[time.Time]bool) []time.Time {
	var dates []time.Time
	for d := range a {
		if b[d] {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func lookup(grid dailyGrid, day time.Time, sym string) float64 {
	if row, ok := grid[day]; ok {
		if cell, ok := row[sym]; ok && cell.count > 0 {
			return cell.sum / float64(cell.count)
		}
	}
	return math.NaN()
}
