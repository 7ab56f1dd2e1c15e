package kpi

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cryptoweekly/internal/models"
	"gonum.org/v1/gonum/stat"
)

// Service computes per-asset weekly KPIs from the merged daily table.
//
// Every statistic tolerates missing data: a NaN anywhere in a series flows
// through to the derived figures, and series too short for a statistic
// yield NaN rather than an error.
type Service struct {
	logger arbor.ILogger
}

// NewService creates a KPI service.
func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

// Compute returns one KPI record per asset, in the table's column order.
func (s *Service) Compute(table *models.MergedTable) []models.KPIRecord {
	records := make([]models.KPIRecord, 0, len(table.Assets))
	for _, asset := range table.Assets {
		records = append(records, s.computeAsset(asset, table.PriceColumn(asset), table.TrendColumn(asset)))
	}

	if s.logger != nil {
		s.logger.Info().
			Int("assets", len(records)).
			Int("days", table.Len()).
			Msg("Computed weekly KPIs")
	}

	return records
}

func (s *Service) computeAsset(asset string, prices, trends []float64) models.KPIRecord {
	// NaN cells drop out of each series independently; paired statistics
	// then run over the shorter common prefix.
	prices = dropNaN(prices)
	trends = dropNaN(trends)
	n := len(prices)
	if len(trends) < n {
		n = len(trends)
	}
	prices = prices[:n]
	trends = trends[:n]

	rec := models.KPIRecord{
		Asset:           asset,
		WeeklyReturnPct: math.NaN(),
		Volatility:      math.NaN(),
		MaxPrice:        math.NaN(),
		MinPrice:        math.NaN(),
		AvgTrend:        math.NaN(),
		PriceTrendCorr:  math.NaN(),
	}
	if n == 0 {
		return rec
	}

	first, last := prices[0], prices[n-1]
	rec.WeeklyReturnPct = (last - first) / first * 100
	rec.MaxPrice = maxOf(prices)
	rec.MinPrice = minOf(prices)
	rec.AvgTrend = stat.Mean(trends, nil)

	if n >= 2 {
		rec.Volatility = stat.StdDev(prices, nil)
		rec.PriceTrendCorr = stat.Correlation(prices, trends, nil)
	}

	return rec
}

func dropNaN(xs []float64) []float64 {
	kept := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			kept = append(kept, x)
		}
	}
	return kept
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

// WriteCSV writes the KPI records to path, creating parent directories as
// needed. NaN cells are written as the literal "NaN".
func (s *Service) WriteCSV(records []models.KPIRecord, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create KPI file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(models.KPIHeader); err != nil {
		return fmt.Errorf("failed to write KPI header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.Asset,
			formatCell(rec.WeeklyReturnPct),
			formatCell(rec.Volatility),
			formatCell(rec.MaxPrice),
			formatCell(rec.MinPrice),
			formatCell(rec.AvgTrend),
			formatCell(rec.PriceTrendCorr),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write KPI row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush KPI file: %w", err)
	}

	if s.logger != nil {
		s.logger.Info().
			Str("path", path).
			Int("records", len(records)).
			Msg("Wrote KPI snapshot")
	}

	return nil
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
