package charts

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/cryptoweekly/internal/models"
)

func sampleTable() *models.MergedTable {
	base := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, 7)
	for i := range dates {
		dates[i] = base.AddDate(0, 0, i)
	}
	table := models.NewMergedTable(dates, []string{"btc", "eth"})
	table.Price["btc"] = []float64{100, 105, 103, 110, 108, 115, 120}
	table.Price["eth"] = []float64{10, 11, 10.5, 12, 11.8, 12.5, 13}
	table.Trend["btc"] = []float64{40, 45, 42, 50, 48, 55, 60}
	table.Trend["eth"] = []float64{20, 22, 21, 25, 24, 27, 30}
	return table
}

func sampleRecords() []models.KPIRecord {
	return []models.KPIRecord{
		{Asset: "btc", WeeklyReturnPct: 20, Volatility: 7.1, MaxPrice: 120, MinPrice: 100, AvgTrend: 48.6, PriceTrendCorr: 0.98},
		{Asset: "eth", WeeklyReturnPct: 30, Volatility: 1.1, MaxPrice: 13, MinPrice: 10, AvgTrend: 24.1, PriceTrendCorr: 0.97},
	}
}

func TestRenderAllProducesEveryChart(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(dir, nil)

	set := svc.RenderAll(sampleTable(), sampleRecords())

	names := []string{KPITable, PricePanels, TrendLines, WeeklyReturn, VolatilityStrip, Correlation}
	for _, name := range names {
		assert.True(t, set.Has(name), "expected %s to render", name)
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Greater(t, info.Size(), int64(0), name)
	}
	assert.Equal(t, len(names), set.Count())
}

func TestRenderAllSkipsChartsWithoutFiniteData(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(dir, nil)

	table := models.NewMergedTable(nil, []string{"btc"})
	records := []models.KPIRecord{{
		Asset:           "btc",
		WeeklyReturnPct: math.NaN(),
		Volatility:      math.NaN(),
		MaxPrice:        math.NaN(),
		MinPrice:        math.NaN(),
		AvgTrend:        math.NaN(),
		PriceTrendCorr:  math.NaN(),
	}}

	set := svc.RenderAll(table, records)

	// the table still renders (cells show N/A), the data charts do not
	assert.True(t, set.Has(KPITable))
	assert.False(t, set.Has(PricePanels))
	assert.False(t, set.Has(TrendLines))
	assert.False(t, set.Has(WeeklyReturn))
	assert.False(t, set.Has(VolatilityStrip))
	assert.False(t, set.Has(Correlation))
}

func TestRenderAllEmptyRecords(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(dir, nil)

	set := svc.RenderAll(models.NewMergedTable(nil, nil), nil)
	assert.Equal(t, 0, set.Count())
}

func TestArtifactSetPath(t *testing.T) {
	set := NewArtifactSet("/tmp/charts")
	assert.Equal(t, filepath.Join("/tmp/charts", KPITable), set.Path(KPITable))
	assert.False(t, set.Has(KPITable))
}
