package models

import (
	"math"
	"time"
)

// MergedTable is the daily price/trend table produced by the aligner. Dates
// are ascending UTC midnights and contain only days present in both the price
// calendar and the trend calendar. Assets is sorted and fixed for the run;
// every asset has a price column and a trend column of the same length as
// Dates, with NaN marking a day that asset had no sample.
type MergedTable struct {
	Dates  []time.Time
	Assets []string
	Price  map[string][]float64
	Trend  map[string][]float64
}

// NewMergedTable creates a table over the given calendar and asset universe,
// with no columns filled in yet.
func NewMergedTable(dates []time.Time, assets []string) *MergedTable {
	return &MergedTable{
		Dates:  dates,
		Assets: assets,
		Price:  make(map[string][]float64, len(assets)),
		Trend:  make(map[string][]float64, len(assets)),
	}
}

// Len returns the number of merged days.
func (t *MergedTable) Len() int {
	return len(t.Dates)
}

// Empty reports whether the inner join produced no rows.
func (t *MergedTable) Empty() bool {
	return len(t.Dates) == 0
}

// PriceColumn returns the price column for an asset, or an all-NaN column if
// the asset never produced a price sample.
func (t *MergedTable) PriceColumn(asset string) []float64 {
	if col, ok := t.Price[asset]; ok {
		return col
	}
	return nanColumn(len(t.Dates))
}

// TrendColumn returns the trend column for an asset, or an all-NaN column if
// the asset never produced a trend sample.
func (t *MergedTable) TrendColumn(asset string) []float64 {
	if col, ok := t.Trend[asset]; ok {
		return col
	}
	return nanColumn(len(t.Dates))
}

func nanColumn(n int) []float64 {
	col := make([]float64, n)
	for i := range col {
		col[i] = math.NaN()
	}
	return col
}
