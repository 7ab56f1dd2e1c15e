package models

// KPIRecord holds the derived weekly indicators for one asset. Fields may be
// NaN when the usable window is too short or has zero variance; NaN values
// flow through to the CSV snapshot and the display layer unchanged.
type KPIRecord struct {
	Asset           string  `json:"coin"`
	WeeklyReturnPct float64 `json:"weekly_return_pct"`
	Volatility      float64 `json:"volatility"`
	MaxPrice        float64 `json:"max_price"`
	MinPrice        float64 `json:"min_price"`
	AvgTrend        float64 `json:"avg_trend"`
	PriceTrendCorr  float64 `json:"price_trend_corr"`
}

// KPIHeader is the column order of the KPI CSV snapshot and the KPI table
// image. Keep in sync with KPIRecord.
var KPIHeader = []string{
	"coin",
	"weekly_return_pct",
	"volatility",
	"max_price",
	"min_price",
	"avg_trend",
	"price_trend_corr",
}
