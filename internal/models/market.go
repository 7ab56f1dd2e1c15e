package models

import "time"

// Asset identifies one tracked cryptocurrency. ID is the CoinGecko coin id
// (e.g. "bitcoin"), Symbol the lower-case ticker (e.g. "btc"). Search-interest
// samples arrive keyed by either form.
type Asset struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
}

// PricePoint is one raw price sample from the market feed. Sample intervals
// are irregular, typically sub-hourly.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
}

// TrendPoint is one raw search-interest sample. Key may be an asset id or an
// asset symbol; the aligner folds the two key forms together.
type TrendPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Key       string    `json:"key"`
	Score     float64   `json:"score"`
}
