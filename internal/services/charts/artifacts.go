package charts

import "path/filepath"

// Chart artifact filenames. The report assembler embeds the KPI table first
// and the trailing charts in TrailingOrder.
const (
	KPITable        = "kpi_table.png"
	PricePanels     = "crypto_prices_subplots.png"
	TrendLines      = "google_trends.png"
	WeeklyReturn    = "weekly_return.png"
	VolatilityStrip = "volatility_strip.png"
	Correlation     = "correlation_price_trend.png"
)

// TrailingOrder is the order charts appear in the report after the KPI table.
var TrailingOrder = []string{
	PricePanels,
	TrendLines,
	WeeklyReturn,
	VolatilityStrip,
	Correlation,
}

// ArtifactSet records which chart files a render pass actually produced.
// A failed or skipped chart is simply absent; consumers check Has before
// embedding.
type ArtifactSet struct {
	Dir   string
	files map[string]bool
}

// NewArtifactSet creates an empty artifact set rooted at dir.
func NewArtifactSet(dir string) *ArtifactSet {
	return &ArtifactSet{
		Dir:   dir,
		files: make(map[string]bool),
	}
}

// MarkRendered records that the named chart exists on disk.
func (a *ArtifactSet) MarkRendered(name string) {
	a.files[name] = true
}

// Has reports whether the named chart was rendered.
func (a *ArtifactSet) Has(name string) bool {
	return a.files[name]
}

// Path returns the full path of the named chart file.
func (a *ArtifactSet) Path(name string) string {
	return filepath.Join(a.Dir, name)
}

// Count returns the number of rendered charts.
func (a *ArtifactSet) Count() int {
	return len(a.files)
}
