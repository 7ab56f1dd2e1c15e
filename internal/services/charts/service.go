package charts

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cryptoweekly/internal/models"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Service renders the weekly chart set as PNG files.
//
// Rendering is best-effort per chart: a chart that cannot be produced
// (no finite data, file error) is logged and skipped, never fatal. The
// returned ArtifactSet lists only the charts that made it to disk.
type Service struct {
	dir    string
	logger arbor.ILogger
}

// NewService creates a chart service writing into dir.
func NewService(dir string, logger arbor.ILogger) *Service {
	return &Service{dir: dir, logger: logger}
}

// RenderAll renders every chart the data supports and returns the set of
// files produced.
func (s *Service) RenderAll(table *models.MergedTable, records []models.KPIRecord) *ArtifactSet {
	set := NewArtifactSet(s.dir)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		if s.logger != nil {
			s.logger.Error().Err(err).Str("dir", s.dir).Msg("Failed to create chart directory")
		}
		return set
	}

	renderers := []struct {
		name string
		fn   func() error
	}{
		{KPITable, func() error { return s.renderKPITable(records, set.Path(KPITable)) }},
		{PricePanels, func() error { return s.renderPricePanels(table, set.Path(PricePanels)) }},
		{TrendLines, func() error { return s.renderTrendLines(table, set.Path(TrendLines)) }},
		{WeeklyReturn, func() error { return s.renderWeeklyReturn(records, set.Path(WeeklyReturn)) }},
		{VolatilityStrip, func() error { return s.renderVolatilityStrip(records, set.Path(VolatilityStrip)) }},
		{Correlation, func() error { return s.renderCorrelation(records, set.Path(Correlation)) }},
	}

	for _, r := range renderers {
		if err := r.fn(); err != nil {
			if s.logger != nil {
				s.logger.Warn().Err(err).Str("chart", r.name).Msg("Skipping chart")
			}
			continue
		}
		set.MarkRendered(r.name)
	}

	if s.logger != nil {
		s.logger.Info().
			Int("rendered", set.Count()).
			Str("dir", s.dir).
			Msg("Rendered chart set")
	}

	return set
}

// finiteSeries pairs the table's dates with one asset column, dropping
// non-finite cells.
func finiteSeries(table *models.MergedTable, col []float64) plotter.XYs {
	var xys plotter.XYs
	for i, v := range col {
		if i >= len(table.Dates) {
			break
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: float64(table.Dates[i].Unix()), Y: v})
	}
	return xys
}

func timePlot(title, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = yLabel
	p.X.Tick.Marker = plot.TimeTicks{Format: "01-02"}
	return p
}

// renderPricePanels draws one price subplot per asset, stacked vertically.
func (s *Service) renderPricePanels(table *models.MergedTable, path string) error {
	type panel struct {
		asset string
		xys   plotter.XYs
	}
	var panels []panel
	for _, asset := range table.Assets {
		xys := finiteSeries(table, table.PriceColumn(asset))
		if len(xys) == 0 {
			continue
		}
		panels = append(panels, panel{asset: asset, xys: xys})
	}
	if len(panels) == 0 {
		return fmt.Errorf("no finite price data")
	}

	rows := len(panels)
	plots := make([][]*plot.Plot, rows)
	for i, pn := range panels {
		p := timePlot(strings.ToUpper(pn.asset)+" Price", "Price (USD)")
		line, err := plotter.NewLine(pn.xys)
		if err != nil {
			return fmt.Errorf("price line for %s: %w", pn.asset, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		plots[i] = []*plot.Plot{p}
	}

	img := vgimg.New(vg.Points(560), vg.Points(float64(rows)*160))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: rows,
		Cols: 1,
		PadX: vg.Millimeter * 2,
		PadY: vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	return writePNG(img, path)
}

// renderTrendLines draws all assets' search-interest series on one plot.
func (s *Service) renderTrendLines(table *models.MergedTable, path string) error {
	p := timePlot("Google Search Interest", "Interest Score")

	drawn := 0
	for i, asset := range table.Assets {
		xys := finiteSeries(table, table.TrendColumn(asset))
		if len(xys) == 0 {
			continue
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("trend line for %s: %w", asset, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(strings.ToUpper(asset), line)
		drawn++
	}
	if drawn == 0 {
		return fmt.Errorf("no finite trend data")
	}
	p.Legend.Top = true

	return p.Save(vg.Points(560), vg.Points(320), path)
}

// finiteRecords filters KPI records by one figure, keeping order.
func finiteRecords(records []models.KPIRecord, pick func(models.KPIRecord) float64) ([]string, []float64) {
	var names []string
	var vals []float64
	for _, rec := range records {
		v := pick(rec)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		names = append(names, strings.ToUpper(rec.Asset))
		vals = append(vals, v)
	}
	return names, vals
}

func (s *Service) renderWeeklyReturn(records []models.KPIRecord, path string) error {
	names, vals := finiteRecords(records, func(r models.KPIRecord) float64 { return r.WeeklyReturnPct })
	if len(vals) == 0 {
		return fmt.Errorf("no finite weekly returns")
	}

	p := plot.New()
	p.Title.Text = "Weekly Return by Coin"
	p.Y.Label.Text = "Return (%)"

	bars, err := plotter.NewBarChart(plotter.Values(vals), vg.Points(24))
	if err != nil {
		return fmt.Errorf("weekly return bars: %w", err)
	}
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.NominalX(names...)

	return p.Save(vg.Points(560), vg.Points(320), path)
}

func (s *Service) renderVolatilityStrip(records []models.KPIRecord, path string) error {
	names, vals := finiteRecords(records, func(r models.KPIRecord) float64 { return r.Volatility })
	if len(vals) == 0 {
		return fmt.Errorf("no finite volatilities")
	}

	p := plot.New()
	p.Title.Text = "Price Volatility by Coin"
	p.Y.Label.Text = "Std Dev (USD)"

	xys := make(plotter.XYs, len(vals))
	for i, v := range vals {
		xys[i] = plotter.XY{X: float64(i), Y: v}
	}
	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("volatility strip: %w", err)
	}
	scatter.GlyphStyle.Radius = vg.Points(5)
	scatter.GlyphStyle.Color = plotutil.Color(1)
	p.Add(scatter)
	p.NominalX(names...)

	return p.Save(vg.Points(560), vg.Points(320), path)
}

// corrGrid is a one-column grid of price/trend correlations, one row per
// asset, for the heatmap plotter.
type corrGrid struct {
	vals []float64
}

func (g corrGrid) Dims() (int, int)   { return 1, len(g.vals) }
func (g corrGrid) Z(c, r int) float64 { return g.vals[r] }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }

func (s *Service) renderCorrelation(records []models.KPIRecord, path string) error {
	names, vals := finiteRecords(records, func(r models.KPIRecord) float64 { return r.PriceTrendCorr })
	if len(vals) == 0 {
		return fmt.Errorf("no finite correlations")
	}

	p := plot.New()
	p.Title.Text = "Price vs Search Interest Correlation"

	colors := moreland.SmoothBlueRed()
	colors.SetMin(-1)
	colors.SetMax(1)
	heat := plotter.NewHeatMap(corrGrid{vals: vals}, colors.Palette(100))
	heat.Min = -1
	heat.Max = 1
	p.Add(heat)

	yTicks := make([]plot.Tick, len(names))
	for i, name := range names {
		yTicks[i] = plot.Tick{Value: float64(i), Label: name}
	}
	p.Y.Tick.Marker = plot.ConstantTicks(yTicks)
	p.X.Tick.Marker = plot.ConstantTicks([]plot.Tick{{Value: 0, Label: "corr"}})

	return p.Save(vg.Points(360), vg.Points(320), path)
}

func writePNG(img *vgimg.Canvas, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("failed to write chart file: %w", err)
	}
	return nil
}
