package charts

import (
	"fmt"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"github.com/ternarybob/cryptoweekly/internal/models"
)

const (
	tableCellWidth  = 120.0
	tableCellHeight = 30.0
	tableHeaderHex  = "#add8e6"
	tableBodyHex    = "#f0f0f0"
	tableBorderHex  = "#999999"
	tableTextHex    = "#111111"
)

// renderKPITable draws the KPI records as a table image: light-blue header
// row, light-grey body, values rounded to one decimal.
func (s *Service) renderKPITable(records []models.KPIRecord, path string) error {
	if len(records) == 0 {
		return fmt.Errorf("no KPI records")
	}

	cols := len(models.KPIHeader)
	rows := len(records) + 1

	width := int(tableCellWidth * float64(cols))
	height := int(tableCellHeight * float64(rows))

	dc := gg.NewContext(width, height)
	dc.SetHexColor("#ffffff")
	dc.Clear()

	for c, label := range models.KPIHeader {
		drawCell(dc, c, 0, strings.ToUpper(label), tableHeaderHex)
	}

	for r, rec := range records {
		row := []string{
			strings.ToUpper(rec.Asset),
			formatFigure(rec.WeeklyReturnPct),
			formatFigure(rec.Volatility),
			formatFigure(rec.MaxPrice),
			formatFigure(rec.MinPrice),
			formatFigure(rec.AvgTrend),
			formatFigure(rec.PriceTrendCorr),
		}
		for c, text := range row {
			drawCell(dc, c, r+1, text, tableBodyHex)
		}
	}

	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("failed to save KPI table: %w", err)
	}
	return nil
}

func drawCell(dc *gg.Context, col, row int, text, fillHex string) {
	x := float64(col) * tableCellWidth
	y := float64(row) * tableCellHeight

	dc.SetHexColor(fillHex)
	dc.DrawRectangle(x, y, tableCellWidth, tableCellHeight)
	dc.Fill()

	dc.SetHexColor(tableBorderHex)
	dc.SetLineWidth(1)
	dc.DrawRectangle(x, y, tableCellWidth, tableCellHeight)
	dc.Stroke()

	dc.SetHexColor(tableTextHex)
	dc.DrawStringAnchored(text, x+tableCellWidth/2, y+tableCellHeight/2, 0.5, 0.5)
}

func formatFigure(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", v)
}
