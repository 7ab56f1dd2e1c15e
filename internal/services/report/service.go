package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cryptoweekly/internal/common"
	"github.com/ternarybob/cryptoweekly/internal/services/charts"
)

// A4 portrait layout in millimetres.
const (
	pageWidth    = 210.0
	pageMargin   = 12.0
	contentWidth = pageWidth - 2*pageMargin
	pageBottom   = 280.0
	imageGap     = 6.0
)

// artifactWidths fixes the rendered width of each chart type; height follows
// the image's aspect ratio. Unlisted artifacts use the full content width.
var artifactWidths = map[string]float64{
	charts.KPITable:        contentWidth,
	charts.PricePanels:     150,
	charts.TrendLines:      160,
	charts.WeeklyReturn:    150,
	charts.VolatilityStrip: 150,
	charts.Correlation:     110,
}

// Service assembles the weekly PDF from the rendered chart set.
//
// The PDF is built fully in memory and written to a temporary file that is
// renamed over the target, so a crash mid-write never leaves a truncated
// report behind.
type Service struct {
	cfg    common.ReportConfig
	logger arbor.ILogger
}

// NewService creates a report service.
func NewService(cfg common.ReportConfig, logger arbor.ILogger) *Service {
	return &Service{cfg: cfg, logger: logger}
}

// Assemble builds the PDF at path from the artifact set. Charts absent from
// the set are skipped silently; the fixed text blocks always render.
func (s *Service) Assemble(set *charts.ArtifactSet, path string, generatedAt time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	s.writeHeader(pdf, generatedAt)

	if set.Has(charts.KPITable) {
		s.embedImage(pdf, set.Path(charts.KPITable), artifactWidths[charts.KPITable])
	}
	for _, name := range charts.TrailingOrder {
		if !set.Has(name) {
			continue
		}
		s.embedImage(pdf, set.Path(name), artifactWidths[name])
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize report: %w", err)
	}

	if s.logger != nil {
		s.logger.Info().
			Str("path", path).
			Int("bytes", buf.Len()).
			Int("charts", set.Count()).
			Msg("Assembled weekly report")
	}

	return nil
}

func (s *Service) writeHeader(pdf *fpdf.Fpdf, generatedAt time.Time) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(contentWidth, 10, s.cfg.Title, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentWidth, 6, "Generated "+generatedAt.UTC().Format("2006-01-02 15:04 UTC"), "", 1, "C", false, 0, "")
	byline := s.cfg.Author
	if s.cfg.Contact != "" {
		byline += "  |  " + s.cfg.Contact
	}
	pdf.CellFormat(contentWidth, 6, byline, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	if s.cfg.Overview != "" {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(contentWidth, 5.5, s.cfg.Overview, "", "L", false)
		pdf.Ln(4)
	}
}

// embedImage draws a PNG centered at the given width, breaking to a new page
// when it would not fit below the cursor. A registration failure drops the
// image but keeps the report going.
func (s *Service) embedImage(pdf *fpdf.Fpdf, path string, w float64) {
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	info := pdf.RegisterImageOptions(path, opts)
	if info == nil || pdf.Err() {
		if s.logger != nil {
			s.logger.Warn().Str("path", path).Msg("Could not embed chart in report")
		}
		pdf.ClearError()
		return
	}

	if w <= 0 || w > contentWidth {
		w = contentWidth
	}
	h := info.Height() * w / info.Width()
	maxH := pageBottom - pageMargin
	if h > maxH {
		h = maxH
		w = info.Width() * h / info.Height()
	}

	if pdf.GetY()+h > pageBottom {
		pdf.AddPage()
	}
	x := (pageWidth - w) / 2
	pdf.ImageOptions(path, x, pdf.GetY(), w, h, true, opts, 0, "")
	pdf.Ln(imageGap)
}
