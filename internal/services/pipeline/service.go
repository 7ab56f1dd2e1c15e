package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cryptoweekly/internal/common"
	"github.com/ternarybob/cryptoweekly/internal/interfaces"
	"github.com/ternarybob/cryptoweekly/internal/services/aligner"
	"github.com/ternarybob/cryptoweekly/internal/services/charts"
	"github.com/ternarybob/cryptoweekly/internal/services/kpi"
	"github.com/ternarybob/cryptoweekly/internal/services/report"
)

// Service runs one end-to-end report cycle: fetch both feeds, align and
// derive KPIs, render charts, assemble the PDF, deliver it.
//
// A fetch failure aborts the run; downstream stages degrade on their own
// terms instead (charts log and skip, delivery skips when SMTP is
// unconfigured).
type Service struct {
	cfg     *common.Config
	prices  interfaces.PriceSource
	trends  interfaces.TrendSource
	aligner *aligner.Service
	kpis    *kpi.Service
	charts  *charts.Service
	report  *report.Service
	mailer  interfaces.MailSender
	logger  arbor.ILogger
}

// NewService wires a pipeline from its stages.
func NewService(
	cfg *common.Config,
	prices interfaces.PriceSource,
	trends interfaces.TrendSource,
	mailer interfaces.MailSender,
	logger arbor.ILogger,
) *Service {
	return &Service{
		cfg:     cfg,
		prices:  prices,
		trends:  trends,
		aligner: aligner.NewService(logger),
		kpis:    kpi.NewService(logger),
		charts:  charts.NewService(cfg.Charts.Dir, logger),
		report:  report.NewService(cfg.Report, logger),
		mailer:  mailer,
		logger:  logger,
	}
}

// Run executes one full report cycle.
func (s *Service) Run(ctx context.Context) error {
	pricePoints, universe, err := s.prices.FetchWeekly(ctx)
	if err != nil {
		return fmt.Errorf("price fetch failed: %w", err)
	}
	if s.logger != nil {
		s.logger.Info().
			Int("points", len(pricePoints)).
			Int("assets", len(universe)).
			Msg("Fetched price data")
	}

	trendPoints, err := s.trends.FetchWeekly(ctx, universe)
	if err != nil {
		return fmt.Errorf("trend fetch failed: %w", err)
	}

	if err := writePriceSnapshot(pricePoints, filepath.Join(s.cfg.Data.Dir, PriceSnapshotFile)); err != nil {
		return err
	}
	if err := writeTrendSnapshot(trendPoints, filepath.Join(s.cfg.Data.Dir, TrendSnapshotFile)); err != nil {
		return err
	}

	table := s.aligner.Align(pricePoints, trendPoints, universe)
	records := s.kpis.Compute(table)
	if err := s.kpis.WriteCSV(records, filepath.Join(s.cfg.Data.Dir, KPIFile)); err != nil {
		return err
	}

	artifacts := s.charts.RenderAll(table, records)

	reportPath := filepath.Join(s.cfg.Data.Dir, s.cfg.Report.OutputFile)
	if err := s.report.Assemble(artifacts, reportPath, time.Now()); err != nil {
		return err
	}

	return s.deliver(ctx, reportPath)
}

// deliver emails the assembled PDF. An unconfigured mailer skips delivery
// without failing the run; the report has already landed on disk.
func (s *Service) deliver(ctx context.Context, reportPath string) error {
	if !s.mailer.IsConfigured() {
		if s.logger != nil {
			s.logger.Warn().Msg("SMTP not configured, skipping report delivery")
		}
		return nil
	}

	content, err := os.ReadFile(reportPath)
	if err != nil {
		return fmt.Errorf("failed to read report for delivery: %w", err)
	}

	attachment := interfaces.Attachment{
		Filename:    s.cfg.Report.OutputFile,
		ContentType: "application/pdf",
		Content:     content,
	}
	if err := s.mailer.Send(ctx, s.cfg.Report.Subject, s.cfg.Report.Body, []interfaces.Attachment{attachment}); err != nil {
		return fmt.Errorf("report delivery failed: %w", err)
	}
	return nil
}
