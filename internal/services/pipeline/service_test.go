package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/cryptoweekly/internal/common"
	"github.com/ternarybob/cryptoweekly/internal/interfaces"
	"github.com/ternarybob/cryptoweekly/internal/models"
)

type fakePriceSource struct {
	points   []models.PricePoint
	universe []models.Asset
	err      error
}

func (f *fakePriceSource) FetchWeekly(ctx context.Context) ([]models.PricePoint, []models.Asset, error) {
	return f.points, f.universe, f.err
}

type fakeTrendSource struct {
	points []models.TrendPoint
	err    error
}

func (f *fakeTrendSource) FetchWeekly(ctx context.Context, universe []models.Asset) ([]models.TrendPoint, error) {
	return f.points, f.err
}

type fakeMailer struct {
	configured  bool
	sendErr     error
	sent        int
	subject     string
	attachments []interfaces.Attachment
}

func (f *fakeMailer) IsConfigured() bool { return f.configured }

func (f *fakeMailer) Send(ctx context.Context, subject, textBody string, attachments []interfaces.Attachment) error {
	f.sent++
	f.subject = subject
	f.attachments = attachments
	return f.sendErr
}

func testPipelineConfig(t *testing.T) *common.Config {
	t.Helper()
	cfg := common.NewDefaultConfig()
	dir := t.TempDir()
	cfg.Data.Dir = filepath.Join(dir, "data")
	cfg.Charts.Dir = filepath.Join(dir, "charts")
	return cfg
}

func weekOfSamples() ([]models.PricePoint, []models.TrendPoint, []models.Asset) {
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	universe := []models.Asset{{ID: "bitcoin", Symbol: "btc"}}

	var prices []models.PricePoint
	var trends []models.TrendPoint
	for i := 0; i < 7; i++ {
		ts := base.AddDate(0, 0, i)
		prices = append(prices, models.PricePoint{Timestamp: ts, Symbol: "btc", Price: 100 + float64(i)*5})
		trends = append(trends, models.TrendPoint{Timestamp: ts, Key: "bitcoin", Score: 40 + float64(i)})
	}
	return prices, trends, universe
}

func TestRunProducesAllArtifacts(t *testing.T) {
	cfg := testPipelineConfig(t)
	prices, trends, universe := weekOfSamples()
	mail := &fakeMailer{configured: true}

	svc := NewService(cfg,
		&fakePriceSource{points: prices, universe: universe},
		&fakeTrendSource{points: trends},
		mail, nil)

	require.NoError(t, svc.Run(context.Background()))

	for _, name := range []string{PriceSnapshotFile, TrendSnapshotFile, KPIFile, cfg.Report.OutputFile} {
		_, err := os.Stat(filepath.Join(cfg.Data.Dir, name))
		assert.NoError(t, err, name)
	}

	require.Equal(t, 1, mail.sent)
	assert.Equal(t, cfg.Report.Subject, mail.subject)
	require.Len(t, mail.attachments, 1)
	assert.Equal(t, cfg.Report.OutputFile, mail.attachments[0].Filename)
	assert.Equal(t, "application/pdf", mail.attachments[0].ContentType)
	assert.Equal(t, "%PDF", string(mail.attachments[0].Content[:4]))
}

func TestRunSkipsDeliveryWhenUnconfigured(t *testing.T) {
	cfg := testPipelineConfig(t)
	prices, trends, universe := weekOfSamples()
	mail := &fakeMailer{configured: false}

	svc := NewService(cfg,
		&fakePriceSource{points: prices, universe: universe},
		&fakeTrendSource{points: trends},
		mail, nil)

	require.NoError(t, svc.Run(context.Background()))
	assert.Equal(t, 0, mail.sent)

	// the report still lands on disk
	_, err := os.Stat(filepath.Join(cfg.Data.Dir, cfg.Report.OutputFile))
	assert.NoError(t, err)
}

func TestRunFailsOnPriceFetchError(t *testing.T) {
	cfg := testPipelineConfig(t)
	svc := NewService(cfg,
		&fakePriceSource{err: errors.New("api down")},
		&fakeTrendSource{},
		&fakeMailer{}, nil)

	err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price fetch failed")
}

func TestRunFailsOnTrendFetchError(t *testing.T) {
	cfg := testPipelineConfig(t)
	prices, _, universe := weekOfSamples()
	svc := NewService(cfg,
		&fakePriceSource{points: prices, universe: universe},
		&fakeTrendSource{err: errors.New("throttled")},
		&fakeMailer{}, nil)

	err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trend fetch failed")
}

func TestRunFailsOnDeliveryError(t *testing.T) {
	cfg := testPipelineConfig(t)
	prices, trends, universe := weekOfSamples()
	svc := NewService(cfg,
		&fakePriceSource{points: prices, universe: universe},
		&fakeTrendSource{points: trends},
		&fakeMailer{configured: true, sendErr: errors.New("auth rejected")},
		nil)

	err := svc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report delivery failed")
}

func TestSnapshotContents(t *testing.T) {
	cfg := testPipelineConfig(t)
	prices, trends, universe := weekOfSamples()
	svc := NewService(cfg,
		&fakePriceSource{points: prices, universe: universe},
		&fakeTrendSource{points: trends},
		&fakeMailer{}, nil)

	require.NoError(t, svc.Run(context.Background()))

	data, err := os.ReadFile(filepath.Join(cfg.Data.Dir, PriceSnapshotFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "timestamp,coin,price", lines[0])
	assert.Equal(t, "2026-08-20T12:00:00Z,btc,100", lines[1])

	data, err = os.ReadFile(filepath.Join(cfg.Data.Dir, TrendSnapshotFile))
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "timestamp,keyword,score", lines[0])
	assert.Equal(t, "2026-08-20T12:00:00Z,bitcoin,40", lines[1])
}

func TestRunWithEmptyFeeds(t *testing.T) {
	cfg := testPipelineConfig(t)
	svc := NewService(cfg,
		&fakePriceSource{},
		&fakeTrendSource{},
		&fakeMailer{}, nil)

	// no data is not an error: snapshots, KPI file and report are still
	// written, just empty of figures
	require.NoError(t, svc.Run(context.Background()))

	data, err := os.ReadFile(filepath.Join(cfg.Data.Dir, KPIFile))
	require.NoError(t, err)
	assert.Equal(t, strings.Join(models.KPIHeader, ","), strings.TrimSpace(string(data)))
}
