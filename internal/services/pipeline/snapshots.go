package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ternarybob/cryptoweekly/internal/models"
)

// Durable artifact filenames under the data directory.
const (
	PriceSnapshotFile = "crypto_weekly.csv"
	TrendSnapshotFile = "google_trends_weekly.csv"
	KPIFile           = "crypto_weekly_kpis.csv"
)

// writePriceSnapshot persists the raw price samples exactly as fetched, so
// a run's inputs can be inspected after the fact.
func writePriceSnapshot(points []models.PricePoint, path string) error {
	rows := make([][]string, 0, len(points)+1)
	rows = append(rows, []string{"timestamp", "coin", "price"})
	for _, p := range points {
		rows = append(rows, []string{
			p.Timestamp.UTC().Format(time.RFC3339),
			p.Symbol,
			strconv.FormatFloat(p.Price, 'f', -1, 64),
		})
	}
	return writeCSV(path, rows)
}

// writeTrendSnapshot persists the raw trend samples, one row per
// (timestamp, keyword) pair.
func writeTrendSnapshot(points []models.TrendPoint, path string) error {
	rows := make([][]string, 0, len(points)+1)
	rows = append(rows, []string{"timestamp", "keyword", "score"})
	for _, p := range points {
		rows = append(rows, []string{
			p.Timestamp.UTC().Format(time.RFC3339),
			p.Key,
			strconv.FormatFloat(p.Score, 'f', -1, 64),
		})
	}
	return writeCSV(path, rows)
}

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
