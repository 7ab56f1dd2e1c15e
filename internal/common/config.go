package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Data        DataConfig      `toml:"data"`
	Charts      ChartsConfig    `toml:"charts"`
	Assets      AssetsConfig    `toml:"assets"`
	CoinGecko   CoinGeckoConfig `toml:"coingecko"`
	Trends      TrendsConfig    `toml:"trends"`
	Report      ReportConfig    `toml:"report"`
	Schedule    ScheduleConfig  `toml:"schedule"`
	SMTP        SMTPConfig      `toml:"smtp"`
	Logging     LoggingConfig   `toml:"logging"`
}

// DataConfig locates the durable tabular artifacts (raw feed snapshots, KPI
// CSV, report PDF). Everything under Dir is fully overwritten each run.
type DataConfig struct {
	Dir string `toml:"dir" validate:"required"`
}

// ChartsConfig locates the rendered chart images.
type ChartsConfig struct {
	Dir string `toml:"dir" validate:"required"`
}

// AssetsConfig defines the asset universe for a run.
type AssetsConfig struct {
	TopN       int    `toml:"top_n" validate:"min=1,max=25"` // top-N coins by market cap
	VSCurrency string `toml:"vs_currency" validate:"required"`
}

// CoinGeckoConfig configures the price feed client.
type CoinGeckoConfig struct {
	BaseURL      string `toml:"base_url"`
	RateInterval string `toml:"rate_interval"` // minimum delay between API requests, e.g. "2s"
	Timeout      string `toml:"timeout"`       // HTTP request timeout, e.g. "30s"
}

// RateIntervalDuration returns the parsed request spacing. Validate
// guarantees the value parses; the built-in default covers a config built
// by hand without it.
func (c CoinGeckoConfig) RateIntervalDuration() time.Duration {
	return parseDurationOr(c.RateInterval, 2*time.Second)
}

// TimeoutDuration returns the parsed HTTP timeout.
func (c CoinGeckoConfig) TimeoutDuration() time.Duration {
	return parseDurationOr(c.Timeout, 30*time.Second)
}

// TrendsConfig configures the search-interest feed client.
type TrendsConfig struct {
	BaseURL      string `toml:"base_url"`
	Timeframe    string `toml:"timeframe"` // trends API timeframe expression
	RateInterval string `toml:"rate_interval"`
	Timeout      string `toml:"timeout"`
	BatchSize    int    `toml:"batch_size" validate:"min=1,max=5"` // trends API allows at most 5 keywords per request
}

// RateIntervalDuration returns the parsed request spacing.
func (c TrendsConfig) RateIntervalDuration() time.Duration {
	return parseDurationOr(c.RateInterval, 5*time.Second)
}

// TimeoutDuration returns the parsed HTTP timeout.
func (c TrendsConfig) TimeoutDuration() time.Duration {
	return parseDurationOr(c.Timeout, 30*time.Second)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// ReportConfig holds the fixed narrative blocks and delivery text of the
// weekly PDF.
type ReportConfig struct {
	Title      string `toml:"title" validate:"required"`
	Author     string `toml:"author"`
	Contact    string `toml:"contact"`
	Overview   string `toml:"overview"`
	Subject    string `toml:"subject" validate:"required"`
	Body       string `toml:"body"`
	OutputFile string `toml:"output_file" validate:"required"` // file name under data.dir
}

// ScheduleConfig defines the weekly trigger and the wake-loop cadence.
type ScheduleConfig struct {
	DayOfWeek    string `toml:"day_of_week" validate:"required"` // cron day name, e.g. "WED"
	TimeOfDay    string `toml:"time_of_day" validate:"required"` // 24h clock, e.g. "15:00"
	PollInterval string `toml:"poll_interval" validate:"required"`
	RunOnStart   bool   `toml:"run_on_start"`
}

// CronExpr converts the day-of-week + time-of-day pair into a standard cron
// expression understood by robfig/cron.
func (c ScheduleConfig) CronExpr() (string, error) {
	t, err := time.Parse("15:04", c.TimeOfDay)
	if err != nil {
		return "", fmt.Errorf("invalid time_of_day %q: %w", c.TimeOfDay, err)
	}
	expr := fmt.Sprintf("%d %d * * %s", t.Minute(), t.Hour(), strings.ToUpper(c.DayOfWeek))
	if _, err := cron.ParseStandard(expr); err != nil {
		return "", fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	return expr, nil
}

// SMTPConfig holds mail submission settings. An unconfigured SMTP section
// disables delivery; the report still lands on disk.
type SMTPConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
	FromName string `toml:"from_name"`
	To       string `toml:"to"`
	UseTLS   bool   `toml:"use_tls"`
}

// IsConfigured checks whether the minimum settings for delivery are present.
func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.Username != "" && c.Password != "" && c.From != "" && c.To != ""
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values. Only
// user-facing settings are exposed in cryptoweekly.toml; technical parameters
// live here.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Data: DataConfig{
			Dir: "./data",
		},
		Charts: ChartsConfig{
			Dir: "./analysis_charts",
		},
		Assets: AssetsConfig{
			TopN:       5,
			VSCurrency: "usd",
		},
		CoinGecko: CoinGeckoConfig{
			BaseURL:      "https://api.coingecko.com/api/v3",
			RateInterval: "2s", // free tier allows ~30 requests/minute
			Timeout:      "30s",
		},
		Trends: TrendsConfig{
			BaseURL:      "https://trends.google.com",
			Timeframe:    "now 7-d",
			RateInterval: "5s",
			Timeout:      "30s",
			BatchSize:    5,
		},
		Report: ReportConfig{
			Title:   "Crypto Weekly Report",
			Author:  "CryptoWeekly",
			Contact: "kpi.reports@cryptoweekly.dev",
			Overview: "Automated weekly reporting pipeline covering the top cryptocurrencies " +
				"by market capitalization. Price data is sourced from the CoinGecko API and " +
				"search interest from Google Trends. Each run computes weekly KPIs, renders " +
				"visual insights, and delivers a structured PDF report by email.",
			Subject:    "Crypto Weekly Report",
			Body:       "The latest Crypto Weekly Report is attached.\n\nReply for more information.",
			OutputFile: "Crypto_Weekly_Report.pdf",
		},
		Schedule: ScheduleConfig{
			DayOfWeek:    "WED",
			TimeOfDay:    "15:00",
			PollInterval: "1m",
			RunOnStart:   true,
		},
		SMTP: SMTPConfig{
			Port:     587,
			FromName: "CryptoWeekly",
			UseTLS:   true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
// An empty path skips the file layer and loads defaults + env only.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks structural constraints plus the derived values (cron
// expression, durations) that tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if _, err := c.Schedule.CronExpr(); err != nil {
		return err
	}
	for name, v := range map[string]string{
		"schedule.poll_interval":  c.Schedule.PollInterval,
		"coingecko.rate_interval": c.CoinGecko.RateInterval,
		"coingecko.timeout":       c.CoinGecko.Timeout,
		"trends.rate_interval":    c.Trends.RateInterval,
		"trends.timeout":          c.Trends.Timeout,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", name, err)
		}
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
// Environment variables take precedence over file values; secrets are
// typically supplied this way.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CRYPTOWEEKLY_ENV"); env != "" {
		config.Environment = env
	}
	if dir := os.Getenv("CRYPTOWEEKLY_DATA_DIR"); dir != "" {
		config.Data.Dir = dir
	}
	if dir := os.Getenv("CRYPTOWEEKLY_CHARTS_DIR"); dir != "" {
		config.Charts.Dir = dir
	}
	if topN := os.Getenv("CRYPTOWEEKLY_ASSETS_TOP_N"); topN != "" {
		if n, err := strconv.Atoi(topN); err == nil {
			config.Assets.TopN = n
		}
	}
	if host := os.Getenv("CRYPTOWEEKLY_SMTP_HOST"); host != "" {
		config.SMTP.Host = host
	}
	if port := os.Getenv("CRYPTOWEEKLY_SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.SMTP.Port = p
		}
	}
	if username := os.Getenv("CRYPTOWEEKLY_SMTP_USERNAME"); username != "" {
		config.SMTP.Username = username
	}
	if password := os.Getenv("CRYPTOWEEKLY_SMTP_PASSWORD"); password != "" {
		config.SMTP.Password = password
	}
	if from := os.Getenv("CRYPTOWEEKLY_SMTP_FROM"); from != "" {
		config.SMTP.From = from
	}
	if to := os.Getenv("CRYPTOWEEKLY_SMTP_TO"); to != "" {
		config.SMTP.To = to
	}
	if level := os.Getenv("CRYPTOWEEKLY_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}
