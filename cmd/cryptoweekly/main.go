package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/cryptoweekly/internal/coingecko"
	"github.com/ternarybob/cryptoweekly/internal/common"
	"github.com/ternarybob/cryptoweekly/internal/gtrends"
	"github.com/ternarybob/cryptoweekly/internal/services/mailer"
	"github.com/ternarybob/cryptoweekly/internal/services/pipeline"
	"github.com/ternarybob/cryptoweekly/internal/services/scheduler"
)

var (
	configFile   = flag.String("config", "", "Configuration file path")
	configFileC  = flag.String("c", "", "Configuration file path (shorthand)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
	runOnce      = flag.Bool("once", false, "Run one report cycle and exit")
)

func main() {
	defer common.RecoverWithCrashFile()

	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("CryptoWeekly version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file -> env)
	// 2. Initialize logger
	// 3. Print banner

	path := *configFile
	if *configFileC != "" {
		path = *configFileC
	}
	if path == "" {
		// Auto-discover config file in the working directory
		if _, err := os.Stat("cryptoweekly.toml"); err == nil {
			path = "cryptoweekly.toml"
		}
	}

	config, err := common.LoadFromFile(path)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Err(err).Str("path", path).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())
	common.InstallCrashHandler("")

	logger.Info().
		Str("config_file", path).
		Str("data_dir", config.Data.Dir).
		Str("charts_dir", config.Charts.Dir).
		Int("top_n", config.Assets.TopN).
		Bool("smtp_configured", config.SMTP.IsConfigured()).
		Msg("Application configuration loaded")

	priceClient := coingecko.NewClient(
		coingecko.WithBaseURL(config.CoinGecko.BaseURL),
		coingecko.WithHTTPClient(&http.Client{Timeout: config.CoinGecko.TimeoutDuration()}),
		coingecko.WithRateInterval(config.CoinGecko.RateIntervalDuration()),
		coingecko.WithLogger(logger),
	)
	priceSource := coingecko.NewSource(priceClient, config.Assets.VSCurrency, config.Assets.TopN, logger)

	trendClient := gtrends.NewClient(
		gtrends.WithBaseURL(config.Trends.BaseURL),
		gtrends.WithHTTPClient(&http.Client{Timeout: config.Trends.TimeoutDuration()}),
		gtrends.WithRateInterval(config.Trends.RateIntervalDuration()),
		gtrends.WithLogger(logger),
	)
	trendSource := gtrends.NewSource(trendClient, config.Trends.Timeframe, config.Trends.BatchSize, logger)

	mailSender := mailer.NewService(config.SMTP, logger)
	if !mailSender.IsConfigured() {
		logger.Warn().Msg("SMTP not configured, reports will not be emailed")
	}

	runner := pipeline.NewService(config, priceSource, trendSource, mailSender, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *runOnce {
		if err := runner.Run(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Report run failed")
			os.Exit(1)
		}
		logger.Info().Msg("Report run completed")
		return
	}

	sched, err := scheduler.NewService(config.Schedule, runner.Run, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize scheduler")
		os.Exit(1)
	}

	logger.Info().Msg("Scheduler ready - Press Ctrl+C to stop")
	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error().Err(err).Msg("Scheduler stopped with error")
	}

	logger.Info().Msg("Shutdown complete")
}
