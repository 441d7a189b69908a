package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/uiprobe/internal/app"
	"github.com/ternarybob/uiprobe/internal/common"
	"github.com/ternarybob/uiprobe/internal/models"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	seed         = flag.Int64("seed", 0, "Exploration seed (overrides config, 0 derives one from the clock)")
	headless     = flag.Bool("headless", false, "Run the browser headless (overrides config)")
	once         = flag.Bool("once", false, "Run a single pass even when a schedule is configured")
	history      = flag.Int("history", 0, "List the newest N archived runs and exit")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	// Register custom flag for multiple config files
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	defer common.RecoverWithCrashFile()
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("UIProbe version %s\n", common.GetFullVersion())
		return 0
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Resolve key references
	// 5. Print banner (app.New validates)

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("uiprobe.toml"); err == nil {
			configFiles = append(configFiles, "uiprobe.toml")
		} else if _, err := os.Stat("deployments/local/uiprobe.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/uiprobe.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Error().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration files")
		return 1
	}

	common.ApplyFlagOverrides(config, collectOverrides())

	logger := common.InitLogger(config)

	// {NAME} references in URLs and credentials come from the environment
	common.ResolveKeyReferences(config, common.EnvironmentKeys(), logger)

	common.InstallCrashHandler(config.Logging.Dir)
	common.PrintBanner(config, logger)

	logger.Debug().
		Strs("config_files", configFiles).
		Str("log_level", config.Logging.Level).
		Strs("log_output", config.Logging.Output).
		Int64("seed", config.Exploration.Seed).
		Str("schedule", config.Schedule.Cron).
		Msg("Resolved configuration")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		return 1
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *history > 0 {
		return printHistory(ctx, application, *history)
	}

	if application.SchedulerService == nil {
		return runOnce(ctx, application, logger)
	}

	if err := application.StartSchedule(); err != nil {
		logger.Error().Err(err).Msg("Failed to start schedule")
		return 1
	}

	logger.Info().Str("cron", config.Schedule.Cron).Msg("Scheduled passes running - Press Ctrl+C to stop")
	<-ctx.Done()
	logger.Info().Msg("Interrupt signal received")

	return 0
}

func collectOverrides() common.FlagOverrides {
	overrides := common.FlagOverrides{Once: *once}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			overrides.Seed = seed
		case "headless":
			overrides.Headless = headless
		}
	})
	return overrides
}

func runOnce(ctx context.Context, application *app.App, logger arbor.ILogger) int {
	report, err := application.RunOnce(ctx)
	if err != nil {
		if errors.Is(err, models.ErrResourceAcquisition) {
			logger.Error().Err(err).Msg("Browser session could not be acquired")
		} else {
			logger.Error().Err(err).Msg("Pass failed")
		}
		return 1
	}

	logger.Info().
		Str("run_id", report.ID).
		Str("success_rate", report.Summary.RateString()).
		Msg("Pass complete")
	return 0
}

func printHistory(ctx context.Context, application *app.App, limit int) int {
	runs, err := application.History(ctx, limit)
	if err != nil {
		application.Logger.Error().Err(err).Msg("Failed to read run archive")
		return 1
	}

	if len(runs) == 0 {
		fmt.Println("No archived runs.")
		return 0
	}

	for _, r := range runs {
		fmt.Printf("%s  %s  seed=%d  total=%d pass=%d fail=%d unknown=%d  rate=%s\n",
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.ID,
			r.Seed,
			r.Summary.Total,
			r.Summary.Passed,
			r.Summary.Failed,
			r.Summary.Unknown,
			r.Summary.RateString())
	}
	return 0
}
