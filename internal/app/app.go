package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/uiprobe/internal/common"
	"github.com/ternarybob/uiprobe/internal/interfaces"
	"github.com/ternarybob/uiprobe/internal/models"
	"github.com/ternarybob/uiprobe/internal/runner"
	"github.com/ternarybob/uiprobe/internal/services/browser"
	"github.com/ternarybob/uiprobe/internal/services/report"
	"github.com/ternarybob/uiprobe/internal/services/scheduler"
	"github.com/ternarybob/uiprobe/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Browser sessions, one per pass
	Sessions interfaces.SessionFactory

	// Reporting
	PDFRenderer   interfaces.PDFRenderer
	ReportService *report.Service

	// Run archive (nil unless archive.enabled)
	RunStorage interfaces.RunStorage

	Runner *runner.Runner

	// Scheduler (nil unless schedule.cron is set)
	SchedulerService interfaces.SchedulerService
}

// New validates the configuration and wires every component
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize archive: %w", err)
	}

	app.initServices()

	logger.Info().
		Bool("archive_enabled", app.RunStorage != nil).
		Bool("scheduled", app.SchedulerService != nil).
		Strs("formats", cfg.Output.Formats).
		Msg("Application initialization complete")

	return app, nil
}

func (a *App) initStorage() error {
	if !a.Config.Archive.Enabled {
		return nil
	}

	runStorage, err := storage.NewRunStorage(a.Logger, a.Config)
	if err != nil {
		return err
	}
	a.RunStorage = runStorage

	a.Logger.Info().Str("path", a.Config.Archive.Badger.Path).Msg("Run archive opened")
	return nil
}

func (a *App) initServices() {
	a.Sessions = browser.NewSessionFactory(browser.OptionsFromConfig(a.Config), a.Logger)
	a.PDFRenderer = report.NewPDFRenderer(a.Logger)
	a.ReportService = report.NewService(a.Config, a.PDFRenderer, a.Logger)
	a.Runner = runner.NewRunner(a.Config, a.Sessions, a.ReportService, a.RunStorage, a.Logger)

	if a.Config.Schedule.Cron != "" {
		a.SchedulerService = scheduler.NewService(func(ctx context.Context) error {
			_, err := a.Runner.Run(ctx)
			return err
		}, a.Logger)
	}
}

// RunOnce executes a single pass
func (a *App) RunOnce(ctx context.Context) (*models.RunReport, error) {
	return a.Runner.Run(ctx)
}

// StartSchedule starts the cron schedule and triggers the first pass immediately
func (a *App) StartSchedule() error {
	if a.SchedulerService == nil {
		return fmt.Errorf("no schedule configured")
	}
	if err := a.SchedulerService.Start(a.Config.Schedule.Cron); err != nil {
		return err
	}
	return a.SchedulerService.TriggerNow()
}

// History returns the newest archived runs
func (a *App) History(ctx context.Context, limit int) ([]*models.RunReport, error) {
	if a.RunStorage == nil {
		return nil, fmt.Errorf("archive is disabled")
	}
	return a.RunStorage.ListRuns(ctx, limit)
}

// Close stops the scheduler and closes the archive
func (a *App) Close() error {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.RunStorage != nil {
		if err := a.RunStorage.Close(); err != nil {
			return fmt.Errorf("failed to close archive: %w", err)
		}
		a.Logger.Info().Msg("Run archive closed")
	}

	return nil
}
