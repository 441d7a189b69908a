// Package runner executes one pass over every configured role.
package runner

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/uiprobe/internal/common"
	"github.com/ternarybob/uiprobe/internal/interfaces"
	"github.com/ternarybob/uiprobe/internal/models"
	"github.com/ternarybob/uiprobe/internal/services/checks"
	"github.com/ternarybob/uiprobe/internal/services/explorer"
	"github.com/ternarybob/uiprobe/internal/services/recorder"
	"github.com/ternarybob/uiprobe/internal/services/report"
)

// Runner drives a pass: acquire a browser, exercise every role, release the
// browser, then report and archive the results.
type Runner struct {
	config   *common.Config
	sessions interfaces.SessionFactory
	reports  interfaces.ReportWriter
	archive  interfaces.RunStorage // nil when archiving is disabled
	logger   arbor.ILogger

	now   func() time.Time
	newID func() string
}

// NewRunner creates a runner. archive may be nil.
func NewRunner(config *common.Config, sessions interfaces.SessionFactory, reports interfaces.ReportWriter, archive interfaces.RunStorage, logger arbor.ILogger) *Runner {
	return &Runner{
		config:   config,
		sessions: sessions,
		reports:  reports,
		archive:  archive,
		logger:   logger,
		now:      time.Now,
		newID:    common.NewRunID,
	}
}

// Seed returns the configured seed, or a clock-derived one when unset
func (r *Runner) Seed() int64 {
	if r.config.Exploration.Seed != 0 {
		return r.config.Exploration.Seed
	}
	return r.now().UnixNano()
}

// Run executes one pass. Only a failure to acquire the browser is returned as an
// error, in which case no report is produced. Check failures become records.
func (r *Runner) Run(ctx context.Context) (*models.RunReport, error) {
	ctx, cancel := context.WithTimeout(ctx, common.ParseDurationOr(r.config.Timeouts.Run, 10*time.Minute))
	defer cancel()

	runID := r.newID()
	seed := r.Seed()
	started := r.now()

	r.logger.Info().
		Str("run_id", runID).
		Int64("seed", seed).
		Str("frontend", r.config.Target.FrontendURL).
		Strs("roles", r.config.Roles).
		Msg("🚀 Starting UI probe pass")

	rec := recorder.NewService(r.logger)
	if err := r.exercise(ctx, runID, seed, rec); err != nil {
		return nil, err
	}

	records := rec.Export()
	result := &models.RunReport{
		ID:          runID,
		Seed:        seed,
		FrontendURL: r.config.Target.FrontendURL,
		BackendURL:  r.config.Target.BackendURL,
		StartedAt:   started,
		FinishedAt:  r.now(),
		Summary:     rec.Summarize(),
		Records:     records,
	}

	report.PrintSummary(r.logger, result)

	// Results are written even when the pass deadline expired
	writeCtx := context.WithoutCancel(ctx)
	if _, err := r.reports.Write(writeCtx, result); err != nil {
		r.logger.Error().Err(err).Msg("Failed to write reports")
	}
	r.store(writeCtx, result)

	return result, nil
}

// exercise holds the browser session for the duration of the role loop
func (r *Runner) exercise(ctx context.Context, runID string, seed int64, rec *recorder.Service) error {
	session, err := r.sessions(ctx, runID)
	if err != nil {
		if !errors.Is(err, models.ErrResourceAcquisition) {
			err = fmt.Errorf("%w: %w", models.ErrResourceAcquisition, err)
		}
		r.logger.Error().Err(err).Msg("Failed to acquire browser session")
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to close browser session")
		}
	}()

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	suite := checks.NewSuite(session, rec, r.config, rng, r.logger)
	exp := explorer.NewExplorer(session, rng, common.ParseDurationOr(r.config.Exploration.Settle, 2*time.Second), r.logger)

	for _, role := range r.config.Roles {
		if err := ctx.Err(); err != nil {
			r.logger.Warn().Err(err).Str("role", role).Msg("Pass deadline reached, skipping remaining roles")
			break
		}
		r.exerciseRole(ctx, role, suite, exp, rec)
	}
	return nil
}

// exerciseRole runs the scripted checks for one role. Later steps only run after a
// successful login, and no step starts once the pass context is done.
func (r *Runner) exerciseRole(ctx context.Context, role string, suite *checks.Suite, exp *explorer.Explorer, rec interfaces.OutcomeRecorder) {
	r.logger.Info().Str("role", role).Msg("Exercising role")

	if login := suite.Login(ctx, role); !login.Passed() {
		r.logger.Warn().Str("role", role).Err(login.Err()).Msg("Skipping role after failed login")
		return
	}

	for _, target := range r.config.Navigation {
		if r.stopped(ctx, role, checks.NavigationCheckName(target.Text)) {
			return
		}
		suite.Navigate(ctx, role, target)
	}

	if role == r.config.Target.TimesheetRole {
		if r.stopped(ctx, role, checks.TimesheetCheckName) {
			return
		}
		suite.CreateTimesheet(ctx, role)
	}

	if r.config.Exploration.Enabled {
		if r.stopped(ctx, role, "exploration_"+role) {
			return
		}
		r.explore(ctx, role, exp, rec)
	}

	if r.stopped(ctx, role, checks.LogoutCheckName) {
		return
	}
	suite.Logout(ctx, role)
}

// stopped reports whether the pass was cancelled or ran out of time before step
func (r *Runner) stopped(ctx context.Context, role, step string) bool {
	err := ctx.Err()
	if err == nil {
		return false
	}
	r.logger.Warn().Err(err).Str("role", role).Str("next", step).Msg("Pass stopped, remaining checks not run")
	return true
}

// explore records exploration_<role> when a button was actually clicked
func (r *Runner) explore(ctx context.Context, role string, exp *explorer.Explorer, rec interfaces.OutcomeRecorder) {
	name := "exploration_" + role

	out, err := exp.Explore(ctx)
	if err != nil {
		if _, recErr := rec.Record(name, models.StatusFail, err.Error()); recErr != nil {
			r.logger.Error().Err(recErr).Msg("Failed to record exploration outcome")
		}
		return
	}
	if !out.Attempted {
		return
	}

	if _, err := rec.Record(name, out.Status(), out.Diagnostic()); err != nil {
		r.logger.Error().Err(err).Msg("Failed to record exploration outcome")
	}
}

// store archives the run and trims old runs when an archive is configured
func (r *Runner) store(ctx context.Context, result *models.RunReport) {
	if r.archive == nil {
		return
	}

	if err := r.archive.SaveRun(ctx, result); err != nil {
		r.logger.Error().Err(err).Str("run_id", result.ID).Msg("Failed to archive run")
		return
	}

	if _, err := r.archive.Prune(ctx, r.config.Archive.Keep); err != nil {
		r.logger.Warn().Err(err).Msg("Failed to prune archived runs")
	}
	r.logger.Debug().Str("run_id", result.ID).Msg("Run archived")
}
