package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/uiprobe/internal/interfaces"
)

// ErrPassInProgress is returned when a pass is requested while another is running
var ErrPassInProgress = errors.New("a pass is already running")

// PassFunc runs one complete pass. The context is cancelled when the scheduler stops.
type PassFunc func(ctx context.Context) error

// Service repeats passes on a cron schedule. Passes never overlap: a tick that
// fires while a pass is running is skipped.
type Service struct {
	cron    *cron.Cron
	entryID cron.EntryID
	pass    PassFunc
	logger  arbor.ILogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	running      bool
	schedule     string
	isProcessing bool
	lastRun      *time.Time
	lastError    string
	runs         int
	skipped      int
}

var _ interfaces.SchedulerService = (*Service)(nil)

// NewService creates a scheduler that calls pass on every tick
func NewService(pass PassFunc, logger arbor.ILogger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		cron:   cron.New(),
		pass:   pass,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start registers the pass under a standard five-field cron expression
func (s *Service) Start(cronExpr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	// A stopped scheduler gets a fresh pass context
	if s.ctx.Err() != nil {
		s.ctx, s.cancel = context.WithCancel(context.Background())
	}

	id, err := s.cron.AddFunc(cronExpr, s.runScheduledPass)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = id
	s.schedule = cronExpr
	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("cron_expr", cronExpr).
		Str("next_run", s.cron.Entry(id).Next.Format(time.RFC3339)).
		Msg("Scheduler started")
	return nil
}

// Stop halts ticking, cancels a running pass and waits for it to return
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()

	s.mu.Lock()
	s.cron.Remove(s.entryID)
	s.mu.Unlock()

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// TriggerNow starts a pass in the background unless one is already running
func (s *Service) TriggerNow() error {
	ctx, ok := s.begin()
	if !ok {
		return ErrPassInProgress
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(ctx)
	}()
	return nil
}

func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Service) Status() interfaces.ScheduleStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := interfaces.ScheduleStatus{
		Schedule:  s.schedule,
		LastRun:   s.lastRun,
		IsRunning: s.isProcessing,
		Runs:      s.runs,
		Skipped:   s.skipped,
		LastError: s.lastError,
	}
	if s.running {
		if next := s.cron.Entry(s.entryID).Next; !next.IsZero() {
			status.NextRun = &next
		}
	}
	return status
}

// runScheduledPass is the cron callback
func (s *Service) runScheduledPass() {
	ctx, ok := s.begin()
	if !ok {
		s.logger.Warn().Str("cron_expr", s.schedule).Msg("Previous pass still running, skipping this tick")
		return
	}

	s.wg.Add(1)
	defer s.wg.Done()
	s.execute(ctx)
}

// begin marks a pass as started and returns its context; false means one is
// already in progress
func (s *Service) begin() (context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isProcessing {
		s.skipped++
		return nil, false
	}
	s.isProcessing = true
	return s.ctx, true
}

// execute runs the pass with panic recovery and records its outcome
func (s *Service) execute(ctx context.Context) {
	start := time.Now()
	var err error

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			s.logger.Error().Str("panic", fmt.Sprintf("%v", r)).Msg("PANIC RECOVERED in scheduled pass")
		}

		finished := time.Now()
		s.mu.Lock()
		s.isProcessing = false
		s.lastRun = &finished
		s.runs++
		if err != nil {
			s.lastError = err.Error()
		} else {
			s.lastError = ""
		}
		s.mu.Unlock()

		if err != nil {
			s.logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("❌ Scheduled pass failed")
		} else {
			s.logger.Info().Dur("duration", time.Since(start)).Msg("✅ Scheduled pass completed")
		}
	}()

	s.logger.Info().Msg("🚀 Scheduled pass started")
	err = s.pass(ctx)
}
