package interfaces

import "time"

// ScheduleStatus describes the scheduled pass
type ScheduleStatus struct {
	Schedule  string
	LastRun   *time.Time
	NextRun   *time.Time
	IsRunning bool
	Runs      int
	Skipped   int
	LastError string
}

// SchedulerService repeats passes on a cron schedule
type SchedulerService interface {
	// Start registers the pass handler under the cron expression and starts ticking
	Start(cronExpr string) error

	// Stop halts scheduling and waits for a running pass to finish
	Stop() error

	// TriggerNow runs a pass immediately unless one is already running
	TriggerNow() error

	IsRunning() bool
	Status() ScheduleStatus
}
