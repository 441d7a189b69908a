package models

import "time"

// RunReport is computed once at the end of a pass from the recorder contents
type RunReport struct {
	ID          string          `json:"id" yaml:"id" badgerhold:"key"`
	Seed        int64           `json:"seed" yaml:"seed"`
	FrontendURL string          `json:"frontend_url" yaml:"frontend_url"`
	BackendURL  string          `json:"backend_url" yaml:"backend_url"`
	StartedAt   time.Time       `json:"started_at" yaml:"started_at" badgerholdIndex:"StartedAt"`
	FinishedAt  time.Time       `json:"finished_at" yaml:"finished_at"`
	Summary     Summary         `json:"summary" yaml:"summary"`
	Records     []OutcomeRecord `json:"records" yaml:"records"`
}

// Duration returns the wall time of the pass
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
