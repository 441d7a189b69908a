package recorder

import (
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/uiprobe/internal/interfaces"
	"github.com/ternarybob/uiprobe/internal/models"
)

// Service accumulates outcome records for a single pass. Each pass owns its own instance.
type Service struct {
	mu      sync.RWMutex
	records []models.OutcomeRecord
	now     func() time.Time
	logger  arbor.ILogger
}

// Compile-time assertion
var _ interfaces.OutcomeRecorder = (*Service)(nil)

// NewService creates an empty recorder stamping records with the wall clock
func NewService(logger arbor.ILogger) *Service {
	return NewServiceWithClock(logger, time.Now)
}

// NewServiceWithClock creates an empty recorder with an injected clock
func NewServiceWithClock(logger arbor.ILogger, now func() time.Time) *Service {
	return &Service{
		records: make([]models.OutcomeRecord, 0),
		now:     now,
		logger:  logger,
	}
}

// Record appends a new record. The status is validated before anything is appended.
func (s *Service) Record(test string, status models.OutcomeStatus, errMsg string) (models.OutcomeRecord, error) {
	if !status.Valid() {
		return models.OutcomeRecord{}, fmt.Errorf("record %q: %w: %q", test, models.ErrInvalidStatus, status)
	}

	record := models.OutcomeRecord{
		Test:      test,
		Status:    status,
		Timestamp: s.now(),
		Error:     errMsg,
	}

	s.mu.Lock()
	s.records = append(s.records, record)
	s.mu.Unlock()

	event := s.logger.Info()
	if status != models.StatusPass {
		event = s.logger.Warn()
	}
	event = event.Str("test", test).Str("status", string(status))
	if errMsg != "" {
		event = event.Str("error", errMsg)
	}
	event.Msg("Outcome recorded")

	return record, nil
}

// Summarize returns per-status counts and the success rate without mutating state
func (s *Service) Summarize() models.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.NewSummary(s.records)
}

// Export returns a copy of all records in insertion order
func (s *Service) Export() []models.OutcomeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.OutcomeRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
