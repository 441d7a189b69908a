package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/uiprobe/internal/interfaces"
	"github.com/ternarybob/uiprobe/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ErrRunNotFound is returned when an archived run does not exist
var ErrRunNotFound = errors.New("run not found")

// RunStorage implements interfaces.RunStorage for Badger
type RunStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

var _ interfaces.RunStorage = (*RunStorage)(nil)

// NewRunStorage creates a run archive on top of an open database
func NewRunStorage(db *BadgerDB, logger arbor.ILogger) *RunStorage {
	return &RunStorage{
		db:     db,
		logger: logger,
	}
}

func (s *RunStorage) SaveRun(ctx context.Context, report *models.RunReport) error {
	if report.ID == "" {
		return fmt.Errorf("run ID is required")
	}
	if err := s.db.Store().Upsert(report.ID, report); err != nil {
		return fmt.Errorf("failed to save run %s: %w", report.ID, err)
	}
	return nil
}

func (s *RunStorage) GetRun(ctx context.Context, id string) (*models.RunReport, error) {
	var report models.RunReport
	if err := s.db.Store().Get(id, &report); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return &report, nil
}

// ListRuns returns archived runs newest first; limit <= 0 returns all of them
func (s *RunStorage) ListRuns(ctx context.Context, limit int) ([]*models.RunReport, error) {
	query := (&badgerhold.Query{}).SortBy("StartedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var runs []models.RunReport
	if err := s.db.Store().Find(&runs, query); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	result := make([]*models.RunReport, len(runs))
	for i := range runs {
		result[i] = &runs[i]
	}
	return result, nil
}

func (s *RunStorage) DeleteRun(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.RunReport{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	return nil
}

// Prune deletes all but the newest keep runs and returns how many were removed
func (s *RunStorage) Prune(ctx context.Context, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}

	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, run := range runs[min(keep, len(runs)):] {
		if err := s.DeleteRun(ctx, run.ID); err != nil {
			return removed, err
		}
		removed++
	}

	if removed > 0 {
		s.logger.Debug().Int("removed", removed).Int("kept", keep).Msg("Pruned archived runs")
	}
	return removed, nil
}

func (s *RunStorage) Close() error {
	return s.db.Close()
}
