package badger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/uiprobe/internal/common"
	"github.com/ternarybob/uiprobe/internal/models"
)

func newTestStorage(t *testing.T) *RunStorage {
	t.Helper()
	db, err := NewBadgerDB(arbor.NewNoOpLogger(), &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	s := NewRunStorage(db, arbor.NewNoOpLogger())
	t.Cleanup(func() { s.Close() })
	return s
}

func run(id string, started time.Time, statuses ...models.OutcomeStatus) *models.RunReport {
	records := make([]models.OutcomeRecord, len(statuses))
	for i, status := range statuses {
		records[i] = models.OutcomeRecord{Test: fmt.Sprintf("check_%d", i), Status: status, Timestamp: started}
	}
	return &models.RunReport{
		ID:         id,
		Seed:       7,
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		Summary:    models.NewSummary(records),
		Records:    records,
	}
}

func TestSaveAndGetRun(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	started := time.Date(2025, 3, 13, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveRun(ctx, run("a", started, models.StatusPass, models.StatusUnknown)))

	got, err := s.GetRun(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Seed)
	assert.Equal(t, 2, got.Summary.Total)
	require.Len(t, got.Records, 2)
	assert.Equal(t, models.StatusUnknown, got.Records[1].Status)
	assert.True(t, started.Equal(got.StartedAt))
}

func TestGetMissingRun(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetRun(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestSaveRunRequiresID(t *testing.T) {
	s := newTestStorage(t)
	assert.Error(t, s.SaveRun(context.Background(), &models.RunReport{}))
}

func TestListRunsNewestFirst(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 13, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"first", "second", "third"} {
		require.NoError(t, s.SaveRun(ctx, run(id, base.Add(time.Duration(i)*time.Hour), models.StatusPass)))
	}

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "third", runs[0].ID)
	assert.Equal(t, "first", runs[2].ID)

	limited, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestDeleteAndPrune(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 13, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.SaveRun(ctx, run(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Minute), models.StatusPass)))
	}

	require.NoError(t, s.DeleteRun(ctx, "run-0"))
	assert.True(t, errors.Is(s.DeleteRun(ctx, "run-0"), ErrRunNotFound))

	removed, err := s.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-4", runs[0].ID)
	assert.Equal(t, "run-3", runs[1].ID)

	removed, err = s.Prune(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
