package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/uiprobe/internal/common"
	"github.com/ternarybob/uiprobe/internal/models"
)

func TestNewWithDefaults(t *testing.T) {
	a, err := New(common.NewDefaultConfig(), arbor.NewNoOpLogger())
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Runner)
	assert.NotNil(t, a.Sessions)
	assert.NotNil(t, a.ReportService)
	assert.Nil(t, a.RunStorage)
	assert.Nil(t, a.SchedulerService)

	_, err = a.History(context.Background(), 5)
	assert.Error(t, err)
	assert.Error(t, a.StartSchedule())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Target.FrontendURL = ""

	_, err := New(cfg, arbor.NewNoOpLogger())
	assert.Error(t, err)
}

func TestNewWithArchiveAndSchedule(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Archive.Enabled = true
	cfg.Archive.Badger.Path = filepath.Join(t.TempDir(), "runs")
	cfg.Schedule.Cron = "0 3 * * *"

	a, err := New(cfg, arbor.NewNoOpLogger())
	require.NoError(t, err)
	require.NotNil(t, a.RunStorage)
	require.NotNil(t, a.SchedulerService)

	ctx := context.Background()
	require.NoError(t, a.RunStorage.SaveRun(ctx, &models.RunReport{ID: "r1", StartedAt: time.Now()}))

	runs, err := a.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "r1", runs[0].ID)

	require.NoError(t, a.Close())
}
