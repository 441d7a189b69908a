package interfaces

import (
	"context"

	"github.com/ternarybob/uiprobe/internal/models"
)

// RunStorage archives finished run reports
type RunStorage interface {
	SaveRun(ctx context.Context, report *models.RunReport) error
	GetRun(ctx context.Context, id string) (*models.RunReport, error)
	ListRuns(ctx context.Context, limit int) ([]*models.RunReport, error)
	DeleteRun(ctx context.Context, id string) error
	// Prune keeps the newest keep runs and deletes the rest; keep <= 0 keeps everything
	Prune(ctx context.Context, keep int) (int, error)
	Close() error
}
