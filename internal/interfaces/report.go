package interfaces

import (
	"context"

	"github.com/ternarybob/uiprobe/internal/models"
)

// ReportWriter persists a finished run and returns the written file paths
type ReportWriter interface {
	Write(ctx context.Context, report *models.RunReport) ([]string, error)
}
