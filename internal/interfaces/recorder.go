package interfaces

import "github.com/ternarybob/uiprobe/internal/models"

// OutcomeRecorder accumulates classified check outcomes for one pass
type OutcomeRecorder interface {
	Record(test string, status models.OutcomeStatus, errMsg string) (models.OutcomeRecord, error)
	Summarize() models.Summary
	Export() []models.OutcomeRecord
}
