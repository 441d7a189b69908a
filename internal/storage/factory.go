package storage

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/uiprobe/internal/common"
	"github.com/ternarybob/uiprobe/internal/storage/badger"
)

// NewRunStorage opens the run archive described by config
func NewRunStorage(logger arbor.ILogger, config *common.Config) (*badger.RunStorage, error) {
	if !config.Archive.Enabled {
		return nil, fmt.Errorf("archive is disabled")
	}

	db, err := badger.NewBadgerDB(logger, &config.Archive.Badger)
	if err != nil {
		return nil, err
	}
	return badger.NewRunStorage(db, logger), nil
}
