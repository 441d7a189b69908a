// -----------------------------------------------------------------------
// Outcome - classified result of a single UI check
// -----------------------------------------------------------------------

package models

import (
	"fmt"
	"time"
)

// OutcomeStatus is the three-way classification of a check.
// UNKNOWN marks an inconclusive automated verification and is never folded into FAIL.
type OutcomeStatus string

const (
	StatusPass    OutcomeStatus = "PASS"
	StatusFail    OutcomeStatus = "FAIL"
	StatusUnknown OutcomeStatus = "UNKNOWN"
)

// AllStatuses lists every valid status in report order
var AllStatuses = []OutcomeStatus{StatusPass, StatusFail, StatusUnknown}

// Valid reports whether s is one of the enumerated statuses
func (s OutcomeStatus) Valid() bool {
	switch s {
	case StatusPass, StatusFail, StatusUnknown:
		return true
	}
	return false
}

// ParseOutcomeStatus converts a string into an OutcomeStatus
func ParseOutcomeStatus(value string) (OutcomeStatus, error) {
	s := OutcomeStatus(value)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
	}
	return s, nil
}

// OutcomeRecord is one attempted check. Records are values and are never
// modified after the recorder creates them.
type OutcomeRecord struct {
	Test      string        `json:"test" yaml:"test"`
	Status    OutcomeStatus `json:"status" yaml:"status"`
	Timestamp time.Time     `json:"timestamp" yaml:"timestamp"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
}
