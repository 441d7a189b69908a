package models

import "fmt"

// Summary holds the per-status counts of a run.
// When Total is zero HasData is false and SuccessRate is 0; callers render
// that state as "n/a" instead of a percentage.
type Summary struct {
	Total       int     `json:"total" yaml:"total"`
	Passed      int     `json:"passed" yaml:"passed"`
	Failed      int     `json:"failed" yaml:"failed"`
	Unknown     int     `json:"unknown" yaml:"unknown"`
	SuccessRate float64 `json:"success_rate" yaml:"success_rate"` // percentage, 0-100
	HasData     bool    `json:"has_data" yaml:"has_data"`
}

// NewSummary computes counts and the success rate from an ordered record list
func NewSummary(records []OutcomeRecord) Summary {
	var s Summary
	for _, r := range records {
		switch r.Status {
		case StatusPass:
			s.Passed++
		case StatusFail:
			s.Failed++
		case StatusUnknown:
			s.Unknown++
		default:
			continue
		}
		s.Total++
	}

	if s.Total > 0 {
		s.HasData = true
		s.SuccessRate = float64(s.Passed) / float64(s.Total) * 100
	}
	return s
}

// Count returns the number of records with the given status
func (s Summary) Count(status OutcomeStatus) int {
	switch status {
	case StatusPass:
		return s.Passed
	case StatusFail:
		return s.Failed
	case StatusUnknown:
		return s.Unknown
	}
	return 0
}

// RateString formats the success rate with one decimal, or "n/a" without data
func (s Summary) RateString() string {
	if !s.HasData {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", s.SuccessRate)
}
