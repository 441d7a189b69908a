package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func records(statuses ...OutcomeStatus) []OutcomeRecord {
	out := make([]OutcomeRecord, 0, len(statuses))
	for i, s := range statuses {
		out = append(out, OutcomeRecord{Test: string(rune('a' + i)), Status: s})
	}
	return out
}

func TestNewSummary(t *testing.T) {
	tests := []struct {
		name     string
		statuses []OutcomeStatus
		want     Summary
		rate     string
	}{
		{"no records", nil, Summary{}, "n/a"},
		{"pass and fail", []OutcomeStatus{StatusPass, StatusFail}, Summary{Total: 2, Passed: 1, Failed: 1, SuccessRate: 50, HasData: true}, "50.0%"},
		{"unknown counts in denominator", []OutcomeStatus{StatusPass, StatusPass, StatusUnknown}, Summary{Total: 3, Passed: 2, Unknown: 1, SuccessRate: 200.0 / 3, HasData: true}, "66.7%"},
		{"all unknown", []OutcomeStatus{StatusUnknown, StatusUnknown}, Summary{Total: 2, Unknown: 2, HasData: true}, "0.0%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewSummary(records(tt.statuses...))
			assert.Equal(t, tt.want.Total, got.Total)
			assert.Equal(t, tt.want.Passed, got.Passed)
			assert.Equal(t, tt.want.Failed, got.Failed)
			assert.Equal(t, tt.want.Unknown, got.Unknown)
			assert.Equal(t, tt.want.HasData, got.HasData)
			assert.InDelta(t, tt.want.SuccessRate, got.SuccessRate, 0.001)
			assert.Equal(t, tt.rate, got.RateString())
			assert.Equal(t, got.Total, got.Passed+got.Failed+got.Unknown)
		})
	}
}

func TestParseOutcomeStatus(t *testing.T) {
	for _, s := range AllStatuses {
		got, err := ParseOutcomeStatus(string(s))
		assert.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseOutcomeStatus("SKIPPED")
	assert.True(t, errors.Is(err, ErrInvalidStatus))
}

func TestLocatorMatchesText(t *testing.T) {
	loc := ByText("button", "Create", "New Timesheet")

	assert.True(t, loc.MatchesText("Create"))
	assert.True(t, loc.MatchesText("  + new timesheet "))
	assert.False(t, loc.MatchesText("Cancel"))
	assert.True(t, ByCSS("button").MatchesText("anything"))
	assert.Equal(t, `button has-text("Create"|"New Timesheet")`, loc.String())
}
