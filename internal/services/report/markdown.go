package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/uiprobe/internal/models"
)

const reportTitle = "UI Probe Report"

// RenderMarkdown renders a run as a markdown document: run details, summary
// counts and the ordered result table.
func RenderMarkdown(report *models.RunReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", reportTitle)

	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Run | %s |\n", report.ID)
	fmt.Fprintf(&b, "| Seed | %d |\n", report.Seed)
	fmt.Fprintf(&b, "| Frontend | %s |\n", escapeCell(report.FrontendURL))
	if report.BackendURL != "" {
		fmt.Fprintf(&b, "| Backend | %s |\n", escapeCell(report.BackendURL))
	}
	fmt.Fprintf(&b, "| Started | %s |\n", report.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "| Duration | %s |\n", report.Duration().Round(time.Millisecond))

	summary := report.Summary
	b.WriteString("\n## Summary\n\n")
	fmt.Fprintf(&b, "- Total tests: %d\n", summary.Total)
	fmt.Fprintf(&b, "- Passed: %d\n", summary.Passed)
	fmt.Fprintf(&b, "- Failed: %d\n", summary.Failed)
	fmt.Fprintf(&b, "- Unknown: %d\n", summary.Unknown)
	fmt.Fprintf(&b, "- Success rate: **%s**\n", summary.RateString())

	b.WriteString("\n## Results\n\n")
	if len(report.Records) == 0 {
		b.WriteString("No checks were recorded.\n")
		return b.String()
	}

	b.WriteString("| # | Test | Status | Time | Error |\n|---|---|---|---|---|\n")
	for i, r := range report.Records {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
			i+1,
			escapeCell(r.Test),
			r.Status,
			r.Timestamp.Format("15:04:05"),
			escapeCell(r.Error),
		)
	}

	return b.String()
}

// escapeCell keeps free text inside a single table cell
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
