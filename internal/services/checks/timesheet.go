package checks

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/uiprobe/internal/models"
)

const TimesheetCheckName = "timesheet_creation"

var (
	CreateLocator      = models.ByText("button", "Create", "New Timesheet")
	HoursLocator       = models.ByCSS(`input[name="hours"]`)
	RateLocator        = models.ByCSS(`input[name="hourlyRate"]`)
	DescriptionLocator = models.ByCSS(`textarea[name="description"], input[name="description"]`)
	WeekStartLocator   = models.ByCSS(`input[type="date"], input[name="weekStartDate"]`)
	SaveLocator        = models.ByText("button", "Save", "Create")
)

// TimesheetForm is the generated content of one timesheet
type TimesheetForm struct {
	Hours       int
	HourlyRate  int
	Description string
	WeekStart   string
}

// NewTimesheetForm draws hours in [5,20] and a rate in [40,60] from the suite's seeded source
func (s *Suite) NewTimesheetForm() TimesheetForm {
	now := s.now()
	return TimesheetForm{
		Hours:       5 + s.rng.IntN(16),
		HourlyRate:  40 + s.rng.IntN(21),
		Description: "AI Test Timesheet - " + now.Format("2006-01-02 15:04"),
		WeekStart:   WeekStart(now).Format("2006-01-02"),
	}
}

// WeekStart returns the Monday of the week containing t
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// CreateTimesheet fills and submits a new timesheet as role and records timesheet_creation.
// When the page is not on the dashboard the role logs in first.
func (s *Suite) CreateTimesheet(ctx context.Context, role string) Verdict {
	if current, err := s.page.CurrentURL(ctx); err != nil || !strings.Contains(strings.ToLower(current), "dashboard") {
		s.logger.Info().Str("role", role).Msg("Not on dashboard, logging in before timesheet creation")
		s.Login(ctx, role)
	}

	form := s.NewTimesheetForm()
	s.logger.Info().
		Int("hours", form.Hours).
		Int("hourly_rate", form.HourlyRate).
		Str("week_start", form.WeekStart).
		Msg("Testing timesheet creation")

	return s.verifier.Verify(ctx, Verification{
		Name: TimesheetCheckName,
		Shot: TimesheetCheckName + "_" + role,
		Act: func(ctx context.Context) error {
			return s.submitTimesheet(ctx, form)
		},
		Await: AwaitProbe(s.settle, SubmissionProbe),
	})
}

func (s *Suite) submitTimesheet(ctx context.Context, form TimesheetForm) error {
	if err := s.click(ctx, "Create button not found", CreateLocator); err != nil {
		return err
	}

	if err := s.fill(ctx, HoursLocator, strconv.Itoa(form.Hours), "Hours field not found"); err != nil {
		return err
	}
	if err := s.fill(ctx, RateLocator, strconv.Itoa(form.HourlyRate), "Hourly rate field not found"); err != nil {
		return err
	}
	if err := s.fill(ctx, DescriptionLocator, form.Description, "Description field not found"); err != nil {
		return err
	}

	// Week start is optional on some forms
	dates, err := s.page.Find(ctx, WeekStartLocator)
	if err != nil {
		return fmt.Errorf("failed to locate %s: %w", WeekStartLocator, err)
	}
	if len(dates) > 0 {
		if err := dates[0].Fill(ctx, form.WeekStart); err != nil {
			return fmt.Errorf("failed to fill week start: %w", err)
		}
	}

	return s.click(ctx, "Save button not found", SubmitLocator, SaveLocator)
}
