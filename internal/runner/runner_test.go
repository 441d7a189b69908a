package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/uiprobe/internal/common"
	"github.com/ternarybob/uiprobe/internal/interfaces"
	"github.com/ternarybob/uiprobe/internal/models"
	"github.com/ternarybob/uiprobe/internal/testutil"
)

const (
	frontend  = "http://localhost:5174"
	loginURL  = frontend + "/login"
	dashboard = frontend + "/dashboard/home"
)

type fakeWriter struct {
	reports []*models.RunReport
}

func (w *fakeWriter) Write(ctx context.Context, report *models.RunReport) ([]string, error) {
	w.reports = append(w.reports, report)
	return []string{"test_results.json"}, nil
}

type fakeArchive struct {
	saved []string
	kept  []int
}

func (a *fakeArchive) SaveRun(ctx context.Context, report *models.RunReport) error {
	a.saved = append(a.saved, report.ID)
	return nil
}
func (a *fakeArchive) GetRun(ctx context.Context, id string) (*models.RunReport, error) {
	return nil, errors.New("not implemented")
}
func (a *fakeArchive) ListRuns(ctx context.Context, limit int) ([]*models.RunReport, error) {
	return nil, nil
}
func (a *fakeArchive) DeleteRun(ctx context.Context, id string) error { return nil }
func (a *fakeArchive) Prune(ctx context.Context, keep int) (int, error) {
	a.kept = append(a.kept, keep)
	return 0, nil
}
func (a *fakeArchive) Close() error { return nil }

// fakeApp scripts the timesheet application: login lands on the dashboard, every
// navigation target works and logout returns to the login page.
func fakeApp(rejected ...string) *testutil.FakePage {
	page := testutil.NewFakePage("about:blank")
	page.Routes[frontend] = loginURL

	email := &testutil.FakeElement{Label: "email"}
	page.Add(`input[name="email"]`, email)
	page.Add(`input[name="password"]`, &testutil.FakeElement{Label: "password"})
	page.Add(`button[type="submit"]`, &testutil.FakeElement{Label: "Sign in", OnClick: func(p *testutil.FakePage) {
		for _, r := range rejected {
			if len(email.Filled) > 0 && email.Filled[len(email.Filled)-1] == r {
				return
			}
		}
		p.Goto(dashboard)
		p.HTML = `<div class="alert-success">Saved</div>`
	}})

	for text, path := range map[string]string{"Dashboard": "/dashboard/home", "Timesheets": "/timesheets", "Profile": "/profile"} {
		target := frontend + path
		page.Add("a, button", &testutil.FakeElement{Label: text, OnClick: func(p *testutil.FakePage) { p.Goto(target) }})
	}
	page.Add("button, a", &testutil.FakeElement{Label: "Logout", OnClick: func(p *testutil.FakePage) { p.Goto(loginURL) }})
	page.Add("button", &testutil.FakeElement{Label: "New Timesheet", OnClick: func(p *testutil.FakePage) {
		p.Add(`input[name="hours"]`, &testutil.FakeElement{Label: "hours"})
		p.Add(`input[name="hourlyRate"]`, &testutil.FakeElement{Label: "hourlyRate"})
		p.Add(`textarea[name="description"], input[name="description"]`, &testutil.FakeElement{Label: "description"})
	}})

	return page
}

func newTestRunner(page *testutil.FakePage, factoryErr error) (*Runner, *fakeWriter, *fakeArchive) {
	config := common.NewDefaultConfig()
	config.Exploration.Seed = 99
	config.Timeouts.Settle = "0s"
	config.Timeouts.Navigation = "0s"
	config.Exploration.Settle = "0s"

	factory := func(ctx context.Context, runID string) (interfaces.BrowserSession, error) {
		if factoryErr != nil {
			return nil, factoryErr
		}
		return page, nil
	}

	writer := &fakeWriter{}
	archive := &fakeArchive{}
	r := NewRunner(config, factory, writer, archive, arbor.NewNoOpLogger())
	r.newID = func() string { return "run-1" }
	return r, writer, archive
}

func testNames(report *models.RunReport) []string {
	names := make([]string, len(report.Records))
	for i, rec := range report.Records {
		names[i] = rec.Test
	}
	return names
}

func TestRunFullPass(t *testing.T) {
	page := fakeApp()
	r, writer, archive := newTestRunner(page, nil)

	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"login_tutor", "navigation_dashboard", "navigation_timesheets", "navigation_profile",
		"login_tutor", "timesheet_creation", "exploration_tutor", "logout",
		"login_lecturer", "navigation_dashboard", "navigation_timesheets", "navigation_profile",
		"exploration_lecturer", "logout",
		"login_admin", "navigation_dashboard", "navigation_timesheets", "navigation_profile",
		"exploration_admin", "logout",
	}, testNames(report))

	assert.Equal(t, "run-1", report.ID)
	assert.Equal(t, int64(99), report.Seed)
	assert.Equal(t, report.Summary.Total, len(report.Records))
	assert.Equal(t, report.Summary.Total, report.Summary.Passed+report.Summary.Failed+report.Summary.Unknown)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))

	assert.Equal(t, 1, page.Closed)
	require.Len(t, writer.reports, 1)
	assert.Same(t, report, writer.reports[0])
	assert.Equal(t, []string{"run-1"}, archive.saved)
	assert.Equal(t, []int{50}, archive.kept)
}

func TestRunSkipsRoleAfterFailedLogin(t *testing.T) {
	page := fakeApp("lecturer@example.com")
	r, _, _ := newTestRunner(page, nil)
	r.config.Roles = []string{"lecturer"}

	report, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Records, 1)
	assert.Equal(t, "login_lecturer", report.Records[0].Test)
	assert.Equal(t, models.StatusFail, report.Records[0].Status)
	assert.Equal(t, 0, page.CallCount("click:Logout"))
}

func TestRunAcquisitionFailure(t *testing.T) {
	r, writer, archive := newTestRunner(nil, errors.New("chrome not found"))

	report, err := r.Run(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrResourceAcquisition))
	assert.Nil(t, report)
	assert.Empty(t, writer.reports)
	assert.Empty(t, archive.saved)
}

func TestRunWithCancelledContextStillReleasesSession(t *testing.T) {
	page := fakeApp()
	r, writer, _ := newTestRunner(page, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := r.Run(ctx)
	require.NoError(t, err)

	assert.Empty(t, report.Records)
	assert.False(t, report.Summary.HasData)
	assert.Equal(t, "n/a", report.Summary.RateString())
	assert.Equal(t, 1, page.Closed)
	assert.Len(t, writer.reports, 1)
}

func TestRunCancelledMidRoleRecordsNothingFurther(t *testing.T) {
	page := fakeApp()
	r, writer, _ := newTestRunner(page, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	submit := page.Elements[`button[type="submit"]`][0]
	signIn := submit.OnClick
	submit.OnClick = func(p *testutil.FakePage) {
		signIn(p)
		cancel()
	}

	report, err := r.Run(ctx)
	require.NoError(t, err)

	require.Len(t, report.Records, 1)
	assert.Equal(t, "login_tutor", report.Records[0].Test)
	assert.Equal(t, models.StatusPass, report.Records[0].Status)
	assert.Zero(t, page.CallCount("find:a, button"))
	assert.Equal(t, 1, page.Closed)
	assert.Len(t, writer.reports, 1)
}

func TestRunWithoutArchive(t *testing.T) {
	page := fakeApp()
	r, writer, _ := newTestRunner(page, nil)
	r.archive = nil
	r.config.Roles = []string{"admin"}
	r.config.Exploration.Enabled = false

	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.NotContains(t, testNames(report), "exploration_admin")
	assert.Len(t, writer.reports, 1)
}

func TestSeed(t *testing.T) {
	r, _, _ := newTestRunner(fakeApp(), nil)
	assert.Equal(t, int64(99), r.Seed())

	r.config.Exploration.Seed = 0
	r.now = func() time.Time { return time.Unix(0, 1234) }
	assert.Equal(t, int64(1234), r.Seed())
}
