package checks

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/uiprobe/internal/common"
	"github.com/ternarybob/uiprobe/internal/models"
	"github.com/ternarybob/uiprobe/internal/services/recorder"
	"github.com/ternarybob/uiprobe/internal/testutil"
)

const (
	frontend  = "http://localhost:5174"
	loginURL  = frontend + "/login"
	dashboard = frontend + "/dashboard/home"
)

var fixedNow = time.Date(2025, time.March, 13, 10, 30, 0, 0, time.UTC) // Thursday

func newSuite(page *testutil.FakePage) (*Suite, *recorder.Service) {
	rec := recorder.NewService(arbor.NewNoOpLogger())
	s := NewSuite(page, rec, common.NewDefaultConfig(), rand.New(rand.NewPCG(7, 7)), arbor.NewNoOpLogger())
	s.SetClock(func() time.Time { return fixedNow })
	return s, rec
}

type loginForm struct {
	email    *testutil.FakeElement
	password *testutil.FakeElement
	submit   *testutil.FakeElement
}

// loginPage serves a login form; submitting it lands on target
func loginPage(target string) (*testutil.FakePage, loginForm) {
	page := testutil.NewFakePage("about:blank")
	page.Routes[frontend] = loginURL

	form := loginForm{
		email:    page.Add(`input[name="email"]`, &testutil.FakeElement{Label: "email"}),
		password: page.Add(`input[name="password"]`, &testutil.FakeElement{Label: "password"}),
		submit: page.Add(`button[type="submit"]`, &testutil.FakeElement{
			Label:   "Sign in",
			OnClick: func(p *testutil.FakePage) { p.Goto(target) },
		}),
	}
	return page, form
}

func onlyRecord(t *testing.T, rec *recorder.Service) models.OutcomeRecord {
	t.Helper()
	records := rec.Export()
	require.Len(t, records, 1)
	return records[0]
}

func TestLoginPass(t *testing.T) {
	page, form := loginPage(dashboard)
	s, rec := newSuite(page)

	verdict := s.Login(context.Background(), "tutor")

	assert.True(t, verdict.Passed())
	record := onlyRecord(t, rec)
	assert.Equal(t, "login_tutor", record.Test)
	assert.Equal(t, models.StatusPass, record.Status)
	assert.Equal(t, []string{"tutor@example.com"}, form.email.Filled)
	assert.Equal(t, []string{"Tutor123!"}, form.password.Filled)
	assert.Equal(t, []string{"login_tutor_before", "dashboard_tutor"}, page.Screenshots)
	assert.Empty(t, page.Snapshots)
}

func TestLoginNavigatesToLoginPath(t *testing.T) {
	page, _ := loginPage(dashboard)
	delete(page.Routes, frontend)
	s, _ := newSuite(page)

	s.Login(context.Background(), "admin")

	assert.Equal(t, 1, page.CallCount("navigate:"+loginURL))
}

func TestLoginFailsWhenDashboardNeverLoads(t *testing.T) {
	page, _ := loginPage(loginURL + "?error=1")
	s, rec := newSuite(page)

	verdict := s.Login(context.Background(), "lecturer")

	assert.False(t, verdict.Passed())
	record := onlyRecord(t, rec)
	assert.Equal(t, models.StatusFail, record.Status)
	assert.Contains(t, record.Error, "**/dashboard/**")
	assert.Equal(t, []string{"login_lecturer_before", "login_lecturer_failed"}, page.Screenshots)
	assert.Equal(t, []string{"login_lecturer_failed"}, page.Snapshots)
}

func TestLoginMissingFieldFails(t *testing.T) {
	page, _ := loginPage(dashboard)
	page.Remove(`input[name="email"]`)
	s, rec := newSuite(page)

	s.Login(context.Background(), "tutor")

	record := onlyRecord(t, rec)
	assert.Equal(t, models.StatusFail, record.Status)
	assert.Equal(t, "Email field not found", record.Error)
	assert.Equal(t, 0, page.CallCount("waitForURL:"))
}

func TestLoginUnknownRoleUsesFallbackCredentials(t *testing.T) {
	page, form := loginPage(dashboard)
	s, rec := newSuite(page)

	s.Login(context.Background(), "guest")

	assert.Equal(t, "login_guest", onlyRecord(t, rec).Test)
	assert.Equal(t, []string{"tutor@example.com"}, form.email.Filled)
}

func TestNavigate(t *testing.T) {
	target := common.NavigationTarget{Text: "Timesheets", Expect: "timesheet"}

	tests := []struct {
		name       string
		link       *testutil.FakeElement
		want       models.OutcomeStatus
		wantDetail string
	}{
		{
			name: "lands on expected page",
			link: &testutil.FakeElement{Label: "My Timesheets", OnClick: func(p *testutil.FakePage) {
				p.Goto(frontend + "/timesheets")
			}},
			want: models.StatusPass,
		},
		{
			name: "unexpected page is unclear",
			link: &testutil.FakeElement{Label: "Timesheets", OnClick: func(p *testutil.FakePage) {
				p.Goto(frontend + "/reports")
			}},
			want:       models.StatusUnknown,
			wantDetail: "unexpected URL: " + frontend + "/reports",
		},
		{
			name:       "missing link",
			want:       models.StatusFail,
			wantDetail: "Navigation link 'Timesheets' not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := testutil.NewFakePage(dashboard)
			if tt.link != nil {
				page.Add("a, button", tt.link)
			}
			s, rec := newSuite(page)

			s.Navigate(context.Background(), "tutor", target)

			record := onlyRecord(t, rec)
			assert.Equal(t, "navigation_timesheets", record.Test)
			assert.Equal(t, tt.want, record.Status)
			assert.Equal(t, tt.wantDetail, record.Error)
		})
	}
}

func TestNavigateAllFollowsConfiguredOrder(t *testing.T) {
	page := testutil.NewFakePage(dashboard)
	s, rec := newSuite(page)

	verdicts := s.NavigateAll(context.Background(), "admin")

	require.Len(t, verdicts, 3)
	var names []string
	for _, r := range rec.Export() {
		names = append(names, r.Test)
	}
	assert.Equal(t, []string{"navigation_dashboard", "navigation_timesheets", "navigation_profile"}, names)
}

func TestNavigateAllStopsWhenCancelled(t *testing.T) {
	page := testutil.NewFakePage(dashboard)
	s, rec := newSuite(page)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Empty(t, s.NavigateAll(ctx, "admin"))
	assert.Empty(t, rec.Export())
}

type timesheetForm struct {
	hours, rate, description, week, save *testutil.FakeElement
}

// timesheetPage is a dashboard whose Create button reveals the form; saving renders result
func timesheetPage(result string) (*testutil.FakePage, *timesheetForm) {
	page := testutil.NewFakePage(dashboard)
	form := &timesheetForm{
		hours:       &testutil.FakeElement{Label: "hours"},
		rate:        &testutil.FakeElement{Label: "hourlyRate"},
		description: &testutil.FakeElement{Label: "description"},
		week:        &testutil.FakeElement{Label: "weekStartDate"},
		save: &testutil.FakeElement{Label: "Save", OnClick: func(p *testutil.FakePage) {
			p.HTML = result
		}},
	}

	page.Add("button", &testutil.FakeElement{Label: "New Timesheet", OnClick: func(p *testutil.FakePage) {
		p.Add(`input[name="hours"]`, form.hours)
		p.Add(`input[name="hourlyRate"]`, form.rate)
		p.Add(`textarea[name="description"], input[name="description"]`, form.description)
		p.Add(`input[type="date"], input[name="weekStartDate"]`, form.week)
		p.Add(`button[type="submit"]`, form.save)
	}})
	return page, form
}

func TestCreateTimesheetPass(t *testing.T) {
	page, form := timesheetPage(`<div class="alert-success">Timesheet created</div>`)
	s, rec := newSuite(page)

	verdict := s.CreateTimesheet(context.Background(), "tutor")

	assert.True(t, verdict.Passed())
	record := onlyRecord(t, rec)
	assert.Equal(t, "timesheet_creation", record.Test)
	assert.Equal(t, models.StatusPass, record.Status)

	require.Len(t, form.hours.Filled, 1)
	hours, err := strconv.Atoi(form.hours.Filled[0])
	require.NoError(t, err)
	assert.GreaterOrEqual(t, hours, 5)
	assert.LessOrEqual(t, hours, 20)

	require.Len(t, form.rate.Filled, 1)
	rate, err := strconv.Atoi(form.rate.Filled[0])
	require.NoError(t, err)
	assert.GreaterOrEqual(t, rate, 40)
	assert.LessOrEqual(t, rate, 60)

	assert.Equal(t, []string{"AI Test Timesheet - 2025-03-13 10:30"}, form.description.Filled)
	assert.Equal(t, []string{"2025-03-10"}, form.week.Filled)
	assert.Equal(t, 1, form.save.Clicks)
	assert.Equal(t, []string{"timesheet_creation_tutor"}, page.Screenshots)
}

func TestCreateTimesheetWithoutWeekStartField(t *testing.T) {
	page, form := timesheetPage(`<div class="success">ok</div>`)
	s, rec := newSuite(page)
	// form without a date input
	page.Elements["button"][0].OnClick = func(p *testutil.FakePage) {
		p.Add(`input[name="hours"]`, form.hours)
		p.Add(`input[name="hourlyRate"]`, form.rate)
		p.Add(`textarea[name="description"], input[name="description"]`, form.description)
		p.Add(`button[type="submit"]`, form.save)
	}

	s.CreateTimesheet(context.Background(), "tutor")

	assert.Equal(t, models.StatusPass, onlyRecord(t, rec).Status)
	assert.Empty(t, form.week.Filled)
}

func TestCreateTimesheetOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		result     string
		want       models.OutcomeStatus
		wantDetail string
	}{
		{"no indicator is unclear", `<h1>Timesheets</h1>`, models.StatusUnknown, ""},
		{"error alert fails", `<div class="alert-danger">Hours exceed weekly limit</div>`, models.StatusFail, "Hours exceed weekly limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, _ := timesheetPage(tt.result)
			s, rec := newSuite(page)

			s.CreateTimesheet(context.Background(), "tutor")

			record := onlyRecord(t, rec)
			assert.Equal(t, tt.want, record.Status)
			assert.Equal(t, tt.wantDetail, record.Error)
			assert.Len(t, page.Snapshots, 1)
		})
	}
}

func TestCreateTimesheetMissingCreateButton(t *testing.T) {
	page := testutil.NewFakePage(dashboard)
	s, rec := newSuite(page)

	s.CreateTimesheet(context.Background(), "tutor")

	record := onlyRecord(t, rec)
	assert.Equal(t, models.StatusFail, record.Status)
	assert.Equal(t, "Create button not found", record.Error)
	assert.Equal(t, 0, page.CallCount("wait"))
}

func TestCreateTimesheetLogsInFirst(t *testing.T) {
	page, _ := loginPage(dashboard)
	page.Add("button", &testutil.FakeElement{Label: "Create"})
	s, rec := newSuite(page)

	s.CreateTimesheet(context.Background(), "tutor")

	records := rec.Export()
	require.Len(t, records, 2)
	assert.Equal(t, "login_tutor", records[0].Test)
	assert.Equal(t, models.StatusPass, records[0].Status)
	assert.Equal(t, "timesheet_creation", records[1].Test)
	assert.Equal(t, "Hours field not found", records[1].Error)
}

func TestCreateTimesheetValuesFollowSeed(t *testing.T) {
	a, _ := newSuite(testutil.NewFakePage(dashboard))
	b, _ := newSuite(testutil.NewFakePage(dashboard))

	for i := 0; i < 5; i++ {
		assert.Equal(t, a.NewTimesheetForm(), b.NewTimesheetForm())
	}
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		day  time.Time
		want string
	}{
		{time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), "2025-03-10"}, // Monday
		{time.Date(2025, 3, 13, 9, 0, 0, 0, time.UTC), "2025-03-10"}, // Thursday
		{time.Date(2025, 3, 16, 23, 0, 0, 0, time.UTC), "2025-03-10"}, // Sunday
		{time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), "2025-02-24"},  // Saturday across a month
	}

	for _, tt := range tests {
		t.Run(tt.want+"/"+tt.day.Weekday().String(), func(t *testing.T) {
			assert.Equal(t, tt.want, WeekStart(tt.day).Format("2006-01-02"))
		})
	}
}

func TestLogout(t *testing.T) {
	tests := []struct {
		name       string
		control    *testutil.FakeElement
		want       models.OutcomeStatus
		wantDetail string
	}{
		{
			name: "returns to login",
			control: &testutil.FakeElement{Label: "Logout", OnClick: func(p *testutil.FakePage) {
				p.Goto(loginURL)
			}},
			want: models.StatusPass,
		},
		{
			name:       "stays on dashboard",
			control:    &testutil.FakeElement{Label: "Logout"},
			want:       models.StatusFail,
			wantDetail: "still on dashboard",
		},
		{
			name:       "control missing",
			want:       models.StatusFail,
			wantDetail: "Logout control not found",
		},
		{
			name:       "click fails",
			control:    &testutil.FakeElement{Label: "Logout", ClickErr: errors.New("node detached")},
			want:       models.StatusFail,
			wantDetail: `failed to click button, a has-text("Logout"): node detached`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := testutil.NewFakePage(dashboard)
			if tt.control != nil {
				page.Add("button, a", tt.control)
			}
			s, rec := newSuite(page)

			s.Logout(context.Background(), "admin")

			record := onlyRecord(t, rec)
			assert.Equal(t, "logout", record.Test)
			assert.Equal(t, tt.want, record.Status)
			assert.Equal(t, tt.wantDetail, record.Error)
		})
	}
}
