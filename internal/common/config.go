package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Target      TargetConfig          `toml:"target"`
	Roles       []string              `toml:"roles" validate:"min=1,dive,required"` // Roles exercised in order, one login per role
	Credentials map[string]Credential `toml:"credentials" validate:"required,dive"`
	Navigation  []NavigationTarget    `toml:"navigation" validate:"dive"`
	Browser     BrowserConfig         `toml:"browser"`
	Timeouts    TimeoutsConfig        `toml:"timeouts"`
	Exploration ExplorationConfig     `toml:"exploration"`
	Output      OutputConfig          `toml:"output"`
	Archive     ArchiveConfig         `toml:"archive"`
	Schedule    ScheduleConfig        `toml:"schedule"`
	Logging     LoggingConfig         `toml:"logging"`
}

// TargetConfig locates the application under test
type TargetConfig struct {
	FrontendURL      string `toml:"frontend_url" validate:"required,url"`
	BackendURL       string `toml:"backend_url" validate:"omitempty,url"`
	LoginPath        string `toml:"login_path" validate:"required,startswith=/"`
	DashboardPattern string `toml:"dashboard_pattern" validate:"required"` // URL glob awaited after login
	FallbackRole     string `toml:"fallback_role" validate:"required"`     // Credentials used for roles without an entry
	TimesheetRole    string `toml:"timesheet_role"`                        // Role that runs timesheet creation (empty = none)
}

// Credential is a login for one role
type Credential struct {
	Email    string `toml:"email" validate:"required,email"`
	Password string `toml:"password" validate:"required"`
}

// NavigationTarget is a link text and the URL fragment expected after clicking it
type NavigationTarget struct {
	Text   string `toml:"text" validate:"required"`
	Expect string `toml:"expect" validate:"required"`
}

// BrowserConfig controls the chromedp browser session
type BrowserConfig struct {
	Headless    bool   `toml:"headless"`
	NoSandbox   bool   `toml:"no_sandbox"`
	Width       int    `toml:"width" validate:"min=320"`
	Height      int    `toml:"height" validate:"min=240"`
	SlowMo      string `toml:"slow_mo"`      // Minimum spacing between browser actions, e.g. "500ms" ("0" disables)
	RecordVideo bool   `toml:"record_video"` // Capture a screencast of the session
	ExecPath    string `toml:"exec_path"`    // Optional Chrome binary path
	UserAgent   string `toml:"user_agent"`
}

// TimeoutsConfig holds the bounded waits used by checks (duration strings)
type TimeoutsConfig struct {
	Login      string `toml:"login"`      // Wait for the dashboard URL after submitting credentials
	Settle     string `toml:"settle"`     // Fixed wait after submit/logout clicks
	Navigation string `toml:"navigation"` // Fixed wait after navigation clicks
	Startup    string `toml:"startup"`    // Browser startup probe
	Run        string `toml:"run"`        // Upper bound for a whole pass
}

// ExplorationConfig controls the random exploration step
type ExplorationConfig struct {
	Enabled bool   `toml:"enabled"`
	Seed    int64  `toml:"seed"`   // 0 derives a seed from the clock; the seed is always logged and reported
	Settle  string `toml:"settle"` // Wait after the exploration click
}

// OutputConfig controls where artifacts are written
type OutputConfig struct {
	Dir            string   `toml:"dir" validate:"required"`
	ScreenshotsDir string   `toml:"screenshots_dir" validate:"required"`
	VideosDir      string   `toml:"videos_dir" validate:"required"`
	SnapshotsDir   string   `toml:"snapshots_dir" validate:"required"`
	ResultsFile    string   `toml:"results_file" validate:"required"`
	Formats        []string `toml:"formats" validate:"dive,oneof=json yaml markdown pdf"`
}

// ArchiveConfig enables persisting run reports between invocations
type ArchiveConfig struct {
	Enabled bool         `toml:"enabled"`
	Keep    int          `toml:"keep" validate:"min=0"` // Newest runs retained after each save; 0 keeps everything
	Badger  BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean runs
}

// ScheduleConfig repeats passes on a cron expression; empty runs a single pass
type ScheduleConfig struct {
	Cron string `toml:"cron"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=trace debug info warn error"`
	Output []string `toml:"output" validate:"dive,oneof=stdout console file"`
	Dir    string   `toml:"dir"`
}

// NewDefaultConfig creates a configuration matching the local development stack
func NewDefaultConfig() *Config {
	return &Config{
		Target: TargetConfig{
			FrontendURL:      "http://localhost:5174",
			BackendURL:       "http://localhost:8084",
			LoginPath:        "/login",
			DashboardPattern: "**/dashboard/**",
			FallbackRole:     "tutor",
			TimesheetRole:    "tutor",
		},
		Roles: []string{"tutor", "lecturer", "admin"},
		Credentials: map[string]Credential{
			"tutor":    {Email: "tutor@example.com", Password: "Tutor123!"},
			"lecturer": {Email: "lecturer@example.com", Password: "Lecturer123!"},
			"admin":    {Email: "admin@example.com", Password: "Admin123!"},
		},
		Navigation: []NavigationTarget{
			{Text: "Dashboard", Expect: "dashboard"},
			{Text: "Timesheets", Expect: "timesheet"},
			{Text: "Profile", Expect: "profile"},
		},
		Browser: BrowserConfig{
			Headless:    false, // Visible by default so a person can follow the run
			Width:       1280,
			Height:      720,
			SlowMo:      "500ms",
			RecordVideo: true,
		},
		Timeouts: TimeoutsConfig{
			Login:      "5s",
			Settle:     "2s",
			Navigation: "1s",
			Startup:    "30s",
			Run:        "10m",
		},
		Exploration: ExplorationConfig{
			Enabled: true,
			Settle:  "2s",
		},
		Output: OutputConfig{
			Dir:            ".",
			ScreenshotsDir: "screenshots",
			VideosDir:      "test-videos",
			SnapshotsDir:   "snapshots",
			ResultsFile:    "test_results.json",
			Formats:        []string{"json", "markdown"},
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Keep:    50,
			Badger: BadgerConfig{
				Path: "./data/runs",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
			Dir:    "logs",
		},
	}
}

// LoadFromFiles loads configuration with priority: default -> file1 -> file2 -> ... -> env.
// Later files override earlier files. CLI flags are applied afterwards by ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies UIPROBE_* environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("UIPROBE_FRONTEND_URL"); v != "" {
		config.Target.FrontendURL = v
	}
	if v := os.Getenv("UIPROBE_BACKEND_URL"); v != "" {
		config.Target.BackendURL = v
	}
	if v := os.Getenv("UIPROBE_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Browser.Headless = b
		}
	}
	if v := os.Getenv("UIPROBE_NO_SANDBOX"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Browser.NoSandbox = b
		}
	}
	if v := os.Getenv("UIPROBE_CHROME_PATH"); v != "" {
		config.Browser.ExecPath = v
	}
	if v := os.Getenv("UIPROBE_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Exploration.Seed = seed
		}
	}
	if v := os.Getenv("UIPROBE_OUTPUT_DIR"); v != "" {
		config.Output.Dir = v
	}
	if v := os.Getenv("UIPROBE_SCHEDULE"); v != "" {
		config.Schedule.Cron = v
	}
	if v := os.Getenv("UIPROBE_ARCHIVE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Archive.Enabled = b
		}
	}
	if v := os.Getenv("UIPROBE_LOG_LEVEL"); v != "" {
		config.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("UIPROBE_LOG_OUTPUT"); v != "" {
		config.Logging.Output = splitString(v, ",")
	}
}

// FlagOverrides carries command-line values; nil fields were not set
type FlagOverrides struct {
	Seed     *int64
	Headless *bool
	Once     bool
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, flags FlagOverrides) {
	if flags.Seed != nil {
		config.Exploration.Seed = *flags.Seed
	}
	if flags.Headless != nil {
		config.Browser.Headless = *flags.Headless
	}
	if flags.Once {
		config.Schedule.Cron = ""
	}
}

// Validate checks struct tags, duration strings, the fallback credential and the schedule
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	durations := map[string]string{
		"browser.slow_mo":     c.Browser.SlowMo,
		"timeouts.login":      c.Timeouts.Login,
		"timeouts.settle":     c.Timeouts.Settle,
		"timeouts.navigation": c.Timeouts.Navigation,
		"timeouts.startup":    c.Timeouts.Startup,
		"timeouts.run":        c.Timeouts.Run,
		"exploration.settle":  c.Exploration.Settle,
	}
	for key, value := range durations {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid configuration: %s=%q is not a duration: %w", key, value, err)
		}
	}

	if _, ok := c.Credentials[c.Target.FallbackRole]; !ok {
		return fmt.Errorf("invalid configuration: no credentials for fallback role %q", c.Target.FallbackRole)
	}

	if c.Archive.Enabled && c.Archive.Badger.Path == "" {
		return fmt.Errorf("invalid configuration: archive.badger.path is required when the archive is enabled")
	}

	if c.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
			return fmt.Errorf("invalid configuration: schedule.cron %q: %w", c.Schedule.Cron, err)
		}
	}

	return nil
}

// CredentialFor returns the login for a role, falling back to the fallback role
func (c *Config) CredentialFor(role string) (Credential, string) {
	if cred, ok := c.Credentials[role]; ok {
		return cred, role
	}
	return c.Credentials[c.Target.FallbackRole], c.Target.FallbackRole
}

// HasFormat reports whether the report format is enabled. The results file is always written.
func (c *Config) HasFormat(format string) bool {
	if format == "json" {
		return true
	}
	for _, f := range c.Output.Formats {
		if strings.EqualFold(f, format) {
			return true
		}
	}
	return false
}

// OutputPath resolves an artifact location relative to the output directory.
// Absolute paths are returned unchanged.
func (c *Config) OutputPath(elem string) string {
	if filepath.IsAbs(elem) {
		return elem
	}
	return filepath.Join(c.Output.Dir, elem)
}

// ParseDurationOr parses a duration string, returning fallback when empty or invalid
func ParseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// splitString splits a string by separator and trims whitespace
func splitString(s, sep string) []string {
	var result []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
