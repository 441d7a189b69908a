package browser

import (
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/uiprobe/internal/common"
)

const (
	defaultActionTimeout  = 10 * time.Second
	defaultStartupTimeout = 30 * time.Second
	defaultMaxFrames      = 6000
)

// Options configures a browser session
type Options struct {
	Headless  bool
	NoSandbox bool
	Width     int
	Height    int
	ExecPath  string
	UserAgent string

	// SlowMo is the minimum spacing between browser actions; 0 disables pacing
	SlowMo         time.Duration
	StartupTimeout time.Duration
	ActionTimeout  time.Duration

	RecordVideo bool
	MaxFrames   int

	ScreenshotsDir string
	SnapshotsDir   string
	VideosDir      string
}

// OptionsFromConfig derives session options from the application config
func OptionsFromConfig(config *common.Config) Options {
	return Options{
		Headless:       config.Browser.Headless,
		NoSandbox:      config.Browser.NoSandbox,
		Width:          config.Browser.Width,
		Height:         config.Browser.Height,
		ExecPath:       config.Browser.ExecPath,
		UserAgent:      config.Browser.UserAgent,
		SlowMo:         common.ParseDurationOr(config.Browser.SlowMo, 0),
		StartupTimeout: common.ParseDurationOr(config.Timeouts.Startup, defaultStartupTimeout),
		ActionTimeout:  defaultActionTimeout,
		RecordVideo:    config.Browser.RecordVideo,
		MaxFrames:      defaultMaxFrames,
		ScreenshotsDir: config.OutputPath(config.Output.ScreenshotsDir),
		SnapshotsDir:   config.OutputPath(config.Output.SnapshotsDir),
		VideosDir:      config.OutputPath(config.Output.VideosDir),
	}
}

// allocatorOptions builds the exec allocator flags for a session
func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("no-sandbox", opts.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-timer-throttling", false),
		chromedp.Flag("disable-backgrounding-occluded-windows", false),
		chromedp.Flag("disable-renderer-backgrounding", false),
	)

	if opts.Width > 0 && opts.Height > 0 {
		allocatorOpts = append(allocatorOpts, chromedp.WindowSize(opts.Width, opts.Height))
	}
	if opts.ExecPath != "" {
		allocatorOpts = append(allocatorOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserAgent != "" {
		allocatorOpts = append(allocatorOpts, chromedp.UserAgent(opts.UserAgent))
	}

	return allocatorOpts
}
