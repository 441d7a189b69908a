package browser

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/uiprobe/internal/common"
	"github.com/ternarybob/uiprobe/internal/interfaces"
	"github.com/ternarybob/uiprobe/internal/models"
	"golang.org/x/time/rate"
)

const (
	pageLoadTimeout = 30 * time.Second
	pollInterval    = 100 * time.Millisecond
)

// Session is a chromedp-backed page. It owns one browser process from
// NewSession until Close.
type Session struct {
	opts   Options
	runID  string
	logger arbor.ILogger

	ctx           context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc

	limiter *rate.Limiter
	frames  *FrameWriter

	closeOnce sync.Once
	closeErr  error
}

var _ interfaces.BrowserSession = (*Session)(nil)

// NewSessionFactory returns a factory that starts a fresh browser for every pass
func NewSessionFactory(opts Options, logger arbor.ILogger) interfaces.SessionFactory {
	return func(ctx context.Context, runID string) (interfaces.BrowserSession, error) {
		return NewSession(ctx, opts, runID, logger)
	}
}

// NewSession starts a browser, checks it responds and begins recording if enabled.
// Failures are reported as models.ErrResourceAcquisition.
func NewSession(ctx context.Context, opts Options, runID string, logger arbor.ILogger) (*Session, error) {
	if opts.StartupTimeout <= 0 {
		opts.StartupTimeout = defaultStartupTimeout
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = defaultActionTimeout
	}

	startTime := time.Now()

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(opts)...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	s := &Session{
		opts:          opts,
		runID:         runID,
		logger:        logger,
		ctx:           browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocatorCancel,
		limiter:       newLimiter(opts.SlowMo),
	}

	// The first Run allocates the browser and must not carry a deadline
	if err := chromedp.Run(browserCtx); err != nil {
		s.release()
		return nil, fmt.Errorf("%w: failed to launch browser: %w", models.ErrResourceAcquisition, err)
	}

	testCtx, testCancel := context.WithTimeout(browserCtx, opts.StartupTimeout)
	defer testCancel()
	stop := context.AfterFunc(ctx, testCancel)
	defer stop()

	var title string
	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank"), chromedp.Title(&title)); err != nil {
		s.release()
		return nil, fmt.Errorf("%w: browser failed startup test: %w", models.ErrResourceAcquisition, err)
	}

	if opts.RecordVideo {
		s.startScreencast()
	}

	logger.Info().
		Str("run_id", runID).
		Bool("headless", opts.Headless).
		Int("width", opts.Width).
		Int("height", opts.Height).
		Dur("slow_mo", opts.SlowMo).
		Dur("startup_time", time.Since(startTime)).
		Msg("Browser session started")

	return s, nil
}

func newLimiter(slowMo time.Duration) *rate.Limiter {
	if slowMo <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(slowMo), 1)
}

// Close stops recording and shuts the browser down. Later calls are no-ops.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.frames != nil {
			stopCtx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
			if err := chromedp.Run(stopCtx, chromedp.ActionFunc(func(ctx context.Context) error {
				return page.StopScreencast().Do(ctx)
			})); err != nil {
				s.logger.Debug().Err(err).Msg("Failed to stop screencast")
			}
			cancel()

			s.logger.Info().
				Int("frames", s.frames.Count()).
				Str("dir", s.frames.Dir()).
				Msg("Screencast stopped")
		}

		if err := chromedp.Cancel(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.closeErr = fmt.Errorf("failed to close browser: %w", err)
		}
		s.release()
		s.logger.Info().Str("run_id", s.runID).Msg("Browser session closed")
	})
	return s.closeErr
}

func (s *Session) release() {
	s.browserCancel()
	s.allocCancel()
}

// exec runs actions on the browser bounded by timeout and by the caller's context
func (s *Session) exec(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("browser action exceeded %s: %w", timeout, models.ErrTimeoutExceeded)
	}
	return err
}

// act is exec for user-visible actions, spaced by the slow-motion limiter
func (s *Session) act(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.exec(ctx, timeout, actions...)
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug().Str("url", url).Msg("Navigating")
	if err := s.act(ctx, pageLoadTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var location string
	if err := s.exec(ctx, s.opts.ActionTimeout, chromedp.Location(&location)); err != nil {
		return "", fmt.Errorf("failed to read current URL: %w", err)
	}
	return location, nil
}

// WaitForURL reads the location every pollInterval until it matches the glob or
// timeout elapses. The read is repeated across navigations, so a full-page redirect
// to the awaited URL still resolves.
func (s *Session) WaitForURL(ctx context.Context, pattern string, timeout time.Duration) error {
	return waitForURL(ctx, pattern, timeout, pollInterval, func(ctx context.Context) (string, error) {
		var location string
		err := s.exec(ctx, s.opts.ActionTimeout, chromedp.Location(&location))
		return location, err
	}, s.logger)
}

// waitForURL polls read until its result matches pattern. Read errors mean "not yet";
// only the deadline ends the wait with models.ErrTimeoutExceeded.
func waitForURL(ctx context.Context, pattern string, timeout, interval time.Duration, read func(context.Context) (string, error), logger arbor.ILogger) error {
	re := common.URLPatternRegexp(pattern)
	deadline := time.Now().Add(timeout)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last string
	for {
		readCtx, cancel := context.WithDeadline(ctx, deadline)
		location, err := read(readCtx)
		cancel()

		if err == nil {
			if re.MatchString(location) {
				return nil
			}
			last = location
		} else if ctx.Err() == nil {
			logger.Debug().Err(err).Str("pattern", pattern).Msg("URL not readable yet")
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("waiting for URL %s after %s (last %q): %w", pattern, timeout, last, models.ErrTimeoutExceeded)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Session) Content(ctx context.Context) (string, error) {
	var html string
	if err := s.exec(ctx, s.opts.ActionTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return html, nil
}

func (s *Session) Screenshot(ctx context.Context, name string) (string, error) {
	var buf []byte
	if err := s.exec(ctx, s.opts.ActionTimeout, chromedp.CaptureScreenshot(&buf)); err != nil {
		return "", fmt.Errorf("failed to capture screenshot: %w", err)
	}

	path, err := writeArtifact(s.opts.ScreenshotsDir, name, ".png", buf)
	if err != nil {
		return "", err
	}
	s.logger.Debug().Str("path", path).Msg("📸 Screenshot saved")
	return path, nil
}

// Snapshot saves the current page as markdown for reading failures without a browser
func (s *Session) Snapshot(ctx context.Context, name string) (string, error) {
	var html, location string
	if err := s.exec(ctx, s.opts.ActionTimeout,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("failed to read page for snapshot: %w", err)
	}

	content, err := renderSnapshot(name, location, html)
	if err != nil {
		return "", err
	}
	return writeArtifact(s.opts.SnapshotsDir, name, ".md", []byte(content))
}

// renderSnapshot converts page HTML into a markdown document headed by its URL
func renderSnapshot(name, location, html string) (string, error) {
	converter := md.NewConverter(location, true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert page to markdown: %w", err)
	}
	return fmt.Sprintf("# %s\n\nURL: %s\n\n---\n\n%s\n", name, location, markdown), nil
}

func (s *Session) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) startScreencast() {
	s.frames = NewFrameWriter(filepath.Join(s.opts.VideosDir, s.runID), s.opts.MaxFrames)

	chromedp.ListenTarget(s.ctx, func(ev interface{}) {
		frame, ok := ev.(*page.EventScreencastFrame)
		if !ok {
			return
		}
		// Frames are numbered in arrival order; only the ack leaves the listener
		s.writeFrame(frame)
		common.SafeGo(s.logger, "screencast-ack", func() {
			s.ackFrame(frame)
		})
	})

	err := chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return page.StartScreencast().
			WithFormat(page.ScreencastFormatJpeg).
			WithQuality(60).
			WithMaxWidth(int64(s.opts.Width)).
			WithMaxHeight(int64(s.opts.Height)).
			WithEveryNthFrame(2).
			Do(ctx)
	}))
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to start screencast, continuing without video")
		s.frames = nil
		return
	}

	s.logger.Info().Str("dir", s.frames.Dir()).Msg("🎥 Screencast started")
}

func (s *Session) writeFrame(frame *page.EventScreencastFrame) {
	if _, err := s.frames.Write(frame.Data); err != nil {
		s.logger.Debug().Err(err).Msg("Dropped screencast frame")
	}
}

// ackFrame releases the next frame; Chrome stops sending until the previous one is acknowledged
func (s *Session) ackFrame(frame *page.EventScreencastFrame) {
	err := chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return page.ScreencastFrameAck(frame.SessionID).Do(ctx)
	}))
	if err != nil && s.ctx.Err() == nil {
		s.logger.Debug().Err(err).Msg("Failed to acknowledge screencast frame")
	}
}
