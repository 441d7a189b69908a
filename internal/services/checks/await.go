package checks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/uiprobe/internal/interfaces"
	"github.com/ternarybob/uiprobe/internal/models"
)

// AwaitURL waits until the current URL matches the glob pattern
func AwaitURL(pattern string, timeout time.Duration) AwaitFunc {
	return func(ctx context.Context, page interfaces.PageSurface) (Observation, error) {
		err := page.WaitForURL(ctx, pattern, timeout)
		if err == nil {
			return Observation{Signal: SignalSuccess}, nil
		}
		if !errors.Is(err, models.ErrTimeoutExceeded) {
			return Observation{}, err
		}

		detail := fmt.Sprintf("timed out after %s waiting for %s", timeout, pattern)
		if current, urlErr := page.CurrentURL(ctx); urlErr == nil {
			detail = fmt.Sprintf("%s (at %s)", detail, current)
		}
		return Observation{Signal: SignalNone, Detail: detail}, nil
	}
}

// AwaitURLContains settles, then checks the URL for a fragment. A mismatch reports
// SignalNone with the given detail; use "" to report the URL itself.
func AwaitURLContains(settle time.Duration, fragment, mismatch string) AwaitFunc {
	return func(ctx context.Context, page interfaces.PageSurface) (Observation, error) {
		if err := page.Wait(ctx, settle); err != nil {
			return Observation{}, err
		}

		current, err := page.CurrentURL(ctx)
		if err != nil {
			return Observation{}, err
		}

		if strings.Contains(strings.ToLower(current), strings.ToLower(fragment)) {
			return Observation{Signal: SignalSuccess}, nil
		}

		if mismatch == "" {
			mismatch = "unexpected URL: " + current
		}
		return Observation{Signal: SignalNone, Detail: mismatch}, nil
	}
}

// AwaitProbe settles, then evaluates a probe against the page content
func AwaitProbe(settle time.Duration, probe Probe) AwaitFunc {
	return func(ctx context.Context, page interfaces.PageSurface) (Observation, error) {
		if err := page.Wait(ctx, settle); err != nil {
			return Observation{}, err
		}

		html, err := page.Content(ctx)
		if err != nil {
			return Observation{}, err
		}

		return probe.Evaluate(html)
	}
}
