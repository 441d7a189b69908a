package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/uiprobe/internal/models"
)

// Element is a handle to one node found on the current page
type Element interface {
	Click(ctx context.Context) error
	Fill(ctx context.Context, text string) error
	Text(ctx context.Context) (string, error)
}

// PageSurface drives and observes the browser page. Waits are bounded and
// report models.ErrTimeoutExceeded when their condition does not hold in time.
type PageSurface interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	WaitForURL(ctx context.Context, pattern string, timeout time.Duration) error

	// Find returns all elements matching the locator; an empty slice is not an error
	Find(ctx context.Context, locator models.Locator) ([]Element, error)
	Count(ctx context.Context, locator models.Locator) (int, error)

	// Content returns the serialized HTML of the current document
	Content(ctx context.Context) (string, error)

	// Screenshot and Snapshot persist an artifact and return its path
	Screenshot(ctx context.Context, name string) (string, error)
	Snapshot(ctx context.Context, name string) (string, error)

	Wait(ctx context.Context, d time.Duration) error
}

// BrowserSession is a PageSurface that owns a browser process.
// Close releases everything the session acquired and is safe to call once.
type BrowserSession interface {
	PageSurface
	Close() error
}

// SessionFactory acquires a browser session for a single pass; runID scopes its artifacts
type SessionFactory func(ctx context.Context, runID string) (BrowserSession, error)
