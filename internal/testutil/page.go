// Package testutil provides a scripted PageSurface for exercising checks,
// exploration and the runner without a browser.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/uiprobe/internal/common"
	"github.com/ternarybob/uiprobe/internal/interfaces"
	"github.com/ternarybob/uiprobe/internal/models"
)

// FakeElement is a scripted element. OnClick runs after a successful click and
// may mutate the owning page (change URL, add elements, replace HTML).
type FakeElement struct {
	Label    string
	TextErr  error
	ClickErr error
	FillErr  error
	OnClick  func(p *FakePage)

	Clicks int
	Filled []string

	page *FakePage
}

func (e *FakeElement) Click(ctx context.Context) error {
	e.page.call("click:" + e.Label)
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.Clicks++
	if e.OnClick != nil {
		e.OnClick(e.page)
	}
	return nil
}

func (e *FakeElement) Fill(ctx context.Context, text string) error {
	e.page.call("fill:" + e.Label)
	if e.FillErr != nil {
		return e.FillErr
	}
	e.Filled = append(e.Filled, text)
	return nil
}

func (e *FakeElement) Text(ctx context.Context) (string, error) {
	e.page.call("text:" + e.Label)
	if e.TextErr != nil {
		return "", e.TextErr
	}
	return e.Label, nil
}

// FakePage implements interfaces.BrowserSession from scripted state
type FakePage struct {
	mu sync.Mutex

	URL  string
	HTML string

	// Elements are keyed by locator CSS; text filters apply to the element label
	Elements map[string][]*FakeElement

	NavigateErr error
	FindErr     error
	// Routes maps a navigated URL to the URL the browser lands on (redirects)
	Routes map[string]string

	Calls       []string
	Screenshots []string
	Snapshots   []string
	Waits       []time.Duration
	Closed      int
}

var _ interfaces.BrowserSession = (*FakePage)(nil)

// NewFakePage creates a page at the given URL with no elements
func NewFakePage(url string) *FakePage {
	return &FakePage{
		URL:      url,
		Elements: make(map[string][]*FakeElement),
		Routes:   make(map[string]string),
	}
}

// Add registers elements under a CSS selector and returns the first one
func (p *FakePage) Add(css string, elements ...*FakeElement) *FakeElement {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range elements {
		e.page = p
		p.Elements[css] = append(p.Elements[css], e)
	}
	if len(elements) == 0 {
		return nil
	}
	return elements[0]
}

// Remove drops every element registered under a CSS selector
func (p *FakePage) Remove(css string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.Elements, css)
}

// Goto changes the current URL without recording a call
func (p *FakePage) Goto(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.URL = url
}

// CallCount returns how many calls start with prefix
func (p *FakePage) CallCount(prefix string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.Calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (p *FakePage) call(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, name)
}

func (p *FakePage) Navigate(ctx context.Context, url string) error {
	p.call("navigate:" + url)
	if p.NavigateErr != nil {
		return p.NavigateErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if target, ok := p.Routes[url]; ok {
		p.URL = target
		return nil
	}
	p.URL = url
	return nil
}

func (p *FakePage) CurrentURL(ctx context.Context) (string, error) {
	p.call("url")
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.URL, nil
}

func (p *FakePage) WaitForURL(ctx context.Context, pattern string, timeout time.Duration) error {
	p.call("waitForURL:" + pattern)
	p.mu.Lock()
	defer p.mu.Unlock()
	if common.MatchURLPattern(pattern, p.URL) {
		return nil
	}
	return fmt.Errorf("waiting for URL %s after %v: %w", pattern, timeout, models.ErrTimeoutExceeded)
}

func (p *FakePage) Find(ctx context.Context, locator models.Locator) ([]interfaces.Element, error) {
	p.call("find:" + locator.String())
	if p.FindErr != nil {
		return nil, p.FindErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []interfaces.Element
	for _, e := range p.Elements[locator.CSS] {
		if locator.MatchesText(e.Label) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (p *FakePage) Count(ctx context.Context, locator models.Locator) (int, error) {
	elements, err := p.Find(ctx, locator)
	return len(elements), err
}

func (p *FakePage) Content(ctx context.Context) (string, error) {
	p.call("content")
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.HTML, nil
}

func (p *FakePage) Screenshot(ctx context.Context, name string) (string, error) {
	p.call("screenshot:" + name)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Screenshots = append(p.Screenshots, name)
	return "screenshots/" + name + ".png", nil
}

func (p *FakePage) Snapshot(ctx context.Context, name string) (string, error) {
	p.call("snapshot:" + name)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Snapshots = append(p.Snapshots, name)
	return "snapshots/" + name + ".md", nil
}

func (p *FakePage) Wait(ctx context.Context, d time.Duration) error {
	p.call("wait")
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Waits = append(p.Waits, d)
	return ctx.Err()
}

func (p *FakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed++
	return nil
}
