package explorer

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/uiprobe/internal/interfaces"
	"github.com/ternarybob/uiprobe/internal/models"
)

const (
	BeforeShot = "ai_exploration_before"
	AfterShot  = "ai_exploration_after"
)

var (
	ButtonLocator = models.Visible("button")
	LinkLocator   = models.Visible("a")
	InputLocator  = models.Visible("input, textarea")
)

// Inventory is the set of interactive elements visible on the current page
type Inventory struct {
	Buttons []interfaces.Element
	Links   []interfaces.Element
	Inputs  []interfaces.Element
}

// Outcome is the explicit result of one exploration step
type Outcome struct {
	Attempted bool   // false when there was nothing to click
	Label     string // visible text of the chosen button, "" when unavailable
	Index     int    // position of the chosen button in the inventory
	Before    string // screenshot references, opaque to the explorer
	After     string
	Err       error // non-nil when the click failed
}

// Status classifies an attempted step; callers should not record unattempted steps
func (o Outcome) Status() models.OutcomeStatus {
	if o.Err != nil {
		return models.StatusFail
	}
	return models.StatusPass
}

// Diagnostic describes a failed click with the element text as context
func (o Outcome) Diagnostic() string {
	if o.Err == nil {
		return ""
	}
	return fmt.Sprintf("failed to click '%s': %v", o.Label, o.Err)
}

// Explorer performs seeded random interactions with the current page
type Explorer struct {
	page   interfaces.PageSurface
	rng    *rand.Rand
	settle time.Duration
	logger arbor.ILogger
}

// NewExplorer creates an explorer drawing from rng. The same seed yields the same choices.
func NewExplorer(page interfaces.PageSurface, rng *rand.Rand, settle time.Duration, logger arbor.ILogger) *Explorer {
	return &Explorer{
		page:   page,
		rng:    rng,
		settle: settle,
		logger: logger,
	}
}

// Survey enumerates visible buttons, links and inputs
func (e *Explorer) Survey(ctx context.Context) (Inventory, error) {
	var inv Inventory
	var err error

	if inv.Buttons, err = e.page.Find(ctx, ButtonLocator); err != nil {
		return Inventory{}, fmt.Errorf("failed to enumerate buttons: %w", err)
	}
	if inv.Links, err = e.page.Find(ctx, LinkLocator); err != nil {
		return Inventory{}, fmt.Errorf("failed to enumerate links: %w", err)
	}
	if inv.Inputs, err = e.page.Find(ctx, InputLocator); err != nil {
		return Inventory{}, fmt.Errorf("failed to enumerate inputs: %w", err)
	}

	e.logger.Info().
		Int("buttons", len(inv.Buttons)).
		Int("links", len(inv.Links)).
		Int("inputs", len(inv.Inputs)).
		Msg("Interactive elements found")

	return inv, nil
}

// Step clicks one button chosen uniformly at random. With no buttons it does
// nothing and touches the page not at all. A failed click is reported in the
// Outcome, never retried and never returned as an error.
func (e *Explorer) Step(ctx context.Context, inv Inventory) Outcome {
	if len(inv.Buttons) == 0 {
		e.logger.Debug().Msg("No buttons to explore")
		return Outcome{}
	}

	index := e.rng.IntN(len(inv.Buttons))
	button := inv.Buttons[index]

	out := Outcome{Attempted: true, Index: index}
	if text, err := button.Text(ctx); err == nil {
		out.Label = strings.TrimSpace(text)
	}

	e.logger.Info().Str("button", out.Label).Int("index", index).Msg("Exploration chose a button")

	if path, err := e.page.Screenshot(ctx, BeforeShot); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to capture exploration screenshot")
	} else {
		out.Before = path
	}

	if err := button.Click(ctx); err != nil {
		out.Err = err
		e.logger.Warn().Err(err).Str("button", out.Label).Msg("Exploration click failed")
		return out
	}

	if err := e.page.Wait(ctx, e.settle); err != nil {
		e.logger.Warn().Err(err).Msg("Exploration settle wait interrupted")
	}

	if path, err := e.page.Screenshot(ctx, AfterShot); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to capture exploration screenshot")
	} else {
		out.After = path
	}

	e.logger.Info().Str("button", out.Label).Msg("Exploration click succeeded")
	return out
}

// Explore surveys the page and performs one step
func (e *Explorer) Explore(ctx context.Context) (Outcome, error) {
	inv, err := e.Survey(ctx)
	if err != nil {
		return Outcome{}, err
	}
	return e.Step(ctx, inv), nil
}
