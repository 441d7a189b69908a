package checks

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/uiprobe/internal/common"
	"github.com/ternarybob/uiprobe/internal/interfaces"
	"github.com/ternarybob/uiprobe/internal/models"
)

// Suite holds the scripted checks run against the application
type Suite struct {
	page     interfaces.PageSurface
	verifier *Verifier
	config   *common.Config
	rng      *rand.Rand
	now      func() time.Time
	logger   arbor.ILogger

	loginTimeout time.Duration
	settle       time.Duration
	navSettle    time.Duration
}

// NewSuite creates the check suite. rng supplies form values and must be the run's seeded source.
func NewSuite(page interfaces.PageSurface, recorder interfaces.OutcomeRecorder, config *common.Config, rng *rand.Rand, logger arbor.ILogger) *Suite {
	return &Suite{
		page:         page,
		verifier:     NewVerifier(page, recorder, logger),
		config:       config,
		rng:          rng,
		now:          time.Now,
		logger:       logger,
		loginTimeout: common.ParseDurationOr(config.Timeouts.Login, 5*time.Second),
		settle:       common.ParseDurationOr(config.Timeouts.Settle, 2*time.Second),
		navSettle:    common.ParseDurationOr(config.Timeouts.Navigation, time.Second),
	}
}

// SetClock replaces the clock used for generated form values
func (s *Suite) SetClock(now func() time.Time) {
	s.now = now
}

// first returns the first element matched by any locator, in locator order
func (s *Suite) first(ctx context.Context, locators ...models.Locator) (interfaces.Element, error) {
	for _, locator := range locators {
		elements, err := s.page.Find(ctx, locator)
		if err != nil {
			return nil, fmt.Errorf("failed to locate %s: %w", locator, err)
		}
		if len(elements) > 0 {
			return elements[0], nil
		}
	}
	return nil, nil
}

// fill writes text into the first element matched, failing with reason when absent
func (s *Suite) fill(ctx context.Context, locator models.Locator, text, reason string) error {
	element, err := s.first(ctx, locator)
	if err != nil {
		return err
	}
	if element == nil {
		return notFound(reason)
	}
	if err := element.Fill(ctx, text); err != nil {
		return fmt.Errorf("failed to fill %s: %w", locator, err)
	}
	return nil
}

// click clicks the first element matched by any locator, failing with reason when absent
func (s *Suite) click(ctx context.Context, reason string, locators ...models.Locator) error {
	element, err := s.first(ctx, locators...)
	if err != nil {
		return err
	}
	if element == nil {
		return notFound(reason)
	}
	if err := element.Click(ctx); err != nil {
		return fmt.Errorf("failed to click %s: %w", locators[0], err)
	}
	return nil
}
