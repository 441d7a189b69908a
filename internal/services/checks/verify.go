package checks

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/uiprobe/internal/interfaces"
	"github.com/ternarybob/uiprobe/internal/models"
)

// Signal is what an await step observed on the page
type Signal int

const (
	// SignalNone means neither success nor an explicit failure was seen
	SignalNone Signal = iota
	SignalSuccess
	SignalFailure
)

func (s Signal) String() string {
	switch s {
	case SignalSuccess:
		return "success"
	case SignalFailure:
		return "failure"
	}
	return "none"
}

// Observation is the result of an await step
type Observation struct {
	Signal Signal
	Detail string
}

// AwaitFunc observes the page after a check acted. Returning models.ErrTimeoutExceeded
// is equivalent to observing SignalNone.
type AwaitFunc func(ctx context.Context, page interfaces.PageSurface) (Observation, error)

// Verification describes one scripted check
type Verification struct {
	Name string
	// Shot is the screenshot base name; failures get "_failed", inconclusive results "_unclear"
	Shot string
	// SuccessShot overrides the screenshot name on PASS
	SuccessShot string
	Act         func(ctx context.Context) error
	Await       AwaitFunc
	// Conclusive marks an await whose missing success signal is itself a failure
	// (a URL or DOM condition). Weak probes leave it false so silence is UNKNOWN.
	Conclusive bool
}

// Verdict is the classified result of a verification
type Verdict struct {
	Record     models.OutcomeRecord
	Screenshot string
	Snapshot   string
}

// Passed reports whether the check was classified PASS
func (v Verdict) Passed() bool {
	return v.Record.Status == models.StatusPass
}

// Err returns nil on PASS. UNKNOWN wraps models.ErrAmbiguousOutcome.
func (v Verdict) Err() error {
	switch v.Record.Status {
	case models.StatusPass:
		return nil
	case models.StatusUnknown:
		if v.Record.Error == "" {
			return models.ErrAmbiguousOutcome
		}
		return fmt.Errorf("%w: %s", models.ErrAmbiguousOutcome, v.Record.Error)
	}
	return errors.New(v.Record.Error)
}

// StepError is an act failure carrying a human-readable reason
type StepError struct {
	Reason string
	Err    error
}

func (e *StepError) Error() string { return e.Reason }
func (e *StepError) Unwrap() error { return e.Err }

// notFound reports a missing required element
func notFound(reason string) error {
	return &StepError{Reason: reason, Err: models.ErrElementNotFound}
}

// Classify maps what happened during a check onto PASS/FAIL/UNKNOWN.
// Act errors and explicit failure signals are FAIL. A timeout or empty observation
// is FAIL for conclusive awaits and UNKNOWN otherwise.
func Classify(actErr error, obs Observation, awaitErr error, conclusive bool) (models.OutcomeStatus, string) {
	if actErr != nil {
		return models.StatusFail, actErr.Error()
	}

	if awaitErr != nil {
		if !errors.Is(awaitErr, models.ErrTimeoutExceeded) {
			return models.StatusFail, awaitErr.Error()
		}
		obs = Observation{Signal: SignalNone, Detail: awaitErr.Error()}
	}

	switch obs.Signal {
	case SignalSuccess:
		return models.StatusPass, ""
	case SignalFailure:
		return models.StatusFail, obs.Detail
	}

	if conclusive {
		return models.StatusFail, obs.Detail
	}
	return models.StatusUnknown, obs.Detail
}

// Verifier runs verifications against a page and records their verdicts
type Verifier struct {
	page     interfaces.PageSurface
	recorder interfaces.OutcomeRecorder
	logger   arbor.ILogger
}

// NewVerifier creates a verifier recording into recorder
func NewVerifier(page interfaces.PageSurface, recorder interfaces.OutcomeRecorder, logger arbor.ILogger) *Verifier {
	return &Verifier{
		page:     page,
		recorder: recorder,
		logger:   logger,
	}
}

// Verify acts, awaits, classifies and records exactly one outcome.
// Nothing raised inside the check escapes; it is folded into the record.
func (v *Verifier) Verify(ctx context.Context, check Verification) Verdict {
	var (
		obs      Observation
		awaitErr error
	)

	actErr := check.Act(ctx)
	if actErr == nil && check.Await != nil {
		obs, awaitErr = check.Await(ctx, v.page)
	} else if actErr == nil {
		obs = Observation{Signal: SignalSuccess}
	}

	status, detail := Classify(actErr, obs, awaitErr, check.Conclusive)

	var verdict Verdict
	shot := shotName(check, status)
	if path, err := v.page.Screenshot(ctx, shot); err != nil {
		v.logger.Warn().Err(err).Str("screenshot", shot).Msg("Failed to capture screenshot")
	} else {
		verdict.Screenshot = path
	}

	if status != models.StatusPass {
		if path, err := v.page.Snapshot(ctx, shot); err != nil {
			v.logger.Warn().Err(err).Str("snapshot", shot).Msg("Failed to capture page snapshot")
		} else {
			verdict.Snapshot = path
		}
	}

	record, err := v.recorder.Record(check.Name, status, detail)
	if err != nil {
		v.logger.Error().Err(err).Str("test", check.Name).Msg("Failed to record outcome")
	}
	verdict.Record = record

	switch status {
	case models.StatusPass:
		v.logger.Info().Str("test", check.Name).Msg("✓ Check passed")
	case models.StatusFail:
		v.logger.Warn().Str("test", check.Name).Str("reason", detail).Msg("✗ Check failed")
	default:
		v.logger.Warn().Str("test", check.Name).Str("reason", detail).Msg("? Check result unclear")
	}

	return verdict
}

func shotName(check Verification, status models.OutcomeStatus) string {
	base := check.Shot
	if base == "" {
		base = check.Name
	}
	switch status {
	case models.StatusPass:
		if check.SuccessShot != "" {
			return check.SuccessShot
		}
		return base
	case models.StatusFail:
		return base + "_failed"
	}
	return base + "_unclear"
}
