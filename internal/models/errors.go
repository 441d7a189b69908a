package models

import "errors"

var (
	// ErrElementNotFound means a required locator matched zero elements
	ErrElementNotFound = errors.New("element not found")

	// ErrTimeoutExceeded means a bounded wait elapsed before its condition held
	ErrTimeoutExceeded = errors.New("timeout exceeded")

	// ErrAmbiguousOutcome means a success probe found no corroborating signal
	// although no explicit failure was observed
	ErrAmbiguousOutcome = errors.New("ambiguous outcome")

	// ErrResourceAcquisition means the browser session could not be set up.
	// It is the only error that ends a pass.
	ErrResourceAcquisition = errors.New("resource acquisition failed")

	// ErrInvalidStatus means a status outside PASS/FAIL/UNKNOWN was recorded
	ErrInvalidStatus = errors.New("invalid outcome status")
)
