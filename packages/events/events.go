package events

import (
	"time"

	"github.com/teeterhq/teeter/packages/core/registry"
)

// Status is the four-way outcome of one test unit. The failed/errored
// distinction is deliberate: failed means an assertion-style mismatch,
// errored means an unexpected fault during execution.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusErrored Status = "errored"
	StatusSkipped Status = "skipped"
)

// Rune returns the single-character rendering used by minimal output.
func (s Status) Rune() byte {
	switch s {
	case StatusPassed:
		return '.'
	case StatusFailed:
		return 'F'
	case StatusErrored:
		return 'E'
	case StatusSkipped:
		return 'S'
	}
	return '?'
}

// Event is one occurrence in a test run. Events are immutable value
// objects produced exactly once, in temporal order.
type Event interface {
	When() time.Time
	event()
}

// RunStarted opens the event stream for one run.
type RunStarted struct {
	RunID   string
	Command string
	Total   int
	Time    time.Time
}

// TestStarted announces that a unit is about to execute.
type TestStarted struct {
	Unit *registry.TestUnit
	Time time.Time
}

// TestFinished carries the outcome of one executed unit.
type TestFinished struct {
	Unit     *registry.TestUnit
	Status   Status
	Duration time.Duration
	Message  string
	Trace    string
	Log      string
	Time     time.Time
}

// RunFinished closes the event stream with the computed summary.
type RunFinished struct {
	Summary Summary
	Time    time.Time
}

func (e RunStarted) When() time.Time   { return e.Time }
func (e TestStarted) When() time.Time  { return e.Time }
func (e TestFinished) When() time.Time { return e.Time }
func (e RunFinished) When() time.Time  { return e.Time }

func (RunStarted) event()   {}
func (TestStarted) event()  {}
func (TestFinished) event() {}
func (RunFinished) event()  {}
