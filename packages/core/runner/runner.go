package runner

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/teeterhq/teeter/packages/core/harness"
	"github.com/teeterhq/teeter/packages/core/registry"
	"github.com/teeterhq/teeter/packages/events"
)

// Publisher receives each event synchronously, in production order,
// before the next unit starts.
type Publisher interface {
	Publish(events.Event)
}

// Runner is the execution engine for one run.
type Runner struct {
	pub     Publisher
	command string
	now     func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithCommand records the normalized command line that started the run;
// it is stamped on RunStarted and the summary so persisted results can
// be replayed.
func WithCommand(command string) Option {
	return func(r *Runner) {
		r.command = command
	}
}

// withClock is used by tests to make durations deterministic.
func withClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// New builds a runner publishing to pub.
func New(pub Publisher, opts ...Option) *Runner {
	r := &Runner{pub: pub, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the units strictly in order, blocking on each unit's
// completion before starting the next. Per-unit faults are captured and
// converted into event data; they never escape the loop. When ctx is
// cancelled no further units are issued and the summary reflects only
// the units that completed.
func (r *Runner) Run(ctx context.Context, units []*registry.TestUnit) events.Summary {
	start := r.now()
	summary := events.Summary{
		RunID:   uuid.NewString(),
		Command: r.command,
		Start:   start,
	}

	r.pub.Publish(events.RunStarted{
		RunID:   summary.RunID,
		Command: r.command,
		Total:   len(units),
		Time:    start,
	})

	profile := newProfile()

	for _, u := range units {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}

		r.pub.Publish(events.TestStarted{Unit: u, Time: r.now()})

		began := r.now()
		outcome := harness.Run(ctx, u)
		elapsed := r.now().Sub(began)

		status := translate(outcome.Verdict)
		summary.TestsRun++
		switch status {
		case events.StatusPassed:
			summary.Passed++
		case events.StatusFailed:
			summary.Failed++
		case events.StatusErrored:
			summary.Errored++
		case events.StatusSkipped:
			summary.Skipped++
		}
		if status != events.StatusSkipped {
			profile.record(u.ID(), elapsed)
		}

		r.pub.Publish(events.TestFinished{
			Unit:     u,
			Status:   status,
			Duration: elapsed,
			Message:  outcome.Message,
			Trace:    outcome.Trace,
			Log:      outcome.Log,
			Time:     r.now(),
		})
	}

	summary.End = r.now()
	summary.Duration = summary.End.Sub(start)
	summary.Profile = profile.snapshot()

	r.pub.Publish(events.RunFinished{Summary: summary, Time: summary.End})
	return summary
}

// translate maps the framework-native verdict onto the event status
// enum, preserving the failed/errored distinction.
func translate(v harness.Verdict) events.Status {
	switch v {
	case harness.VerdictPass:
		return events.StatusPassed
	case harness.VerdictFail:
		return events.StatusFailed
	case harness.VerdictSkip:
		return events.StatusSkipped
	default:
		return events.StatusErrored
	}
}
