package events

import "time"

// UnitTiming names a unit together with its wall-clock duration.
type UnitTiming struct {
	Unit     string
	Duration time.Duration
}

// TimingProfile aggregates per-unit durations for one run. Percentiles
// come from an HDR histogram kept by the execution engine.
type TimingProfile struct {
	Fastest UnitTiming
	Slowest UnitTiming
	Mean    time.Duration
	P50     time.Duration
	P95     time.Duration
}

// Summary is computed once at RunFinished and never recomputed.
type Summary struct {
	RunID       string
	Command     string
	TestsRun    int
	Passed      int
	Failed      int
	Errored     int
	Skipped     int
	Duration    time.Duration
	Start       time.Time
	End         time.Time
	Interrupted bool
	Profile     *TimingProfile
}

// SuccessRate is 100 * passed / (tests_run - skipped), defined as 100
// when every counted unit was skipped.
func (s Summary) SuccessRate() float64 {
	counted := s.TestsRun - s.Skipped
	if counted <= 0 {
		return 100.0
	}
	return float64(s.Passed) / float64(counted) * 100.0
}

// Failed run means at least one failure or error.
func (s Summary) Ok() bool {
	return s.Failed == 0 && s.Errored == 0
}

// ExitCode maps the summary onto the process exit contract: 0 when all
// executed units passed, 1 on any failure or error, 130 when the run
// was interrupted.
func (s Summary) ExitCode() int {
	if s.Interrupted {
		return 130
	}
	if !s.Ok() {
		return 1
	}
	return 0
}
