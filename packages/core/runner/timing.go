package runner

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/teeterhq/teeter/packages/events"
)

// profile accumulates per-unit wall-clock durations for the timing
// profile attached to the run summary.
type profile struct {
	hist    *hdrhistogram.Histogram
	fastest events.UnitTiming
	slowest events.UnitTiming
	total   time.Duration
	count   int
}

func newProfile() *profile {
	// Microsecond resolution, up to an hour per unit.
	return &profile{hist: hdrhistogram.New(1, time.Hour.Microseconds(), 3)}
}

func (p *profile) record(unit string, d time.Duration) {
	us := d.Microseconds()
	if us < 1 {
		us = 1
	}
	_ = p.hist.RecordValue(us)

	if p.count == 0 || d < p.fastest.Duration {
		p.fastest = events.UnitTiming{Unit: unit, Duration: d}
	}
	if p.count == 0 || d > p.slowest.Duration {
		p.slowest = events.UnitTiming{Unit: unit, Duration: d}
	}
	p.total += d
	p.count++
}

func (p *profile) snapshot() *events.TimingProfile {
	if p.count == 0 {
		return nil
	}
	return &events.TimingProfile{
		Fastest: p.fastest,
		Slowest: p.slowest,
		Mean:    p.total / time.Duration(p.count),
		P50:     time.Duration(p.hist.ValueAtQuantile(50)) * time.Microsecond,
		P95:     time.Duration(p.hist.ValueAtQuantile(95)) * time.Microsecond,
	}
}
