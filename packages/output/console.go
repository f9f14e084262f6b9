package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/teeterhq/teeter/packages/events"
)

// Format selects the console rendering strategy.
type Format string

const (
	FormatStandard Format = "standard"
	FormatVerbose  Format = "verbose"
	FormatJSON     Format = "json"
	FormatMinimal  Format = "minimal"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatStandard, FormatVerbose, FormatJSON, FormatMinimal:
		return Format(s), nil
	case "":
		return FormatStandard, nil
	}
	return "", fmt.Errorf("unknown output format %q (want standard, verbose, json or minimal)", s)
}

// palette holds the per-sink color set. Colors are disabled per sink
// rather than through the process-wide switch so configuration stays
// scoped to one run.
type palette struct {
	pass *color.Color
	fail *color.Color
	skip *color.Color
	info *color.Color
	bold *color.Color
}

func newPalette(enabled bool) *palette {
	p := &palette{
		pass: color.New(color.FgGreen),
		fail: color.New(color.FgRed),
		skip: color.New(color.FgYellow),
		info: color.New(color.FgCyan),
		bold: color.New(color.Bold),
	}
	if !enabled {
		for _, c := range []*color.Color{p.pass, p.fail, p.skip, p.info, p.bold} {
			c.DisableColor()
		}
	}
	return p
}

// ConsoleSink renders events to the terminal immediately, using one of
// four mutually exclusive strategies fixed at construction time.
type ConsoleSink struct {
	w         io.Writer
	format    Format
	verbosity int
	quiet     bool
	colors    *palette

	// minimal tracks whether any progress chars were printed so the
	// trailing newline is only written when needed.
	printed bool
}

// ConsoleOption configures a ConsoleSink.
type ConsoleOption func(*ConsoleSink)

// WithWriter redirects output (default os.Stdout).
func WithWriter(w io.Writer) ConsoleOption {
	return func(s *ConsoleSink) {
		s.w = w
	}
}

// WithFormat selects the rendering strategy.
func WithFormat(f Format) ConsoleOption {
	return func(s *ConsoleSink) {
		s.format = f
	}
}

// WithVerbosity sets the -v count.
func WithVerbosity(v int) ConsoleOption {
	return func(s *ConsoleSink) {
		s.verbosity = v
	}
}

// WithQuiet suppresses everything except a failing summary.
func WithQuiet(q bool) ConsoleOption {
	return func(s *ConsoleSink) {
		s.quiet = q
	}
}

// WithNoColor forces color off regardless of terminal detection.
func WithNoColor(nc bool) ConsoleOption {
	return func(s *ConsoleSink) {
		if nc {
			s.colors = newPalette(false)
		}
	}
}

// NewConsole builds a console sink. Color is enabled only when it has
// not been disabled explicitly, NO_COLOR is unset, and the destination
// is an interactive terminal.
func NewConsole(opts ...ConsoleOption) *ConsoleSink {
	s := &ConsoleSink{w: os.Stdout, format: FormatStandard}
	for _, opt := range opts {
		opt(s)
	}
	if s.colors == nil {
		s.colors = newPalette(colorUsable(s.w))
	}
	return s
}

func colorUsable(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Handle renders one event. Rendering never blocks materially.
func (s *ConsoleSink) Handle(e events.Event) {
	switch ev := e.(type) {
	case events.RunStarted:
		s.runStarted(ev)
	case events.TestStarted:
		s.testStarted(ev)
	case events.TestFinished:
		s.testFinished(ev)
	case events.RunFinished:
		s.runFinished(ev)
	}
}

// Close is a no-op; the console owns no resources.
func (s *ConsoleSink) Close() error { return nil }

func (s *ConsoleSink) runStarted(e events.RunStarted) {
	if s.quiet || s.format == FormatJSON || s.format == FormatMinimal {
		return
	}
	rule := s.colors.info.Sprint("============================================================")
	fmt.Fprintf(s.w, "\n%s\n", rule)
	fmt.Fprintf(s.w, "%s\n", s.colors.info.Sprintf("teeter test run - %s", e.Time.Format("2006-01-02 15:04:05")))
	fmt.Fprintf(s.w, "%s\n", s.colors.info.Sprintf("Running %d test(s)", e.Total))
	if s.format == FormatVerbose && e.Command != "" {
		fmt.Fprintf(s.w, "%s\n", s.colors.info.Sprintf("Command: %s", e.Command))
	}
	fmt.Fprintf(s.w, "%s\n\n", rule)
}

func (s *ConsoleSink) testStarted(e events.TestStarted) {
	if s.quiet || s.format != FormatVerbose {
		return
	}
	if s.verbosity >= 2 {
		fmt.Fprintf(s.w, "  Starting: %s\n", e.Unit.ID())
	}
}

func (s *ConsoleSink) testFinished(e events.TestFinished) {
	if s.quiet || s.format == FormatJSON {
		return
	}

	if s.format == FormatMinimal {
		fmt.Fprintf(s.w, "%c", e.Status.Rune())
		s.printed = true
		return
	}

	symbol, c := s.statusStyle(e.Status)
	line := fmt.Sprintf("%s %s", symbol, e.Unit.ID())
	if s.verbosity > 0 || s.format == FormatVerbose {
		line += fmt.Sprintf(" (%s)", formatDuration(e.Duration))
	}
	if tags := e.Unit.Meta.Tags(); tags != "" && (s.format == FormatVerbose || s.verbosity > 0) {
		line += " " + tags
	}
	fmt.Fprintf(s.w, "%s\n", c.Sprint(line))

	if e.Status == events.StatusPassed {
		return
	}
	if s.format == FormatVerbose || s.verbosity > 0 {
		switch e.Status {
		case events.StatusFailed:
			fmt.Fprintf(s.w, "    %s\n", c.Sprintf("Failure: %s", e.Message))
		case events.StatusErrored:
			fmt.Fprintf(s.w, "    %s\n", c.Sprintf("Error: %s", e.Message))
		case events.StatusSkipped:
			if e.Message != "" {
				fmt.Fprintf(s.w, "    %s\n", c.Sprintf("Skipped: %s", e.Message))
			}
		}
	}
	if s.format == FormatVerbose && e.Trace != "" {
		for _, l := range traceLines(e.Trace, 10) {
			fmt.Fprintf(s.w, "      %s\n", l)
		}
	}
}

func (s *ConsoleSink) runFinished(e events.RunFinished) {
	sum := e.Summary

	if s.format == FormatJSON {
		s.writeJSONDocument(sum)
		return
	}

	if s.format == FormatMinimal && s.printed {
		fmt.Fprintln(s.w)
	}

	if s.quiet && sum.Ok() {
		return
	}

	rule := s.colors.info.Sprint("============================================================")
	fmt.Fprintf(s.w, "\n%s\n", rule)
	fmt.Fprintf(s.w, "%s\n", s.colors.info.Sprint("Test Results Summary"))
	fmt.Fprintf(s.w, "%s\n", rule)
	fmt.Fprintf(s.w, "Tests run: %d\n", sum.TestsRun)
	fmt.Fprintf(s.w, "Failures: %d\n", sum.Failed)
	fmt.Fprintf(s.w, "Errors: %d\n", sum.Errored)
	fmt.Fprintf(s.w, "Skipped: %d\n", sum.Skipped)
	fmt.Fprintf(s.w, "Success rate: %.1f%%\n", sum.SuccessRate())
	fmt.Fprintf(s.w, "Total time: %.3fs\n", sum.Duration.Seconds())

	if sum.Profile != nil && (s.verbosity >= 2 || s.format == FormatVerbose) {
		p := sum.Profile
		fmt.Fprintf(s.w, "\nTiming profile:\n")
		fmt.Fprintf(s.w, "  Fastest: %s (%s)\n", p.Fastest.Unit, formatDuration(p.Fastest.Duration))
		fmt.Fprintf(s.w, "  Slowest: %s (%s)\n", p.Slowest.Unit, formatDuration(p.Slowest.Duration))
		fmt.Fprintf(s.w, "  Mean: %s  p50: %s  p95: %s\n",
			formatDuration(p.Mean), formatDuration(p.P50), formatDuration(p.P95))
	}

	if sum.Interrupted {
		fmt.Fprintf(s.w, "\n%s\n", s.colors.skip.Sprint("Run interrupted before completion"))
	}
	if sum.Ok() {
		fmt.Fprintf(s.w, "\n%s\n", s.colors.pass.Sprint("Overall result: PASSED"))
	} else {
		fmt.Fprintf(s.w, "\n%s\n", s.colors.fail.Sprint("Overall result: FAILED"))
	}
}

// writeJSONDocument emits the single structured document the json
// strategy produces once per run.
func (s *ConsoleSink) writeJSONDocument(sum events.Summary) {
	doc := struct {
		Timestamp   string  `json:"timestamp"`
		TestsRun    int     `json:"tests_run"`
		Failures    int     `json:"failures"`
		Errors      int     `json:"errors"`
		Skipped     int     `json:"skipped"`
		SuccessRate float64 `json:"success_rate"`
		TotalTime   float64 `json:"total_time"`
	}{
		Timestamp:   sum.End.Format(time.RFC3339),
		TestsRun:    sum.TestsRun,
		Failures:    sum.Failed,
		Errors:      sum.Errored,
		Skipped:     sum.Skipped,
		SuccessRate: round2(sum.SuccessRate()),
		TotalTime:   sum.Duration.Seconds(),
	}

	enc := json.NewEncoder(s.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(doc)
}

func (s *ConsoleSink) statusStyle(st events.Status) (string, *color.Color) {
	switch st {
	case events.StatusPassed:
		return "✓", s.colors.pass
	case events.StatusFailed:
		return "✗", s.colors.fail
	case events.StatusErrored:
		return "x", s.colors.fail
	default:
		return "-", s.colors.skip
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
