package output

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/teeterhq/teeter/packages/events"
	"github.com/teeterhq/teeter/packages/resultfile"
)

// FileFormat selects the persisted rendering.
type FileFormat string

const (
	FileFormatText FileFormat = "text"
	FileFormatJSON FileFormat = "json"
)

// ParseFileFormat validates a user-supplied file format name. "txt" is
// accepted as an alias for text.
func ParseFileFormat(s string) (FileFormat, error) {
	switch s {
	case "", "text", "txt":
		return FileFormatText, nil
	case "json":
		return FileFormatJSON, nil
	}
	return "", fmt.Errorf("unknown log file format %q (want text or json)", s)
}

// DefaultQueueSize bounds the write queue; a full queue applies
// backpressure to the producer instead of dropping jobs.
const DefaultQueueSize = 1024

// DefaultCloseTimeout bounds the shutdown wait for the worker to drain.
const DefaultCloseTimeout = 5 * time.Second

// WriteJob is one queued unit of work for the background writer: a
// serialized event plus its sequence number. Ownership passes to the
// worker on enqueue.
type WriteJob struct {
	Seq   uint64
	Event events.Event
}

// FileSink persists the event stream to a file through exactly one
// background worker goroutine and a FIFO queue, so test execution
// never waits on file-system latency. With a single producer enqueuing
// and a single consumer dequeuing, the file's event order matches
// production order even though writes lag.
//
// Handle and Close must be called from the producing goroutine only.
type FileSink struct {
	path         string
	format       FileFormat
	verbosity    int
	appendMode   bool
	queueSize    int
	closeTimeout time.Duration
	onError      func(error)

	f    *os.File
	buf  *bufio.Writer
	jobs chan WriteJob
	done chan struct{}
	seq  uint64

	closeOnce sync.Once
	closeErr  error

	// Worker-owned state; the producer never touches it.
	results []events.TestFinished
	werr    error
}

// FileOption configures a FileSink.
type FileOption func(*FileSink)

// FileWithFormat selects text or JSON persistence.
func FileWithFormat(f FileFormat) FileOption {
	return func(s *FileSink) {
		s.format = f
	}
}

// FileWithVerbosity sets the file verbosity level (1-3), independent of
// the console's format.
func FileWithVerbosity(v int) FileOption {
	return func(s *FileSink) {
		if v > 0 {
			s.verbosity = v
		}
	}
}

// FileWithAppend opens the target without truncation.
func FileWithAppend(append bool) FileOption {
	return func(s *FileSink) {
		s.appendMode = append
	}
}

// FileWithQueueSize overrides the queue bound.
func FileWithQueueSize(n int) FileOption {
	return func(s *FileSink) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// FileWithCloseTimeout bounds the drain wait during Close.
func FileWithCloseTimeout(d time.Duration) FileOption {
	return func(s *FileSink) {
		if d > 0 {
			s.closeTimeout = d
		}
	}
}

// FileWithErrorReporter installs the callback that surfaces the first
// write fault (default: a warning on stderr). The callback runs on the
// worker goroutine, at most once.
func FileWithErrorReporter(fn func(error)) FileOption {
	return func(s *FileSink) {
		s.onError = fn
	}
}

// NewFileSink opens (or creates) the target file and starts the
// worker. In overwrite mode the file is truncated; in append mode
// existing contents are preserved.
func NewFileSink(path string, opts ...FileOption) (*FileSink, error) {
	s := &FileSink{
		path:         path,
		format:       FileFormatText,
		verbosity:    1,
		queueSize:    DefaultQueueSize,
		closeTimeout: DefaultCloseTimeout,
		onError: func(err error) {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if s.appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	s.f = f
	s.buf = bufio.NewWriter(f)
	s.jobs = make(chan WriteJob, s.queueSize)
	s.done = make(chan struct{})
	go s.worker()
	return s, nil
}

// Path returns the target file path.
func (s *FileSink) Path() string { return s.path }

// Handle enqueues one event and returns immediately unless the queue
// is full, in which case it blocks until the worker catches up. Jobs
// are never dropped.
func (s *FileSink) Handle(e events.Event) {
	s.seq++
	s.jobs <- WriteJob{Seq: s.seq, Event: e}
}

// Close signals end-of-stream and waits, bounded, for the worker to
// drain the queue, flush and close the file. On timeout the remaining
// jobs are abandoned and an error is returned; the process is never
// blocked indefinitely.
func (s *FileSink) Close() error {
	s.closeOnce.Do(func() {
		close(s.jobs)
		select {
		case <-s.done:
		case <-time.After(s.closeTimeout):
			s.closeErr = fmt.Errorf("log writer for %s did not drain within %s; remaining events abandoned", s.path, s.closeTimeout)
		}
	})
	return s.closeErr
}

// worker is the single consumer. It drains the queue in FIFO order,
// performs the writes, and on end-of-stream flushes and closes the
// file before signalling completion.
func (s *FileSink) worker() {
	defer close(s.done)
	for job := range s.jobs {
		s.write(job.Event)
	}
	if s.werr == nil {
		if err := s.buf.Flush(); err != nil {
			s.report(fmt.Errorf("flushing log file %s: %w", s.path, err))
		}
	}
	if err := s.f.Close(); err != nil && s.werr == nil {
		s.report(fmt.Errorf("closing log file %s: %w", s.path, err))
	}
}

// report surfaces the first write fault once and suppresses all
// subsequent writes; the queue is still drained so the producer never
// stalls on a dead file.
func (s *FileSink) report(err error) {
	if s.werr != nil {
		return
	}
	s.werr = err
	s.onError(err)
}

func (s *FileSink) write(e events.Event) {
	switch ev := e.(type) {
	case events.RunStarted:
		if s.format == FileFormatText {
			s.writeText(renderHeader(ev))
		}
	case events.TestFinished:
		s.results = append(s.results, ev)
		if s.format == FileFormatText {
			s.writeText(s.renderResult(ev))
		}
	case events.RunFinished:
		if s.format == FileFormatJSON {
			s.writeJSON(ev.Summary)
		} else {
			s.writeText(renderSummary(ev.Summary))
		}
		s.flush()
	}
}

func (s *FileSink) writeText(text string) {
	if s.werr != nil {
		return
	}
	if _, err := s.buf.WriteString(text); err != nil {
		s.report(fmt.Errorf("writing log file %s: %w", s.path, err))
	}
}

func (s *FileSink) writeJSON(sum events.Summary) {
	if s.werr != nil {
		return
	}
	doc := resultfile.New(sum, s.results, s.verbosity)
	data, err := doc.Marshal()
	if err != nil {
		s.report(fmt.Errorf("encoding log file %s: %w", s.path, err))
		return
	}
	s.writeText(string(data) + "\n")
}

func (s *FileSink) flush() {
	if s.werr != nil {
		return
	}
	if err := s.buf.Flush(); err != nil {
		s.report(fmt.Errorf("flushing log file %s: %w", s.path, err))
	}
}

// renderResult formats one unit outcome as text at the configured
// verbosity.
func (s *FileSink) renderResult(e events.TestFinished) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%.3fs)", statusWord(e.Status), e.Unit.ID(), e.Duration.Seconds())
	if s.verbosity >= 2 {
		if tags := e.Unit.Meta.Tags(); tags != "" {
			fmt.Fprintf(&b, " %s", tags)
		}
	}
	b.WriteByte('\n')

	if s.verbosity >= 2 && (e.Status == events.StatusFailed || e.Status == events.StatusErrored) {
		kind := "Failure"
		if e.Status == events.StatusErrored {
			kind = "Error"
		}
		fmt.Fprintf(&b, "    %s: %s\n", kind, e.Message)
		if s.verbosity >= 3 {
			if e.Unit.File != "" {
				fmt.Fprintf(&b, "    at %s:%d\n", e.Unit.File, e.Unit.Line)
			}
			for _, l := range traceLines(e.Trace, 5) {
				fmt.Fprintf(&b, "    %s\n", l)
			}
		}
	}
	return b.String()
}

func statusWord(s events.Status) string {
	switch s {
	case events.StatusPassed:
		return "PASS"
	case events.StatusFailed:
		return "FAIL"
	case events.StatusErrored:
		return "ERROR"
	case events.StatusSkipped:
		return "SKIP"
	}
	return "?"
}

func renderHeader(e events.RunStarted) string {
	var b strings.Builder
	b.WriteString("=== teeter test run ===\n")
	if e.Command != "" {
		fmt.Fprintf(&b, "Command: %s\n", e.Command)
	}
	fmt.Fprintf(&b, "Started: %s\n", e.Time.Format(time.RFC3339))
	fmt.Fprintf(&b, "Tests: %d\n\n", e.Total)
	return b.String()
}

func renderSummary(sum events.Summary) string {
	var b strings.Builder
	b.WriteString("\n=== Summary ===\n")
	fmt.Fprintf(&b, "Total: %d\n", sum.TestsRun)
	fmt.Fprintf(&b, "Passed: %d\n", sum.Passed)
	fmt.Fprintf(&b, "Failed: %d\n", sum.Failed)
	fmt.Fprintf(&b, "Errors: %d\n", sum.Errored)
	fmt.Fprintf(&b, "Skipped: %d\n", sum.Skipped)
	fmt.Fprintf(&b, "Success Rate: %.1f%%\n", sum.SuccessRate())
	fmt.Fprintf(&b, "Total time: %.3fs\n", sum.Duration.Seconds())
	if sum.Interrupted {
		b.WriteString("Interrupted: true\n")
	}
	fmt.Fprintf(&b, "Exit Code: %d\n", sum.ExitCode())
	return b.String()
}

// traceLines truncates a stack trace for text output.
func traceLines(trace string, limit int) []string {
	if trace == "" {
		return nil
	}
	lines := strings.Split(strings.TrimRight(trace, "\n"), "\n")
	if len(lines) <= limit {
		return lines
	}
	return append(lines[:limit], "... (traceback truncated)")
}
