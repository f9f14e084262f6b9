package harness

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/teeterhq/teeter/packages/core/registry"
)

// Verdict is the framework-native outcome of one executed unit.
type Verdict int

const (
	VerdictPass Verdict = iota
	VerdictFail
	VerdictError
	VerdictSkip
)

// Outcome is what executing one unit produced. Message carries the
// failure or skip reason; Trace carries a stack trace for faults.
type Outcome struct {
	Verdict Verdict
	Message string
	Trace   string
	Log     string
}

// Source is one loadable group of test units, typically a file.
type Source interface {
	// Path is the source's location on disk.
	Path() string
	// Units loads the source's units in declaration order. An error
	// means the whole source is unloadable.
	Units() ([]*registry.TestUnit, error)
}

// Harness is the discovery side of the external test-execution
// framework: it yields the loadable sources under a search root whose
// base name matches pattern.
type Harness interface {
	Sources(root, pattern string) ([]Source, error)
}

type failNow struct{}
type skipNow struct{}

// T is the in-process assertion surface handed to test bodies. It
// implements registry.TB.
type T struct {
	name string

	mu      sync.Mutex
	failed  bool
	skipped bool
	msgs    []string
	logs    []string
}

// NewT returns a fresh per-unit context.
func NewT(name string) *T {
	return &T{name: name}
}

func (t *T) Name() string { return t.name }

func (t *T) Errorf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed = true
	t.msgs = append(t.msgs, fmt.Sprintf(format, args...))
}

func (t *T) Fatalf(format string, args ...any) {
	t.mu.Lock()
	t.failed = true
	t.msgs = append(t.msgs, fmt.Sprintf(format, args...))
	t.mu.Unlock()
	panic(failNow{})
}

func (t *T) FailNow() {
	t.mu.Lock()
	t.failed = true
	t.mu.Unlock()
	panic(failNow{})
}

func (t *T) Skipf(format string, args ...any) {
	t.mu.Lock()
	t.skipped = true
	t.msgs = append(t.msgs, fmt.Sprintf(format, args...))
	t.mu.Unlock()
	panic(skipNow{})
}

func (t *T) SkipNow() {
	t.mu.Lock()
	t.skipped = true
	t.mu.Unlock()
	panic(skipNow{})
}

func (t *T) Logf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logs = append(t.logs, fmt.Sprintf(format, args...))
}

func (t *T) Failed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failed
}

func (t *T) message() string { return strings.Join(t.msgs, "\n") }

// Run executes one unit to completion and translates what happened into
// an Outcome. An assertion mismatch yields VerdictFail; an unexpected
// panic yields VerdictError with the recovered stack. The unit itself
// is never run concurrently with another unit; ctx is accepted for
// interface symmetry and future per-unit deadlines.
func Run(ctx context.Context, u *registry.TestUnit) (out Outcome) {
	_ = ctx
	if u.LoadErr != nil {
		return Outcome{
			Verdict: VerdictError,
			Message: u.LoadErr.Error(),
			Trace:   fmt.Sprintf("source %s could not be loaded: %v", u.File, u.LoadErr),
		}
	}
	if u.Func == nil {
		return Outcome{
			Verdict: VerdictError,
			Message: "test unit has no executable body",
		}
	}

	t := NewT(u.ID())
	defer func() {
		out.Log = strings.Join(t.logs, "\n")
		r := recover()
		switch r.(type) {
		case nil:
			if t.failed {
				out.Verdict = VerdictFail
				out.Message = t.message()
			} else if t.skipped {
				out.Verdict = VerdictSkip
				out.Message = t.message()
			} else {
				out.Verdict = VerdictPass
			}
		case failNow:
			out.Verdict = VerdictFail
			out.Message = t.message()
		case skipNow:
			out.Verdict = VerdictSkip
			out.Message = t.message()
		default:
			out.Verdict = VerdictError
			out.Message = fmt.Sprintf("panic: %v", r)
			out.Trace = string(debug.Stack())
		}
	}()

	u.Func(t)
	return
}
