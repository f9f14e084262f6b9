package registry

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
)

// TB is the surface a test body uses to report its outcome. The
// in-process harness provides the concrete implementation.
type TB interface {
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
	Skipf(format string, args ...any)
	FailNow()
	SkipNow()
	Logf(format string, args ...any)
	Name() string
}

// Func is the executable body of a test unit.
type Func func(t TB)

// TestUnit is one discoverable, independently executable test case.
// Units are created during registration or discovery and are immutable
// for the duration of a run.
type TestUnit struct {
	Suite string
	Name  string
	File  string
	Line  int
	Meta  Metadata
	Func  Func

	// LoadErr is set on synthetic units that stand in for a test
	// source that could not be loaded. Such units have no Func and
	// are always reported as errored.
	LoadErr error
}

// ID returns the qualified identity of the unit.
func (u *TestUnit) ID() string {
	if u.Suite == "" {
		return u.Name
	}
	return u.Suite + "." + u.Name
}

// Registry owns the registered test units for one process. Registration
// order within a file is preserved; that order is the in-file
// declaration order used by discovery.
type Registry struct {
	mu     sync.Mutex
	units  []*TestUnit
	byName map[string]*TestUnit
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{byName: make(map[string]*TestUnit)}
}

// Register adds a unit backed by fn, capturing the caller's source
// location as the unit's origin. Registering the same qualified name
// twice is a programming error and panics, mirroring duplicate test
// definitions.
func (r *Registry) Register(suite, name string, fn Func, opts ...Option) *TestUnit {
	_, file, line, _ := runtime.Caller(1)
	u := &TestUnit{Suite: suite, Name: name, File: file, Line: line, Func: fn}
	for _, opt := range opts {
		opt(&u.Meta)
	}
	if err := r.Add(u); err != nil {
		panic(err)
	}
	return u
}

// Add inserts an already-built unit. It fails on duplicate identity.
func (r *Registry) Add(u *TestUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[u.ID()]; ok {
		return fmt.Errorf("test unit %q registered twice", u.ID())
	}
	r.units = append(r.units, u)
	r.byName[u.ID()] = u
	return nil
}

// Units returns all registered units in registration order.
func (r *Registry) Units() []*TestUnit {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*TestUnit, len(r.units))
	copy(out, r.units)
	return out
}

// Lookup finds a unit by qualified identity.
func (r *Registry) Lookup(id string) (*TestUnit, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byName[id]
	return u, ok
}

// Files returns the distinct source files of all registered units in
// lexical order.
func (r *Registry) Files() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool)
	var files []string
	for _, u := range r.units {
		if !seen[u.File] {
			seen[u.File] = true
			files = append(files, u.File)
		}
	}
	sort.Strings(files)
	return files
}

// UnitsIn returns the units registered from one source file, in
// declaration order.
func (r *Registry) UnitsIn(file string) []*TestUnit {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*TestUnit
	for _, u := range r.units {
		if u.File == file {
			out = append(out, u)
		}
	}
	return out
}

var defaultRegistry = New()

// Default returns the process-wide registry that test packages register
// into from their init functions.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a unit to the default registry.
func Register(suite, name string, fn Func, opts ...Option) *TestUnit {
	_, file, line, _ := runtime.Caller(1)
	u := &TestUnit{Suite: suite, Name: name, File: file, Line: line, Func: fn}
	for _, opt := range opts {
		opt(&u.Meta)
	}
	if err := defaultRegistry.Add(u); err != nil {
		panic(err)
	}
	return u
}
