package discovery

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/teeterhq/teeter/packages/core/harness"
	"github.com/teeterhq/teeter/packages/core/registry"
)

// DefaultPattern matches source base names the way the discovery call
// expects them: test files prefixed with "test".
const DefaultPattern = "test*"

// Engine discovers and categorizes test units under a search root.
type Engine struct {
	harness harness.Harness
	root    string
	pattern string
}

// Option configures an Engine.
type Option func(*Engine)

// WithPattern overrides the source file-name pattern.
func WithPattern(pattern string) Option {
	return func(e *Engine) {
		if pattern != "" {
			e.pattern = pattern
		}
	}
}

// New builds an engine over one search root.
func New(h harness.Harness, root string, opts ...Option) *Engine {
	e := &Engine{harness: h, root: root, pattern: DefaultPattern}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mapping is the result of one discovery pass: every unit in discovery
// order (lexical path, then in-file declaration order), with its
// resolved category.
type Mapping struct {
	units      []*registry.TestUnit
	categories map[*registry.TestUnit]registry.Category
}

// Units returns all discovered units in discovery order, including
// synthetic units for unloadable sources.
func (m *Mapping) Units() []*registry.TestUnit {
	out := make([]*registry.TestUnit, len(m.units))
	copy(out, m.units)
	return out
}

// CategoryOf returns the resolved category of a discovered unit.
func (m *Mapping) CategoryOf(u *registry.TestUnit) registry.Category {
	if c, ok := m.categories[u]; ok {
		return c
	}
	return registry.CategoryUncategorized
}

// Counts returns the number of discovered units per category.
func (m *Mapping) Counts() map[registry.Category]int {
	counts := make(map[registry.Category]int)
	for _, u := range m.units {
		counts[m.CategoryOf(u)]++
	}
	return counts
}

// Filter selects units by category and the exclude flags. An empty
// category means all categories. Synthetic load-failure units always
// pass the filter: a broken source must surface in every run that
// touches its tree.
type Filter struct {
	Category    registry.Category
	ExcludeSlow bool
	ExcludeCI   bool
}

// Select applies the filter, preserving discovery order.
func (m *Mapping) Select(f Filter) []*registry.TestUnit {
	var out []*registry.TestUnit
	for _, u := range m.units {
		if u.LoadErr != nil {
			out = append(out, u)
			continue
		}
		if f.Category != "" && m.CategoryOf(u) != f.Category {
			continue
		}
		if f.ExcludeSlow && u.Meta.Slow {
			continue
		}
		if f.ExcludeCI && u.Meta.SkipCI {
			continue
		}
		out = append(out, u)
	}
	return out
}

// Discover walks the root and builds the category mapping. A source
// that cannot be loaded contributes one synthetic errored unit instead
// of aborting discovery for the rest of the tree. Repeated discovery
// over an unchanged tree yields an identical mapping.
func (e *Engine) Discover() (*Mapping, error) {
	sources, err := e.harness.Sources(e.root, e.pattern)
	if err != nil {
		return nil, fmt.Errorf("discovering tests under %s: %w", e.root, err)
	}

	m := &Mapping{categories: make(map[*registry.TestUnit]registry.Category)}
	seen := make(map[string]bool)

	for _, src := range sources {
		units, err := src.Units()
		if err != nil {
			u := &registry.TestUnit{
				Suite:   filepath.Base(src.Path()),
				Name:    "load",
				File:    src.Path(),
				LoadErr: err,
			}
			m.units = append(m.units, u)
			m.categories[u] = registry.CategoryUncategorized
			continue
		}
		for _, u := range units {
			// A unit reachable both directly and through a manifest
			// contributes once; the manifest's tagged view wins.
			if seen[u.ID()] {
				for i, prev := range m.units {
					if prev.ID() == u.ID() && prev.LoadErr == nil && u.Meta.Tagged() {
						m.units[i] = u
						delete(m.categories, prev)
						m.categories[u] = e.categorize(u)
					}
				}
				continue
			}
			seen[u.ID()] = true
			m.units = append(m.units, u)
			m.categories[u] = e.categorize(u)
		}
	}
	return m, nil
}

// categorize resolves a unit's category: the attached tag wins over the
// directory convention, matching the observed source-of-truth behavior;
// unmatched units are uncategorized.
func (e *Engine) categorize(u *registry.TestUnit) registry.Category {
	if u.Meta.Category != "" {
		return u.Meta.Category
	}
	if c, ok := categoryFromPath(u.File); ok {
		return c
	}
	return registry.CategoryUncategorized
}

// categoryFromPath inspects the directory the source lives in.
func categoryFromPath(path string) (registry.Category, bool) {
	dir := strings.ToLower(filepath.Base(filepath.Dir(path)))
	switch {
	case strings.Contains(dir, "regression"):
		return registry.CategoryRegression, true
	case strings.Contains(dir, "integration"):
		return registry.CategoryIntegration, true
	case strings.Contains(dir, "development"), strings.Contains(dir, "dev"):
		return registry.CategoryDevelopment, true
	}
	return "", false
}
