package registry

import "strings"

// Metadata is the label set attached to a test unit when it is
// registered. It is populated once and never mutated afterwards.
type Metadata struct {
	Category Category
	Scope    string // integration scope: component, service, system
	Phase    string // development phase identifier
	Slow     bool
	SkipCI   bool
}

// Tagged reports whether any tag was attached at registration.
func (m Metadata) Tagged() bool {
	return m.Category != "" || m.Scope != "" || m.Phase != "" || m.Slow || m.SkipCI
}

// Tags renders the attached tags as a compact display string, for
// example "[regression, slow]". Empty when no tags are attached.
func (m Metadata) Tags() string {
	var tags []string
	switch m.Category {
	case CategoryRegression:
		tags = append(tags, "regression")
	case CategoryIntegration:
		if m.Scope != "" {
			tags = append(tags, "integration:"+m.Scope)
		} else {
			tags = append(tags, "integration")
		}
	case CategoryDevelopment:
		if m.Phase != "" {
			tags = append(tags, "development:"+m.Phase)
		} else {
			tags = append(tags, "development")
		}
	}
	if m.Slow {
		tags = append(tags, "slow")
	}
	if m.SkipCI {
		tags = append(tags, "skip-ci")
	}
	if len(tags) == 0 {
		return ""
	}
	return "[" + strings.Join(tags, ", ") + "]"
}

// Map renders the tags as a serializable map, omitting unset labels.
func (m Metadata) Map() map[string]any {
	out := make(map[string]any)
	if m.Category != "" {
		out["category"] = string(m.Category)
	}
	if m.Scope != "" {
		out["scope"] = m.Scope
	}
	if m.Phase != "" {
		out["phase"] = m.Phase
	}
	if m.Slow {
		out["slow"] = true
	}
	if m.SkipCI {
		out["skip_ci"] = true
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Option attaches a tag to a unit at registration time.
type Option func(*Metadata)

// Regression marks a unit as a permanent regression test.
func Regression() Option {
	return func(m *Metadata) {
		m.Category = CategoryRegression
	}
}

// Integration marks a unit as an integration test with the given scope
// (component, service or system).
func Integration(scope string) Option {
	return func(m *Metadata) {
		m.Category = CategoryIntegration
		m.Scope = scope
	}
}

// Development marks a unit as a temporary development test. The phase
// identifier is free-form and may be empty.
func Development(phase string) Option {
	return func(m *Metadata) {
		m.Category = CategoryDevelopment
		m.Phase = phase
	}
}

// Slow marks a unit as slow-running so it can be excluded with the
// exclude-slow filter.
func Slow() Option {
	return func(m *Metadata) {
		m.Slow = true
	}
}

// SkipCI marks a unit to be excluded when the exclude-ci filter is set.
func SkipCI() Option {
	return func(m *Metadata) {
		m.SkipCI = true
	}
}
