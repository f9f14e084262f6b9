package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/teeterhq/teeter/packages/core/registry"
)

// manifest is the YAML shape of a declarative suite file. Each entry
// references a registered unit by qualified identity and may attach or
// override tags without touching the unit's code.
//
//	suite: checkout
//	tests:
//	  - unit: checkout.TestTotals
//	    category: regression
//	  - unit: checkout.TestGatewayRoundtrip
//	    category: integration
//	    scope: service
//	    slow: true
type manifest struct {
	Suite string          `yaml:"suite"`
	Tests []manifestEntry `yaml:"tests"`
}

type manifestEntry struct {
	Unit     string `yaml:"unit"`
	Category string `yaml:"category"`
	Scope    string `yaml:"scope"`
	Phase    string `yaml:"phase"`
	Slow     bool   `yaml:"slow"`
	SkipCI   bool   `yaml:"skip-ci"`
}

// manifestSource loads a YAML suite manifest. A malformed file or a
// reference to an unregistered unit makes the whole source unloadable,
// which discovery records as a synthetic errored unit.
type manifestSource struct {
	reg  *registry.Registry
	path string
}

func (s *manifestSource) Path() string { return s.path }

func (s *manifestSource) Units() ([]*registry.TestUnit, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading suite manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("malformed suite manifest: %w", err)
	}
	if len(m.Tests) == 0 {
		return nil, fmt.Errorf("suite manifest declares no tests")
	}

	units := make([]*registry.TestUnit, 0, len(m.Tests))
	for _, entry := range m.Tests {
		base, ok := s.reg.Lookup(entry.Unit)
		if !ok {
			return nil, fmt.Errorf("suite manifest references unknown unit %q", entry.Unit)
		}

		u := &registry.TestUnit{
			Suite: m.Suite,
			Name:  base.Name,
			File:  s.path,
			Meta:  base.Meta,
			Func:  base.Func,
		}
		if u.Suite == "" {
			u.Suite = base.Suite
		}
		if entry.Category != "" {
			cat, err := registry.ParseCategory(entry.Category)
			if err != nil {
				return nil, fmt.Errorf("suite manifest entry %q: %w", entry.Unit, err)
			}
			u.Meta.Category = cat
		}
		if entry.Scope != "" {
			u.Meta.Scope = entry.Scope
		}
		if entry.Phase != "" {
			u.Meta.Phase = entry.Phase
		}
		if entry.Slow {
			u.Meta.Slow = true
		}
		if entry.SkipCI {
			u.Meta.SkipCI = true
		}
		units = append(units, u)
	}
	return units, nil
}
