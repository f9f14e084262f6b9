package harness

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/teeterhq/teeter/packages/core/registry"
)

// InProcess is a Harness over a registry of in-process test units. A
// source is one Go file that registered units, or a YAML suite
// manifest found under the search root.
type InProcess struct {
	reg *registry.Registry
}

// NewInProcess wraps a registry.
func NewInProcess(reg *registry.Registry) *InProcess {
	return &InProcess{reg: reg}
}

// Sources yields every loadable source under root whose base name
// (without extension) matches pattern, in lexical path order. Both
// registered Go files and *.yaml/*.yml suite manifests are sources;
// an unreadable root is an error, an unreadable source is not — it is
// surfaced when its Units() load.
func (h *InProcess) Sources(root, pattern string) ([]Source, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving search root: %w", err)
	}
	if _, err := os.Stat(absRoot); err != nil {
		return nil, fmt.Errorf("search root: %w", err)
	}

	var sources []Source
	for _, file := range h.reg.Files() {
		if !strings.HasPrefix(file, absRoot+string(filepath.Separator)) && file != absRoot {
			continue
		}
		if !matchesPattern(file, pattern) {
			continue
		}
		sources = append(sources, &registrySource{reg: h.reg, path: file})
	}

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if name := d.Name(); name != "." && (strings.HasPrefix(name, ".") || name == "vendor" || name == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if !matchesPattern(path, pattern) {
			return nil
		}
		sources = append(sources, &manifestSource{reg: h.reg, path: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", absRoot, err)
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].Path() < sources[j].Path() })
	return sources, nil
}

// matchesPattern matches the base file name, extension stripped,
// against a glob pattern such as "test*".
func matchesPattern(path, pattern string) bool {
	if pattern == "" {
		return true
	}
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	ok, err := filepath.Match(pattern, base)
	return err == nil && ok
}

// registrySource exposes the units registered from one Go file.
type registrySource struct {
	reg  *registry.Registry
	path string
}

func (s *registrySource) Path() string { return s.path }

func (s *registrySource) Units() ([]*registry.TestUnit, error) {
	units := s.reg.UnitsIn(s.path)
	if len(units) == 0 {
		return nil, fmt.Errorf("no test units registered from %s", s.path)
	}
	return units, nil
}
