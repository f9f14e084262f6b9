package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teeterhq/teeter/packages/core/harness"
	"github.com/teeterhq/teeter/packages/core/registry"
)

// stubHarness serves fixed sources, so tests control discovery input
// without touching the file system.
type stubHarness struct {
	sources []harness.Source
	err     error
}

func (s *stubHarness) Sources(root, pattern string) ([]harness.Source, error) {
	return s.sources, s.err
}

type stubSource struct {
	path  string
	units []*registry.TestUnit
	err   error
}

func (s *stubSource) Path() string { return s.path }

func (s *stubSource) Units() ([]*registry.TestUnit, error) {
	return s.units, s.err
}

func unit(suite, name, file string, opts ...registry.Option) *registry.TestUnit {
	u := &registry.TestUnit{Suite: suite, Name: name, File: file, Func: func(tb registry.TB) {}}
	for _, opt := range opts {
		opt(&u.Meta)
	}
	return u
}

func TestDiscoverMixedTree(t *testing.T) {
	h := &stubHarness{sources: []harness.Source{
		&stubSource{path: "/repo/development/test_wip.go", units: []*registry.TestUnit{
			unit("wip", "one", "/repo/development/test_wip.go"),
		}},
		&stubSource{path: "/repo/integration/test_api.go", units: []*registry.TestUnit{
			unit("api", "roundtrip", "/repo/integration/test_api.go"),
		}},
		&stubSource{path: "/repo/regression/test_core.go", units: []*registry.TestUnit{
			unit("core", "alpha", "/repo/regression/test_core.go"),
			unit("core", "beta", "/repo/regression/test_core.go", registry.Slow()),
		}},
		&stubSource{path: "/repo/test_misc.go", units: []*registry.TestUnit{
			unit("misc", "plain", "/repo/test_misc.go"),
		}},
	}}

	mapping, err := New(h, "/repo").Discover()
	require.NoError(t, err)

	counts := mapping.Counts()
	assert.Equal(t, 1, counts[registry.CategoryDevelopment])
	assert.Equal(t, 1, counts[registry.CategoryIntegration])
	assert.Equal(t, 2, counts[registry.CategoryRegression])
	assert.Equal(t, 1, counts[registry.CategoryUncategorized])
}

func TestDiscoverTagOverridesDirectory(t *testing.T) {
	// A development-tagged unit living under regression/ resolves to
	// the tag, not the directory.
	u := unit("core", "wip", "/repo/regression/test_core.go", registry.Development("alpha"))
	h := &stubHarness{sources: []harness.Source{
		&stubSource{path: "/repo/regression/test_core.go", units: []*registry.TestUnit{u}},
	}}

	mapping, err := New(h, "/repo").Discover()
	require.NoError(t, err)
	assert.Equal(t, registry.CategoryDevelopment, mapping.CategoryOf(u))
}

func TestDiscoverOrderIsDeterministic(t *testing.T) {
	h := &stubHarness{sources: []harness.Source{
		&stubSource{path: "/repo/a/test_one.go", units: []*registry.TestUnit{
			unit("one", "first", "/repo/a/test_one.go"),
			unit("one", "second", "/repo/a/test_one.go"),
		}},
		&stubSource{path: "/repo/b/test_two.go", units: []*registry.TestUnit{
			unit("two", "first", "/repo/b/test_two.go"),
		}},
	}}

	engine := New(h, "/repo")
	first, err := engine.Discover()
	require.NoError(t, err)
	second, err := engine.Discover()
	require.NoError(t, err)

	ids := func(m *Mapping) []string {
		var out []string
		for _, u := range m.Units() {
			out = append(out, u.ID())
		}
		return out
	}
	assert.Equal(t, []string{"one.first", "one.second", "two.first"}, ids(first))
	assert.Equal(t, ids(first), ids(second), "repeated discovery must be idempotent")
}

func TestDiscoverUnloadableSourceBecomesErroredUnit(t *testing.T) {
	h := &stubHarness{sources: []harness.Source{
		&stubSource{path: "/repo/test_broken.yaml", err: errors.New("malformed suite manifest")},
		&stubSource{path: "/repo/test_ok.go", units: []*registry.TestUnit{
			unit("ok", "passes", "/repo/test_ok.go"),
		}},
	}}

	mapping, err := New(h, "/repo").Discover()
	require.NoError(t, err, "one broken source must not abort discovery")

	units := mapping.Units()
	require.Len(t, units, 2)
	assert.Error(t, units[0].LoadErr)
	assert.Equal(t, registry.CategoryUncategorized, mapping.CategoryOf(units[0]))
	assert.NoError(t, units[1].LoadErr)
}

func TestSelectFilters(t *testing.T) {
	reg := unit("core", "stable", "/repo/regression/test_core.go", registry.Regression())
	slow := unit("core", "heavy", "/repo/regression/test_core.go", registry.Regression(), registry.Slow())
	ci := unit("net", "external", "/repo/integration/test_net.go", registry.Integration("system"), registry.SkipCI())
	broken := &registry.TestUnit{Suite: "bad", Name: "load", File: "/repo/test_bad.yaml", LoadErr: errors.New("nope")}

	h := &stubHarness{sources: []harness.Source{
		&stubSource{path: "/repo/integration/test_net.go", units: []*registry.TestUnit{ci}},
		&stubSource{path: "/repo/regression/test_core.go", units: []*registry.TestUnit{reg, slow}},
		&stubSource{path: "/repo/test_bad.yaml", err: broken.LoadErr},
	}}
	mapping, err := New(h, "/repo").Discover()
	require.NoError(t, err)

	t.Run("category", func(t *testing.T) {
		selected := mapping.Select(Filter{Category: registry.CategoryRegression})
		require.Len(t, selected, 3)
		assert.NotNil(t, selected[0].LoadErr, "load failures surface in every filtered run")
		assert.Equal(t, "core.stable", selected[1].ID())
		assert.Equal(t, "core.heavy", selected[2].ID())
	})

	t.Run("exclude slow", func(t *testing.T) {
		selected := mapping.Select(Filter{Category: registry.CategoryRegression, ExcludeSlow: true})
		require.Len(t, selected, 2)
		assert.Equal(t, "core.stable", selected[1].ID())
	})

	t.Run("exclude ci", func(t *testing.T) {
		selected := mapping.Select(Filter{ExcludeCI: true})
		for _, u := range selected {
			assert.NotEqual(t, "net.external", u.ID())
		}
	})

	t.Run("no filter keeps everything", func(t *testing.T) {
		assert.Len(t, mapping.Select(Filter{}), 4)
	})
}

func TestDiscoverManifestViewReplacesPlainUnit(t *testing.T) {
	base := unit("core", "alpha", "/repo/test_core.go")
	tagged := &registry.TestUnit{
		Suite: "core", Name: "alpha", File: "/repo/test_suite.yaml",
		Func: base.Func,
	}
	registry.Regression()(&tagged.Meta)

	h := &stubHarness{sources: []harness.Source{
		&stubSource{path: "/repo/test_core.go", units: []*registry.TestUnit{base}},
		&stubSource{path: "/repo/test_suite.yaml", units: []*registry.TestUnit{tagged}},
	}}

	mapping, err := New(h, "/repo").Discover()
	require.NoError(t, err)

	units := mapping.Units()
	require.Len(t, units, 1)
	assert.Equal(t, registry.CategoryRegression, mapping.CategoryOf(units[0]))
}

func TestDetectRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, ok := DetectRoot(nested)
	require.True(t, ok)
	// TempDir may be behind a symlink on some platforms; compare the
	// resolved paths.
	wantResolved, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	gotResolved, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	assert.Equal(t, wantResolved, gotResolved)
}

func TestDetectRootNoMarker(t *testing.T) {
	dir := t.TempDir()
	_, ok := DetectRoot(dir)
	assert.False(t, ok)
}
