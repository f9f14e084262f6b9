// Package harness defines the boundary to the sequential
// test-execution framework: discovery of loadable test sources and
// execution of a single unit, translating the native outcome into the
// four-way status model. The in-process implementation runs units
// registered in a registry; YAML suite manifests provide a declarative
// source kind on top of it.
package harness
