// Package registry holds the set of discoverable test units and the
// metadata tags attached to them at registration time. Units are
// immutable after registration; the registry only supports lookup.
package registry
