// Package runner drives the sequential execution of discovered test
// units and emits the ordered execution event stream. Emission is
// synchronous and happens on the executing goroutine; no test body
// ever runs concurrently with another.
package runner
