// Package events defines the immutable execution event stream produced
// by the execution engine and consumed by every registered sink.
package events
