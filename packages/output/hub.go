package output

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/teeterhq/teeter/packages/events"
)

// Sink consumes the execution event stream. Handle is called on the
// executing goroutine; a sink that needs to do slow work must decouple
// itself the way the file sink does.
type Sink interface {
	Handle(events.Event)
	Close() error
}

// Hub delivers every event to each registered sink in registration
// order, synchronously. A sink that panics during delivery is isolated:
// the fault is reported and the remaining sinks still receive the
// event.
type Hub struct {
	sinks []Sink
	warn  io.Writer
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithWarnWriter redirects sink-fault reports (default os.Stderr).
func WithWarnWriter(w io.Writer) HubOption {
	return func(h *Hub) {
		h.warn = w
	}
}

// NewHub builds a hub over the given sinks.
func NewHub(sinks []Sink, opts ...HubOption) *Hub {
	h := &Hub{sinks: sinks, warn: os.Stderr}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register appends a sink. Sinks must be registered before the run
// starts; the hub is not safe for concurrent mutation.
func (h *Hub) Register(s Sink) {
	h.sinks = append(h.sinks, s)
}

// Publish delivers one event to every sink before returning.
func (h *Hub) Publish(e events.Event) {
	for _, s := range h.sinks {
		h.deliver(s, e)
	}
}

func (h *Hub) deliver(s Sink, e events.Event) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(h.warn, "warning: sink %T failed handling event: %v\n", s, r)
		}
	}()
	s.Handle(e)
}

// Close shuts every sink down, collecting errors.
func (h *Hub) Close() error {
	var errs []error
	for _, s := range h.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing sink %T: %w", s, err))
		}
	}
	return errors.Join(errs...)
}
