package recorder

import (
	"context"
	"errors"
)

// Handle is an open capture. Close stops delivery; events already in flight
// may still reach the callback but are discarded by the recorder.
type Handle interface {
	Close() error
}

// HandleFunc adapts a function to Handle.
type HandleFunc func() error

func (f HandleFunc) Close() error { return f() }

// Source opens a capture that calls emit once per input event with a
// human-readable description. emit may be called from any goroutine.
type Source interface {
	Open(emit func(description string)) (Handle, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(emit func(description string)) (Handle, error)

func (f SourceFunc) Open(emit func(string)) (Handle, error) { return f(emit) }

// Prober is implemented by sources that can report availability without
// opening a capture.
type Prober interface {
	Probe(ctx context.Context) error
}

// UnavailableSource always fails to open with Reason.
type UnavailableSource struct {
	Reason string
}

func (s UnavailableSource) reason() error {
	if s.Reason == "" {
		return errors.New("input capture is disabled")
	}
	return errors.New(s.Reason)
}

// Open always fails.
func (s UnavailableSource) Open(func(string)) (Handle, error) { return nil, s.reason() }

// Probe always fails.
func (s UnavailableSource) Probe(context.Context) error { return s.reason() }
