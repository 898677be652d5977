// Package recorder buffers input events delivered by a capture source while a
// capture session is active.
//
// A Recorder owns one bounded ring buffer and at most one open capture. The
// source's callback and HTTP readers share a single mutex, so every snapshot
// is a consistent copy of whole records. Each session carries a generation
// number; once Stop returns, callbacks from that session are discarded even if
// the source keeps delivering.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hostdash/hostdash/internal/audit"
	"github.com/hostdash/hostdash/pkg/errclass"
	"github.com/hostdash/hostdash/pkg/logging"
	"github.com/hostdash/hostdash/pkg/metrics"
	"github.com/hostdash/hostdash/pkg/model"
)

const (
	DefaultCapacity      = 10000
	DefaultSnapshotLimit = 1000
)

// Options configures a Recorder. Zero values select defaults.
type Options struct {
	Source       Source
	Capacity     int
	DefaultLimit int
	Clock        func() time.Time
	Logger       *logging.Logger
	Metrics      *metrics.Registry
	Trail        audit.Trail
}

// Status summarizes the recorder state.
type Status struct {
	Running   bool      `json:"running"`
	SessionID string    `json:"session_id,omitempty"`
	StartedAt time.Time `json:"started_at"`
	Buffered  int       `json:"buffered"`
	Dropped   uint64    `json:"dropped"`
	Capacity  int       `json:"capacity"`
}

// Recorder is safe for concurrent use.
type Recorder struct {
	source       Source
	defaultLimit int
	clock        func() time.Time
	log          *logging.Logger
	metrics      *metrics.Registry
	trail        audit.Trail

	// lifecycle serializes Start and Stop so only one handle is ever open.
	lifecycle sync.Mutex

	mu        sync.Mutex
	buf       []model.EventRecord
	head      int
	count     int
	dropped   uint64
	gen       uint64
	activeGen uint64
	handle    Handle
	sessionID string
	startedAt time.Time
}

// New creates an idle recorder.
func New(opts Options) *Recorder {
	if opts.Source == nil {
		opts.Source = UnavailableSource{}
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultSnapshotLimit
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.Global()
	}
	if opts.Trail == nil {
		opts.Trail = audit.Discard
	}
	return &Recorder{
		source:       opts.Source,
		defaultLimit: opts.DefaultLimit,
		clock:        opts.Clock,
		log:          opts.Logger.WithFields(map[string]any{"component": "recorder"}),
		metrics:      opts.Metrics,
		trail:        opts.Trail,
		buf:          make([]model.EventRecord, opts.Capacity),
	}
}

// Start begins a capture session. It is a no-op when already running. A
// source that cannot be opened yields ErrCaptureUnavailable wrapping the
// cause, and the recorder stays idle.
func (r *Recorder) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.mu.Lock()
	if r.handle != nil {
		r.mu.Unlock()
		return nil
	}
	r.gen++
	gen := r.gen
	r.activeGen = gen
	r.mu.Unlock()

	h, err := r.source.Open(r.callback(gen))
	if err == nil && h == nil {
		err = errclass.ErrCaptureUnavailable.WithMessage("source returned no handle")
	}
	if err != nil {
		r.mu.Lock()
		r.activeGen = 0
		r.mu.Unlock()
		if errors.Is(err, errclass.ErrCaptureUnavailable) {
			return err
		}
		return errclass.ErrCaptureUnavailable.Wrap(err)
	}

	session := uuid.NewString()
	r.mu.Lock()
	r.handle = h
	r.sessionID = session
	r.startedAt = r.clock()
	r.mu.Unlock()

	r.metrics.SetRecording(true)
	r.log.Info("capture started", map[string]any{"session_id": session})
	r.audit(model.EventTypeCaptureStart, map[string]any{"session_id": session})
	return nil
}

// Stop ends the capture session. It is a no-op when idle. No event is
// appended after Stop returns. The handle's Close error is returned but the
// recorder is idle regardless.
func (r *Recorder) Stop() error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.mu.Lock()
	h := r.handle
	session := r.sessionID
	r.activeGen = 0
	r.handle = nil
	r.sessionID = ""
	r.startedAt = time.Time{}
	r.mu.Unlock()

	if h == nil {
		return nil
	}
	err := h.Close()
	r.metrics.SetRecording(false)
	r.log.Info("capture stopped", map[string]any{"session_id": session})
	r.audit(model.EventTypeCaptureStop, map[string]any{"session_id": session})
	if err != nil {
		return fmt.Errorf("close capture: %w", err)
	}
	return nil
}

// Running reports whether a capture session is active.
func (r *Recorder) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handle != nil
}

// Snapshot returns a copy of the most recent limit records in append order.
// limit <= 0 selects the configured default.
func (r *Recorder) Snapshot(limit int) []model.EventRecord {
	if limit <= 0 {
		limit = r.defaultLimit
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	n := min(limit, r.count)
	out := make([]model.EventRecord, n)
	capacity := len(r.buf)
	first := r.head + r.count - n
	for i := 0; i < n; i++ {
		out[i] = r.buf[(first+i)%capacity]
	}
	return out
}

// Status returns the current recorder state.
func (r *Recorder) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{
		Running:   r.handle != nil,
		SessionID: r.sessionID,
		StartedAt: r.startedAt,
		Buffered:  r.count,
		Dropped:   r.dropped,
		Capacity:  len(r.buf),
	}
}

// Probe reports whether the configured source can be opened.
func (r *Recorder) Probe(ctx context.Context) error {
	if p, ok := r.source.(Prober); ok {
		return p.Probe(ctx)
	}
	return nil
}

// callback returns the emit function bound to session gen.
func (r *Recorder) callback(gen uint64) func(string) {
	return func(description string) {
		defer func() {
			if p := recover(); p != nil {
				r.log.Error("capture callback panicked", map[string]any{"panic": fmt.Sprint(p)})
				r.metrics.RecordDropped()
			}
		}()

		if description == "" {
			r.log.Debug("dropping empty input event")
			r.mu.Lock()
			current := r.activeGen == gen
			if current {
				r.dropped++
			}
			r.mu.Unlock()
			if current {
				r.metrics.RecordDropped()
			}
			return
		}

		r.mu.Lock()
		if r.activeGen != gen {
			r.mu.Unlock()
			return
		}
		evicted := r.push(model.EventRecord{Timestamp: r.clock(), Payload: description})
		r.mu.Unlock()

		r.metrics.RecordEvent()
		if evicted {
			r.metrics.RecordDropped()
		}
	}
}

// push appends rec, evicting the oldest record when full. Caller holds mu.
func (r *Recorder) push(rec model.EventRecord) bool {
	capacity := len(r.buf)
	if r.count < capacity {
		r.buf[(r.head+r.count)%capacity] = rec
		r.count++
		return false
	}
	r.buf[r.head] = rec
	r.head = (r.head + 1) % capacity
	r.dropped++
	return true
}

func (r *Recorder) audit(eventType model.AuditEventType, details map[string]any) {
	if err := r.trail.Append(eventType, "", details); err != nil {
		r.log.ErrorErr("audit append failed", err, map[string]any{"event": string(eventType)})
	}
}
