// Package capability tracks optional host features that may be missing on a
// given machine, such as a display for screenshots or a terminal for input
// capture. Handlers consult the registry and answer 501 when a feature is
// absent instead of failing deep inside a collaborator.
package capability

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hostdash/hostdash/pkg/errclass"
	"github.com/hostdash/hostdash/pkg/model"
)

// Well-known capability names.
const (
	InputCapture = "input-capture"
	Screenshot   = "screenshot"
	Telemetry    = "telemetry"
	Ping         = "ping"
)

const probeTimeout = 5 * time.Second

// Capability is an optional feature that can report whether it works here.
type Capability interface {
	Name() string
	Probe(ctx context.Context) error
}

type funcCapability struct {
	name  string
	probe func(ctx context.Context) error
}

func (f funcCapability) Name() string                    { return f.name }
func (f funcCapability) Probe(ctx context.Context) error { return f.probe(ctx) }

// Func builds a Capability from a probe function.
func Func(name string, probe func(ctx context.Context) error) Capability {
	return funcCapability{name: name, probe: probe}
}

// Registry holds probe results. Each capability is probed once when it is
// registered and again on Refresh.
type Registry struct {
	mu      sync.RWMutex
	caps    map[string]Capability
	results map[string]error
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		caps:    make(map[string]Capability),
		results: make(map[string]error),
	}
}

// Register probes c and records the result, replacing any capability with
// the same name.
func (r *Registry) Register(ctx context.Context, c Capability) {
	err := probe(ctx, c)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.caps[c.Name()] = c
	r.results[c.Name()] = err
}

// Refresh re-probes every registered capability.
func (r *Registry) Refresh(ctx context.Context) {
	r.mu.RLock()
	caps := make([]Capability, 0, len(r.caps))
	for _, c := range r.caps {
		caps = append(caps, c)
	}
	r.mu.RUnlock()

	for _, c := range caps {
		err := probe(ctx, c)
		r.mu.Lock()
		r.results[c.Name()] = err
		r.mu.Unlock()
	}
}

func probe(ctx context.Context, c Capability) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return c.Probe(ctx)
}

// Available reports whether name is registered and its last probe succeeded.
func (r *Registry) Available(name string) bool {
	return r.Require(name) == nil
}

// Require returns ErrCapabilityUnavailable when name is unknown or its last
// probe failed.
func (r *Registry) Require(name string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	err, ok := r.results[name]
	if !ok {
		return errclass.ErrCapabilityUnavailable.WithMessagef("%s: not registered", name)
	}
	if err != nil {
		return errclass.ErrCapabilityUnavailable.WithMessagef("%s: %v", name, err)
	}
	return nil
}

// Reports returns one report per capability, sorted by name.
func (r *Registry) Reports() []model.CapabilityReport {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.CapabilityReport, 0, len(r.results))
	for name, err := range r.results {
		rep := model.CapabilityReport{Name: name, Available: err == nil}
		if err != nil {
			rep.Reason = err.Error()
		}
		out = append(out, rep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
