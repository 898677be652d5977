// Package metrics provides Prometheus metrics export for hostdash.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hostdash/hostdash/pkg/errclass"
)

// Registry holds all hostdash metrics. A nil *Registry is valid and records
// nothing, so components can take one optionally.
type Registry struct {
	reg *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	recorderEvents  prometheus.Counter
	recorderDropped prometheus.Counter
	recorderRunning prometheus.Gauge
	browserOps      *prometheus.CounterVec
}

// NewRegistry creates a registry with process and Go runtime collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hostdash_http_requests_total",
			Help: "HTTP requests served, by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hostdash_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		recorderEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hostdash_recorder_events_total",
			Help: "Input events appended to the recorder buffer.",
		}),
		recorderDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hostdash_recorder_dropped_total",
			Help: "Input events evicted from the recorder buffer or dropped by the callback.",
		}),
		recorderRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hostdash_recorder_running",
			Help: "1 while a capture session is active.",
		}),
		browserOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hostdash_browser_operations_total",
			Help: "File browser operations by kind and result class.",
		}, []string{"op", "result"}),
	}
	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.httpRequests,
		r.httpDuration,
		r.recorderEvents,
		r.recorderDropped,
		r.recorderRunning,
		r.browserOps,
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// RecordHTTP records one served request.
func (r *Registry) RecordHTTP(route, method string, code int, d time.Duration) {
	if r == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	r.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// RecordEvent counts one appended input event.
func (r *Registry) RecordEvent() {
	if r == nil {
		return
	}
	r.recorderEvents.Inc()
}

// RecordDropped counts one evicted or dropped input event.
func (r *Registry) RecordDropped() {
	if r == nil {
		return
	}
	r.recorderDropped.Inc()
}

// SetRecording reflects the recorder running state.
func (r *Registry) SetRecording(running bool) {
	if r == nil {
		return
	}
	if running {
		r.recorderRunning.Set(1)
	} else {
		r.recorderRunning.Set(0)
	}
}

// RecordBrowserOp counts a browser operation, labelled by its error class.
func (r *Registry) RecordBrowserOp(op string, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = errclass.Code(err)
		if result == "" {
			result = "error"
		}
	}
	r.browserOps.WithLabelValues(op, result).Inc()
}
