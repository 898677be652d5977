// Package server exposes the dashboard over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hostdash/hostdash/internal/browser"
	"github.com/hostdash/hostdash/internal/capability"
	"github.com/hostdash/hostdash/internal/recorder"
	"github.com/hostdash/hostdash/pkg/logging"
	"github.com/hostdash/hostdash/pkg/metrics"
	"github.com/hostdash/hostdash/pkg/model"
)

const (
	defaultMaxUploadBytes    = 512 << 20
	defaultReadHeaderTimeout = 10 * time.Second
	defaultShutdownTimeout   = 5 * time.Second
)

// StatusSource provides host telemetry.
type StatusSource interface {
	Status(ctx context.Context) (model.StatusReport, error)
	Processes(ctx context.Context, limit int) ([]model.ProcessInfo, error)
	Terminate(ctx context.Context, pid int32) error
}

// Screenshotter captures a display as PNG.
type Screenshotter interface {
	PNG(ctx context.Context, display int) ([]byte, error)
}

// Options wires the server to its collaborators. Recorder, Browser and
// Capabilities are required.
type Options struct {
	Recorder     *recorder.Recorder
	Browser      *browser.Browser
	Telemetry    StatusSource
	Screen       Screenshotter
	Capabilities *capability.Registry
	Metrics      *metrics.Registry
	Logger       *logging.Logger

	MaxUploadBytes    int64
	SnapshotLimit     int
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server is the dashboard HTTP server.
type Server struct {
	opts Options
	log  *logging.Logger
}

// New validates opts and returns a Server.
func New(opts Options) (*Server, error) {
	if opts.Recorder == nil || opts.Browser == nil || opts.Capabilities == nil {
		return nil, errors.New("server: recorder, browser and capabilities are required")
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if opts.ReadHeaderTimeout <= 0 {
		opts.ReadHeaderTimeout = defaultReadHeaderTimeout
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Global()
	}
	return &Server{opts: opts, log: opts.Logger.WithFields(map[string]any{"component": "http"})}, nil
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(s.instrument)

	r.Get("/", s.index)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { writeText(w, http.StatusOK, "ok\n") })
	r.Method(http.MethodGet, "/metrics", s.opts.Metrics.Handler())
	r.Get("/ws/status", s.statusStream)
	r.Get("/ws/files", s.fileStream)

	r.Route("/api", func(r chi.Router) {
		r.Get("/capabilities", s.capabilities)
		r.Get("/status", s.status)
		r.Get("/processes", s.processes)
		r.Post("/processes/{pid}/kill", s.killProcess)
		r.Get("/screenshot", s.screenshot)

		r.Get("/capture", s.captureLogs)
		r.Post("/capture/{cmd}", s.captureControl)

		r.Get("/files", s.listFiles)
		r.Get("/download", s.download)
		r.Post("/upload", s.upload)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	})
	return r
}

// Run listens on addr and serves until ctx is cancelled, then shuts down
// gracefully. ready, if non-nil, receives the bound address.
func (s *Server) Run(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, ready)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, ready func(net.Addr)) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: s.opts.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.log.Info("listening", map[string]any{"addr": ln.Addr().String()})
	if ready != nil {
		ready(ln.Addr())
	}

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	}
}
