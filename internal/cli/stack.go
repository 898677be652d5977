package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/hostdash/hostdash/internal/audit"
	"github.com/hostdash/hostdash/internal/browser"
	"github.com/hostdash/hostdash/internal/capability"
	"github.com/hostdash/hostdash/internal/recorder"
	"github.com/hostdash/hostdash/internal/screen"
	"github.com/hostdash/hostdash/internal/telemetry"
	"github.com/hostdash/hostdash/pkg/config"
	"github.com/hostdash/hostdash/pkg/logging"
	"github.com/hostdash/hostdash/pkg/metrics"
	"github.com/hostdash/hostdash/pkg/model"
	"github.com/hostdash/hostdash/pkg/webhook"
)

// stack holds every collaborator the dashboard needs, built from config.
type stack struct {
	cfg       *config.Config
	log       *logging.Logger
	metrics   *metrics.Registry
	trail     audit.Trail
	hooks     *webhook.Client
	recorder  *recorder.Recorder
	browser   *browser.Browser
	telemetry *telemetry.Collector
	screen    *screen.Grabber
	caps      *capability.Registry
}

func recorderSource(cfg *config.Config) recorder.Source {
	if cfg.Recorder.Source == "none" {
		return recorder.UnavailableSource{Reason: "input capture disabled by recorder.source"}
	}
	return &recorder.TerminalSource{In: os.Stdin}
}

// buildStack wires the components described by cfg and probes the optional
// host capabilities.
func buildStack(ctx context.Context, cfg *config.Config, log *logging.Logger) (*stack, error) {
	s := &stack{cfg: cfg, log: log, metrics: metrics.NewRegistry()}

	var opts []audit.Option
	if len(cfg.Webhooks) > 0 {
		hooks, err := webhook.HooksFromConfig(cfg.Webhooks)
		if err != nil {
			return nil, err
		}
		s.hooks = webhook.NewClient(webhook.Options{Hooks: hooks, Logger: log})
		opts = append(opts, audit.WithNotifier(func(rec model.AuditRecord) {
			s.hooks.Notify(webhook.EventFromRecord(rec))
		}))
	}
	s.trail = trailFor(cfg, opts...)

	b, err := browser.New(browser.Options{
		Root:    cfg.Browser.Root,
		Logger:  log,
		Metrics: s.metrics,
		Trail:   s.trail,
	})
	if err != nil {
		s.close()
		return nil, fmt.Errorf("browse root %q: %w", cfg.Browser.Root, err)
	}
	s.browser = b

	s.recorder = recorder.New(recorder.Options{
		Source:       recorderSource(cfg),
		Capacity:     cfg.Recorder.Capacity,
		DefaultLimit: cfg.Recorder.SnapshotLimit,
		Logger:       log,
		Metrics:      s.metrics,
		Trail:        s.trail,
	})

	pinger := newPinger(cfg)
	s.telemetry = telemetry.NewCollector(telemetry.Options{Pinger: pinger, Logger: log, Trail: s.trail})
	s.screen = screen.NewGrabber()
	s.caps = registerCapabilities(ctx, s.recorder, s.telemetry, s.screen, pinger)
	return s, nil
}

// close stops capture and flushes pending notifications.
func (s *stack) close() {
	if s.recorder != nil {
		if err := s.recorder.Stop(); err != nil {
			s.log.ErrorErr("stop recorder", err)
		}
	}
	if s.hooks != nil {
		s.hooks.Close()
	}
}

func newPinger(cfg *config.Config) telemetry.TCPPinger {
	return telemetry.TCPPinger{
		Target:  cfg.Telemetry.PingTarget,
		Timeout: config.Duration(cfg.Telemetry.PingTimeout, 0),
	}
}

func registerCapabilities(ctx context.Context, rec *recorder.Recorder, tel *telemetry.Collector, grab *screen.Grabber, pinger telemetry.TCPPinger) *capability.Registry {
	caps := capability.NewRegistry()
	caps.Register(ctx, capability.Func(capability.InputCapture, rec.Probe))
	caps.Register(ctx, capability.Func(capability.Screenshot, grab.Probe))
	caps.Register(ctx, capability.Func(capability.Telemetry, tel.Probe))
	caps.Register(ctx, capability.Func(capability.Ping, pinger.Probe))
	return caps
}

// probeHost builds only what capability probing needs. It does not require
// a usable browse root.
func probeHost(ctx context.Context, cfg *config.Config, log *logging.Logger) *capability.Registry {
	rec := recorder.New(recorder.Options{Source: recorderSource(cfg), Logger: log})
	pinger := newPinger(cfg)
	tel := telemetry.NewCollector(telemetry.Options{Pinger: pinger, Logger: log})
	return registerCapabilities(ctx, rec, tel, screen.NewGrabber(), pinger)
}
