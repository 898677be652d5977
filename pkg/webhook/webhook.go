// Package webhook delivers hostdash audit events to HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gobwas/glob"

	"github.com/hostdash/hostdash/pkg/config"
	"github.com/hostdash/hostdash/pkg/logging"
	"github.com/hostdash/hostdash/pkg/model"
)

// Event is the payload posted to a webhook.
type Event struct {
	Event      model.AuditEventType `json:"event"`
	Timestamp  string               `json:"timestamp"`
	Path       string               `json:"path,omitempty"`
	Details    map[string]any       `json:"details,omitempty"`
	RecordHash string               `json:"record_hash,omitempty"`
}

// EventFromRecord converts an audit record into a webhook payload.
func EventFromRecord(rec model.AuditRecord) Event {
	return Event{
		Event:      rec.EventType,
		Timestamp:  rec.Timestamp.UTC().Format(time.RFC3339Nano),
		Path:       rec.Path,
		Details:    rec.Details,
		RecordHash: string(rec.RecordHash),
	}
}

// Hook is a single delivery target. Events are glob patterns over event
// type names ("file_*", "capture_{start,stop}"); an empty list matches all.
type Hook struct {
	URL     string
	Secret  string
	Events  []model.AuditEventType
	Timeout time.Duration

	patterns []glob.Glob
}

func (h *Hook) compile() error {
	h.patterns = nil
	for _, e := range h.Events {
		g, err := glob.Compile(string(e))
		if err != nil {
			return fmt.Errorf("event pattern %q: %w", e, err)
		}
		h.patterns = append(h.patterns, g)
	}
	return nil
}

func (h Hook) matches(ev model.AuditEventType) bool {
	if len(h.Events) == 0 {
		return true
	}
	if len(h.patterns) == 0 {
		for _, e := range h.Events {
			if e == ev {
				return true
			}
		}
		return false
	}
	for _, g := range h.patterns {
		if g.Match(string(ev)) {
			return true
		}
	}
	return false
}

// HooksFromConfig validates the configured webhook entries.
func HooksFromConfig(cfgs []config.WebhookConfig) ([]Hook, error) {
	hooks := make([]Hook, 0, len(cfgs))
	for i, c := range cfgs {
		u, err := url.Parse(c.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("webhooks[%d]: invalid url %q", i, c.URL)
		}
		h := Hook{
			URL:     c.URL,
			Secret:  c.Secret,
			Timeout: config.Duration(c.Timeout, 10*time.Second),
		}
		for _, e := range c.Events {
			h.Events = append(h.Events, model.AuditEventType(e))
		}
		if err := h.compile(); err != nil {
			return nil, fmt.Errorf("webhooks[%d]: %w", i, err)
		}
		hooks = append(hooks, h)
	}
	return hooks, nil
}

// Options configures a Client.
type Options struct {
	Hooks      []Hook
	MaxRetries int
	RetryDelay time.Duration
	QueueSize  int
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// Client posts events to the configured hooks. Notify never blocks the
// caller; queued deliveries are drained on Close.
type Client struct {
	opts   Options
	http   *http.Client
	log    *logging.Logger
	queue  chan job
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

type job struct {
	event Event
	hook  Hook
}

// NewClient creates a client and starts its delivery worker.
func NewClient(opts Options) *Client {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 100
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	log := opts.Logger
	if log == nil {
		log = logging.Global()
	}

	hooks := make([]Hook, 0, len(opts.Hooks))
	for _, h := range opts.Hooks {
		if err := h.compile(); err != nil {
			log.Warn("webhook disabled", map[string]any{"url": h.URL, "error": err.Error()})
			continue
		}
		hooks = append(hooks, h)
	}
	opts.Hooks = hooks

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		opts:   opts,
		http:   hc,
		log:    log.WithFields(map[string]any{"component": "webhook"}),
		queue:  make(chan job, opts.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	c.wg.Add(1)
	go c.worker()
	return c
}

func (c *Client) worker() {
	defer c.wg.Done()
	for {
		select {
		case <-c.ctx.Done():
			for {
				select {
				case j := <-c.queue:
					c.deliverLogged(j)
				default:
					return
				}
			}
		case j := <-c.queue:
			c.deliverLogged(j)
		}
	}
}

func (c *Client) deliverLogged(j job) {
	if err := c.deliver(context.Background(), j); err != nil {
		c.log.ErrorErr("webhook delivery failed", err, map[string]any{"url": j.hook.URL, "event": string(j.event.Event)})
	}
}

// Notify queues ev for every matching hook. Events are dropped with a
// warning when the queue is full or the client is closed.
func (c *Client) Notify(ev Event) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	for _, h := range c.opts.Hooks {
		if !h.matches(ev.Event) {
			continue
		}
		select {
		case c.queue <- job{event: ev, hook: h}:
		default:
			c.log.Warn("webhook queue full, dropping event", map[string]any{"event": string(ev.Event), "url": h.URL})
		}
	}
}

// Deliver sends ev synchronously to every matching hook and returns the
// last error encountered.
func (c *Client) Deliver(ctx context.Context, ev Event) error {
	var lastErr error
	for _, h := range c.opts.Hooks {
		if !h.matches(ev.Event) {
			continue
		}
		if err := c.deliver(ctx, job{event: ev, hook: h}); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (c *Client) deliver(ctx context.Context, j job) error {
	payload, err := json.Marshal(j.event)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.opts.RetryDelay):
			}
		}
		if lastErr = c.post(ctx, j.hook, payload); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (c *Client) post(ctx context.Context, h Hook, payload []byte) error {
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "hostdash-webhook/1.0")
	if h.Secret != "" {
		req.Header.Set("X-Hostdash-Signature", Sign(payload, h.Secret))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("http %d: %s", resp.StatusCode, bytes.TrimSpace(body))
}

// Sign returns the HMAC-SHA256 signature header value for payload.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Close stops accepting events and waits for queued deliveries.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	return nil
}
