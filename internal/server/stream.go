package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hostdash/hostdash/internal/capability"
)

const (
	minStreamInterval     = 2 * time.Second
	maxStreamInterval     = 60 * time.Second
	defaultStreamInterval = 5 * time.Second
	wsWriteTimeout        = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// closeOnRead cancels the returned context once the peer closes the
// connection. Clients never send data.
func closeOnRead(parent context.Context, conn *websocket.Conn) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return ctx, cancel
}

func closeNormally(conn *websocket.Conn) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

// statusStream pushes a status report over a websocket every interval
// seconds until the client disconnects.
func (s *Server) statusStream(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Capabilities.Require(capability.Telemetry); err != nil || s.opts.Telemetry == nil {
		s.writeError(w, r, unavailable(err, capability.Telemetry))
		return
	}
	interval, err := durationParam(r, "interval", defaultStreamInterval, minStreamInterval, maxStreamInterval)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !websocket.IsWebSocketUpgrade(r) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "websocket upgrade required"})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetReadLimit(1024)

	ctx, cancel := closeOnRead(r.Context(), conn)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		rep, err := s.opts.Telemetry.Status(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.log.ErrorErr("status stream sample failed", err)
			}
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(rep); err != nil {
			return
		}
		select {
		case <-ctx.Done():
			closeNormally(conn)
			return
		case <-ticker.C:
		}
	}
}

// fileStream pushes changes to the children of ?path= as they happen. Path
// errors are reported as plain HTTP errors before the upgrade.
func (s *Server) fileStream(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "websocket upgrade required"})
		return
	}
	watchCtx, stopWatch := context.WithCancel(r.Context())
	defer stopWatch()
	changes, err := s.opts.Browser.Watch(watchCtx, r.URL.Query().Get("path"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetReadLimit(1024)

	ctx, cancel := closeOnRead(watchCtx, conn)
	defer cancel()

	for {
		select {
		case c, ok := <-changes:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(c); err != nil {
				return
			}
		case <-ctx.Done():
			closeNormally(conn)
			return
		}
	}
}
