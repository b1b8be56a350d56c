// Package monitor streams observed input events to a local WebSocket client
// for inspection. The hub never suppresses anything; it is a read-only tap
// on the event stream and a sink for hotkey callback failure reports.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/t4euyoon/interceptor"
	"github.com/t4euyoon/interceptor/hotkey"
	"github.com/t4euyoon/interceptor/interception"
)

// writeDeadline bounds a single WebSocket write. Generous for localhost; a
// client frozen longer than this is treated as dead.
const writeDeadline = 5 * time.Second

// readDeadline is how long the hub waits for any read activity (including
// pong responses) before considering the connection dead.
const readDeadline = 90 * time.Second

// pingInterval is the keepalive ping period; readDeadline allows ~3 missed
// pings.
const pingInterval = 30 * time.Second

// maxReadMessageSize limits incoming messages. The hub expects no client
// payloads at all, so anything large is malformed.
const maxReadMessageSize = 4 * 1024

// wsUpgrader is shared across upgrades; the Upgrader is stateless.
var wsUpgrader = websocket.Upgrader{
	// The server binds to 127.0.0.1 only, so the origin check is moot.
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 4 * 1024,
}

// Options configures the hub.
type Options struct {
	// Addr is the listen address. Defaults to "127.0.0.1:0" for an
	// OS-assigned port; the hub refuses non-loopback addresses.
	Addr string
}

// EventRecord is the JSON document broadcast for each observed input event.
type EventRecord struct {
	Type       string   `json:"type"` // "event"
	Device     string   `json:"device"`
	Kind       string   `json:"kind"` // "key" or "mouse"
	Stroke     string   `json:"stroke"`
	Pressed    []string `json:"pressed"`
	Suppressed bool     `json:"suppressed"`
	TS         int64    `json:"ts"` // unix milliseconds
}

// PanicRecord is the JSON document broadcast when a hotkey callback panics.
type PanicRecord struct {
	Type   string `json:"type"` // "callback_panic"
	Handle string `json:"handle"`
	Value  string `json:"value"`
	Stack  string `json:"stack"`
	TS     int64  `json:"ts"`
}

// Hub is a single-connection WebSocket broadcaster. A new client replaces
// the current one, which covers inspector page reloads.
//
// Lock ordering (never acquire in reverse): writeMu -> mu. mu protects the
// connection pointer; writeMu serializes WriteMessage calls, which
// gorilla/websocket does not allow concurrently.
//
// Write failure policy: any failed write disconnects the client; the
// inspector must reconnect.
type Hub struct {
	opts Options

	mu   sync.RWMutex
	conn *websocket.Conn

	writeMu sync.Mutex

	listener net.Listener
	server   *http.Server
	url      string

	closeOnce sync.Once
}

// NewHub creates a hub; it does not listen until Start.
func NewHub(opts Options) *Hub {
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:0"
	}
	return &Hub{opts: opts}
}

// Start begins listening and serving WebSocket upgrades at /ws. The context
// becomes the base context of request handlers; stopping the server itself
// requires Stop.
func (h *Hub) Start(ctx context.Context) error {
	if h.server != nil {
		return fmt.Errorf("monitor: already started")
	}

	ln, err := net.Listen("tcp", h.opts.Addr)
	if err != nil {
		return fmt.Errorf("monitor: listen: %w", err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	if !addr.IP.IsLoopback() {
		ln.Close()
		return fmt.Errorf("monitor: refusing non-loopback address %s", addr)
	}
	h.listener = ln
	h.url = fmt.Sprintf("ws://127.0.0.1:%d/ws", addr.Port)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWS)

	h.server = &http.Server{
		Handler: mux,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if serveErr := h.server.Serve(ln); serveErr != nil && serveErr != http.ErrServerClosed {
			slog.Error("[monitor] server error", "error", serveErr)
		}
	}()

	slog.Info("[monitor] inspector listening", "url", h.url)
	return nil
}

// Stop shuts the server down and closes the active connection. Idempotent.
func (h *Hub) Stop() error {
	var stopErr error
	h.closeOnce.Do(func() {
		h.mu.Lock()
		conn := h.conn
		h.conn = nil
		h.mu.Unlock()

		if conn != nil {
			if err := conn.Close(); err != nil {
				slog.Debug("[monitor] connection close during stop", "error", err)
			}
		}

		if h.server != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := h.server.Shutdown(shutdownCtx); err != nil {
				stopErr = fmt.Errorf("monitor: shutdown: %w", err)
			}
		}

		slog.Info("[monitor] stopped")
	})
	return stopErr
}

// URL returns the WebSocket URL, empty before Start.
func (h *Hub) URL() string { return h.url }

// HasActiveConnection reports whether an inspector is connected.
func (h *Hub) HasActiveConnection() bool {
	h.mu.RLock()
	active := h.conn != nil
	h.mu.RUnlock()
	return active
}

// Listener returns an event listener that broadcasts each event and never
// suppresses. Register it with the interception context; remove it before
// Stop.
func (h *Hub) Listener() interception.Listener {
	return func(ev *interception.EventInfo) bool {
		h.broadcastEvent(ev)
		return false
	}
}

// ReportCallbackPanic implements hotkey.DiagnosticSink.
func (h *Hub) ReportCallbackPanic(handle hotkey.Handle, value any, stack []byte) {
	h.broadcast(PanicRecord{
		Type:   "callback_panic",
		Handle: handle.String(),
		Value:  fmt.Sprint(value),
		Stack:  string(stack),
		TS:     time.Now().UnixMilli(),
	})
}

func (h *Hub) broadcastEvent(ev *interception.EventInfo) {
	kind := "mouse"
	if _, ok := ev.Stroke.(interceptor.KeyStroke); ok {
		kind = "key"
	}
	pressed := make([]string, 0, len(ev.Pressed))
	for code := range ev.Pressed {
		pressed = append(pressed, code.String())
	}
	h.broadcast(EventRecord{
		Type:    "event",
		Device:  ev.Device.String(),
		Kind:    kind,
		Stroke:  fmt.Sprint(ev.Stroke),
		Pressed: pressed,
		TS:      time.Now().UnixMilli(),
	})
}

// broadcast sends one JSON document to the connected client, if any.
// Dropping records when no client is connected is deliberate: the hub is an
// inspection tap, not a durable log.
func (h *Hub) broadcast(record any) {
	h.mu.RLock()
	conn := h.conn
	h.mu.RUnlock()
	if conn == nil {
		return
	}

	payload, err := json.Marshal(record)
	if err != nil {
		slog.Warn("[monitor] failed to encode record", "error", err)
		return
	}

	// The connection may be replaced between the read above and the write
	// below. Harmless: the write on the stale conn fails and clearIfCurrent
	// compares pointers, so it never clears the replacement.
	h.writeMu.Lock()
	if !h.setWriteDeadlineOrClose(conn, writeDeadline) {
		h.writeMu.Unlock()
		return
	}
	writeErr := conn.WriteMessage(websocket.TextMessage, payload)
	h.clearWriteDeadline(conn)
	h.writeMu.Unlock()

	if writeErr != nil {
		slog.Warn("[monitor] write failed, closing connection", "error", writeErr)
		h.clearIfCurrent(conn)
		h.closeConn(conn, "write error in broadcast")
	}
}

// clearIfCurrent clears the hub's connection only if conn is still current.
// Caller must not hold h.mu.
func (h *Hub) clearIfCurrent(conn *websocket.Conn) {
	h.mu.Lock()
	if h.conn == conn {
		h.conn = nil
	}
	h.mu.Unlock()
}

// closeConn closes a connection; double-close errors are expected when two
// paths race and are logged at Debug.
func (h *Hub) closeConn(conn *websocket.Conn, reason string) {
	if err := conn.Close(); err != nil {
		slog.Debug("[monitor] connection close", "reason", reason, "error", err)
	}
}

// setWriteDeadlineOrClose arms a write deadline. A failure means the
// connection is unusable and it is torn down.
func (h *Hub) setWriteDeadlineOrClose(conn *websocket.Conn, d time.Duration) bool {
	if err := conn.SetWriteDeadline(time.Now().Add(d)); err != nil {
		slog.Warn("[monitor] SetWriteDeadline failed, closing connection", "error", err)
		h.clearIfCurrent(conn)
		h.closeConn(conn, "SetWriteDeadline failure")
		return false
	}
	return true
}

// clearWriteDeadline resets the deadline after a successful write. Failure
// is non-fatal; the next write arms a fresh deadline.
func (h *Hub) clearWriteDeadline(conn *websocket.Conn) {
	if err := conn.SetWriteDeadline(time.Time{}); err != nil {
		slog.Debug("[monitor] clearWriteDeadline failed", "error", err)
	}
}

// handleWS upgrades the request and runs the read pump. One connection at a
// time; a new client replaces the old one.
func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("[monitor] upgrade failed", "error", err)
		return
	}

	conn.SetReadLimit(maxReadMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		slog.Warn("[monitor] SetReadDeadline failed on new connection", "error", err)
		h.closeConn(conn, "initial SetReadDeadline failure")
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	h.mu.Lock()
	oldConn := h.conn
	h.conn = conn
	h.mu.Unlock()

	if oldConn != nil {
		h.closeConn(oldConn, "replaced by new connection")
	}

	slog.Info("[monitor] inspector connected", "remoteAddr", conn.RemoteAddr())

	pingDone := make(chan struct{})
	go h.pingLoop(conn, pingDone)

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("[monitor] handleWS recovered",
				"panic", rec, "stack", string(debug.Stack()))
		}
		close(pingDone)
		h.clearIfCurrent(conn)
		h.closeConn(conn, "read pump exit")
		slog.Info("[monitor] inspector disconnected")
	}()

	// The hub is broadcast-only; the read pump exists to observe closes and
	// keep pong handling alive. Client payloads are ignored.
	for {
		if _, _, readErr := conn.ReadMessage(); readErr != nil {
			if websocket.IsUnexpectedCloseError(readErr, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("[monitor] read error", "error", readErr)
			}
			return
		}
	}
}

// pingLoop sends keepalive pings until done closes or a ping fails.
func (h *Hub) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("[monitor] pingLoop recovered",
				"panic", rec, "stack", string(debug.Stack()))
			h.clearIfCurrent(conn)
			h.closeConn(conn, "pingLoop panic recovery")
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			h.writeMu.Lock()
			if !h.setWriteDeadlineOrClose(conn, writeDeadline) {
				h.writeMu.Unlock()
				return
			}
			pingErr := conn.WriteMessage(websocket.PingMessage, nil)
			h.clearWriteDeadline(conn)
			h.writeMu.Unlock()

			if pingErr != nil {
				slog.Debug("[monitor] ping failed, connection likely dead", "error", pingErr)
				h.clearIfCurrent(conn)
				h.closeConn(conn, "ping failure")
				return
			}
		}
	}
}
