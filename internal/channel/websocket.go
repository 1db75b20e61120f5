package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/iconform/internal/security"
	"github.com/jmylchreest/iconform/pkg/plugin"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
	wsQueueSize = 32
	wsQueueWait = 2 * time.Second
)

// WebSocket serves panels over websocket connections. Outbound messages
// are broadcast to every connected panel; inbound messages from any panel
// go to the same handler.
type WebSocket struct {
	handler   Handler
	logger    hclog.Logger
	upgrader  websocket.Upgrader
	queueWait time.Duration

	mu    sync.Mutex
	conns map[*wsConn]struct{}
}

type wsConn struct {
	send chan json.RawMessage
	// done is closed when the connection's writer exits.
	done chan struct{}
}

// NewWebSocket creates a websocket transport. Call SetHandler before
// serving.
func NewWebSocket(logger hclog.Logger) *WebSocket {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	ws := &WebSocket{
		logger:    logger.Named("websocket"),
		conns:     make(map[*wsConn]struct{}),
		queueWait: wsQueueWait,
	}
	ws.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if err := security.ValidatePanelOrigin(origin); err != nil {
				ws.logger.Warn("rejected connection", "origin", origin, "error", err)
				return false
			}
			return true
		},
	}
	return ws
}

// SetHandler sets the handler inbound messages are delivered to. The
// handler normally sends through this transport, so it is set after
// construction.
func (ws *WebSocket) SetHandler(h Handler) {
	ws.mu.Lock()
	ws.handler = h
	ws.mu.Unlock()
}

// Send broadcasts msg to every connected panel. A panel whose queue stays
// full for longer than the queue wait drops its oldest message.
func (ws *WebSocket) Send(msg any) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	for c := range ws.conns {
		ws.push(c, b)
	}
	return nil
}

// Connections returns the number of connected panels.
func (ws *WebSocket) Connections() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.conns)
}

// ServeHTTP upgrades the request and runs the connection until it closes.
func (ws *WebSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws.mu.Lock()
	h := ws.handler
	ws.mu.Unlock()
	if h == nil {
		http.Error(w, "session not ready", http.StatusServiceUnavailable)
		return
	}

	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.logger.Debug("upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		ws.logger.Warn("failed to set read deadline", "error", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	c := &wsConn{send: make(chan json.RawMessage, wsQueueSize), done: make(chan struct{})}
	go func() {
		defer close(c.done)
		defer cancel()
		ticker := time.NewTicker(wsPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-c.send:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	ws.mu.Lock()
	ws.conns[c] = struct{}{}
	ws.mu.Unlock()
	defer func() {
		ws.mu.Lock()
		delete(ws.conns, c)
		ws.mu.Unlock()
	}()

	ws.logger.Info("panel connected", "remote", r.RemoteAddr)
	if err := h.Start(ctx); err != nil {
		ws.logger.Error("failed to start session", "error", err)
		cancel()
		<-c.done
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ws.logger.Warn("connection closed", "error", err)
			}
			break
		}
		if err := h.Handle(ctx, data); err != nil {
			ws.logger.Warn("message failed", "error", err)
		}
	}

	cancel()
	<-c.done
	ws.logger.Info("panel disconnected", "remote", r.RemoteAddr)
}

func (ws *WebSocket) push(c *wsConn, msg json.RawMessage) {
	select {
	case c.send <- msg:
		return
	default:
	}

	timer := time.NewTimer(ws.queueWait)
	defer timer.Stop()
	select {
	case c.send <- msg:
		return
	case <-c.done:
		return
	case <-timer.C:
	}

	select {
	case old := <-c.send:
		ws.logger.Warn("panel queue full, dropped message", "type", messageType(old))
	default:
	}
	select {
	case c.send <- msg:
	default:
		ws.logger.Warn("panel queue full, dropped message", "type", messageType(msg))
	}
}

func messageType(raw json.RawMessage) string {
	typ, err := plugin.PeekType(raw)
	if err != nil {
		return "unknown"
	}
	return typ
}
