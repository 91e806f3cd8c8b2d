package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/rpsmatch/internal/protocol"
	"github.com/mcoot/rpsmatch/internal/session"
)

// WSConn carries one protocol message per WebSocket text frame
type WSConn struct {
	conn         *websocket.Conn
	id           string
	writeTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// Ensure WSConn implements session.Conn
var _ session.Conn = (*WSConn)(nil)

// NewWSConn wraps an upgraded connection
func NewWSConn(conn *websocket.Conn, writeTimeout time.Duration) *WSConn {
	conn.SetReadLimit(protocol.MaxMessageSize)
	return &WSConn{
		conn:         conn,
		id:           uuid.NewString(),
		writeTimeout: writeTimeout,
	}
}

func (c *WSConn) ID() string {
	return c.id
}

func (c *WSConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (c *WSConn) Receive() (protocol.Message, error) {
	kind, data, err := c.conn.ReadMessage()
	if err != nil {
		if errors.Is(err, websocket.ErrReadLimit) {
			return nil, protocol.ErrMessageTooLarge
		}
		return nil, err
	}
	if kind != websocket.TextMessage {
		return nil, protocol.ErrMalformed
	}
	return protocol.Decode(data)
}

func (c *WSConn) Send(msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close sends a close frame, best-effort, and closes the connection
func (c *WSConn) Close() error {
	c.closeOnce.Do(func() {
		deadline := time.Now().Add(time.Second)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// WebSocketHandler upgrades HTTP requests and runs each as a game connection
type WebSocketHandler struct {
	upgrader     websocket.Upgrader
	handler      ConnHandler
	writeTimeout time.Duration
	logger       *slog.Logger
}

// NewWebSocketHandler creates a handler serving game connections over WebSocket
func NewWebSocketHandler(handler ConnHandler, writeTimeout time.Duration, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients are served from anywhere
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		handler:      handler,
		writeTimeout: writeTimeout,
		logger:       logger.With(slog.String("component", "websocket")),
	}
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response
		h.logger.Warn("websocket upgrade failed", slog.String("remote_addr", r.RemoteAddr), slog.Any("error", err))
		return
	}

	conn := NewWSConn(ws, h.writeTimeout)
	h.logger.Debug("websocket connected", slog.String("conn_id", conn.ID()), slog.String("remote_addr", conn.RemoteAddr()))

	// The connection outlives the request context once hijacked
	h.handler.Serve(context.WithoutCancel(r.Context()), conn)
}
