package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	apperrors "labelcli/internal/errors"
	"labelcli/internal/infrastructure"
	"labelcli/internal/layout"
	"labelcli/internal/services"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer; a preview carries one label of text
	maxMessageSize = 64 << 10

	sendBuffer = 16
)

// Previewer computes the preview row for a form state
type Previewer interface {
	DefaultRequest() services.LayoutRequest
	Preview(ctx context.Context, req services.LayoutRequest) (*layout.Page, error)
}

// Client is one preview session. Every preview message is answered with a
// freshly computed page; nothing is kept between messages.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	previewer Previewer

	sendMu sync.Mutex
	send   chan []byte
	closed bool

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	logger *slog.Logger
}

// NewClient creates a session for conn. traceID ties its log lines to the upgrade request.
func NewClient(hub *Hub, conn *websocket.Conn, previewer Previewer, traceID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	id := uuid.New().String()
	return &Client{
		hub:         hub,
		conn:        conn,
		previewer:   previewer,
		send:        make(chan []byte, sendBuffer),
		id:          id,
		traceID:     traceID,
		remoteAddr:  conn.RemoteAddr().String(),
		connectedAt: time.Now(),
		logger: logger.With(
			slog.String("component", "websocket.client"),
			slog.String("client_id", id),
			slog.String("trace_id", traceID),
		),
	}
}

// enqueue queues msg without blocking. It reports false when the session is
// closed or its buffer is full.
func (c *Client) enqueue(msg []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump reads preview requests until the peer goes away
func (c *Client) ReadPump() {
	ctx := infrastructure.WithTraceID(context.Background(), c.traceID)
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.WarnContext(ctx, "unexpected websocket close", slog.String("error", err.Error()))
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		reply := c.handle(ctx, data)
		if reply != nil && !c.enqueue(reply) {
			c.logger.WarnContext(ctx, "dropping reply, session buffer full")
		}
	}
}

// handle answers one inbound message; heartbeats get no reply
func (c *Client) handle(ctx context.Context, data []byte) []byte {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		return c.errorReply("INVALID_MESSAGE", "message is not valid JSON", nil)
	}

	switch in.Type {
	case TypeHeartbeat:
		return nil

	case TypePreview:
		req := c.previewer.DefaultRequest()
		if len(in.Request) > 0 {
			if err := json.Unmarshal(in.Request, &req); err != nil {
				return c.errorReply("INVALID_REQUEST", err.Error(), nil)
			}
		}

		page, err := c.previewer.Preview(ctx, req)
		if err != nil {
			var apiErr *apperrors.APIError
			if errors.As(err, &apiErr) {
				return c.errorReply(apiErr.ErrorCode, apiErr.Message, apiErr.Details)
			}
			c.logger.ErrorContext(ctx, "preview failed", slog.String("error", err.Error()))
			return c.errorReply("PREVIEW_FAILED", err.Error(), nil)
		}

		msg, err := newOutbound(TypePreview, page, c.traceID)
		if err != nil {
			return c.errorReply("ENCODE_FAILED", err.Error(), nil)
		}
		return msg

	default:
		return c.errorReply("UNKNOWN_TYPE", "unsupported message type: "+in.Type, nil)
	}
}

func (c *Client) errorReply(code, message string, details interface{}) []byte {
	msg, err := newOutbound(TypeError, ErrorData{Code: code, Message: message, Details: details}, c.traceID)
	if err != nil {
		return nil
	}
	return msg
}

// WritePump writes queued messages and keeps the connection alive with pings
func (c *Client) WritePump() {
	ctx := infrastructure.WithTraceID(context.Background(), c.traceID)
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.ErrorContext(ctx, "error writing message to websocket", slog.String("error", err.Error()))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(ctx, "failed to send ping", slog.String("error", err.Error()))
				return
			}
		}
	}
}
