package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"avancofisico/internal/config"
	apperrors "avancofisico/internal/errors"
	"avancofisico/internal/infrastructure"
	"avancofisico/pkg/contracts/domain"
	"avancofisico/pkg/contracts/events"
)

const sendBufferSize = 16

// Client is a middleman between one websocket connection and the renderer
type Client struct {
	id         string
	traceID    string
	remoteAddr string
	hub        *Hub
	conn       Connection
	renderer   Renderer
	validator  Validator
	cfg        config.WebSocketConfig

	renderTimeout time.Duration
	connectedAt   time.Time
	greeting      []byte

	// Buffered channel of outbound messages
	send   chan []byte
	mu     sync.Mutex
	closed bool

	messagesReceived atomic.Int64
	messagesSent     atomic.Int64

	metrics *infrastructure.DashboardMetrics
	logger  *slog.Logger
}

// trySend queues a payload without blocking. It reports false when the
// client is closed or its buffer is full.
func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// closeSend closes the outbound channel once
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) context() context.Context {
	return infrastructure.WithTraceID(context.Background(), c.traceID)
}

// enqueue marshals msg and queues it for the write pump
func (c *Client) enqueue(msg events.ServerMessage) {
	msg.TraceID = c.traceID
	ctx := c.context()

	payload, err := json.Marshal(msg)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to encode message",
			slog.String("type", string(msg.Type)),
			slog.String("error", err.Error()))
		return
	}

	if !c.trySend(payload) {
		c.logger.WarnContext(ctx, "Dropping message - client buffer full or closed",
			slog.String("type", string(msg.Type)))
		return
	}
	c.record(ctx, "out", msg.Type)
}

func (c *Client) record(ctx context.Context, direction string, typ events.MessageType) {
	if c.metrics == nil {
		return
	}
	c.metrics.WebSocketMessages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("direction", direction),
		attribute.String("type", string(typ)),
	))
}

func (c *Client) sendError(id, code, message string, details any) {
	msg := events.NewServerMessage(events.MessageTypeError, id)
	msg.Error = &events.ErrorData{Code: code, Message: message, Details: details}
	c.enqueue(msg)
}

// handle processes one client message. Renders run inline, so a client's
// answers arrive in the order its messages were sent.
func (c *Client) handle(raw []byte) {
	var in events.ClientMessage
	if err := json.Unmarshal(raw, &in); err != nil {
		c.record(c.context(), "in", "invalid")
		c.sendError("", "INVALID_MESSAGE", "message is not valid JSON", err.Error())
		return
	}
	c.record(c.context(), "in", in.Type)

	switch in.Type {
	case events.MessageTypePing:
		c.enqueue(events.NewServerMessage(events.MessageTypePong, in.ID))

	case events.MessageTypeReset:
		c.render(in.ID, domain.FilterSpec{})

	case events.MessageTypeFilters:
		if in.Filters == nil {
			c.render(in.ID, domain.FilterSpec{})
			return
		}
		if err := c.validator.Struct(in.Filters); err != nil {
			var apiErr *apperrors.APIError
			if errors.As(err, &apiErr) {
				c.sendError(in.ID, apiErr.ErrorCode, apiErr.Message, apiErr.Details)
				return
			}
			c.sendError(in.ID, "VALIDATION_FAILED", err.Error(), nil)
			return
		}
		c.render(in.ID, in.Filters.ToSpec())

	default:
		c.sendError(in.ID, "UNKNOWN_MESSAGE_TYPE", "unsupported message type "+string(in.Type), nil)
	}
}

func (c *Client) render(id string, spec domain.FilterSpec) {
	ctx, cancel := context.WithTimeout(c.context(), c.renderTimeout)
	defer cancel()

	dashboard, err := c.renderer.Render(ctx, spec)
	if err != nil {
		c.logger.WarnContext(ctx, "Render failed",
			slog.String("client_id", c.id),
			slog.String("error", err.Error()))
		code := "RENDER_FAILED"
		if errors.Is(err, context.DeadlineExceeded) {
			code = "RENDER_TIMEOUT"
		}
		c.sendError(id, code, err.Error(), nil)
		return
	}

	msg := events.NewServerMessage(events.MessageTypeDashboard, id)
	msg.Dashboard = &dashboard
	c.enqueue(msg)
}

// ReadPump reads client messages until the connection fails, then
// unregisters the client
func (c *Client) ReadPump() {
	defer func() {
		c.logger.InfoContext(c.context(), "WebSocket client disconnected (readPump)",
			slog.String("client_id", c.id),
			slog.Duration("connection_duration", time.Since(c.connectedAt)),
			slog.Int64("messages_received", c.messagesReceived.Load()))
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageBytes)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.ErrorContext(c.context(), "Unexpected WebSocket close error",
					slog.String("error", err.Error()))
			}
			return
		}
		c.messagesReceived.Add(1)
		c.handle(message)
	}
}

// WritePump writes queued messages and keepalive pings to the connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.InfoContext(c.context(), "WebSocket write pump stopped",
			slog.String("client_id", c.id),
			slog.Int64("messages_sent", c.messagesSent.Load()))
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.ErrorContext(c.context(), "Error writing message to WebSocket",
					slog.String("error", err.Error()))
				return
			}
			c.messagesSent.Add(1)

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(c.context(), "Failed to send ping message",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}
