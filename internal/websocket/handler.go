package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"avancofisico/internal/config"
	"avancofisico/internal/infrastructure"
	"avancofisico/pkg/contracts/events"
)

// Options configures the upgrade handler
type Options struct {
	Config         config.WebSocketConfig
	AllowedOrigins []string
	RenderTimeout  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Config.ReadBufferSize <= 0 {
		o.Config.ReadBufferSize = config.WebSocketReadBufferSize
	}
	if o.Config.WriteBufferSize <= 0 {
		o.Config.WriteBufferSize = config.WebSocketWriteBufferSize
	}
	if o.Config.MaxMessageBytes <= 0 {
		o.Config.MaxMessageBytes = 64 * 1024
	}
	if o.Config.PongWait <= 0 {
		o.Config.PongWait = config.WebSocketPongWait
	}
	if o.Config.PingPeriod <= 0 || o.Config.PingPeriod >= o.Config.PongWait {
		o.Config.PingPeriod = o.Config.PongWait * 9 / 10
	}
	if o.Config.WriteWait <= 0 {
		o.Config.WriteWait = 10 * time.Second
	}
	if o.RenderTimeout <= 0 {
		o.RenderTimeout = 10 * time.Second
	}
	return o
}

// Handler upgrades requests and attaches the new clients to a hub
type Handler struct {
	hub       *Hub
	renderer  Renderer
	validator Validator
	opts      Options
	upgrader  websocket.Upgrader
	metrics   *infrastructure.DashboardMetrics
	logger    *slog.Logger
}

// NewHandler creates the /ws handler. metrics may be nil.
func NewHandler(hub *Hub, renderer Renderer, validator Validator, opts Options, metrics *infrastructure.DashboardMetrics, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.withDefaults()

	h := &Handler{
		hub:       hub,
		renderer:  renderer,
		validator: validator,
		opts:      opts,
		metrics:   metrics,
		logger:    logger.With(slog.String("component", "websocket")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  opts.Config.ReadBufferSize,
		WriteBufferSize: opts.Config.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin accepts same-host tools without an Origin header, any origin
// when the list is empty or holds "*", and otherwise listed origins only
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(h.opts.AllowedOrigins, "*") || slices.Contains(h.opts.AllowedOrigins, origin)
}

// ServeHTTP upgrades the connection and starts the client pumps
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := infrastructure.EnsureTraceID(r.Context())
	traceID := infrastructure.GetTraceID(ctx)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written an error response
		h.logger.WarnContext(ctx, "WebSocket upgrade failed",
			slog.String("origin", r.Header.Get("Origin")),
			slog.String("error", err.Error()))
		return
	}

	client := h.newClient(conn, traceID, r.RemoteAddr)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

func (h *Handler) newClient(conn Connection, traceID, remoteAddr string) *Client {
	client := &Client{
		id:            infrastructure.GenerateTraceID(),
		traceID:       traceID,
		remoteAddr:    remoteAddr,
		hub:           h.hub,
		conn:          conn,
		renderer:      h.renderer,
		validator:     h.validator,
		cfg:           h.opts.Config,
		renderTimeout: h.opts.RenderTimeout,
		connectedAt:   time.Now(),
		send:          make(chan []byte, sendBufferSize),
		metrics:       h.metrics,
		logger:        h.logger,
	}

	status := events.NewServerMessage(events.MessageTypeStatus, "")
	status.TraceID = traceID
	status.Status = &events.StatusData{
		Protocol: events.ProtocolVersion,
		ClientID: client.id,
		Dataset:  h.renderer.Status(),
	}
	if payload, err := json.Marshal(status); err == nil {
		client.greeting = payload
	}
	return client
}
