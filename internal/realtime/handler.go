package realtime

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type HandlerConfig struct {
	Session    SessionConfig
	SendBuffer int
	// CheckOrigin decides whether a browser origin may open a connection.
	// Nil accepts every origin.
	CheckOrigin func(r *http.Request) bool
	Logger      *zap.Logger
}

// Handler upgrades HTTP requests and runs one Session per connection.
type Handler struct {
	upgrader   websocket.Upgrader
	session    SessionConfig
	sendBuffer int
	logger     *zap.Logger
}

// NewHandler returns the websocket endpoint. Each upgraded socket runs its own Session.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if err := cfg.Session.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Session.Logger == nil {
		cfg.Session.Logger = logger
	}
	checkOrigin := cfg.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		session:    cfg.Session,
		sendBuffer: cfg.SendBuffer,
		logger:     logger,
	}, nil
}

// ServeHTTP blocks for the lifetime of the connection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := NewClient(conn, h.sendBuffer, h.logger)
	session, err := NewSession(h.session, client)
	if err != nil {
		h.logger.Error("realtime session init failed", zap.Error(err))
		_ = conn.Close()
		return
	}

	go client.WritePump()
	client.ReadPump(r.Context(), session.HandleFrame)
	session.Close()
}
