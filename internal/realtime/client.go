package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192

	defaultSendBuffer = 64
)

var (
	ErrClientClosed  = errors.New("realtime: client closed")
	ErrSendQueueFull = errors.New("realtime: send queue full")
)

// Client owns one websocket connection: a read pump feeding the protocol and a
// write pump draining a bounded queue of outbound frames.
type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	logger *zap.Logger
}

// NewClient wraps an upgraded socket. sendBuffer bounds the outbound queue.
func NewClient(conn *websocket.Conn, sendBuffer int, logger *zap.Logger) *Client {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Send queues event for delivery without blocking. A full queue drops the event.
func (c *Client) Send(event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	select {
	case c.send <- payload:
		return nil
	case <-c.done:
		return ErrClientClosed
	default:
		c.logger.Warn("realtime send queue full, dropping frame", zap.Int("queue_len", len(c.send)))
		return ErrSendQueueFull
	}
}

// Close stops the write pump. It is safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// ReadPump hands every inbound text frame to handle until the socket fails or closes.
func (c *Client) ReadPump(ctx context.Context, handle func(context.Context, []byte)) {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("failed to set read deadline", zap.Error(err))
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info("realtime read ended", zap.Error(err))
			}
			return
		}
		handle(ctx, payload)
	}
}

// WritePump writes queued frames and keepalive pings until the client closes.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil {
			c.logger.Debug("realtime connection close", zap.Error(err))
		}
	}()

	for {
		select {
		case payload := <-c.send:
			if !c.write(websocket.TextMessage, payload) {
				return
			}
		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}
		case <-c.done:
			c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Client) write(messageType int, payload []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error("failed to set write deadline", zap.Error(err))
		return false
	}
	if err := c.conn.WriteMessage(messageType, payload); err != nil {
		c.logger.Debug("realtime write failed", zap.Error(err))
		return false
	}
	return true
}
