// Package realtime binds authenticated users to live websocket connections and
// runs the per-connection chat protocol.
package realtime

import (
	"sync"

	"github.com/MarcoPoloResearchLab/echo/internal/store"
	"go.uber.org/zap"
)

// Conn is a live connection able to queue outbound events.
type Conn interface {
	Send(event any) error
}

// Registry maps a user id to at most one live connection. The last registration wins.
type Registry struct {
	mu       sync.RWMutex
	bindings map[int64]Conn
	logger   *zap.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{bindings: make(map[int64]Conn), logger: logger}
}

// Register binds conn to userID, replacing any earlier binding.
func (r *Registry) Register(userID int64, conn Conn) {
	r.mu.Lock()
	_, replaced := r.bindings[userID]
	r.bindings[userID] = conn
	r.mu.Unlock()
	if replaced {
		r.logger.Debug("realtime binding replaced", zap.Int64("user_id", userID))
	}
}

// Lookup returns the live connection bound to userID, if any.
func (r *Registry) Lookup(userID int64) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.bindings[userID]
	return conn, ok
}

// Remove drops the binding of userID. Removing an absent binding is a no-op.
func (r *Registry) Remove(userID int64) {
	r.mu.Lock()
	delete(r.bindings, userID)
	r.mu.Unlock()
}

// Release removes the binding only while it still points at conn, so a stale
// socket closing cannot unbind a newer connection of the same user.
func (r *Registry) Release(userID int64, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.bindings[userID]
	if !ok || current != conn {
		return false
	}
	delete(r.bindings, userID)
	return true
}

// Len reports the number of bound users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

// PushMessage queues a new_message event for userID and reports whether a live
// connection accepted it.
func (r *Registry) PushMessage(userID int64, message store.Message) bool {
	conn, ok := r.Lookup(userID)
	if !ok {
		return false
	}
	if err := conn.Send(newMessageEvent(message)); err != nil {
		r.logger.Warn("realtime push failed",
			zap.Int64("user_id", userID),
			zap.Int64("message_id", message.ID),
			zap.Error(err))
		return false
	}
	return true
}
