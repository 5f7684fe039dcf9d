// Package notify writes the notifications that accompany social events.
package notify

import (
	"context"
	"errors"

	"github.com/MarcoPoloResearchLab/echo/internal/store"
	"go.uber.org/zap"
)

const (
	ContentLike             = "Someone liked your post"
	ContentComment          = "Someone commented on your post"
	ContentFollow           = "Someone followed you"
	ContentAnonymousMessage = "You received an anonymous message"
	ContentMessage          = "You have a new message"
)

var (
	errMissingWriter = errors.New("notify: notification writer is required")
	errInvalidType   = errors.New("notify: unknown notification type")
	errMissingTarget = errors.New("notify: target user is required")
)

// Writer appends notification records.
type Writer interface {
	CreateNotification(ctx context.Context, input store.NewNotification) (store.Notification, error)
}

// Notice describes one notification to emit. ActorID zero means the actor is anonymous.
type Notice struct {
	TargetID    int64
	ActorID     int64
	Type        store.NotificationType
	Content     string
	ReferenceID *int64
}

type EmitterConfig struct {
	Writer Writer
	Logger *zap.Logger
}

// Emitter appends notifications and never addresses one to the acting user.
type Emitter struct {
	writer Writer
	logger *zap.Logger
}

// NewEmitter returns an emitter writing through cfg.Store.
func NewEmitter(cfg EmitterConfig) (*Emitter, error) {
	if cfg.Writer == nil {
		return nil, errMissingWriter
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{writer: cfg.Writer, logger: logger}, nil
}

// Emit stores the notice. It reports false without error when the notice targets its own actor.
func (e *Emitter) Emit(ctx context.Context, notice Notice) (store.Notification, bool, error) {
	if !notice.Type.Valid() {
		return store.Notification{}, false, errInvalidType
	}
	if notice.TargetID <= 0 {
		return store.Notification{}, false, errMissingTarget
	}
	if notice.ActorID != 0 && notice.ActorID == notice.TargetID {
		e.logger.Debug("self notification skipped",
			zap.Int64("user_id", notice.TargetID),
			zap.String("type", string(notice.Type)))
		return store.Notification{}, false, nil
	}
	notification, err := e.writer.CreateNotification(ctx, store.NewNotification{
		UserID:      notice.TargetID,
		Type:        notice.Type,
		Content:     notice.Content,
		ReferenceID: notice.ReferenceID,
	})
	if err != nil {
		return store.Notification{}, false, err
	}
	return notification, true, nil
}

// Reference returns a pointer to id for use as a notification reference.
func Reference(id int64) *int64 {
	return &id
}
