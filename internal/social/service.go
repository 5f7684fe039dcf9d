// Package social implements the social network operations on top of the entity
// store. Notification side effects run as post-commit hooks after each write.
package social

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/echo/internal/feed"
	"github.com/MarcoPoloResearchLab/echo/internal/notify"
	"github.com/MarcoPoloResearchLab/echo/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	errMissingStore = errors.New("entity store is required")
	noOpLogger      = zap.NewNop()
)

const opServiceNew = "social.service.new"

// LivePusher delivers a persisted message to a connected user. It reports
// whether the user had a live connection that accepted the frame.
type LivePusher interface {
	PushMessage(userID int64, message store.Message) bool
}

type ServiceConfig struct {
	Store   *store.Store
	Feed    *feed.Engine
	Emitter *notify.Emitter
	Pusher  LivePusher
	Logger  *zap.Logger
	Clock   func() time.Time
	// NewLinkID generates echo link slugs when the client supplies none.
	NewLinkID func() string
}

// LikeEvent is passed to AfterLike hooks.
type LikeEvent struct {
	Like store.Like
	Post store.Post
}

// CommentEvent is passed to AfterComment hooks.
type CommentEvent struct {
	Comment store.Comment
	Post    store.Post
}

// AnonymousMessageEvent is passed to AfterAnonymousMessage hooks.
type AnonymousMessageEvent struct {
	Message store.AnonymousMessage
	Link    store.EchoLink
}

// MessageEvent is passed to AfterSend hooks. Recipients excludes the sender and
// Delivered lists the recipients that received a live push.
type MessageEvent struct {
	Message    store.Message
	Recipients []int64
	Delivered  []int64
}

type Service struct {
	store     *store.Store
	feed      *feed.Engine
	emitter   *notify.Emitter
	pusher    LivePusher
	logger    *zap.Logger
	clock     func() time.Time
	newLinkID func() string

	likeHooks      notify.HookList[LikeEvent]
	commentHooks   notify.HookList[CommentEvent]
	followHooks    notify.HookList[store.Follow]
	anonymousHooks notify.HookList[AnonymousMessageEvent]
	sendHooks      notify.HookList[MessageEvent]
}

// NewService wires the service and registers the notification hooks.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, newServiceError(opServiceNew, "missing_store", ErrInternal, internalMessage, errMissingStore)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	engine := cfg.Feed
	if engine == nil {
		var err error
		engine, err = feed.NewEngine(cfg.Store)
		if err != nil {
			return nil, newServiceError(opServiceNew, "feed_init_failed", ErrInternal, internalMessage, err)
		}
	}

	emitter := cfg.Emitter
	if emitter == nil {
		var err error
		emitter, err = notify.NewEmitter(notify.EmitterConfig{Writer: cfg.Store, Logger: logger})
		if err != nil {
			return nil, newServiceError(opServiceNew, "emitter_init_failed", ErrInternal, internalMessage, err)
		}
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	newLinkID := cfg.NewLinkID
	if newLinkID == nil {
		newLinkID = func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		}
	}

	service := &Service{
		store:     cfg.Store,
		feed:      engine,
		emitter:   emitter,
		pusher:    cfg.Pusher,
		logger:    logger,
		clock:     clock,
		newLinkID: newLinkID,
	}
	service.registerNotificationHooks()
	return service, nil
}

// AfterLike registers a hook run after a like is committed.
func (s *Service) AfterLike(name string, fn func(context.Context, LikeEvent) error) {
	s.likeHooks.Add(name, fn)
}

// AfterComment registers a hook run after a comment commits.
func (s *Service) AfterComment(name string, fn func(context.Context, CommentEvent) error) {
	s.commentHooks.Add(name, fn)
}

// AfterFollow registers a hook run after a follow commits.
func (s *Service) AfterFollow(name string, fn func(context.Context, store.Follow) error) {
	s.followHooks.Add(name, fn)
}

// AfterAnonymousMessage registers a hook run after an anonymous message commits.
func (s *Service) AfterAnonymousMessage(name string, fn func(context.Context, AnonymousMessageEvent) error) {
	s.anonymousHooks.Add(name, fn)
}

// AfterSend registers a hook run after a chat message is persisted and pushed.
func (s *Service) AfterSend(name string, fn func(context.Context, MessageEvent) error) {
	s.sendHooks.Add(name, fn)
}

func (s *Service) registerNotificationHooks() {
	s.AfterLike("notify.like", func(ctx context.Context, event LikeEvent) error {
		return s.emit(ctx, notify.Notice{
			TargetID:    event.Post.UserID,
			ActorID:     event.Like.UserID,
			Type:        store.NotificationTypeLike,
			Content:     notify.ContentLike,
			ReferenceID: notify.Reference(event.Post.ID),
		})
	})
	s.AfterComment("notify.comment", func(ctx context.Context, event CommentEvent) error {
		return s.emit(ctx, notify.Notice{
			TargetID:    event.Post.UserID,
			ActorID:     event.Comment.UserID,
			Type:        store.NotificationTypeComment,
			Content:     notify.ContentComment,
			ReferenceID: notify.Reference(event.Post.ID),
		})
	})
	s.AfterFollow("notify.follow", func(ctx context.Context, follow store.Follow) error {
		return s.emit(ctx, notify.Notice{
			TargetID:    follow.FollowingID,
			ActorID:     follow.FollowerID,
			Type:        store.NotificationTypeFollow,
			Content:     notify.ContentFollow,
			ReferenceID: notify.Reference(follow.FollowerID),
		})
	})
	s.AfterAnonymousMessage("notify.anonymous_message", func(ctx context.Context, event AnonymousMessageEvent) error {
		return s.emit(ctx, notify.Notice{
			TargetID:    event.Link.UserID,
			Type:        store.NotificationTypeAnonymousMessage,
			Content:     notify.ContentAnonymousMessage,
			ReferenceID: notify.Reference(event.Message.ID),
		})
	})
	s.AfterSend("notify.message", func(ctx context.Context, event MessageEvent) error {
		var errs []error
		for _, recipient := range event.Recipients {
			err := s.emit(ctx, notify.Notice{
				TargetID:    recipient,
				ActorID:     event.Message.SenderID,
				Type:        store.NotificationTypeMessage,
				Content:     notify.ContentMessage,
				ReferenceID: notify.Reference(event.Message.ID),
			})
			if err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

func (s *Service) emit(ctx context.Context, notice notify.Notice) error {
	_, _, err := s.emitter.Emit(ctx, notice)
	return err
}

// storeFailure converts a store error into a ServiceError, logging unexpected ones.
func (s *Service) storeFailure(operation string, err error, notFoundMessage string, fields ...zap.Field) error {
	if errors.Is(err, store.ErrNotFound) {
		return newServiceError(operation, "not_found", ErrNotFound, notFoundMessage, err)
	}
	s.logError(operation, "store_failed", err, fields...)
	return newServiceError(operation, "store_failed", ErrInternal, internalMessage, err)
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil || s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("social service error", attrs...)
}

func requirePositive(operation, field string, value int64) error {
	if value <= 0 {
		return validationError(operation, "invalid_"+field, field+" is required")
	}
	return nil
}
