package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MarcoPoloResearchLab/echo/internal/auth"
	"github.com/MarcoPoloResearchLab/echo/internal/media"
	"github.com/MarcoPoloResearchLab/echo/internal/social"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	errMissingService  = errors.New("social service dependency required")
	errMissingSessions = errors.New("session manager dependency required")
	errMissingRealtime = errors.New("realtime handler dependency required")
)

// SessionManager opens and revokes login sessions.
type SessionManager interface {
	Issue(ctx context.Context, userID int64) (auth.IssuedSession, error)
	Revoke(ctx context.Context, token string) error
	ValidateRequest(r *http.Request) (int64, error)
}

// UploadPresigner hands out direct-to-bucket upload URLs.
type UploadPresigner interface {
	PresignUpload(ctx context.Context, request media.UploadRequest) (media.Upload, error)
}

// RateLimit is a per-IP token bucket. A non-positive PerMinute disables limiting.
type RateLimit struct {
	PerMinute int
	Burst     int
}

type Dependencies struct {
	Service  *social.Service
	Sessions SessionManager
	// Realtime serves the websocket endpoint.
	Realtime http.Handler
	// Media is optional; presign requests get 503 without it.
	Media          UploadPresigner
	Logger         *zap.Logger
	AllowedOrigins []string
	// TrustedProxies may set X-Forwarded-For; empty means the socket peer is the client.
	TrustedProxies []string
	AnonymousLimit RateLimit
	WebsocketLimit RateLimit
}

// NewHTTPHandler builds the gin engine serving the REST API and the websocket endpoint.
// Rate limiter sweeps stop when ctx is done.
func NewHTTPHandler(ctx context.Context, deps Dependencies) (http.Handler, error) {
	if deps.Service == nil {
		return nil, errMissingService
	}
	if deps.Sessions == nil {
		return nil, errMissingSessions
	}
	if deps.Realtime == nil {
		return nil, errMissingRealtime
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	if err := router.SetTrustedProxies(deps.TrustedProxies); err != nil {
		return nil, fmt.Errorf("configure trusted proxies: %w", err)
	}
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(corsMiddleware(deps.AllowedOrigins))

	handler := &httpHandler{
		service:  deps.Service,
		sessions: deps.Sessions,
		media:    deps.Media,
		logger:   logger,
	}

	anonymousLimiter := newIPRateLimiter(deps.AnonymousLimit, logger)
	websocketLimiter := newIPRateLimiter(deps.WebsocketLimit, logger)
	go anonymousLimiter.run(ctx)
	go websocketLimiter.run(ctx)

	router.GET("/ws", websocketLimiter.middleware(), gin.WrapH(deps.Realtime))

	api := router.Group("/api")

	api.POST("/auth/register", handler.handleRegister)
	api.POST("/auth/login", handler.handleLogin)
	api.POST("/auth/logout", handler.handleLogout)
	api.GET("/auth/me", handler.handleCurrentUser)

	api.GET("/users/search", handler.handleSearchUsers)
	api.GET("/users/:id", handler.handleGetUser)
	api.PATCH("/users/:id", handler.handleUpdateUser)
	api.GET("/users/:id/posts", handler.handleListUserPosts)
	api.GET("/users/:id/followers", handler.handleListFollowers)
	api.GET("/users/:id/following", handler.handleListFollowing)
	api.GET("/users/:id/conversations", handler.handleListConversations)
	api.GET("/users/:id/notifications", handler.handleListNotifications)
	api.GET("/users/:id/notifications/unread-count", handler.handleUnreadCount)
	api.POST("/users/:id/notifications/read-all", handler.handleMarkAllRead)
	api.GET("/users/:id/echo-link", handler.handleGetUserEchoLink)

	api.GET("/posts", handler.handleListPosts)
	api.GET("/posts/feed/:userId", handler.handleFeed)
	api.GET("/posts/:id", handler.handleGetPost)
	api.POST("/posts", handler.handleCreatePost)
	api.DELETE("/posts/:id", handler.handleDeletePost)
	api.GET("/posts/:id/likes", handler.handleListLikes)
	api.GET("/posts/:id/comments", handler.handleListComments)
	api.GET("/posts/:id/polls", handler.handleListPolls)

	api.POST("/polls", handler.handleCreatePoll)
	api.POST("/polls/vote", handler.handleVote)
	api.GET("/polls/:id/options", handler.handleListPollOptions)
	api.GET("/polls/:id/votes", handler.handleListPollVotes)
	api.POST("/poll-options", handler.handleAddPollOption)

	api.POST("/likes", handler.handleLike)
	api.DELETE("/likes/:id", handler.handleUnlike)
	api.POST("/comments", handler.handleComment)
	api.DELETE("/comments/:id", handler.handleDeleteComment)
	api.POST("/follows", handler.handleFollow)
	api.DELETE("/follows/:id", handler.handleUnfollow)

	api.POST("/conversations", handler.handleCreateConversation)
	api.GET("/conversations/:id", handler.handleGetConversation)
	api.GET("/conversations/:id/participants", handler.handleListParticipants)
	api.GET("/conversations/:id/messages", handler.handleListMessages)
	api.POST("/conversation-participants", handler.handleAddParticipant)
	api.POST("/messages", handler.handleSendMessage)

	api.POST("/echo-links", handler.handleCreateEchoLink)
	// The single-segment lookup takes the public slug; nested routes take the numeric id.
	api.GET("/echo-links/:id", handler.handleGetEchoLinkBySlug)
	api.PATCH("/echo-links/:id", handler.handleUpdateEchoLink)
	api.GET("/echo-links/:id/messages", handler.handleListAnonymousMessages)
	api.POST("/anonymous-messages", anonymousLimiter.middleware(), handler.handleSubmitAnonymousMessage)
	api.PATCH("/anonymous-messages/:id", handler.handleUpdateAnonymousMessage)

	api.PATCH("/notifications/:id/read", handler.handleMarkNotificationRead)

	api.POST("/media/presign", handler.handlePresignUpload)

	return router, nil
}

type httpHandler struct {
	service  *social.Service
	sessions SessionManager
	media    UploadPresigner
	logger   *zap.Logger
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	if allowsAnyOrigin(origins) {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func allowsAnyOrigin(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}
