package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/MarcoPoloResearchLab/echo/internal/store"
	"go.uber.org/zap"
)

// State is the protocol state of one connection.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "UNAUTHENTICATED"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

var (
	errMissingRegistry  = errors.New("realtime: registry is required")
	errMissingValidator = errors.New("realtime: token validator is required")
	errMissingSender    = errors.New("realtime: message sender is required")
)

// TokenValidator resolves a session token to the user it was issued for.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (int64, error)
}

// MessageSender runs the chat send pipeline.
type MessageSender interface {
	SendMessage(ctx context.Context, senderID, conversationID int64, content string) (store.Message, error)
}

type SessionConfig struct {
	Registry  *Registry
	Validator TokenValidator
	Sender    MessageSender
	Logger    *zap.Logger
}

func (c SessionConfig) validate() error {
	switch {
	case c.Registry == nil:
		return errMissingRegistry
	case c.Validator == nil:
		return errMissingValidator
	case c.Sender == nil:
		return errMissingSender
	}
	return nil
}

// Session drives the protocol of a single connection. Frames must be handed to
// HandleFrame in arrival order from one goroutine.
type Session struct {
	registry  *Registry
	validator TokenValidator
	sender    MessageSender
	conn      Conn
	logger    *zap.Logger

	mu     sync.Mutex
	state  State
	userID int64
}

// NewSession starts an unauthenticated session on conn.
func NewSession(cfg SessionConfig, conn Conn) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		registry:  cfg.Registry,
		validator: cfg.Validator,
		sender:    cfg.Sender,
		conn:      conn,
		logger:    logger,
		state:     StateUnauthenticated,
	}, nil
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// UserID returns the bound user once the session is authenticated.
func (s *Session) UserID() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.state == StateAuthenticated
}

// HandleFrame processes one inbound frame. Malformed or invalid frames are
// logged and dropped without changing state or closing the connection.
func (s *Session) HandleFrame(ctx context.Context, raw []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		s.logger.Warn("realtime frame is not valid JSON", zap.Error(err), zap.Int("bytes", len(raw)))
		return
	}
	switch frame.Type {
	case EventAuth:
		s.handleAuth(ctx, frame)
	case EventMessage:
		s.handleMessage(ctx, frame)
	default:
		s.logger.Debug("realtime frame type ignored", zap.String("type", frame.Type))
	}
}

func (s *Session) handleAuth(ctx context.Context, frame inboundFrame) {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	if state != StateUnauthenticated {
		s.logger.Debug("realtime auth ignored", zap.Stringer("state", state))
		return
	}

	userID, err := s.validator.Validate(ctx, frame.Token)
	if err != nil {
		s.logger.Warn("realtime auth rejected", zap.Error(err))
		return
	}
	if frame.UserID != nil && *frame.UserID != userID {
		s.logger.Warn("realtime auth rejected: user mismatch",
			zap.Int64("claimed_user_id", *frame.UserID),
			zap.Int64("token_user_id", userID))
		return
	}

	s.mu.Lock()
	if s.state != StateUnauthenticated {
		s.mu.Unlock()
		return
	}
	s.state = StateAuthenticated
	s.userID = userID
	s.mu.Unlock()

	s.registry.Register(userID, s.conn)
	s.logger.Info("realtime connection authenticated", zap.Int64("user_id", userID))
}

func (s *Session) handleMessage(ctx context.Context, frame inboundFrame) {
	userID, authenticated := s.UserID()
	if !authenticated {
		s.logger.Warn("realtime message dropped: connection not authenticated")
		return
	}
	if frame.UserID != nil && *frame.UserID != userID {
		s.logger.Warn("realtime message dropped: sender mismatch",
			zap.Int64("claimed_user_id", *frame.UserID),
			zap.Int64("user_id", userID))
		return
	}
	if frame.ConversationID == nil || frame.Content == nil || strings.TrimSpace(*frame.Content) == "" {
		s.logger.Warn("realtime message dropped: conversationId and content are required", zap.Int64("user_id", userID))
		return
	}
	message, err := s.sender.SendMessage(ctx, userID, *frame.ConversationID, *frame.Content)
	if err != nil {
		s.logger.Warn("realtime message dropped",
			zap.Int64("user_id", userID),
			zap.Int64("conversation_id", *frame.ConversationID),
			zap.Error(err))
		return
	}
	s.logger.Debug("realtime message sent",
		zap.Int64("user_id", userID),
		zap.Int64("message_id", message.ID))
}

// Close moves the session to CLOSED and releases its registry binding.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	wasAuthenticated := s.state == StateAuthenticated
	userID := s.userID
	s.state = StateClosed
	s.mu.Unlock()

	if wasAuthenticated && s.registry.Release(userID, s.conn) {
		s.logger.Info("realtime connection released", zap.Int64("user_id", userID))
	}
}
