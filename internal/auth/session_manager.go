package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/echo/internal/store"
	"github.com/google/uuid"
)

var (
	ErrMissingTokenIssuer = errors.New("session manager: token issuer required")
	ErrMissingSessions    = errors.New("session manager: session store required")
	ErrRevokedSession     = errors.New("session revoked")
	ErrSubjectMismatch    = errors.New("session belongs to another user")
)

// SessionStore persists the sessions backing issued tokens.
type SessionStore interface {
	CreateSession(ctx context.Context, id string, userID int64, ttl time.Duration) (store.Session, error)
	GetSession(ctx context.Context, id string) (store.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

type SessionManagerConfig struct {
	Tokens   *TokenIssuer
	Sessions SessionStore
	Clock    func() time.Time
	NewID    func() string
}

// IssuedSession is returned to a client after login.
type IssuedSession struct {
	Token     string
	ExpiresAt time.Time
}

// SessionManager issues session tokens and accepts only those whose session row
// still exists and has not expired.
type SessionManager struct {
	tokens   *TokenIssuer
	sessions SessionStore
	clock    func() time.Time
	newID    func() string
}

// NewSessionManager validates the configuration and returns a manager backed by the session store.
func NewSessionManager(cfg SessionManagerConfig) (*SessionManager, error) {
	if cfg.Tokens == nil {
		return nil, ErrMissingTokenIssuer
	}
	if cfg.Sessions == nil {
		return nil, ErrMissingSessions
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &SessionManager{tokens: cfg.Tokens, sessions: cfg.Sessions, clock: clock, newID: newID}, nil
}

// Issue opens a session for userID and returns its signed token.
func (m *SessionManager) Issue(ctx context.Context, userID int64) (IssuedSession, error) {
	session, err := m.sessions.CreateSession(ctx, m.newID(), userID, m.tokens.TTL())
	if err != nil {
		return IssuedSession{}, err
	}
	token, expiresAt, err := m.tokens.Issue(session.ID, userID)
	if err != nil {
		return IssuedSession{}, err
	}
	return IssuedSession{Token: token, ExpiresAt: expiresAt}, nil
}

// Validate returns the user id of a live session token.
func (m *SessionManager) Validate(ctx context.Context, token string) (int64, error) {
	claims, err := m.tokens.Parse(token)
	if err != nil {
		return 0, err
	}
	session, err := m.sessions.GetSession(ctx, claims.SessionID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, ErrRevokedSession
	}
	if err != nil {
		return 0, err
	}
	if session.UserID != claims.UserID {
		return 0, ErrSubjectMismatch
	}
	if !m.clock().Before(session.ExpiresAt) {
		return 0, ErrExpiredSessionToken
	}
	return session.UserID, nil
}

// Revoke deletes the session behind token so it can no longer be used.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	claims, err := m.tokens.Parse(token)
	if err != nil {
		return err
	}
	err = m.sessions.DeleteSession(ctx, claims.SessionID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrRevokedSession
	}
	return err
}

// ValidateRequest validates the bearer token of an HTTP request.
func (m *SessionManager) ValidateRequest(r *http.Request) (int64, error) {
	token, err := BearerToken(r)
	if err != nil {
		return 0, err
	}
	return m.Validate(r.Context(), token)
}

// BearerToken extracts the token from an Authorization: Bearer header.
func BearerToken(r *http.Request) (string, error) {
	if r == nil {
		return "", ErrMissingSessionToken
	}
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", ErrMissingSessionToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", ErrMissingSessionToken
	}
	return token, nil
}
