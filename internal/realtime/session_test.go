package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/MarcoPoloResearchLab/echo/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type staticValidator map[string]int64

func (v staticValidator) Validate(_ context.Context, token string) (int64, error) {
	userID, ok := v[token]
	if !ok {
		return 0, errors.New("unknown token")
	}
	return userID, nil
}

type sendCall struct {
	senderID       int64
	conversationID int64
	content        string
}

type recordingSender struct {
	mu    sync.Mutex
	calls []sendCall
}

func (s *recordingSender) SendMessage(_ context.Context, senderID, conversationID int64, content string) (store.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, sendCall{senderID: senderID, conversationID: conversationID, content: content})
	return store.Message{ID: int64(len(s.calls)), SenderID: senderID, ConversationID: conversationID, Content: content}, nil
}

func newTestSession(t *testing.T, logger *zap.Logger) (*Session, *Registry, *recordingSender, *recordingConn) {
	t.Helper()
	registry := NewRegistry(nil)
	sender := &recordingSender{}
	conn := &recordingConn{}
	session, err := NewSession(SessionConfig{
		Registry:  registry,
		Validator: staticValidator{"token-1": 1, "token-2": 2},
		Sender:    sender,
		Logger:    logger,
	}, conn)
	if err != nil {
		t.Fatalf("failed to build session: %v", err)
	}
	return session, registry, sender, conn
}

func TestSessionDropsSendBeforeAuth(t *testing.T) {
	session, registry, sender, _ := newTestSession(t, nil)

	session.HandleFrame(context.Background(), []byte(`{"type":"message","conversationId":7,"userId":1,"content":"hi"}`))

	if len(sender.calls) != 0 {
		t.Fatalf("expected no message to be sent, got %d", len(sender.calls))
	}
	if session.State() != StateUnauthenticated {
		t.Fatalf("expected UNAUTHENTICATED, got %s", session.State())
	}
	if registry.Len() != 0 {
		t.Fatalf("expected connection to remain unregistered")
	}
}

func TestSessionAuthBindsConnection(t *testing.T) {
	session, registry, _, conn := newTestSession(t, nil)

	session.HandleFrame(context.Background(), []byte(`{"type":"auth","userId":1,"token":"token-1"}`))

	if session.State() != StateAuthenticated {
		t.Fatalf("expected AUTHENTICATED, got %s", session.State())
	}
	bound, ok := registry.Lookup(1)
	if !ok || bound != conn {
		t.Fatalf("expected connection bound to user 1")
	}

	session.HandleFrame(context.Background(), []byte(`{"type":"auth","userId":2,"token":"token-2"}`))
	if userID, _ := session.UserID(); userID != 1 {
		t.Fatalf("repeated auth must be ignored, bound to %d", userID)
	}
	if _, ok := registry.Lookup(2); ok {
		t.Fatalf("repeated auth must not register another user")
	}
}

func TestSessionRejectsInvalidAuth(t *testing.T) {
	cases := map[string]string{
		"unknown token":   `{"type":"auth","userId":1,"token":"forged"}`,
		"missing token":   `{"type":"auth","userId":1}`,
		"claim mismatch":  `{"type":"auth","userId":2,"token":"token-1"}`,
		"malformed frame": `{"type":"auth",`,
	}
	for name, frame := range cases {
		t.Run(name, func(t *testing.T) {
			session, registry, _, _ := newTestSession(t, nil)
			session.HandleFrame(context.Background(), []byte(frame))
			if session.State() != StateUnauthenticated || registry.Len() != 0 {
				t.Fatalf("expected connection to stay unauthenticated")
			}
		})
	}
}

func TestSessionSendsMessagesAsBoundUser(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	session, _, sender, _ := newTestSession(t, zap.New(core))
	ctx := context.Background()
	session.HandleFrame(ctx, []byte(`{"type":"auth","userId":1,"token":"token-1"}`))

	session.HandleFrame(ctx, []byte(`{"type":"message","conversationId":7,"userId":1,"content":"hi"}`))
	session.HandleFrame(ctx, []byte(`{"type":"message","conversationId":7,"content":"no claim"}`))
	session.HandleFrame(ctx, []byte(`{"type":"message","conversationId":7,"userId":2,"content":"spoofed"}`))
	session.HandleFrame(ctx, []byte(`{"type":"message","userId":1,"content":"no conversation"}`))
	session.HandleFrame(ctx, []byte(`{"type":"message","conversationId":7,"userId":1,"content":"   "}`))
	session.HandleFrame(ctx, []byte(`not json`))
	session.HandleFrame(ctx, []byte(`{"type":"typing"}`))

	if len(sender.calls) != 2 {
		t.Fatalf("expected 2 sends, got %d", len(sender.calls))
	}
	want := sendCall{senderID: 1, conversationID: 7, content: "hi"}
	if sender.calls[0] != want {
		t.Fatalf("unexpected first send %+v", sender.calls[0])
	}
	if sender.calls[1].senderID != 1 {
		t.Fatalf("expected bound user as sender, got %d", sender.calls[1].senderID)
	}
	if session.State() != StateAuthenticated {
		t.Fatalf("dropped frames must not change state, got %s", session.State())
	}
	if logs.FilterMessage("realtime frame is not valid JSON").Len() != 1 {
		t.Fatalf("expected malformed frame to be logged")
	}
}

func TestSessionCloseReleasesOwnBindingOnly(t *testing.T) {
	first, registry, _, firstConn := newTestSession(t, nil)
	first.HandleFrame(context.Background(), []byte(`{"type":"auth","userId":1,"token":"token-1"}`))

	second, err := NewSession(SessionConfig{
		Registry:  registry,
		Validator: staticValidator{"token-1": 1},
		Sender:    &recordingSender{},
	}, &recordingConn{})
	if err != nil {
		t.Fatalf("failed to build session: %v", err)
	}
	second.HandleFrame(context.Background(), []byte(`{"type":"auth","userId":1,"token":"token-1"}`))

	first.Close()
	bound, ok := registry.Lookup(1)
	if !ok || bound == firstConn {
		t.Fatalf("reconnected binding must survive the stale close")
	}
	if first.State() != StateClosed {
		t.Fatalf("expected CLOSED, got %s", first.State())
	}

	second.Close()
	second.Close()
	if _, ok := registry.Lookup(1); ok {
		t.Fatalf("expected binding to be removed on close")
	}
}

func TestSessionCloseWithoutAuth(t *testing.T) {
	session, registry, _, _ := newTestSession(t, nil)
	session.Close()
	if session.State() != StateClosed || registry.Len() != 0 {
		t.Fatalf("expected closed session with empty registry")
	}
	session.HandleFrame(context.Background(), []byte(`{"type":"auth","userId":1,"token":"token-1"}`))
	if session.State() != StateClosed || registry.Len() != 0 {
		t.Fatalf("closed session must not authenticate")
	}
}

func TestNewSessionRequiresDependencies(t *testing.T) {
	if _, err := NewSession(SessionConfig{}, &recordingConn{}); err == nil {
		t.Fatalf("expected missing dependency error")
	}
}
