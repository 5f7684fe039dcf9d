package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/echo/internal/auth"
	"github.com/MarcoPoloResearchLab/echo/internal/database"
	"github.com/MarcoPoloResearchLab/echo/internal/realtime"
	"github.com/MarcoPoloResearchLab/echo/internal/social"
	"github.com/MarcoPoloResearchLab/echo/internal/store"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type routerHarness struct {
	handler  http.Handler
	service  *social.Service
	registry *realtime.Registry
	sessions *auth.SessionManager
}

type harnessOption func(*Dependencies)

func newRouterHarness(t *testing.T, options ...harnessOption) *routerHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "router.db"), nil, database.Options{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	entityStore, err := store.New(store.Config{Database: db})
	if err != nil {
		t.Fatalf("failed to build store: %v", err)
	}
	registry := realtime.NewRegistry(nil)
	service, err := social.NewService(social.ServiceConfig{Store: entityStore, Pusher: registry})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	issuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte("router-secret"),
		Issuer:        auth.DefaultTokenIssuer,
		Audience:      auth.DefaultTokenAudience,
		TokenTTL:      time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to build issuer: %v", err)
	}
	sessions, err := auth.NewSessionManager(auth.SessionManagerConfig{Tokens: issuer, Sessions: entityStore})
	if err != nil {
		t.Fatalf("failed to build session manager: %v", err)
	}
	realtimeHandler, err := realtime.NewHandler(realtime.HandlerConfig{
		Session:    realtime.SessionConfig{Registry: registry, Validator: sessions, Sender: service},
		SendBuffer: 8,
	})
	if err != nil {
		t.Fatalf("failed to build realtime handler: %v", err)
	}

	deps := Dependencies{
		Service:  service,
		Sessions: sessions,
		Realtime: realtimeHandler,
		Logger:   zap.NewNop(),
	}
	for _, option := range options {
		option(&deps)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	handler, err := NewHTTPHandler(ctx, deps)
	if err != nil {
		t.Fatalf("failed to build http handler: %v", err)
	}
	return &routerHarness{handler: handler, service: service, registry: registry, sessions: sessions}
}

func (h *routerHarness) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch typed := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(typed))
	default:
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		request.Header.Set(headers[i], headers[i+1])
	}
	recorder := httptest.NewRecorder()
	h.handler.ServeHTTP(recorder, request)
	return recorder
}

func (h *routerHarness) register(t *testing.T, username string) store.User {
	t.Helper()
	recorder := h.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"username":    username,
		"password":    "pw-" + username,
		"displayName": username,
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("register %s: unexpected status %d body %s", username, recorder.Code, recorder.Body.String())
	}
	var user store.User
	decodeBody(t, recorder, &user)
	return user
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to decode body %s: %v", recorder.Body.String(), err)
	}
}

func expectMessage(t *testing.T, recorder *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	if recorder.Code != status {
		t.Fatalf("expected status %d, got %d body %s", status, recorder.Code, recorder.Body.String())
	}
	var body struct {
		Message string `json:"message"`
	}
	decodeBody(t, recorder, &body)
	if message != "" && body.Message != message {
		t.Fatalf("expected message %q, got %q", message, body.Message)
	}
}

func TestNewHTTPHandlerRequiresDependencies(t *testing.T) {
	if _, err := NewHTTPHandler(context.Background(), Dependencies{}); err != errMissingService {
		t.Fatalf("expected missing service error, got %v", err)
	}
}

func itoa(value int64) string {
	return strconv.FormatInt(value, 10)
}
