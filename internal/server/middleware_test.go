package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLoggerTagsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)

	router := gin.New()
	router.Use(requestLogger(zap.New(core)))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ok", http.NoBody))
	if recorder.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}

	request := httptest.NewRequest(http.MethodGet, "/missing", http.NoBody)
	request.Header.Set(requestIDHeader, "given-id")
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	if recorder.Header().Get(requestIDHeader) != "given-id" {
		t.Fatalf("expected incoming request id to be echoed")
	}

	entries := logs.FilterMessage("http request").All()
	if len(entries) != 2 {
		t.Fatalf("expected two access log entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel || entries[1].Level != zapcore.WarnLevel {
		t.Fatalf("unexpected levels %s, %s", entries[0].Level, entries[1].Level)
	}
	if entries[1].ContextMap()["request_id"] != "given-id" {
		t.Fatalf("unexpected context %v", entries[1].ContextMap())
	}
}

func TestCORSMiddlewareHonoursAllowList(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(corsMiddleware([]string{"https://app.example.com"}))
	router.GET("/api/posts", func(c *gin.Context) { c.Status(http.StatusOK) })

	request := httptest.NewRequest(http.MethodOptions, "/api/posts", http.NoBody)
	request.Header.Set("Origin", "https://app.example.com")
	request.Header.Set("Access-Control-Request-Method", http.MethodGet)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected preflight status %d, got %d", http.StatusNoContent, recorder.Code)
	}
	if recorder.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Fatalf("unexpected allow origin %q", recorder.Header().Get("Access-Control-Allow-Origin"))
	}

	request = httptest.NewRequest(http.MethodGet, "/api/posts", http.NoBody)
	request.Header.Set("Origin", "https://evil.example.com")
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	if recorder.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("did not expect CORS headers for foreign origin")
	}
}

func TestIPRateLimiterSweepsIdleBuckets(t *testing.T) {
	limiter := newIPRateLimiter(RateLimit{PerMinute: 60, Burst: 2}, zap.NewNop())

	if !limiter.allow("10.0.0.1") || !limiter.allow("10.0.0.1") {
		t.Fatalf("expected burst of two to be allowed")
	}
	if limiter.allow("10.0.0.1") {
		t.Fatalf("expected third request to be limited")
	}
	if !limiter.allow("10.0.0.2") {
		t.Fatalf("expected other clients to be unaffected")
	}

	if removed := limiter.sweep(time.Now().Add(time.Minute)); removed != 2 {
		t.Fatalf("expected both refilled buckets to be swept, got %d", removed)
	}
}

func TestIPRateLimiterDisabled(t *testing.T) {
	limiter := newIPRateLimiter(RateLimit{}, zap.NewNop())
	for i := 0; i < 100; i++ {
		if !limiter.allow("10.0.0.1") {
			t.Fatalf("disabled limiter must allow every request")
		}
	}
}

func TestOriginChecker(t *testing.T) {
	check := NewOriginChecker([]string{"https://app.example.com/"})

	request := httptest.NewRequest(http.MethodGet, "/ws", http.NoBody)
	if !check(request) {
		t.Fatalf("requests without origin must be accepted")
	}
	request.Header.Set("Origin", "https://APP.example.com")
	if !check(request) {
		t.Fatalf("expected allowed origin to pass")
	}
	request.Header.Set("Origin", "https://other.example.com")
	if check(request) {
		t.Fatalf("expected foreign origin to be rejected")
	}

	if !NewOriginChecker([]string{"*"})(request) {
		t.Fatalf("wildcard must accept any origin")
	}
}
