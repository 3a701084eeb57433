package apihttp

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "/"},
		{"/health", "/health"},
		{"/chat", "/chat"},
		{"/quote", "/quote"},
		{"/sources", "/sources"},
		{"/metrics", "/metrics"},
		{"/favicon.ico", "/other"},
		{"/admin/secret", "/other"},
	}
	for _, tt := range tests {
		if got := normalizeRoute(tt.path); got != tt.want {
			t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:4321"
	if got := clientIP(req); got != "203.0.113.7" {
		t.Fatalf("clientIP = %q, want 203.0.113.7", got)
	}

	req.Header.Set("X-Forwarded-For", "198.51.100.9, 10.0.0.1")
	if got := clientIP(req); got != "198.51.100.9" {
		t.Fatalf("clientIP with forwarded header = %q, want 198.51.100.9", got)
	}
}

func TestPickRequestLogLevel(t *testing.T) {
	if got := pickRequestLogLevel(http.StatusOK, time.Millisecond); got != slog.LevelInfo {
		t.Fatalf("200 fast request: got %v", got)
	}
	if got := pickRequestLogLevel(http.StatusNotFound, time.Millisecond); got != slog.LevelWarn {
		t.Fatalf("404: got %v", got)
	}
	if got := pickRequestLogLevel(http.StatusInternalServerError, time.Millisecond); got != slog.LevelError {
		t.Fatalf("500: got %v", got)
	}
	if got := pickRequestLogLevel(http.StatusOK, 5*time.Second); got != slog.LevelWarn {
		t.Fatalf("slow request: got %v", got)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := rateLimitMiddleware(next)

	var limited bool
	for i := 0; i < rateLimitBurst*2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/?q=docker", nil)
		req.RemoteAddr = "203.0.113.7:4321"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatal("expected rate limiter to trip after burst exhaustion")
	}
}

func TestRateLimitSkipsHealthAndMetrics(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := rateLimitMiddleware(next)

	for i := 0; i < rateLimitBurst*3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "203.0.113.7:4321"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("health checks must never be rate limited, got %d", rec.Code)
		}
	}
}

func TestResponseWriterDefaultsTo200(t *testing.T) {
	rec := httptest.NewRecorder()
	wrapped := &responseWriter{ResponseWriter: rec}
	if _, err := wrapped.Write([]byte("ok")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if wrapped.status != http.StatusOK {
		t.Fatalf("implicit status should be 200, got %d", wrapped.status)
	}
	if wrapped.bytes != 2 {
		t.Fatalf("expected 2 bytes recorded, got %d", wrapped.bytes)
	}
}
