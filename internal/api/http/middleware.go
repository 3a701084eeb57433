package apihttp

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"bottleup/searchworker/internal/metrics"
)

const (
	rateLimitPerSecond = 10
	rateLimitBurst     = 20

	clientIdleEviction = 10 * time.Minute
	slowRequest        = 2 * time.Second
)

// responseWriter captures the status code and payload size for logging
// and metrics.
type responseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(data []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(data)
	w.bytes += n
	return n, err
}

func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		started := time.Now()
		wrapped := &responseWriter{ResponseWriter: w}
		next.ServeHTTP(wrapped, r)

		elapsed := time.Since(started)
		logger.Log(r.Context(), pickRequestLogLevel(wrapped.status, elapsed), "http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", wrapped.status),
			slog.Int("bytes", wrapped.bytes),
			slog.Duration("elapsed", elapsed),
			slog.String("client", clientIP(r)))
	})
}

func pickRequestLogLevel(status int, elapsed time.Duration) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400 || elapsed > slowRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func recoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Any("panic", rec))
				writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		started := time.Now()
		wrapped := &responseWriter{ResponseWriter: w}
		next.ServeHTTP(wrapped, r)

		route := normalizeRoute(r.URL.Path)
		status := strconv.Itoa(wrapped.status)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(started).Seconds())
	})
}

// normalizeRoute keeps metric label cardinality bounded.
func normalizeRoute(path string) string {
	switch path {
	case "/", "/health", "/sources", "/chat", "/quote", "/metrics":
		return path
	default:
		return "/other"
	}
}

type rateLimitedClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*rateLimitedClient
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client := rl.clients[ip]
	if client == nil {
		client = &rateLimitedClient{
			limiter: rate.NewLimiter(rate.Limit(rateLimitPerSecond), rateLimitBurst),
		}
		rl.clients[ip] = client
		rl.evictIdleLocked(now)
	}
	client.lastSeen = now
	return client.limiter.Allow()
}

func (rl *rateLimiter) evictIdleLocked(now time.Time) {
	for ip, client := range rl.clients {
		if now.Sub(client.lastSeen) > clientIdleEviction {
			delete(rl.clients, ip)
		}
	}
}

func rateLimitMiddleware(next http.Handler) http.Handler {
	limiter := &rateLimiter{clients: make(map[string]*rateLimitedClient)}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		if !limiter.allow(clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.IndexByte(forwarded, ','); idx > 0 {
			return strings.TrimSpace(forwarded[:idx])
		}
		return strings.TrimSpace(forwarded)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}
