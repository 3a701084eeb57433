package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"bottleup/searchworker/internal/ai"
	"bottleup/searchworker/internal/domain"
	"bottleup/searchworker/internal/metrics"
	"bottleup/searchworker/internal/providers/zenquotes"
	"bottleup/searchworker/internal/search"
)

const (
	maxQueryLength  = 500
	maxChatBodySize = 256 * 1024
)

// Aggregator is the search surface the server exposes.
type Aggregator interface {
	Search(ctx context.Context, query string, tier domain.Tier) (domain.AggregateResult, error)
	Sources() []domain.SourceInfo
	SourceDiagnostics() []domain.SourceDiagnostics
}

// ChatService answers questions about search results.
type ChatService interface {
	Enabled() bool
	Answer(ctx context.Context, question string, searchCtx domain.ChatContext) (string, error)
}

// QuoteService fetches the quote of the day.
type QuoteService interface {
	Today(ctx context.Context) (domain.Quote, error)
}

// Server wires the aggregation service, the chat assistant and the
// quote client behind the worker's HTTP surface.
type Server struct {
	search Aggregator
	chat   ChatService
	quote  QuoteService
	logger *slog.Logger
}

// ServerOption configures optional Server dependencies.
type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithChat(chat ChatService) ServerOption {
	return func(s *Server) { s.chat = chat }
}

func WithQuote(quote QuoteService) ServerOption {
	return func(s *Server) { s.quote = quote }
}

func NewServer(aggregator Aggregator, opts ...ServerOption) *Server {
	s := &Server{
		search: aggregator,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler assembles the route table and the middleware chain. Recovery
// wraps everything so a panic anywhere still produces a 500; CORS sits
// outside tracing so preflights stay cheap.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/sources", s.handleSources)
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/quote", s.handleQuote)
	mux.Handle("/metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = loggingMiddleware(s.logger, handler)
	handler = otelhttp.NewHandler(handler, "search-worker",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/metrics" && r.URL.Path != "/health"
		}))
	handler = metricsMiddleware(handler)
	handler = rateLimitMiddleware(handler)
	handler = cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(handler)
	return recoveryMiddleware(s.logger, handler)
}

// handleRoot serves both the search operation (when a q parameter is
// present) and a plain health banner (when it is not).
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not_found", "unknown route")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}

	params := r.URL.Query()
	if !params.Has("q") {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("bottleup search worker ok"))
		return
	}

	query := params.Get("q")
	if len(query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "invalid_query", "query too long")
		return
	}
	tier := domain.TierFromPro(parseOptionalBool(params.Get("pro")))

	result, err := s.search.Search(r.Context(), query, tier)
	if err != nil {
		switch {
		case errors.Is(err, search.ErrInvalidQuery):
			writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		case errors.Is(err, search.ErrNoSources):
			writeError(w, http.StatusServiceUnavailable, "no_sources", err.Error())
		default:
			s.logger.Error("search failed",
				slog.String("query", truncate(query, 120)),
				slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal_error", "search failed")
		}
		return
	}

	for _, status := range result.Sources {
		if !status.OK {
			s.logger.Warn("source failed",
				slog.String("source", string(status.Name)),
				slog.String("query", truncate(query, 120)),
				slog.String("error", status.Error))
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"service":   "search-worker",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sources": s.search.SourceDiagnostics(),
	})
}

type chatPayload struct {
	Question string             `json:"question"`
	Context  domain.ChatContext `json:"context"`
	IsPro    bool               `json:"isPro"`
}

type chatResponse struct {
	Response string `json:"response"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	var payload chatPayload
	if err := decodeJSONBody(w, r, &payload); err != nil {
		metrics.ChatRequestsTotal.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if strings.TrimSpace(payload.Question) == "" {
		metrics.ChatRequestsTotal.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, "invalid_body", "question is required")
		return
	}
	if !payload.IsPro {
		metrics.ChatRequestsTotal.WithLabelValues("denied").Inc()
		writeError(w, http.StatusForbidden, "pro_required", "AI chat requires a pro subscription")
		return
	}
	if s.chat == nil || !s.chat.Enabled() {
		metrics.ChatRequestsTotal.WithLabelValues("unconfigured").Inc()
		writeError(w, http.StatusInternalServerError, "not_configured", "AI API key not configured")
		return
	}

	answer, err := s.chat.Answer(r.Context(), payload.Question, payload.Context)
	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues("error").Inc()
		var upstream *ai.UpstreamError
		if errors.As(err, &upstream) {
			s.logger.Error("ai backend error",
				slog.Int("status", upstream.Status),
				slog.String("detail", upstream.Detail))
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error":   "AI service error",
				"status":  upstream.Status,
				"details": upstream.Detail,
			})
			return
		}
		s.logger.Error("chat failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "chat failed")
		return
	}
	metrics.ChatRequestsTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, chatResponse{Response: answer})
}

// handleQuote always answers 200: when the upstream is down or returns
// garbage the hardcoded fallback quote is served instead.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}
	if s.quote == nil {
		metrics.QuoteFallbacksTotal.Inc()
		writeJSON(w, http.StatusOK, zenquotes.Fallback)
		return
	}
	quote, err := s.quote.Today(r.Context())
	if err != nil {
		metrics.QuoteFallbacksTotal.Inc()
		s.logger.Warn("quote fetch failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusOK, zenquotes.Fallback)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodySize)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return errors.New("request body must be valid JSON")
	}
	return nil
}

func parseOptionalBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
