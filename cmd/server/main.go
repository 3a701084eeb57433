package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"bottleup/searchworker/internal/ai"
	apihttp "bottleup/searchworker/internal/api/http"
	"bottleup/searchworker/internal/app"
	"bottleup/searchworker/internal/metrics"
	"bottleup/searchworker/internal/providers/customsearch"
	"bottleup/searchworker/internal/providers/reddit"
	"bottleup/searchworker/internal/providers/youtube"
	"bottleup/searchworker/internal/providers/zenquotes"
	"bottleup/searchworker/internal/search"
	"bottleup/searchworker/internal/telemetry"
)

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	metrics.Register(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, "search-worker")
	if err != nil {
		logger.Error("tracing init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", slog.String("error", err.Error()))
		}
	}()

	upstreamClient := &http.Client{
		Timeout:   cfg.RequestTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	redisClient := newRedisClient(ctx, cfg, logger)

	sources := []search.Source{
		youtube.NewProvider(youtube.Config{
			APIKey:    cfg.YouTubeAPIKey,
			Endpoint:  cfg.YouTubeEndpoint,
			UserAgent: cfg.UserAgent,
			Client:    upstreamClient,
		}),
		reddit.NewProvider(reddit.Config{
			Endpoint: cfg.RedditEndpoint,
			Client:   upstreamClient,
		}),
		customsearch.NewWebProvider(customSearchConfig(cfg, upstreamClient)),
		customsearch.NewImageProvider(customSearchConfig(cfg, upstreamClient)),
		customsearch.NewLinkedInProvider(customSearchConfig(cfg, upstreamClient)),
	}

	service := search.NewService(sources, cfg.RequestTimeout, buildServiceOptions(cfg, logger, redisClient)...)

	serverOpts := []apihttp.ServerOption{apihttp.WithLogger(logger)}
	if chat := newChatClient(cfg); chat != nil {
		serverOpts = append(serverOpts, apihttp.WithChat(chat))
	}
	serverOpts = append(serverOpts, apihttp.WithQuote(zenquotes.NewClient(zenquotes.Config{
		Endpoint:  cfg.QuoteEndpoint,
		UserAgent: cfg.UserAgent,
		Client:    upstreamClient,
		Redis:     redisClient,
		CacheTTL:  cfg.QuoteCacheTTL,
	})))

	server := apihttp.NewServer(service, serverOpts...)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("search worker listening", slog.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("http server failed", slog.String("error", err.Error()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", slog.String("error", err.Error()))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	logger.Info("search worker stopped")
}

func customSearchConfig(cfg app.Config, client *http.Client) customsearch.Config {
	return customsearch.Config{
		APIKey:    cfg.GoogleAPIKey,
		CX:        cfg.GoogleCX,
		Endpoint:  cfg.CSEEndpoint,
		UserAgent: cfg.UserAgent,
		Client:    client,
	}
}

// newRedisClient connects to Redis when a URL is configured. Failures
// are logged and nil is returned so the worker falls back to the
// in-memory cache instead of refusing to start.
func newRedisClient(ctx context.Context, cfg app.Config, logger *slog.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn("invalid redis url, using in-memory cache", slog.String("error", err.Error()))
		return nil
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, using in-memory cache", slog.String("error", err.Error()))
		_ = client.Close()
		return nil
	}
	logger.Info("redis cache enabled", slog.String("addr", opts.Addr))
	return client
}

func buildServiceOptions(cfg app.Config, logger *slog.Logger, redisClient *redis.Client) []search.ServiceOption {
	opts := []search.ServiceOption{
		search.WithLogger(logger),
		search.WithCacheTTL(cfg.CacheTTL),
		search.WithCacheDisabled(cfg.CacheDisabled),
	}
	if redisClient != nil {
		opts = append(opts, search.WithCache(search.NewRedisCacheBackend(redisClient)))
	}
	return opts
}

func newChatClient(cfg app.Config) *ai.Client {
	switch {
	case cfg.GroqAPIKey != "":
		return ai.NewClient(ai.Config{
			APIKey:  cfg.GroqAPIKey,
			Model:   cfg.AIModel,
			UseGroq: true,
			Client: &http.Client{
				Timeout:   30 * time.Second,
				Transport: otelhttp.NewTransport(http.DefaultTransport),
			},
		})
	case cfg.OpenAIAPIKey != "":
		return ai.NewClient(ai.Config{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.AIModel,
			Client: &http.Client{
				Timeout:   30 * time.Second,
				Transport: otelhttp.NewTransport(http.DefaultTransport),
			},
		})
	default:
		return nil
	}
}

func newLogger(cfg app.Config) *slog.Logger {
	level := parseLogLevel(cfg.LogLevel)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func parseLogLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
