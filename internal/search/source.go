package search

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"bottleup/searchworker/internal/domain"
)

var (
	// ErrInvalidQuery is returned when the trimmed query is shorter than
	// the minimum length.
	ErrInvalidQuery = errors.New("query must be at least 2 characters")

	// ErrNoSources is returned when the service has no sources to query.
	ErrNoSources = errors.New("no search sources configured")
)

const (
	minQueryLength       = 2
	defaultSearchTimeout = 8 * time.Second
	maxConcurrentFetches = 8
)

// Source is one upstream a search fans out to. Fetch never panics and
// never returns a Go error: every failure mode is folded into the
// outcome so one broken upstream cannot take down the aggregate.
type Source interface {
	Name() domain.SourceName
	Info() domain.SourceInfo
	Fetch(ctx context.Context, query string, tier domain.Tier) domain.SourceOutcome
}

// Service fans a query out to every configured source, merges the
// outcomes and caches the aggregate per query and tier.
type Service struct {
	sources []Source
	timeout time.Duration

	cache         CacheBackend
	cacheTTL      time.Duration
	cacheDisabled bool

	logger *slog.Logger

	healthMu sync.Mutex
	health   map[domain.SourceName]*sourceHealth
}

// ServiceOption configures optional Service behavior.
type ServiceOption func(*Service)

// WithCache replaces the default in-memory cache backend.
func WithCache(backend CacheBackend) ServiceOption {
	return func(s *Service) {
		if backend != nil {
			s.cache = backend
		}
	}
}

// WithCacheTTL overrides how long aggregates stay cached.
func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithCacheDisabled turns response caching off entirely.
func WithCacheDisabled(disabled bool) ServiceOption {
	return func(s *Service) {
		s.cacheDisabled = disabled
	}
}

// WithLogger sets the logger used for cache and fan-out diagnostics.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService builds a Service over the given sources. Nil sources are
// skipped so callers can pass conditionally constructed providers.
func NewService(sources []Source, timeout time.Duration, opts ...ServiceOption) *Service {
	if timeout <= 0 {
		timeout = defaultSearchTimeout
	}
	s := &Service{
		timeout:  timeout,
		cache:    NewMemoryCacheBackend(defaultCacheMaxEntries),
		cacheTTL: defaultCacheTTL,
		logger:   slog.Default(),
		health:   make(map[domain.SourceName]*sourceHealth),
	}
	for _, src := range sources {
		if src != nil {
			s.sources = append(s.sources, src)
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sources returns the catalog of configured sources sorted by name.
func (s *Service) Sources() []domain.SourceInfo {
	infos := make([]domain.SourceInfo, 0, len(s.sources))
	for _, src := range s.sources {
		infos = append(infos, src.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
