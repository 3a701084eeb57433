package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"bottleup/searchworker/internal/domain"
	"bottleup/searchworker/internal/metrics"
)

const (
	cacheKeyPrefix = "search:"

	defaultCacheTTL        = 12 * time.Hour
	defaultCacheMaxEntries = 512
)

// CacheBackend stores merged aggregates keyed by normalized query and
// tier. A ttl of zero or less stores the entry without expiration.
type CacheBackend interface {
	Get(ctx context.Context, key string) (domain.AggregateResult, bool, error)
	Set(ctx context.Context, key string, result domain.AggregateResult, ttl time.Duration) error
}

// buildCacheKey normalizes the query by trimming and lowercasing, so
// "Docker" and "docker " share an entry, and suffixes the tier so free
// and pro aggregates never collide.
func buildCacheKey(query string, tier domain.Tier) string {
	normalized := strings.ToLower(strings.TrimSpace(query))
	return cacheKeyPrefix + normalized + ":" + string(tier)
}

func (s *Service) cacheLookup(ctx context.Context, key string) (domain.AggregateResult, bool) {
	result, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache lookup failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		metrics.CacheMissesTotal.Inc()
		return domain.AggregateResult{}, false
	}
	if ok {
		metrics.CacheHitsTotal.Inc()
	} else {
		metrics.CacheMissesTotal.Inc()
	}
	return result, ok
}

// cacheStore writes the aggregate with the configured TTL. If the TTL
// write is rejected it retries once without expiration, so a backend
// that cannot expire still captures the entry.
func (s *Service) cacheStore(ctx context.Context, key string, result domain.AggregateResult) {
	ttl := s.cacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if err := s.cache.Set(ctx, key, result, ttl); err == nil {
		return
	}
	if err := s.cache.Set(ctx, key, result, 0); err != nil {
		metrics.CacheWriteFailuresTotal.Inc()
		s.logger.Warn("cache store failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}

// MemoryCacheBackend is the default in-process backend. Expired entries
// are dropped lazily on read, and the oldest entries are evicted once
// maxEntries is exceeded.
type MemoryCacheBackend struct {
	mu         sync.Mutex
	entries    map[string]memoryCacheEntry
	maxEntries int
}

type memoryCacheEntry struct {
	result    domain.AggregateResult
	storedAt  time.Time
	expiresAt time.Time
}

func NewMemoryCacheBackend(maxEntries int) *MemoryCacheBackend {
	if maxEntries <= 0 {
		maxEntries = defaultCacheMaxEntries
	}
	return &MemoryCacheBackend{
		entries:    make(map[string]memoryCacheEntry),
		maxEntries: maxEntries,
	}
}

func (m *MemoryCacheBackend) Get(ctx context.Context, key string) (domain.AggregateResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return domain.AggregateResult{}, false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(m.entries, key)
		return domain.AggregateResult{}, false, nil
	}
	return entry.result, true, nil
}

func (m *MemoryCacheBackend) Set(ctx context.Context, key string, result domain.AggregateResult, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := memoryCacheEntry{result: result, storedAt: time.Now()}
	if ttl > 0 {
		entry.expiresAt = entry.storedAt.Add(ttl)
	}
	m.entries[key] = entry
	m.trimLocked()
	return nil
}

func (m *MemoryCacheBackend) trimLocked() {
	if len(m.entries) <= m.maxEntries {
		return
	}
	type keyed struct {
		key      string
		storedAt time.Time
	}
	all := make([]keyed, 0, len(m.entries))
	for key, entry := range m.entries {
		all = append(all, keyed{key: key, storedAt: entry.storedAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].storedAt.Before(all[j].storedAt) })
	for _, item := range all[:len(m.entries)-m.maxEntries] {
		delete(m.entries, item.key)
	}
}
