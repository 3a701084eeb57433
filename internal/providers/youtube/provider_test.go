package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"bottleup/searchworker/internal/domain"
)

const sampleResponse = `{
  "items": [
    {
      "id": {"videoId": "dQw4w9WgXcQ"},
      "snippet": {
        "title": "Docker Networking Explained",
        "description": "A deep dive into bridge networks.",
        "channelTitle": "DevOps Weekly",
        "publishedAt": "2024-03-01T12:00:00Z",
        "thumbnails": {
          "default": {"url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/default.jpg", "width": 120, "height": 90}
        }
      }
    },
    {
      "id": {},
      "snippet": {"title": "channel result, no video id"}
    }
  ]
}`

func TestFetchMapsVideos(t *testing.T) {
	var gotQuery atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer server.Close()

	provider := NewProvider(Config{APIKey: "test-key", Endpoint: server.URL})
	outcome := provider.Fetch(context.Background(), "docker networking", domain.TierFree)

	if outcome.Err != nil {
		t.Fatalf("unexpected error: %+v", outcome.Err)
	}
	if len(outcome.Videos) != 1 {
		t.Fatalf("expected 1 video (items without videoId skipped), got %d", len(outcome.Videos))
	}

	video := outcome.Videos[0]
	if video.VideoID != "dQw4w9WgXcQ" {
		t.Fatalf("unexpected video id %q", video.VideoID)
	}
	if video.URL != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Fatalf("unexpected watch url %q", video.URL)
	}
	if video.Thumbnails["default"].Width != 120 {
		t.Fatalf("thumbnail not mapped: %+v", video.Thumbnails)
	}

	params := gotQuery.Load().(url.Values)
	if params.Get("maxResults") != "6" || params.Get("type") != "video" || params.Get("safeSearch") != "none" {
		t.Fatal("request parameters do not match the expected search contract")
	}
	if params.Get("q") != "docker networking" {
		t.Fatalf("unexpected query param %q", params.Get("q"))
	}
}

func TestFetchMissingAPIKey(t *testing.T) {
	var called atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Add(1)
	}))
	defer server.Close()

	provider := NewProvider(Config{Endpoint: server.URL})
	outcome := provider.Fetch(context.Background(), "docker", domain.TierFree)

	if outcome.Err == nil || outcome.Err.Kind != domain.FailureMissingCredentials {
		t.Fatalf("expected missing_credentials, got %+v", outcome.Err)
	}
	if called.Load() != 0 {
		t.Fatal("missing credentials must not trigger an HTTP request")
	}
}

func TestFetchUpstreamHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"message": "quota exceeded"}}`))
	}))
	defer server.Close()

	provider := NewProvider(Config{APIKey: "test-key", Endpoint: server.URL})
	outcome := provider.Fetch(context.Background(), "docker", domain.TierFree)

	if outcome.Err == nil || outcome.Err.Kind != domain.FailureUpstreamHTTP {
		t.Fatalf("expected upstream_http_error, got %+v", outcome.Err)
	}
	if outcome.Err.Status != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", outcome.Err.Status)
	}
	if !strings.Contains(outcome.Err.Detail, "quota exceeded") {
		t.Fatalf("expected body excerpt in detail, got %q", outcome.Err.Detail)
	}
	if len(outcome.Videos) != 0 {
		t.Fatal("failed fetch must not carry items")
	}
}

func TestFetchUnreachableUpstream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // closed before use

	provider := NewProvider(Config{APIKey: "test-key", Endpoint: server.URL})
	outcome := provider.Fetch(context.Background(), "docker", domain.TierFree)

	if outcome.Err == nil || outcome.Err.Kind != domain.FailureUpstreamUnreachable {
		t.Fatalf("expected upstream_unreachable, got %+v", outcome.Err)
	}
}

func TestFetchMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	provider := NewProvider(Config{APIKey: "test-key", Endpoint: server.URL})
	outcome := provider.Fetch(context.Background(), "docker", domain.TierFree)

	if outcome.Err == nil || outcome.Err.Kind != domain.FailureUnexpectedShape {
		t.Fatalf("expected unexpected_shape, got %+v", outcome.Err)
	}
}

func TestInfo(t *testing.T) {
	provider := NewProvider(Config{APIKey: "test-key"})
	info := provider.Info()
	if info.Name != domain.SourceVideos || info.MinTier != domain.TierFree || !info.Enabled {
		t.Fatalf("unexpected info: %+v", info)
	}
	if NewProvider(Config{}).Info().Enabled {
		t.Fatal("provider without key must report disabled")
	}
}
