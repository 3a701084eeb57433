package reddit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bottleup/searchworker/internal/domain"
)

const sampleListing = `{
  "data": {
    "children": [
      {
        "data": {
          "id": "abc123",
          "title": "How does Docker networking actually work?",
          "subreddit": "docker",
          "score": 412,
          "num_comments": 87,
          "created_utc": 1709290800.0,
          "url": "https://www.reddit.com/r/docker/comments/abc123/",
          "permalink": "/r/docker/comments/abc123/how_does_docker_networking_actually_work/",
          "selftext": "LONGTEXT"
        }
      }
    ]
  }
}`

func TestFetchMapsPosts(t *testing.T) {
	longText := strings.Repeat("x", 1000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := r.URL.Query()
		if params.Get("sort") != "relevance" || params.Get("limit") != "6" || params.Get("raw_json") != "1" {
			t.Errorf("unexpected query params: %v", params)
		}
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla") {
			t.Errorf("expected browser user agent, got %q", ua)
		}
		_, _ = w.Write([]byte(strings.Replace(sampleListing, "LONGTEXT", longText, 1)))
	}))
	defer server.Close()

	provider := NewProvider(Config{Endpoint: server.URL})
	outcome := provider.Fetch(context.Background(), "docker networking", domain.TierFree)

	if outcome.Err != nil {
		t.Fatalf("unexpected error: %+v", outcome.Err)
	}
	if len(outcome.Posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(outcome.Posts))
	}

	post := outcome.Posts[0]
	if post.ID != "abc123" || post.Subreddit != "docker" || post.Score != 412 {
		t.Fatalf("post not mapped: %+v", post)
	}
	if !strings.HasPrefix(post.Permalink, "https://reddit.com/r/docker/") {
		t.Fatalf("permalink not absolutized: %q", post.Permalink)
	}
	if len(post.SelfText) > selfTextLimit {
		t.Fatalf("selftext not truncated: %d bytes", len(post.SelfText))
	}
}

func TestFetchUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("whoa there, pardner"))
	}))
	defer server.Close()

	provider := NewProvider(Config{Endpoint: server.URL})
	outcome := provider.Fetch(context.Background(), "docker", domain.TierFree)

	if outcome.Err == nil || outcome.Err.Kind != domain.FailureUpstreamHTTP {
		t.Fatalf("expected upstream_http_error, got %+v", outcome.Err)
	}
	if outcome.Err.Status != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", outcome.Err.Status)
	}
}

func TestFetchMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json at all"))
	}))
	defer server.Close()

	provider := NewProvider(Config{Endpoint: server.URL})
	outcome := provider.Fetch(context.Background(), "docker", domain.TierFree)

	if outcome.Err == nil || outcome.Err.Kind != domain.FailureUnexpectedShape {
		t.Fatalf("expected unexpected_shape, got %+v", outcome.Err)
	}
}

func TestFetchEmptyListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"children": []}}`))
	}))
	defer server.Close()

	provider := NewProvider(Config{Endpoint: server.URL})
	outcome := provider.Fetch(context.Background(), "zxqvbn", domain.TierFree)

	if outcome.Err != nil {
		t.Fatalf("empty listing is a success, got %+v", outcome.Err)
	}
	if outcome.Posts == nil || len(outcome.Posts) != 0 {
		t.Fatalf("expected present empty slice, got %#v", outcome.Posts)
	}
}
