package zenquotes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestTodayFetchesQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"q": "Simplicity is the ultimate sophistication.", "a": "Leonardo da Vinci", "h": "<blockquote>...</blockquote>"}]`))
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL})
	quote, err := client.Today(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Author != "Leonardo da Vinci" {
		t.Fatalf("unexpected quote: %+v", quote)
	}
}

func TestTodayEmptyPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL})
	if _, err := client.Today(context.Background()); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestTodayUpstreamError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL})
	if _, err := client.Today(context.Background()); err == nil {
		t.Fatal("expected error for 503 response")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestTodayMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not": "an array"}`))
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL})
	if _, err := client.Today(context.Background()); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestFallbackIsComplete(t *testing.T) {
	if Fallback.Text == "" || Fallback.Author == "" {
		t.Fatalf("fallback quote must be fully populated: %+v", Fallback)
	}
}
