package common

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bottleup/searchworker/internal/domain"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is longer", 7, "this is"},
		{"", 5, ""},
		{"hello", 0, "hello"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.limit); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestTruncateDoesNotSplitRunes(t *testing.T) {
	value := "héllo wörld" // multi-byte runes
	for limit := 1; limit < len(value); limit++ {
		got := Truncate(value, limit)
		if !strings.HasPrefix(value, got) {
			t.Fatalf("limit %d: %q is not a prefix of %q", limit, got, value)
		}
		for _, r := range got {
			if r == '�' {
				t.Fatalf("limit %d: truncation split a rune: %q", limit, got)
			}
		}
	}
}

func TestFetchClassifiesStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("  upstream exploded  "))
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	body, srcErr := Fetch(server.Client(), req)
	if body != nil {
		t.Fatal("expected nil body on error")
	}
	if srcErr == nil || srcErr.Kind != domain.FailureUpstreamHTTP || srcErr.Status != http.StatusBadGateway {
		t.Fatalf("unexpected error: %+v", srcErr)
	}
	if srcErr.Detail != "upstream exploded" {
		t.Fatalf("expected trimmed excerpt, got %q", srcErr.Detail)
	}
}

func TestFetchClassifiesTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	_, srcErr := Fetch(http.DefaultClient, req)
	if srcErr == nil || srcErr.Kind != domain.FailureUpstreamUnreachable {
		t.Fatalf("expected upstream_unreachable, got %+v", srcErr)
	}
}

func TestFetchReturnsBodyOnSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	body, srcErr := Fetch(server.Client(), req)
	if srcErr != nil {
		t.Fatalf("unexpected error: %+v", srcErr)
	}
	if string(body) != `{"ok": true}` {
		t.Fatalf("unexpected body %q", body)
	}
}
