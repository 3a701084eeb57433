package common

import (
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"bottleup/searchworker/internal/domain"
)

const (
	maxBodyBytes    = 4 * 1024 * 1024
	errExcerptBytes = 300
)

// Fetch executes the request and classifies every failure mode into a
// SourceError: transport errors (including context deadlines) become
// upstream_unreachable, non-2xx responses become upstream_http_error with the
// status and a bounded body excerpt. A nil SourceError means a 2xx response
// whose body was fully read.
func Fetch(client *http.Client, req *http.Request) ([]byte, *domain.SourceError) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, &domain.SourceError{
			Kind:   domain.FailureUpstreamUnreachable,
			Detail: err.Error(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errExcerptBytes+1))
		return nil, &domain.SourceError{
			Kind:   domain.FailureUpstreamHTTP,
			Status: resp.StatusCode,
			Detail: Excerpt(body, errExcerptBytes),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &domain.SourceError{
			Kind:   domain.FailureUpstreamUnreachable,
			Detail: err.Error(),
		}
	}
	return body, nil
}

// Excerpt trims a response body to a bounded diagnostic string.
func Excerpt(body []byte, limit int) string {
	value := strings.TrimSpace(string(body))
	return Truncate(value, limit)
}

// Truncate shortens free text to at most limit bytes without splitting a
// multi-byte rune.
func Truncate(value string, limit int) string {
	if limit <= 0 || len(value) <= limit {
		return value
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut]
}
