package search

import (
	"sort"
	"time"

	"bottleup/searchworker/internal/domain"
	"bottleup/searchworker/internal/metrics"
)

// sourceHealth is passive bookkeeping about recent fetches. It feeds the
// diagnostics endpoint and never influences routing: every search still
// queries every source regardless of past failures.
type sourceHealth struct {
	lastError     string
	lastErrorKind domain.FailureKind
	lastSuccessAt time.Time
	lastFailureAt time.Time
	lastLatency   time.Duration
	lastQuery     string
	totalRequests int64
	totalFailures int64
	gatedCount    int64
}

func (s *Service) recordSourceResult(query string, outcome domain.SourceOutcome, latency time.Duration) {
	outcomeLabel := "ok"
	switch {
	case outcome.Gated:
		outcomeLabel = "gated"
	case outcome.Err != nil:
		outcomeLabel = "error"
	}
	metrics.SourceRequestsTotal.WithLabelValues(string(outcome.Source), outcomeLabel).Inc()
	metrics.SourceRequestDuration.WithLabelValues(string(outcome.Source)).Observe(latency.Seconds())

	s.healthMu.Lock()
	defer s.healthMu.Unlock()

	health := s.health[outcome.Source]
	if health == nil {
		health = &sourceHealth{}
		s.health[outcome.Source] = health
	}
	health.totalRequests++
	health.lastLatency = latency
	health.lastQuery = query

	now := time.Now()
	switch {
	case outcome.Gated:
		health.gatedCount++
	case outcome.Err != nil:
		health.totalFailures++
		health.lastFailureAt = now
		health.lastError = errorMessage(outcome.Err)
		health.lastErrorKind = outcome.Err.Kind
	default:
		health.lastSuccessAt = now
	}
}

// SourceDiagnostics joins the source catalog with the recorded health.
func (s *Service) SourceDiagnostics() []domain.SourceDiagnostics {
	s.healthMu.Lock()
	defer s.healthMu.Unlock()

	diags := make([]domain.SourceDiagnostics, 0, len(s.sources))
	for _, src := range s.sources {
		info := src.Info()
		diag := domain.SourceDiagnostics{
			Name:    info.Name,
			Label:   info.Label,
			Kind:    info.Kind,
			MinTier: info.MinTier,
			Enabled: info.Enabled,
		}
		if health := s.health[info.Name]; health != nil {
			diag.LastError = health.lastError
			diag.LastErrorKind = string(health.lastErrorKind)
			diag.LastLatencyMS = health.lastLatency.Milliseconds()
			diag.LastQuery = health.lastQuery
			diag.TotalRequests = health.totalRequests
			diag.TotalFailures = health.totalFailures
			diag.GatedCount = health.gatedCount
			if !health.lastSuccessAt.IsZero() {
				at := health.lastSuccessAt
				diag.LastSuccessAt = &at
			}
			if !health.lastFailureAt.IsZero() {
				at := health.lastFailureAt
				diag.LastFailureAt = &at
			}
		}
		diags = append(diags, diag)
	}
	sort.Slice(diags, func(i, j int) bool { return diags[i].Name < diags[j].Name })
	return diags
}
