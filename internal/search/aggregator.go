package search

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/semaphore"

	"bottleup/searchworker/internal/domain"
)

// Search runs the query against every configured source and returns the
// merged aggregate. Results are cached per normalized query and tier;
// a cache hit is returned verbatim, so repeated requests within the TTL
// produce identical documents.
func (s *Service) Search(ctx context.Context, rawQuery string, tier domain.Tier) (domain.AggregateResult, error) {
	query := strings.TrimSpace(rawQuery)
	if utf8.RuneCountInString(query) < minQueryLength {
		return domain.AggregateResult{}, ErrInvalidQuery
	}
	if len(s.sources) == 0 {
		return domain.AggregateResult{}, ErrNoSources
	}
	if tier != domain.TierPro {
		tier = domain.TierFree
	}

	startedAt := time.Now()
	key := buildCacheKey(query, tier)
	if !s.cacheDisabled {
		if cached, ok := s.cacheLookup(ctx, key); ok {
			return cached, nil
		}
	}

	result := s.fanOut(ctx, query, tier, startedAt)
	if !s.cacheDisabled {
		s.cacheStore(ctx, key, result)
	}
	return result, nil
}

// fanOut queries all sources concurrently. Each goroutine writes only
// its own slot of the outcomes slice, and the merge happens only after
// every fetch has settled.
func (s *Service) fanOut(ctx context.Context, query string, tier domain.Tier, startedAt time.Time) domain.AggregateResult {
	runCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	outcomes := make([]domain.SourceOutcome, len(s.sources))
	sem := semaphore.NewWeighted(maxConcurrentFetches)
	var wg sync.WaitGroup
	for i, src := range s.sources {
		wg.Add(1)
		go func(index int, source Source) {
			defer wg.Done()
			if err := sem.Acquire(runCtx, 1); err != nil {
				outcomes[index] = domain.FailedOutcome(source.Name(), domain.FailureUpstreamUnreachable, 0, "search deadline exceeded before fetch started")
				return
			}
			defer sem.Release(1)

			fetchStarted := time.Now()
			outcome := source.Fetch(runCtx, query, tier)
			if outcome.Source == "" {
				outcome.Source = source.Name()
			}
			s.recordSourceResult(query, outcome, time.Since(fetchStarted))
			outcomes[index] = outcome
		}(i, src)
	}
	wg.Wait()

	return mergeOutcomes(query, tier, outcomes, startedAt)
}

// mergeOutcomes folds settled per-source outcomes into one aggregate
// document. It is a pure function over its inputs; result arrays are
// always present even when empty.
func mergeOutcomes(query string, tier domain.Tier, outcomes []domain.SourceOutcome, startedAt time.Time) domain.AggregateResult {
	result := domain.AggregateResult{
		Query:     query,
		Tier:      tier,
		FetchedAt: time.Now().UTC(),
		Videos:    []domain.Video{},
		Reddit:    []domain.Post{},
		Google:    []domain.WebResult{},
		Images:    []domain.ImageResult{},
		LinkedIn:  []domain.ProfessionalResult{},
	}

	for _, outcome := range outcomes {
		status := domain.SourceStatus{
			Name:  outcome.Source,
			OK:    outcome.Err == nil,
			Gated: outcome.Gated,
			Count: outcome.Count(),
		}
		if outcome.Err != nil {
			status.Error = errorMessage(outcome.Err)
		}
		result.Sources = append(result.Sources, status)

		switch outcome.Source {
		case domain.SourceVideos:
			if outcome.Err != nil {
				result.VideosError = outcome.Err
			} else if outcome.Videos != nil {
				result.Videos = outcome.Videos
			}
		case domain.SourceReddit:
			if outcome.Err != nil {
				result.RedditError = outcome.Err
			} else if outcome.Posts != nil {
				result.Reddit = outcome.Posts
			}
		case domain.SourceGoogle:
			if outcome.Gated {
				result.GoogleProOnly = true
			} else if outcome.Err != nil {
				result.GoogleError = outcome.Err
			} else if outcome.Web != nil {
				result.Google = outcome.Web
			}
		case domain.SourceImages:
			if outcome.Gated {
				result.ImagesProOnly = true
			} else if outcome.Err != nil {
				result.ImagesError = outcome.Err
			} else if outcome.Images != nil {
				result.Images = outcome.Images
			}
		case domain.SourceLinkedIn:
			if outcome.Gated {
				result.LinkedInProOnly = true
			} else if outcome.Err != nil {
				result.LinkedInError = outcome.Err
			} else if outcome.Professional != nil {
				result.LinkedIn = outcome.Professional
			}
		}
	}

	sort.Slice(result.Sources, func(i, j int) bool {
		return result.Sources[i].Name < result.Sources[j].Name
	})
	result.ElapsedMS = time.Since(startedAt).Milliseconds()
	return result
}

func errorMessage(err *domain.SourceError) string {
	msg := string(err.Kind)
	if err.Status != 0 {
		msg += " (" + strconv.Itoa(err.Status) + ")"
	}
	if err.Detail != "" {
		msg += ": " + err.Detail
	}
	return msg
}
