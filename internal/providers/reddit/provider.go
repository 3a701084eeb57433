package reddit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bottleup/searchworker/internal/domain"
	"bottleup/searchworker/internal/providers/common"
)

const (
	defaultEndpoint = "https://www.reddit.com/search.json"

	// Reddit rejects generic or empty user agents with 429/403, so the
	// default impersonates a desktop browser.
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	maxResults    = 6
	selfTextLimit = 400
)

// Config describes how to reach the public Reddit search endpoint.
type Config struct {
	Endpoint  string
	UserAgent string
	Client    *http.Client
}

// Provider fetches posts from Reddit's unauthenticated JSON search. It
// needs no credentials and is available on the free tier.
type Provider struct {
	endpoint  string
	userAgent string
	client    *http.Client
}

func NewProvider(cfg Config) *Provider {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Provider{endpoint: endpoint, userAgent: userAgent, client: client}
}

func (p *Provider) Name() domain.SourceName { return domain.SourceReddit }

func (p *Provider) Info() domain.SourceInfo {
	return domain.SourceInfo{
		Name:    domain.SourceReddit,
		Label:   "Reddit",
		Kind:    "discussion",
		MinTier: domain.TierFree,
		Enabled: true,
	}
}

func (p *Provider) Fetch(ctx context.Context, query string, tier domain.Tier) domain.SourceOutcome {
	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", "relevance")
	params.Set("limit", strconv.Itoa(maxResults))
	params.Set("raw_json", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return domain.FailedOutcome(domain.SourceReddit, domain.FailureUpstreamUnreachable, 0, err.Error())
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", p.userAgent)

	body, srcErr := common.Fetch(p.client, req)
	if srcErr != nil {
		return domain.SourceOutcome{Source: domain.SourceReddit, Err: srcErr}
	}

	var payload listing
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.FailedOutcome(domain.SourceReddit, domain.FailureUnexpectedShape, 0, err.Error())
	}

	posts := make([]domain.Post, 0, len(payload.Data.Children))
	for _, child := range payload.Data.Children {
		post := child.Data
		permalink := post.Permalink
		if permalink != "" && !strings.HasPrefix(permalink, "http") {
			permalink = "https://reddit.com" + permalink
		}
		posts = append(posts, domain.Post{
			ID:          post.ID,
			Title:       post.Title,
			Subreddit:   post.Subreddit,
			Score:       post.Score,
			NumComments: post.NumComments,
			CreatedUTC:  post.CreatedUTC,
			URL:         post.URL,
			Permalink:   permalink,
			SelfText:    common.Truncate(post.SelfText, selfTextLimit),
		})
	}
	return domain.SourceOutcome{Source: domain.SourceReddit, Posts: posts}
}

type listing struct {
	Data struct {
		Children []struct {
			Data listingPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type listingPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Subreddit   string  `json:"subreddit"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	SelfText    string  `json:"selftext"`
}
