package youtube

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"bottleup/searchworker/internal/domain"
	"bottleup/searchworker/internal/providers/common"
)

const (
	defaultEndpoint  = "https://www.googleapis.com/youtube/v3/search"
	defaultUserAgent = "bottleup-search-worker/1.0"

	maxResults       = 6
	descriptionLimit = 400
)

// Config describes how to reach the YouTube Data API.
type Config struct {
	APIKey    string
	Endpoint  string
	UserAgent string
	Client    *http.Client
}

// Provider fetches video results from the YouTube Data API v3 search
// endpoint. It is available on the free tier.
type Provider struct {
	apiKey    string
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
	return &Provider{
		apiKey:    cfg.APIKey,
		endpoint:  endpoint,
		userAgent: userAgent,
		client:    client,
	}
}

func (p *Provider) Name() domain.SourceName { return domain.SourceVideos }

func (p *Provider) Info() domain.SourceInfo {
	return domain.SourceInfo{
		Name:    domain.SourceVideos,
		Label:   "YouTube",
		Kind:    "video",
		MinTier: domain.TierFree,
		Enabled: p.apiKey != "",
	}
}

func (p *Provider) Fetch(ctx context.Context, query string, tier domain.Tier) domain.SourceOutcome {
	if p.apiKey == "" {
		return domain.FailedOutcome(domain.SourceVideos, domain.FailureMissingCredentials, 0, "YouTube API key not configured")
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("type", "video")
	params.Set("safeSearch", "none")
	params.Set("key", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return domain.FailedOutcome(domain.SourceVideos, domain.FailureUpstreamUnreachable, 0, err.Error())
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", p.userAgent)

	body, srcErr := common.Fetch(p.client, req)
	if srcErr != nil {
		return domain.SourceOutcome{Source: domain.SourceVideos, Err: srcErr}
	}

	var payload searchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.FailedOutcome(domain.SourceVideos, domain.FailureUnexpectedShape, 0, err.Error())
	}

	videos := make([]domain.Video, 0, len(payload.Items))
	for _, item := range payload.Items {
		if item.ID.VideoID == "" {
			continue
		}
		thumbnails := make(map[string]domain.Thumbnail, len(item.Snippet.Thumbnails))
		for size, thumb := range item.Snippet.Thumbnails {
			thumbnails[size] = domain.Thumbnail{URL: thumb.URL, Width: thumb.Width, Height: thumb.Height}
		}
		videos = append(videos, domain.Video{
			VideoID:      item.ID.VideoID,
			Title:        item.Snippet.Title,
			Description:  common.Truncate(item.Snippet.Description, descriptionLimit),
			ChannelTitle: item.Snippet.ChannelTitle,
			PublishedAt:  item.Snippet.PublishedAt,
			Thumbnails:   thumbnails,
			URL:          "https://www.youtube.com/watch?v=" + item.ID.VideoID,
		})
	}
	return domain.SourceOutcome{Source: domain.SourceVideos, Videos: videos}
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		ChannelTitle string `json:"channelTitle"`
		PublishedAt  string `json:"publishedAt"`
		Thumbnails   map[string]struct {
			URL    string `json:"url"`
			Width  int    `json:"width"`
			Height int    `json:"height"`
		} `json:"thumbnails"`
	} `json:"snippet"`
}
