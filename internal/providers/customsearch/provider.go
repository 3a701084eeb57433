package customsearch

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
	defaultEndpoint  = "https://www.googleapis.com/customsearch/v1"
	defaultUserAgent = "bottleup-search-worker/1.0"

	webResults      = 10
	imageResults    = 8
	linkedinResults = 6

	snippetLimit = 300
)

// Config describes how to reach the Google Custom Search JSON API. The
// same key and engine ID serve the web, image and LinkedIn variants.
type Config struct {
	APIKey    string
	CX        string
	Endpoint  string
	UserAgent string
	Client    *http.Client
}

// Provider is one variant of a Custom Search query. All variants require
// the pro tier and share the request plumbing; they differ in the query
// they build and the result kind they map to.
type Provider struct {
	source      domain.SourceName
	label       string
	kind        string
	apiKey      string
	cx          string
	endpoint    string
	userAgent   string
	client      *http.Client
	num         int
	searchType  string
	queryPrefix string
}

// NewWebProvider searches the open web.
func NewWebProvider(cfg Config) *Provider {
	p := newProvider(cfg)
	p.source = domain.SourceGoogle
	p.label = "Google"
	p.kind = "web"
	p.num = webResults
	return p
}

// NewImageProvider searches for images.
func NewImageProvider(cfg Config) *Provider {
	p := newProvider(cfg)
	p.source = domain.SourceImages
	p.label = "Google Images"
	p.kind = "image"
	p.num = imageResults
	p.searchType = "image"
	return p
}

// NewLinkedInProvider restricts the web search to linkedin.com and maps
// results to profiles, companies and posts.
func NewLinkedInProvider(cfg Config) *Provider {
	p := newProvider(cfg)
	p.source = domain.SourceLinkedIn
	p.label = "LinkedIn"
	p.kind = "professional"
	p.num = linkedinResults
	p.queryPrefix = "site:linkedin.com "
	return p
}

func newProvider(cfg Config) *Provider {
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
		cx:        cfg.CX,
		endpoint:  endpoint,
		userAgent: userAgent,
		client:    client,
	}
}

func (p *Provider) Name() domain.SourceName { return p.source }

func (p *Provider) Info() domain.SourceInfo {
	return domain.SourceInfo{
		Name:    p.source,
		Label:   p.label,
		Kind:    p.kind,
		MinTier: domain.TierPro,
		Enabled: p.apiKey != "" && p.cx != "",
	}
}

func (p *Provider) Fetch(ctx context.Context, query string, tier domain.Tier) domain.SourceOutcome {
	if tier != domain.TierPro {
		return domain.GatedOutcome(p.source)
	}
	if p.apiKey == "" || p.cx == "" {
		return domain.FailedOutcome(p.source, domain.FailureMissingCredentials, 0, "Google API key or search engine ID not configured")
	}

	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("cx", p.cx)
	params.Set("q", p.queryPrefix+query)
	params.Set("num", strconv.Itoa(p.num))
	if p.searchType != "" {
		params.Set("searchType", p.searchType)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return domain.FailedOutcome(p.source, domain.FailureUpstreamUnreachable, 0, err.Error())
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", p.userAgent)

	body, srcErr := common.Fetch(p.client, req)
	if srcErr != nil {
		return domain.SourceOutcome{Source: p.source, Err: srcErr}
	}

	var payload searchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.FailedOutcome(p.source, domain.FailureUnexpectedShape, 0, err.Error())
	}

	switch p.source {
	case domain.SourceImages:
		return domain.SourceOutcome{Source: p.source, Images: mapImages(payload.Items)}
	case domain.SourceLinkedIn:
		return domain.SourceOutcome{Source: p.source, Professional: mapProfessional(payload.Items)}
	default:
		return domain.SourceOutcome{Source: p.source, Web: mapWeb(payload.Items)}
	}
}

func mapWeb(items []searchItem) []domain.WebResult {
	results := make([]domain.WebResult, 0, len(items))
	for _, item := range items {
		results = append(results, domain.WebResult{
			Title:       item.Title,
			Link:        item.Link,
			Snippet:     common.Truncate(item.Snippet, snippetLimit),
			DisplayLink: item.DisplayLink,
		})
	}
	return results
}

func mapImages(items []searchItem) []domain.ImageResult {
	results := make([]domain.ImageResult, 0, len(items))
	for _, item := range items {
		results = append(results, domain.ImageResult{
			Title:       item.Title,
			Link:        item.Link,
			Thumbnail:   item.Image.ThumbnailLink,
			ContextLink: item.Image.ContextLink,
			Width:       item.Image.Width,
			Height:      item.Image.Height,
		})
	}
	return results
}

func mapProfessional(items []searchItem) []domain.ProfessionalResult {
	results := make([]domain.ProfessionalResult, 0, len(items))
	for _, item := range items {
		results = append(results, domain.ProfessionalResult{
			Title:       item.Title,
			Link:        item.Link,
			Snippet:     common.Truncate(item.Snippet, snippetLimit),
			DisplayLink: item.DisplayLink,
			Type:        classifyLink(item.Link),
		})
	}
	return results
}

// classifyLink maps a linkedin.com URL to the kind of entity it points at
// based on the well-known path segments.
func classifyLink(link string) domain.ProfessionalKind {
	switch {
	case strings.Contains(link, "/in/"):
		return domain.ProfessionalProfile
	case strings.Contains(link, "/company/"):
		return domain.ProfessionalCompany
	case strings.Contains(link, "/posts/"), strings.Contains(link, "/pulse/"):
		return domain.ProfessionalPost
	default:
		return domain.ProfessionalOther
	}
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"displayLink"`
	Image       struct {
		ThumbnailLink string `json:"thumbnailLink"`
		ContextLink   string `json:"contextLink"`
		Width         int    `json:"width"`
		Height        int    `json:"height"`
	} `json:"image"`
}
