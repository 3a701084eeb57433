package domain

import "time"

// Tier is the entitlement level of the caller. It gates which sources run
// and is part of the cache key so free and pro results never collide.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

func TierFromPro(pro bool) Tier {
	if pro {
		return TierPro
	}
	return TierFree
}

// SourceName identifies one upstream section of the aggregate document.
type SourceName string

const (
	SourceVideos   SourceName = "videos"
	SourceReddit   SourceName = "reddit"
	SourceGoogle   SourceName = "google"
	SourceImages   SourceName = "images"
	SourceLinkedIn SourceName = "linkedin"
)

// FailureKind classifies why a single source produced no items.
type FailureKind string

const (
	FailureMissingCredentials  FailureKind = "missing_credentials"
	FailureUpstreamHTTP        FailureKind = "upstream_http_error"
	FailureUpstreamUnreachable FailureKind = "upstream_unreachable"
	FailureUnexpectedShape     FailureKind = "unexpected_shape"
)

// SourceError is a source-local failure carried as a value. It annotates one
// section of the aggregate; it never fails the whole request.
type SourceError struct {
	Kind   FailureKind `json:"kind"`
	Status int         `json:"status,omitempty"`
	Detail string      `json:"detail,omitempty"`
}

type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type Video struct {
	VideoID      string               `json:"videoId"`
	Title        string               `json:"title"`
	Description  string               `json:"description,omitempty"`
	ChannelTitle string               `json:"channelTitle,omitempty"`
	PublishedAt  string               `json:"publishedAt,omitempty"`
	Thumbnails   map[string]Thumbnail `json:"thumbnails,omitempty"`
	URL          string               `json:"url,omitempty"`
}

type Post struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Subreddit   string  `json:"subreddit"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc,omitempty"`
	URL         string  `json:"url,omitempty"`
	Permalink   string  `json:"permalink,omitempty"`
	SelfText    string  `json:"selftext,omitempty"`
}

type WebResult struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet,omitempty"`
	DisplayLink string `json:"displayLink,omitempty"`
}

type ImageResult struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	ContextLink string `json:"contextLink,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

// ProfessionalKind classifies a professional-network result by URL shape.
type ProfessionalKind string

const (
	ProfessionalProfile ProfessionalKind = "profile"
	ProfessionalCompany ProfessionalKind = "company"
	ProfessionalPost    ProfessionalKind = "post"
	ProfessionalOther   ProfessionalKind = "other"
)

type ProfessionalResult struct {
	Title       string           `json:"title"`
	Link        string           `json:"link"`
	Snippet     string           `json:"snippet,omitempty"`
	DisplayLink string           `json:"displayLink,omitempty"`
	Type        ProfessionalKind `json:"type"`
}

// SourceOutcome is the settled result of one adapter invocation. Exactly one
// of the item slices is populated on success; Gated marks a source skipped
// for the caller's tier; Err carries a source-local failure. Adapters return
// outcomes, never Go errors.
type SourceOutcome struct {
	Source       SourceName
	Videos       []Video
	Posts        []Post
	Web          []WebResult
	Images       []ImageResult
	Professional []ProfessionalResult
	Gated        bool
	Err          *SourceError
}

func (o SourceOutcome) Count() int {
	return len(o.Videos) + len(o.Posts) + len(o.Web) + len(o.Images) + len(o.Professional)
}

func GatedOutcome(source SourceName) SourceOutcome {
	return SourceOutcome{Source: source, Gated: true}
}

func FailedOutcome(source SourceName, kind FailureKind, status int, detail string) SourceOutcome {
	return SourceOutcome{
		Source: source,
		Err:    &SourceError{Kind: kind, Status: status, Detail: detail},
	}
}

// SourceStatus summarizes one source's part in an aggregate, mirroring the
// per-source error/gated annotations in a uniform list.
type SourceStatus struct {
	Name  SourceName `json:"name"`
	OK    bool       `json:"ok"`
	Gated bool       `json:"gated,omitempty"`
	Count int        `json:"count"`
	Error string     `json:"error,omitempty"`
}

type SourceInfo struct {
	Name    SourceName `json:"name"`
	Label   string     `json:"label"`
	Kind    string     `json:"kind"`
	MinTier Tier       `json:"minTier"`
	Enabled bool       `json:"enabled"`
}

// AggregateResult is the merged multi-source document for one query. Every
// item array is always present (possibly empty); a source's error field and
// a non-empty item list are mutually exclusive, and a tier-gated source is
// marked with its ProOnly flag instead of an error.
type AggregateResult struct {
	Query     string    `json:"query"`
	Tier      Tier      `json:"tier"`
	FetchedAt time.Time `json:"fetchedAt"`

	Videos      []Video      `json:"videos"`
	VideosError *SourceError `json:"videosError,omitempty"`

	Reddit      []Post       `json:"reddit"`
	RedditError *SourceError `json:"redditError,omitempty"`

	Google        []WebResult  `json:"google"`
	GoogleError   *SourceError `json:"googleError,omitempty"`
	GoogleProOnly bool         `json:"googleProOnly,omitempty"`

	Images        []ImageResult `json:"images"`
	ImagesError   *SourceError  `json:"imagesError,omitempty"`
	ImagesProOnly bool          `json:"imagesProOnly,omitempty"`

	LinkedIn        []ProfessionalResult `json:"linkedin"`
	LinkedInError   *SourceError         `json:"linkedinError,omitempty"`
	LinkedInProOnly bool                 `json:"linkedinProOnly,omitempty"`

	Sources   []SourceStatus `json:"sources"`
	ElapsedMS int64          `json:"elapsedMs"`
}

// SourceDiagnostics exposes passive per-source health for the /sources
// endpoint. It records the last observed outcome only; it never influences
// whether a source runs.
type SourceDiagnostics struct {
	Name          SourceName `json:"name"`
	Label         string     `json:"label"`
	Kind          string     `json:"kind"`
	MinTier       Tier       `json:"minTier"`
	Enabled       bool       `json:"enabled"`
	LastError     string     `json:"lastError,omitempty"`
	LastErrorKind string     `json:"lastErrorKind,omitempty"`
	LastSuccessAt *time.Time `json:"lastSuccessAt,omitempty"`
	LastFailureAt *time.Time `json:"lastFailureAt,omitempty"`
	LastLatencyMS int64      `json:"lastLatencyMs,omitempty"`
	LastQuery     string     `json:"lastQuery,omitempty"`
	TotalRequests int64      `json:"totalRequests,omitempty"`
	TotalFailures int64      `json:"totalFailures,omitempty"`
	GatedCount    int64      `json:"gatedCount,omitempty"`
}

// Quote is the quote-of-the-day payload.
type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

// ChatContext is the search-result context a chat question is answered
// against. It mirrors the sections of AggregateResult the assistant uses.
type ChatContext struct {
	Query  string      `json:"query"`
	Videos []Video     `json:"videos,omitempty"`
	Google []WebResult `json:"google,omitempty"`
	Reddit []Post      `json:"reddit,omitempty"`
}
