package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bottleup/searchworker/internal/domain"
	"bottleup/searchworker/internal/providers/common"
)

const (
	// OpenAI-compatible chat completions endpoints. Groq exposes the same
	// wire format, so one client serves both.
	openAIEndpoint = "https://api.openai.com/v1/chat/completions"
	groqEndpoint   = "https://api.groq.com/openai/v1/chat/completions"

	defaultOpenAIModel = "gpt-3.5-turbo"
	defaultGroqModel   = "llama-3.1-8b-instant"

	temperature = 0.7
	maxTokens   = 500

	contextSnippetLimit = 150
	maxContextVideos    = 3
	maxContextWeb       = 3
	maxContextPosts     = 3

	maxBodyBytes    = 1024 * 1024
	errExcerptBytes = 300
)

const systemPrompt = "You are a helpful search assistant. The user ran a search and you have " +
	"the results as context. Answer their question using that context when it is " +
	"relevant, and general knowledge when it is not. Be concise and direct."

// Config describes a chat completions backend. When Endpoint and Model
// are empty they default based on provider: Groq when UseGroq is set,
// OpenAI otherwise.
type Config struct {
	APIKey   string
	Endpoint string
	Model    string
	UseGroq  bool
	Client   *http.Client
}

// Client answers questions about search results through an
// OpenAI-compatible chat completions API.
type Client struct {
	apiKey   string
	endpoint string
	model    string
	http     *http.Client
}

// UpstreamError reports a non-2xx response from the AI backend.
type UpstreamError struct {
	Status int
	Detail string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ai backend returned status %d: %s", e.Status, e.Detail)
}

func NewClient(cfg Config) *Client {
	endpoint := cfg.Endpoint
	model := cfg.Model
	if cfg.UseGroq {
		if endpoint == "" {
			endpoint = groqEndpoint
		}
		if model == "" {
			model = defaultGroqModel
		}
	} else {
		if endpoint == "" {
			endpoint = openAIEndpoint
		}
		if model == "" {
			model = defaultOpenAIModel
		}
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		model:    model,
		http:     httpClient,
	}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool { return c != nil && c.apiKey != "" }

// Answer sends the question plus a compact rendering of the search
// results and returns the assistant's reply.
func (c *Client) Answer(ctx context.Context, question string, searchCtx domain.ChatContext) (string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildContext(searchCtx) + "\n\nQuestion: " + question},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call ai backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, errExcerptBytes+1))
		return "", &UpstreamError{Status: resp.StatusCode, Detail: common.Excerpt(excerpt, errExcerptBytes)}
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read ai response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode ai response: %w", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "No response generated.", nil
	}
	return parsed.Choices[0].Message.Content, nil
}

// BuildContext renders search results into a compact text block for the
// model. Long descriptions are trimmed so a handful of results cannot
// blow through the prompt budget.
func BuildContext(searchCtx domain.ChatContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search query: %q\n", searchCtx.Query)

	if len(searchCtx.Videos) > 0 {
		b.WriteString("\nTop videos:\n")
		for i, video := range searchCtx.Videos {
			if i >= maxContextVideos {
				break
			}
			fmt.Fprintf(&b, "- %s by %s", video.Title, video.ChannelTitle)
			if desc := common.Truncate(video.Description, contextSnippetLimit); desc != "" {
				fmt.Fprintf(&b, ": %s", desc)
			}
			b.WriteString("\n")
		}
	}

	if len(searchCtx.Google) > 0 {
		b.WriteString("\nTop web results:\n")
		for i, result := range searchCtx.Google {
			if i >= maxContextWeb {
				break
			}
			fmt.Fprintf(&b, "- %s: %s\n", result.Title, common.Truncate(result.Snippet, contextSnippetLimit))
		}
	}

	if len(searchCtx.Reddit) > 0 {
		b.WriteString("\nTop Reddit posts:\n")
		for i, post := range searchCtx.Reddit {
			if i >= maxContextPosts {
				break
			}
			fmt.Fprintf(&b, "- r/%s: %s", post.Subreddit, post.Title)
			if text := common.Truncate(post.SelfText, contextSnippetLimit); text != "" {
				fmt.Fprintf(&b, " - %s", text)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
