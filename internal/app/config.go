package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr       string
	RequestTimeout time.Duration
	LogLevel       string
	LogFormat      string
	UserAgent      string

	YouTubeAPIKey   string
	YouTubeEndpoint string
	RedditEndpoint  string
	GoogleAPIKey    string
	GoogleCX        string
	CSEEndpoint     string

	OpenAIAPIKey string
	GroqAPIKey   string
	AIModel      string

	QuoteEndpoint string

	RedisURL      string
	CacheTTL      time.Duration
	CacheDisabled bool
	QuoteCacheTTL time.Duration
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8787"),
		RequestTimeout: time.Duration(getEnvInt("SEARCH_TIMEOUT_SECONDS", 8)) * time.Second,
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", "text")),
		UserAgent:      getEnv("SEARCH_USER_AGENT", "bottleup-search-worker/1.0"),

		YouTubeAPIKey:   strings.TrimSpace(os.Getenv("YT_API_KEY")),
		YouTubeEndpoint: getEnv("YT_ENDPOINT", "https://www.googleapis.com/youtube/v3/search"),
		RedditEndpoint:  getEnv("REDDIT_ENDPOINT", "https://www.reddit.com/search.json"),
		GoogleAPIKey:    strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")),
		GoogleCX:        strings.TrimSpace(os.Getenv("GOOGLE_CX")),
		CSEEndpoint:     getEnv("GOOGLE_CSE_ENDPOINT", "https://www.googleapis.com/customsearch/v1"),

		OpenAIAPIKey: strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		GroqAPIKey:   strings.TrimSpace(os.Getenv("GROQ_API_KEY")),
		AIModel:      getEnv("AI_MODEL", ""),

		QuoteEndpoint: getEnv("QUOTE_ENDPOINT", "https://zenquotes.io/api/today"),

		RedisURL:      getEnv("REDIS_URL", ""),
		CacheTTL:      time.Duration(getEnvInt("SEARCH_CACHE_TTL_HOURS", 12)) * time.Hour,
		CacheDisabled: getEnvBool("SEARCH_CACHE_DISABLED", false),
		QuoteCacheTTL: time.Duration(getEnvInt("QUOTE_CACHE_TTL_MINUTES", 60)) * time.Minute,
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
