package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPPort    int
	AdminAPIKey string

	NewsAPIKey        string
	NewsAPIURL        string
	NewsAPIPageSize   int
	NewsAPIRatePerMin int

	Queries        []string
	TrustedSources []string
	RSSFeeds       []RSSFeed

	CacheBackend        string
	CacheTTL            time.Duration
	RedisURL            string
	CalendarRefreshSecs int

	DatabaseURL string

	TelegramBotToken string
	OpenAIAPIKey     string
	OpenAIModel      string

	SSHPort                   int
	SSHHostKeyPath            string
	SSHAuthorizedFingerprints []string

	MCPTransport string
	MCPHTTPBind  string
	MCPHTTPPort  int
}

// RSSFeed is a named feed searched alongside NewsAPI. Name is reported as
// the article source and must pass the trusted-source filter.
type RSSFeed struct {
	Name string
	URL  string
}

func Load() *Config {
	cfg := &Config{
		NewsAPIKey:       strings.TrimSpace(os.Getenv("NEWS_API_KEY")),
		AdminAPIKey:      strings.TrimSpace(os.Getenv("ADMIN_API_KEY")),
		RedisURL:         os.Getenv("REDIS_URL"),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		OpenAIAPIKey:     strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:      strings.TrimSpace(os.Getenv("OPENAI_MODEL")),
	}

	if cfg.NewsAPIKey == "" {
		log.Println("Warning: NEWS_API_KEY not set, calendar endpoint will report a configuration error")
	}

	cfg.HTTPPort = positiveInt("HTTP_PORT", 8080)

	cfg.NewsAPIURL = strings.TrimSpace(os.Getenv("NEWS_API_URL"))
	if cfg.NewsAPIURL == "" {
		cfg.NewsAPIURL = "https://newsapi.org/v2/everything"
	}
	cfg.NewsAPIPageSize = positiveInt("NEWS_API_PAGE_SIZE", 20)
	if cfg.NewsAPIPageSize > 100 {
		cfg.NewsAPIPageSize = 100
	}
	cfg.NewsAPIRatePerMin = positiveInt("NEWS_API_RATE_PER_MIN", 30)

	cfg.Queries = splitList(os.Getenv("CALENDAR_QUERIES"), ";")
	cfg.TrustedSources = splitList(os.Getenv("TRUSTED_SOURCES"), ",")
	cfg.RSSFeeds = parseFeeds(os.Getenv("RSS_FEEDS"))

	cfg.CacheTTL = 24 * time.Hour
	if v := strings.TrimSpace(os.Getenv("CALENDAR_CACHE_TTL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.CacheTTL = d
		} else {
			log.Printf("Warning: invalid CALENDAR_CACHE_TTL=%q, defaulting to %s", v, cfg.CacheTTL)
		}
	}

	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(os.Getenv("CACHE_BACKEND")))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = "memory"
	}
	if cfg.CacheBackend != "memory" && cfg.CacheBackend != "redis" {
		log.Printf("Warning: unsupported CACHE_BACKEND=%q, defaulting to memory", cfg.CacheBackend)
		cfg.CacheBackend = "memory"
	}
	if cfg.CacheBackend == "redis" && cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	cfg.CalendarRefreshSecs = 0
	if v := strings.TrimSpace(os.Getenv("CALENDAR_REFRESH_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.CalendarRefreshSecs = n
		}
	}

	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}

	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	cfg.SSHPort = positiveInt("SSH_PORT", 2222)
	cfg.SSHHostKeyPath = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/id_ed25519"
	}
	cfg.SSHAuthorizedFingerprints = splitList(os.Getenv("SSH_AUTHORIZED_FINGERPRINTS"), ",")

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Printf("Warning: unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}

	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}
	cfg.MCPHTTPPort = positiveInt("MCP_HTTP_PORT", 8090)

	return cfg
}

func positiveInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func splitList(raw, sep string) []string {
	parts := strings.Split(raw, sep)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// parseFeeds reads "Name|https://url,Other|https://url". Entries without a
// name or URL are skipped.
func parseFeeds(raw string) []RSSFeed {
	var feeds []RSSFeed
	for _, entry := range splitList(raw, ",") {
		name, url, ok := strings.Cut(entry, "|")
		name, url = strings.TrimSpace(name), strings.TrimSpace(url)
		if !ok || name == "" || url == "" {
			log.Printf("Warning: ignoring malformed RSS_FEEDS entry %q", entry)
			continue
		}
		feeds = append(feeds, RSSFeed{Name: name, URL: url})
	}
	return feeds
}
