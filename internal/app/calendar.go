package app

import (
	"context"
	"log"

	"macro-calendar/internal/cache"
	"macro-calendar/internal/calendar"
	"macro-calendar/internal/config"
	"macro-calendar/internal/provider"
	"macro-calendar/internal/service"

	"go.opentelemetry.io/otel/trace"
)

var initRedis = cache.InitRedis

// NewCalendarService wires the news searchers, aggregator and cache backend
// described by cfg. An unreachable Redis falls back to the in-memory store.
// archive may be nil.
func NewCalendarService(ctx context.Context, cfg *config.Config, tracer trace.Tracer, archive Archive) *service.CalendarService {
	agg := calendar.NewAggregator(tracer, NewSearcher(cfg, tracer), cfg.TrustedSources)

	queries := cfg.Queries
	if len(queries) == 0 {
		queries = calendar.DefaultQueries
	}

	opts := service.CalendarOptions{
		Configured: cfg.NewsAPIKey != "",
		Queries:    queries,
		TTL:        cfg.CacheTTL,
	}
	if archive != nil {
		opts.Archive = archive
	}
	return service.NewCalendarService(tracer, agg, newStore(ctx, cfg), opts)
}

// NewSearcher returns NewsAPI alone, or NewsAPI followed by the configured
// RSS feeds.
func NewSearcher(cfg *config.Config, tracer trace.Tracer) calendar.ArticleSearcher {
	news := provider.NewNewsAPIProvider(tracer, provider.NewsAPIOptions{
		APIKey:        cfg.NewsAPIKey,
		BaseURL:       cfg.NewsAPIURL,
		PageSize:      cfg.NewsAPIPageSize,
		RatePerMinute: cfg.NewsAPIRatePerMin,
	})
	if len(cfg.RSSFeeds) == 0 {
		return news
	}

	feeds := make([]provider.Feed, 0, len(cfg.RSSFeeds))
	for _, f := range cfg.RSSFeeds {
		feeds = append(feeds, provider.Feed{Name: f.Name, URL: f.URL})
	}
	log.Printf("Searching %d RSS feeds alongside NewsAPI", len(feeds))
	return provider.NewMultiSearcher(news, provider.NewRSSProvider(tracer, feeds))
}

func newStore(ctx context.Context, cfg *config.Config) service.CalendarStore {
	if cfg.CacheBackend != "redis" {
		return cache.NewMemoryStore()
	}
	client, err := initRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Printf("Warning: redis unavailable (%v), using in-memory calendar cache", err)
		return cache.NewMemoryStore()
	}
	return cache.NewRedisStore(client)
}
