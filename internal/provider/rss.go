package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"macro-calendar/internal/domain"

	"github.com/mmcdole/gofeed"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Feed is a named RSS or Atom feed. Name becomes the article source.
type Feed struct {
	Name string
	URL  string
}

// RSSProvider searches a fixed set of feeds by keyword.
type RSSProvider struct {
	client *http.Client
	tracer trace.Tracer
	feeds  []Feed
}

func NewRSSProvider(tracer trace.Tracer, feeds []Feed) *RSSProvider {
	return &RSSProvider{
		client: &http.Client{Timeout: 20 * time.Second},
		tracer: tracer,
		feeds:  feeds,
	}
}

// SearchArticles fetches every feed and keeps items published after from whose
// title or description contains all query terms. It fails only when every
// feed fails.
func (p *RSSProvider) SearchArticles(ctx context.Context, query string, from time.Time) ([]domain.Article, error) {
	ctx, span := p.tracer.Start(ctx, "rss.search")
	defer span.End()
	span.SetAttributes(attribute.String("query", query), attribute.Int("feeds", len(p.feeds)))

	if len(p.feeds) == 0 {
		return nil, nil
	}

	terms := strings.Fields(strings.ToLower(query))
	var (
		articles []domain.Article
		lastErr  error
		failures int
	)
	for _, feed := range p.feeds {
		items, err := p.fetchFeed(ctx, feed)
		if err != nil {
			failures++
			lastErr = err
			continue
		}
		for _, a := range items {
			if !a.PublishedAt.IsZero() && a.PublishedAt.Before(from) {
				continue
			}
			if matchesTerms(strings.ToLower(a.Text()), terms) {
				articles = append(articles, a)
			}
		}
	}
	if failures == len(p.feeds) {
		return nil, fmt.Errorf("all %d rss feeds failed: %w", failures, lastErr)
	}
	return articles, nil
}

func (p *RSSProvider) fetchFeed(ctx context.Context, feed Feed) ([]domain.Article, error) {
	parser := gofeed.NewParser()
	parser.Client = p.client
	parsed, err := parser.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("rss feed %s: %w", feed.Name, err)
	}

	articles := make([]domain.Article, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		title := cleanText(item.Title)
		if title == "" {
			continue
		}
		var publishedAt time.Time
		if item.PublishedParsed != nil {
			publishedAt = item.PublishedParsed.UTC()
		} else if item.UpdatedParsed != nil {
			publishedAt = item.UpdatedParsed.UTC()
		}
		articles = append(articles, domain.Article{
			Title:       title,
			Description: cleanText(item.Description),
			URL:         item.Link,
			PublishedAt: publishedAt,
			SourceName:  feed.Name,
		})
	}
	return articles, nil
}

func matchesTerms(text string, terms []string) bool {
	for _, term := range terms {
		if !strings.Contains(text, term) {
			return false
		}
	}
	return true
}
