package calendar

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"macro-calendar/internal/domain"
	"macro-calendar/internal/metrics"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultLookback is the publication window requested from the news search.
const DefaultLookback = 7 * 24 * time.Hour

var DefaultTrustedSources = []string{
	"cnbc",
	"bloomberg",
	"reuters",
	"marketwatch",
	"yahoo finance",
	"the wall street journal",
	"financial times",
	"investing.com",
	"barrons",
}

var DefaultQueries = []string{
	"FOMC meeting",
	"Fed interest rate decision",
	"CPI inflation report",
	"PPI producer prices",
	"jobs report nonfarm payrolls",
	"JOLTS job openings",
	"retail sales report",
	"University of Michigan consumer sentiment",
	"Conference Board consumer confidence",
	"GDP report",
	"ISM manufacturing",
}

// ArticleSearcher is the news search capability the aggregator consumes.
type ArticleSearcher interface {
	SearchArticles(ctx context.Context, query string, from time.Time) ([]domain.Article, error)
}

// Aggregator turns news search results into a deduplicated event calendar.
type Aggregator struct {
	tracer   trace.Tracer
	searcher ArticleSearcher
	trusted  []string
	lookback time.Duration
	now      func() time.Time
}

func NewAggregator(tracer trace.Tracer, searcher ArticleSearcher, trustedSources []string) *Aggregator {
	if len(trustedSources) == 0 {
		trustedSources = DefaultTrustedSources
	}
	return &Aggregator{
		tracer:   tracer,
		searcher: searcher,
		trusted:  lo.Map(trustedSources, func(s string, _ int) string { return strings.ToLower(strings.TrimSpace(s)) }),
		lookback: DefaultLookback,
		now:      time.Now,
	}
}

// queryResult is the outcome of one search. unavailable is set when the
// provider failed; callers treat it exactly like an empty result.
type queryResult struct {
	articles    []domain.Article
	unavailable bool
}

// Aggregate runs every query in order, one at a time, and merges the detected
// events. A failed query contributes nothing. The only error returned is from
// a pass that panicked, in which case no events are returned.
func (a *Aggregator) Aggregate(ctx context.Context, queries []string) (events []domain.MarketEvent, err error) {
	ctx, span := a.tracer.Start(ctx, "aggregator.aggregate")
	defer span.End()
	span.SetAttributes(attribute.Int("queries", len(queries)))

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			events = nil
			err = fmt.Errorf("aggregation pass failed: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		metrics.ObservePass(time.Since(start), len(events), err)
	}()

	now := a.now()
	from := now.Add(-a.lookback)
	extractor := Extractor{Now: a.now}
	set := newEventSet()

	for _, q := range queries {
		res := a.fetch(ctx, q, from)
		if res.unavailable {
			continue
		}
		for _, article := range res.articles {
			a.mergeArticle(set, extractor, article, now)
		}
	}

	events = set.sorted()
	span.SetAttributes(attribute.Int("events", len(events)))
	return events, nil
}

func (a *Aggregator) mergeArticle(set *eventSet, extractor Extractor, article domain.Article, now time.Time) {
	if !a.Trusted(article.SourceName) {
		metrics.ArticleSkipped("untrusted")
		return
	}

	text := article.Text()
	class := Classify(text)
	if !class.Matched() {
		metrics.ArticleSkipped("unclassified")
		return
	}

	ref := article.PublishedAt
	if ref.IsZero() {
		ref = now
	}
	dates := extractor.Extract(text, ref)
	if len(dates) == 0 {
		metrics.ArticleSkipped("undated")
		return
	}

	source := sourceLabel(article.SourceName)
	for _, d := range dates {
		set.add(class, d, source)
	}
}

// fetch is the single boundary where provider errors are absorbed.
func (a *Aggregator) fetch(ctx context.Context, query string, from time.Time) queryResult {
	articles, err := a.searcher.SearchArticles(ctx, query, from)
	if err != nil {
		log.Printf("calendar query %q unavailable: %v", query, err)
		metrics.QueryFailed()
		return queryResult{unavailable: true}
	}
	return queryResult{articles: articles}
}

// Trusted reports whether an article from source may be used. Unnamed sources
// pass; named sources must contain one of the allowlist entries.
func (a *Aggregator) Trusted(source string) bool {
	source = strings.ToLower(strings.TrimSpace(source))
	if source == "" {
		return true
	}
	return lo.ContainsBy(a.trusted, func(t string) bool {
		return strings.Contains(source, t)
	})
}
