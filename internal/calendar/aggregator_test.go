package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"macro-calendar/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type fakeSearcher struct {
	results map[string][]domain.Article
	errs    map[string]error
	panics  bool

	queries []string
	from    time.Time
}

func (f *fakeSearcher) SearchArticles(ctx context.Context, query string, from time.Time) ([]domain.Article, error) {
	f.queries = append(f.queries, query)
	f.from = from
	if f.panics {
		panic("malformed payload")
	}
	if err := f.errs[query]; err != nil {
		return nil, err
	}
	return f.results[query], nil
}

func newTestAggregator(s ArticleSearcher, now time.Time) *Aggregator {
	a := NewAggregator(testTracer, s, nil)
	a.now = fixedNow(now)
	return a
}

var aggNow = time.Date(2025, 11, 1, 9, 0, 0, 0, time.UTC)

func TestAggregateMergesDistinctSources(t *testing.T) {
	published := aggNow.Add(-24 * time.Hour)
	s := &fakeSearcher{results: map[string][]domain.Article{
		"cpi": {
			{Title: "CPI report on December 10", SourceName: "Reuters", PublishedAt: published},
			{Title: "Inflation watch", Description: "CPI report on December 10", SourceName: "CNBC", PublishedAt: published},
		},
	}}

	events, err := newTestAggregator(s, aggNow).Aggregate(context.Background(), []string{"cpi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 merged event, got %d: %+v", len(events), events)
	}
	e := events[0]
	if e.ID != "Consumer Price Index (CPI)-2025-12-10" || e.Date != "2025-12-10" {
		t.Fatalf("unexpected event identity: %+v", e)
	}
	if len(e.Sources) != 2 || e.Confidence != domain.ConfidenceVerified {
		t.Fatalf("expected verified event with 2 sources, got %+v", e)
	}
	if e.DisplayDate != "Wednesday, December 10, 2025" {
		t.Fatalf("unexpected display date: %q", e.DisplayDate)
	}
}

func TestAggregateSameSourceStaysEstimated(t *testing.T) {
	s := &fakeSearcher{results: map[string][]domain.Article{
		"cpi": {
			{Title: "CPI report on December 10", SourceName: "Reuters", PublishedAt: aggNow},
			{Title: "CPI due on December 10", SourceName: "Reuters", PublishedAt: aggNow},
		},
	}}

	events, _ := newTestAggregator(s, aggNow).Aggregate(context.Background(), []string{"cpi"})
	if len(events) != 1 || len(events[0].Sources) != 1 || events[0].Confidence != domain.ConfidenceEstimated {
		t.Fatalf("expected one estimated event, got %+v", events)
	}
}

func TestAggregateExcludesUntrustedSource(t *testing.T) {
	s := &fakeSearcher{results: map[string][]domain.Article{
		"cpi": {{Title: "CPI report on December 10", SourceName: "Random Blog", PublishedAt: aggNow}},
	}}

	events, err := newTestAggregator(s, aggNow).Aggregate(context.Background(), []string{"cpi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("untrusted source should be excluded, got %+v", events)
	}
}

func TestAggregateKeepsUnnamedSource(t *testing.T) {
	s := &fakeSearcher{results: map[string][]domain.Article{
		"gdp": {{Title: "GDP report on December 23", PublishedAt: aggNow}},
	}}

	events, _ := newTestAggregator(s, aggNow).Aggregate(context.Background(), []string{"gdp"})
	if len(events) != 1 {
		t.Fatalf("unnamed source should pass the trust filter, got %+v", events)
	}
	if events[0].Sources[0] != unknownSource {
		t.Fatalf("expected %q source label, got %v", unknownSource, events[0].Sources)
	}
}

func TestAggregateContinuesAfterQueryFailure(t *testing.T) {
	s := &fakeSearcher{
		errs: map[string]error{"fomc": errors.New("rate limited")},
		results: map[string][]domain.Article{
			"ppi": {{Title: "PPI on November 20", SourceName: "Bloomberg", PublishedAt: aggNow}},
		},
	}

	events, err := newTestAggregator(s, aggNow).Aggregate(context.Background(), []string{"fomc", "ppi"})
	if err != nil {
		t.Fatalf("query failure must not fail the pass: %v", err)
	}
	if len(events) != 1 || events[0].Date != "2025-11-20" {
		t.Fatalf("unexpected events: %+v", events)
	}
	if len(s.queries) != 2 || s.queries[0] != "fomc" || s.queries[1] != "ppi" {
		t.Fatalf("queries should run in order, got %v", s.queries)
	}
}

func TestAggregateAllQueriesFail(t *testing.T) {
	s := &fakeSearcher{errs: map[string]error{
		"a": errors.New("down"),
		"b": errors.New("down"),
	}}

	events, err := newTestAggregator(s, aggNow).Aggregate(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if events == nil || len(events) != 0 {
		t.Fatalf("expected empty, non-nil event list, got %#v", events)
	}
}

func TestAggregateSortsByDate(t *testing.T) {
	s := &fakeSearcher{results: map[string][]domain.Article{
		"mixed": {
			{Title: "GDP report on December 23", SourceName: "Reuters", PublishedAt: aggNow},
			{Title: "FOMC meeting on November 5", SourceName: "CNBC", PublishedAt: aggNow},
			{Title: "Retail sales on December 2", SourceName: "MarketWatch", PublishedAt: aggNow},
		},
	}}

	events, _ := newTestAggregator(s, aggNow).Aggregate(context.Background(), []string{"mixed"})
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %+v", events)
	}
	for i := 1; i < len(events); i++ {
		if events[i-1].Date >= events[i].Date {
			t.Fatalf("events not strictly ascending: %s then %s", events[i-1].Date, events[i].Date)
		}
	}
}

func TestAggregateSkipsUnclassifiedAndUndated(t *testing.T) {
	s := &fakeSearcher{results: map[string][]domain.Article{
		"q": {
			{Title: "Tesla deliveries on December 3", SourceName: "Reuters", PublishedAt: aggNow},
			{Title: "CPI surprises markets", SourceName: "Reuters", PublishedAt: aggNow},
		},
	}}

	events, _ := newTestAggregator(s, aggNow).Aggregate(context.Background(), []string{"q"})
	if len(events) != 0 {
		t.Fatalf("expected no events, got %+v", events)
	}
}

func TestAggregateRequestsSevenDayWindow(t *testing.T) {
	s := &fakeSearcher{}
	_, _ = newTestAggregator(s, aggNow).Aggregate(context.Background(), []string{"q"})
	if want := aggNow.Add(-7 * 24 * time.Hour); !s.from.Equal(want) {
		t.Fatalf("expected from=%s, got %s", want, s.from)
	}
}

func TestAggregateRecoversFromPanic(t *testing.T) {
	s := &fakeSearcher{panics: true}
	events, err := newTestAggregator(s, aggNow).Aggregate(context.Background(), []string{"q"})
	if err == nil {
		t.Fatal("expected error from panicking pass")
	}
	if events != nil {
		t.Fatalf("failed pass must not return partial events, got %+v", events)
	}
}

func TestAggregateUsesPublicationDateAsReference(t *testing.T) {
	// Published on a Wednesday; "next Wednesday" is a week later.
	published := time.Date(2025, 11, 5, 14, 0, 0, 0, time.UTC)
	s := &fakeSearcher{results: map[string][]domain.Article{
		"q": {{Title: "Fed decision next Wednesday", SourceName: "Reuters", PublishedAt: published}},
	}}

	events, _ := newTestAggregator(s, published).Aggregate(context.Background(), []string{"q"})
	if len(events) != 1 || events[0].Date != "2025-11-12" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestTrusted(t *testing.T) {
	a := NewAggregator(testTracer, &fakeSearcher{}, nil)
	tests := map[string]bool{
		"":                   true,
		"Reuters":            true,
		"CNBC":               true,
		"Yahoo Finance":      true,
		"Barrons.com":        true,
		"Not Bloomberg News": true,
		"Seeking Alpha":      false,
		"Benzinga":           false,
	}
	for source, want := range tests {
		if got := a.Trusted(source); got != want {
			t.Fatalf("Trusted(%q) = %v, want %v", source, got, want)
		}
	}
}

func TestCustomTrustedSources(t *testing.T) {
	a := NewAggregator(testTracer, &fakeSearcher{}, []string{" Benzinga "})
	if !a.Trusted("benzinga.com") {
		t.Fatal("custom allowlist entry should be trimmed and lower-cased")
	}
	if a.Trusted("Reuters") {
		t.Fatal("custom allowlist replaces the default one")
	}
}
