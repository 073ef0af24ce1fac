package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

const economyFeed = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Economy</title>
<item><title>CPI report due on November 13</title><link>https://news.example/cpi</link><description><![CDATA[<p>Inflation data from the <b>BLS</b></p>]]></description><pubDate>Sat, 01 Nov 2025 08:00:00 +0000</pubDate></item>
<item><title>Old CPI report recap</title><link>https://news.example/old</link><description>Last month</description><pubDate>Mon, 01 Sep 2025 08:00:00 +0000</pubDate></item>
<item><title>GDP report next Thursday</title><link>https://news.example/gdp</link><description>Growth data</description><pubDate>Sat, 01 Nov 2025 09:00:00 +0000</pubDate></item>
</channel></rss>`

func TestRSSSearchArticlesFiltersByTermsAndDate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(economyFeed))
	}))
	defer srv.Close()

	p := NewRSSProvider(trace.NewNoopTracerProvider().Tracer("test"), []Feed{{Name: "CNBC Economy", URL: srv.URL}})
	from := time.Date(2025, 10, 25, 0, 0, 0, 0, time.UTC)

	articles, err := p.SearchArticles(context.Background(), "CPI report", from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d: %+v", len(articles), articles)
	}
	a := articles[0]
	if a.SourceName != "CNBC Economy" || a.URL != "https://news.example/cpi" {
		t.Fatalf("unexpected article: %+v", a)
	}
	if a.Description != "Inflation data from the BLS" {
		t.Fatalf("expected stripped description, got %q", a.Description)
	}
	if !a.PublishedAt.Equal(time.Date(2025, 11, 1, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected publish time: %s", a.PublishedAt)
	}
}

func TestRSSSearchArticlesPartialFailure(t *testing.T) {
	t.Parallel()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(economyFeed))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer bad.Close()

	tracer := trace.NewNoopTracerProvider().Tracer("test")
	p := NewRSSProvider(tracer, []Feed{{Name: "Broken", URL: bad.URL}, {Name: "Reuters", URL: good.URL}})
	articles, err := p.SearchArticles(context.Background(), "gdp", time.Time{})
	if err != nil {
		t.Fatalf("one healthy feed should be enough, got %v", err)
	}
	if len(articles) != 1 || !strings.HasPrefix(articles[0].Title, "GDP") {
		t.Fatalf("unexpected articles: %+v", articles)
	}

	allBad := NewRSSProvider(tracer, []Feed{{Name: "Broken", URL: bad.URL}})
	if _, err := allBad.SearchArticles(context.Background(), "gdp", time.Time{}); err == nil {
		t.Fatal("expected error when every feed fails")
	}
}

func TestRSSSearchArticlesNoFeeds(t *testing.T) {
	t.Parallel()

	p := NewRSSProvider(trace.NewNoopTracerProvider().Tracer("test"), nil)
	articles, err := p.SearchArticles(context.Background(), "cpi", time.Now())
	if err != nil || len(articles) != 0 {
		t.Fatalf("expected empty result, got %v %v", articles, err)
	}
}
