package domain

import (
	"strings"
	"time"
)

// Article is a single news item returned by a news search.
// Description and SourceName are empty when the provider omits them.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	SourceName  string    `json:"source_name,omitempty"`
}

// Text is the string the classifier and date extractor operate on.
func (a Article) Text() string {
	if a.Description == "" {
		return a.Title
	}
	return a.Title + " " + a.Description
}

type Category string

const (
	CategoryMonetary   Category = "monetary"
	CategoryInflation  Category = "inflation"
	CategoryEmployment Category = "employment"
	CategoryConsumer   Category = "consumer"
	CategoryGrowth     Category = "growth"
	CategoryOther      Category = "other"
)

var SupportedCategories = []Category{
	CategoryMonetary,
	CategoryInflation,
	CategoryEmployment,
	CategoryConsumer,
	CategoryGrowth,
	CategoryOther,
}

type Impact string

const (
	ImpactHigh   Impact = "High"
	ImpactMedium Impact = "Medium"
	ImpactLow    Impact = "Low"
)

// Rank orders impacts so that High > Medium > Low. Unknown values rank 0.
func (i Impact) Rank() int {
	switch i {
	case ImpactHigh:
		return 3
	case ImpactMedium:
		return 2
	case ImpactLow:
		return 1
	default:
		return 0
	}
}

// ParseImpact accepts "high", "HIGH", "High", ... and reports whether the value was known.
func ParseImpact(s string) (Impact, bool) {
	switch {
	case strings.EqualFold(s, string(ImpactHigh)):
		return ImpactHigh, true
	case strings.EqualFold(s, string(ImpactMedium)):
		return ImpactMedium, true
	case strings.EqualFold(s, string(ImpactLow)):
		return ImpactLow, true
	}
	return "", false
}

type Confidence string

const (
	ConfidenceVerified  Confidence = "Verified"
	ConfidenceEstimated Confidence = "Estimated"
)

// Classification is the result of matching article text against the event rules.
// An empty EventName means the text did not match any known event.
type Classification struct {
	Category  Category
	Impact    Impact
	Icon      string
	EventName string
}

// Matched reports whether the text resolved to a known event type.
func (c Classification) Matched() bool {
	return c.EventName != ""
}

// MarketEvent is one deduplicated (event, date) pair built from news coverage.
type MarketEvent struct {
	ID          string     `json:"id"`
	Date        string     `json:"date"`
	DisplayDate string     `json:"displayDate"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    Category   `json:"category"`
	Impact      Impact     `json:"impact"`
	Icon        string     `json:"icon"`
	Sources     []string   `json:"sources"`
	Confidence  Confidence `json:"confidence"`
}

// AddSource records a corroborating source and upgrades confidence once two
// distinct sources agree. Confidence never downgrades.
func (e *MarketEvent) AddSource(source string) {
	for _, s := range e.Sources {
		if s == source {
			return
		}
	}
	e.Sources = append(e.Sources, source)
	if len(e.Sources) >= 2 {
		e.Confidence = ConfidenceVerified
	}
}

// CacheEntry is an immutable snapshot of one aggregation pass.
type CacheEntry struct {
	Events    []MarketEvent `json:"events"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// Valid reports whether the entry is still servable at now.
func (c *CacheEntry) Valid(now time.Time) bool {
	return c != nil && now.Before(c.ExpiresAt)
}

// Breakdown counts events per impact tier and confidence level.
type Breakdown struct {
	High      int `json:"High"`
	Medium    int `json:"Medium"`
	Low       int `json:"Low"`
	Verified  int `json:"Verified"`
	Estimated int `json:"Estimated"`
}

func NewBreakdown(events []MarketEvent) Breakdown {
	var b Breakdown
	for _, e := range events {
		switch e.Impact {
		case ImpactHigh:
			b.High++
		case ImpactMedium:
			b.Medium++
		case ImpactLow:
			b.Low++
		}
		switch e.Confidence {
		case ConfidenceVerified:
			b.Verified++
		case ConfidenceEstimated:
			b.Estimated++
		}
	}
	return b
}

// EventFilter narrows a calendar for the bot, TUI and MCP surfaces.
// Zero values match everything.
type EventFilter struct {
	MinImpact Impact
	Category  Category
	Limit     int
}

func FilterEvents(events []MarketEvent, f EventFilter) []MarketEvent {
	out := make([]MarketEvent, 0, len(events))
	for _, e := range events {
		if f.MinImpact != "" && e.Impact.Rank() < f.MinImpact.Rank() {
			continue
		}
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		out = append(out, e)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out
}
