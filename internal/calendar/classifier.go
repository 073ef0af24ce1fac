package calendar

import (
	"strings"

	"macro-calendar/internal/domain"
)

// rule maps a keyword predicate to a classification. Rules are evaluated in
// order and the first match wins, so broader rules must come later.
type rule struct {
	result domain.Classification
	match  func(text string) bool
}

var rules = []rule{
	{
		result: domain.Classification{Category: domain.CategoryMonetary, Impact: domain.ImpactHigh, Icon: "🏦", EventName: "FOMC Meeting"},
		match: func(t string) bool {
			return containsAny(t, "fomc", "federal reserve meeting") ||
				(strings.Contains(t, "fed") && containsAny(t, "meeting", "decision"))
		},
	},
	{
		result: domain.Classification{Category: domain.CategoryInflation, Impact: domain.ImpactHigh, Icon: "📊", EventName: "Consumer Price Index (CPI)"},
		match:  keywords("cpi", "consumer price index"),
	},
	{
		result: domain.Classification{Category: domain.CategoryInflation, Impact: domain.ImpactHigh, Icon: "🏭", EventName: "Producer Price Index (PPI)"},
		match:  keywords("ppi", "producer price index"),
	},
	{
		result: domain.Classification{Category: domain.CategoryEmployment, Impact: domain.ImpactHigh, Icon: "💼", EventName: "JOLTS Job Openings Report"},
		match:  keywords("jolts", "job openings"),
	},
	{
		result: domain.Classification{Category: domain.CategoryEmployment, Impact: domain.ImpactHigh, Icon: "👷", EventName: "Non-Farm Payrolls Report"},
		match: func(t string) bool {
			return containsAny(t, "non-farm", "nonfarm") ||
				(strings.Contains(t, "payroll") && strings.Contains(t, "job"))
		},
	},
	{
		result: domain.Classification{Category: domain.CategoryGrowth, Impact: domain.ImpactHigh, Icon: "🛍️", EventName: "Retail Sales Report"},
		match:  keywords("retail sales"),
	},
	{
		result: domain.Classification{Category: domain.CategoryConsumer, Impact: domain.ImpactMedium, Icon: "🧭", EventName: "University of Michigan Consumer Sentiment"},
		match:  keywords("michigan", "consumer sentiment"),
	},
	{
		result: domain.Classification{Category: domain.CategoryConsumer, Impact: domain.ImpactMedium, Icon: "💭", EventName: "Consumer Confidence Index"},
		match:  keywords("consumer confidence", "conference board"),
	},
	{
		result: domain.Classification{Category: domain.CategoryGrowth, Impact: domain.ImpactHigh, Icon: "📈", EventName: "GDP Report"},
		match:  keywords("gdp", "gross domestic product"),
	},
	{
		result: domain.Classification{Category: domain.CategoryGrowth, Impact: domain.ImpactMedium, Icon: "⚙️", EventName: "ISM Manufacturing Report"},
		match:  keywords("ism", "purchasing managers"),
	},
}

var fallback = domain.Classification{Category: domain.CategoryOther, Impact: domain.ImpactLow, Icon: "📰"}

// Classify resolves free text to a known economic event type. Matching is a
// case-insensitive substring test; text matching no rule yields a
// classification with an empty EventName.
func Classify(text string) domain.Classification {
	lower := strings.ToLower(text)
	for _, r := range rules {
		if r.match(lower) {
			return r.result
		}
	}
	return fallback
}

// EventNames lists the canonical names in rule order.
func EventNames() []string {
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, r.result.EventName)
	}
	return names
}

func keywords(words ...string) func(string) bool {
	return func(t string) bool { return containsAny(t, words...) }
}

func containsAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
