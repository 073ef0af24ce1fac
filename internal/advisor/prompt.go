package advisor

import (
	"fmt"
	"strings"
	"time"

	"macro-calendar/internal/domain"
)

const briefingInstructions = `You write short week-ahead notes on scheduled US macroeconomic releases for a Telegram channel.

Rules:
- Only discuss the events listed. Never add releases or dates that are not in the list.
- Dates marked Estimated come from a single news source and may be wrong; say so when it matters.
- Lead with the High impact events, then mention the rest briefly.
- For each key event say in one sentence why markets watch it.
- Keep it under 150 words. No disclaimers, no markdown tables.`

func BuildSystemPrompt() string {
	var sb strings.Builder
	sb.WriteString(briefingInstructions)
	sb.WriteString("\n\nToday is ")
	sb.WriteString(time.Now().UTC().Format("Monday, January 2, 2006"))
	sb.WriteString(".")
	return sb.String()
}

// FormatEvents renders one line per event in calendar order.
func FormatEvents(events []domain.MarketEvent) string {
	var sb strings.Builder
	sb.WriteString("Upcoming events:\n")
	for _, e := range events {
		sb.WriteString(fmt.Sprintf("- %s | %s | %s impact | %s | %s\n",
			e.Date, strings.TrimSpace(strings.TrimPrefix(e.Title, e.Icon)),
			e.Impact, e.Category, confidenceNote(e)))
	}
	return sb.String()
}

func confidenceNote(e domain.MarketEvent) string {
	if len(e.Sources) < 2 {
		return string(e.Confidence)
	}
	return fmt.Sprintf("%s by %s", e.Confidence, strings.Join(e.Sources, ", "))
}
