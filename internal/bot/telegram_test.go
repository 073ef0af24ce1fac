package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"macro-calendar/internal/domain"
	"macro-calendar/internal/service"
)

type stubCalendar struct {
	events []domain.MarketEvent
	err    error
}

func (s stubCalendar) GetCalendar(ctx context.Context) (*service.CalendarResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &service.CalendarResult{Events: s.events}, nil
}

var botEvents = []domain.MarketEvent{
	{Title: "🏦 FOMC Meeting", Icon: "🏦", DisplayDate: "Wednesday, November 5, 2025", Impact: domain.ImpactHigh, Confidence: domain.ConfidenceVerified, Sources: []string{"Reuters", "CNBC"}},
	{Title: "🧭 University of Michigan Consumer Sentiment", Icon: "🧭", DisplayDate: "Friday, November 7, 2025", Impact: domain.ImpactMedium, Confidence: domain.ConfidenceEstimated, Sources: []string{"Reuters"}},
}

func TestStartTelegramBotSkipsWithoutToken(t *testing.T) {
	StartTelegramBot("", nil, nil)
}

func TestCalendarReplyListsEvents(t *testing.T) {
	got := calendarReply(stubCalendar{events: botEvents}, nil)
	if !strings.Contains(got, "🏦 FOMC Meeting\nWednesday, November 5, 2025 · High impact · Verified (2 sources)") {
		t.Fatalf("unexpected reply: %q", got)
	}
	if !strings.Contains(got, "University of Michigan") {
		t.Fatalf("expected medium event without filter: %q", got)
	}
}

func TestCalendarReplyFiltersByImpact(t *testing.T) {
	got := calendarReply(stubCalendar{events: botEvents}, []string{"HIGH"})
	if strings.Contains(got, "Michigan") {
		t.Fatalf("medium event should be filtered: %q", got)
	}
}

func TestCalendarReplyUsageAndErrors(t *testing.T) {
	if got := calendarReply(stubCalendar{}, []string{"extreme"}); !strings.HasPrefix(got, "Usage:") {
		t.Fatalf("expected usage, got %q", got)
	}
	if got := calendarReply(stubCalendar{err: errors.New("boom")}, nil); !strings.Contains(got, "boom") {
		t.Fatalf("expected error reply, got %q", got)
	}
	if got := calendarReply(stubCalendar{}, nil); got != "No upcoming economic events found." {
		t.Fatalf("unexpected empty reply: %q", got)
	}
}

type stubBriefer struct {
	reply string
	err   error
	got   int
}

func (s *stubBriefer) Brief(ctx context.Context, events []domain.MarketEvent) (string, error) {
	s.got = len(events)
	return s.reply, s.err
}

func TestBriefReply(t *testing.T) {
	if got := briefReply(stubCalendar{events: botEvents}, nil); !strings.Contains(got, "disabled") {
		t.Fatalf("expected disabled reply, got %q", got)
	}

	b := &stubBriefer{reply: "Fed on Wednesday."}
	if got := briefReply(stubCalendar{events: botEvents}, b); got != "Fed on Wednesday." {
		t.Fatalf("unexpected brief: %q", got)
	}
	if b.got != len(botEvents) {
		t.Fatalf("expected %d events passed to briefer, got %d", len(botEvents), b.got)
	}

	if got := briefReply(stubCalendar{events: botEvents}, &stubBriefer{err: errors.New("quota")}); !strings.Contains(got, "unavailable") {
		t.Fatalf("expected fallback reply, got %q", got)
	}

	empty := &stubBriefer{}
	if got := briefReply(stubCalendar{}, empty); got != "No upcoming economic events found." || empty.got != 0 {
		t.Fatalf("briefer should not run without events: %q", got)
	}
}

func TestFormatCalendarTruncates(t *testing.T) {
	events := make([]domain.MarketEvent, maxCalendarLines+3)
	for i := range events {
		events[i] = domain.MarketEvent{Title: fmt.Sprintf("📈 GDP Report %d", i), Icon: "📈", Impact: domain.ImpactHigh}
	}
	got := formatCalendar(events)
	if !strings.HasSuffix(got, "...and 3 more") {
		t.Fatalf("expected truncation marker, got %q", got)
	}
}
