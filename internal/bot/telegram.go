package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"macro-calendar/internal/domain"
	"macro-calendar/internal/service"

	tele "gopkg.in/telebot.v3"
)

const maxCalendarLines = 15

type CalendarReader interface {
	GetCalendar(ctx context.Context) (*service.CalendarResult, error)
}

// Briefer writes a prose summary of upcoming events. Optional.
type Briefer interface {
	Brief(ctx context.Context, events []domain.MarketEvent) (string, error)
}

func StartTelegramBot(token string, calendar CalendarReader, briefer Briefer) {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/calendar", func(c tele.Context) error {
		return c.Send(calendarReply(calendar, c.Args()))
	})

	b.Handle("/brief", func(c tele.Context) error {
		_ = c.Notify(tele.Typing)
		return c.Send(briefReply(calendar, briefer))
	})

	log.Println("Telegram bot started")
	go b.Start()
}

// calendarReply answers "/calendar [high|medium|low]".
func calendarReply(calendar CalendarReader, args []string) string {
	var filter domain.EventFilter
	if len(args) > 0 {
		impact, ok := domain.ParseImpact(args[0])
		if !ok {
			return "Usage: /calendar [high|medium|low]"
		}
		filter.MinImpact = impact
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := calendar.GetCalendar(ctx)
	if err != nil {
		return fmt.Sprintf("Error fetching economic calendar: %v", err)
	}
	return formatCalendar(domain.FilterEvents(res.Events, filter))
}

func briefReply(calendar CalendarReader, briefer Briefer) string {
	if briefer == nil {
		return "Briefings are disabled (OPENAI_API_KEY not set)."
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	res, err := calendar.GetCalendar(ctx)
	if err != nil {
		return fmt.Sprintf("Error fetching economic calendar: %v", err)
	}
	if len(res.Events) == 0 {
		return "No upcoming economic events found."
	}

	brief, err := briefer.Brief(ctx, res.Events)
	if err != nil {
		log.Printf("briefing failed: %v", err)
		return "Briefing unavailable right now, try /calendar instead."
	}
	return brief
}

func formatCalendar(events []domain.MarketEvent) string {
	if len(events) == 0 {
		return "No upcoming economic events found."
	}

	var b strings.Builder
	b.WriteString("Upcoming economic events\n")
	for i, e := range events {
		if i == maxCalendarLines {
			fmt.Fprintf(&b, "...and %d more", len(events)-maxCalendarLines)
			break
		}
		fmt.Fprintf(&b, "\n%s %s\n%s · %s impact · %s (%d sources)\n",
			e.Icon, strings.TrimSpace(strings.TrimPrefix(e.Title, e.Icon)),
			e.DisplayDate, e.Impact, e.Confidence, len(e.Sources))
	}
	return strings.TrimRight(b.String(), "\n")
}
