package calendar

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"macro-calendar/internal/domain"
)

// unknownSource labels articles whose provider did not report a source name.
const unknownSource = "Unknown"

// eventSet accumulates MarketEvents keyed by (event name, date) for a single
// aggregation pass. It is not safe for concurrent use.
type eventSet struct {
	byID  map[string]*domain.MarketEvent
	order []string
}

func newEventSet() *eventSet {
	return &eventSet{byID: make(map[string]*domain.MarketEvent)}
}

func eventID(name string, date time.Time) string {
	return name + "-" + date.Format(ISODate)
}

// add merges one detection. It reports whether a new event was created.
func (s *eventSet) add(c domain.Classification, date time.Time, source string) bool {
	id := eventID(c.EventName, date)
	if e, ok := s.byID[id]; ok {
		e.AddSource(source)
		return false
	}

	display := date.Format(DisplayLayout)
	s.byID[id] = &domain.MarketEvent{
		ID:          id,
		Date:        date.Format(ISODate),
		DisplayDate: display,
		Title:       c.Icon + " " + c.EventName,
		Description: fmt.Sprintf("%s %s expected on %s", c.Icon, c.EventName, display),
		Category:    c.Category,
		Impact:      c.Impact,
		Icon:        c.Icon,
		Sources:     []string{source},
		Confidence:  domain.ConfidenceEstimated,
	}
	s.order = append(s.order, id)
	return true
}

func (s *eventSet) len() int {
	return len(s.order)
}

// sorted returns copies of the events ordered by ISO date. Events sharing a
// date keep their discovery order.
func (s *eventSet) sorted() []domain.MarketEvent {
	out := make([]domain.MarketEvent, 0, len(s.order))
	for _, id := range s.order {
		e := *s.byID[id]
		e.Sources = slices.Clone(e.Sources)
		out = append(out, e)
	}
	slices.SortStableFunc(out, func(a, b domain.MarketEvent) int {
		return strings.Compare(a.Date, b.Date)
	})
	return out
}

func sourceLabel(name string) string {
	if strings.TrimSpace(name) == "" {
		return unknownSource
	}
	return name
}
