package job

import (
	"context"
	"log"
	"time"

	"macro-calendar/internal/service"

	"go.opentelemetry.io/otel/trace"
)

type CalendarRebuilder interface {
	Refresh(ctx context.Context) (*service.CalendarResult, error)
}

// CalendarRefresher keeps the calendar cache warm so requests rarely pay for
// a full aggregation pass.
type CalendarRefresher struct {
	tracer   trace.Tracer
	calendar CalendarRebuilder
	interval time.Duration
}

func NewCalendarRefresher(tracer trace.Tracer, calendar CalendarRebuilder, intervalSecs int) *CalendarRefresher {
	return &CalendarRefresher{
		tracer:   tracer,
		calendar: calendar,
		interval: time.Duration(intervalSecs) * time.Second,
	}
}

// Start runs a pass immediately and then every interval. Blocks until ctx is
// cancelled. A non-positive interval disables the refresher.
func (r *CalendarRefresher) Start(ctx context.Context) {
	if r.interval <= 0 {
		log.Println("Calendar refresher disabled")
		return
	}
	log.Printf("Calendar refresher starting (interval %s)", r.interval)

	r.runOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Calendar refresher stopped")
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *CalendarRefresher) runOnce(ctx context.Context) {
	ctx, span := r.tracer.Start(ctx, "calendar-refresher.run")
	defer span.End()

	res, err := r.calendar.Refresh(ctx)
	if err != nil {
		log.Printf("calendar refresh error: %v", err)
		return
	}
	log.Printf("Calendar refreshed: %d events in %s", len(res.Events), res.Duration)
}
