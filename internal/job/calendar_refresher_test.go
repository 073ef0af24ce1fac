package job

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"macro-calendar/internal/domain"
	"macro-calendar/internal/service"

	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type stubCalendar struct {
	calls atomic.Int32
	err   error
}

func (s *stubCalendar) Refresh(ctx context.Context) (*service.CalendarResult, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &service.CalendarResult{Events: []domain.MarketEvent{{ID: "GDP Report-2025-11-20"}}}, nil
}

func TestNewCalendarRefresherInterval(t *testing.T) {
	r := NewCalendarRefresher(testTracer, &stubCalendar{}, 2)
	if r.interval != 2*time.Second {
		t.Fatalf("expected 2s interval, got %v", r.interval)
	}
}

func TestCalendarRefresherRunsImmediatelyAndOnTick(t *testing.T) {
	t.Parallel()

	stub := &stubCalendar{}
	r := NewCalendarRefresher(testTracer, stub, 1)
	r.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	eventually(t, func() bool { return stub.calls.Load() >= 2 })
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop after cancel")
	}
}

func TestCalendarRefresherDisabled(t *testing.T) {
	t.Parallel()

	stub := &stubCalendar{}
	r := NewCalendarRefresher(testTracer, stub, 0)
	r.Start(context.Background())
	if stub.calls.Load() != 0 {
		t.Fatalf("disabled refresher should not run, got %d calls", stub.calls.Load())
	}
}

func TestCalendarRefresherSurvivesErrors(t *testing.T) {
	t.Parallel()

	stub := &stubCalendar{err: errors.New("newsapi down")}
	r := NewCalendarRefresher(testTracer, stub, 1)
	r.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Start(ctx)

	eventually(t, func() bool { return stub.calls.Load() >= 3 })
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}
