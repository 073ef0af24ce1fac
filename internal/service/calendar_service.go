package service

import (
	"context"
	"errors"
	"log"
	"time"

	"macro-calendar/internal/domain"
	"macro-calendar/internal/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// CalendarCacheKey is the single key the calendar is stored under.
const CalendarCacheKey = "economic-calendar"

const defaultCalendarTTL = 24 * time.Hour

// ErrNotConfigured is returned on every request while the news credential is missing.
var ErrNotConfigured = errors.New("NEWS_API_KEY is not configured")

type CalendarStore interface {
	Get(ctx context.Context, key string) (*domain.CacheEntry, error)
	Set(ctx context.Context, key string, entry *domain.CacheEntry) error
}

type EventAggregator interface {
	Aggregate(ctx context.Context, queries []string) ([]domain.MarketEvent, error)
}

// EventArchive records every built calendar. Optional.
type EventArchive interface {
	UpsertEvents(ctx context.Context, events []domain.MarketEvent, seenAt time.Time) error
}

type CalendarOptions struct {
	Configured bool
	Queries    []string
	TTL        time.Duration
	Archive    EventArchive
}

// CalendarResult is what a request receives. CacheAge is set only when
// Cached is true, Duration only when it is false.
type CalendarResult struct {
	Events    []domain.MarketEvent
	Cached    bool
	CacheAge  time.Duration
	Duration  time.Duration
	CreatedAt time.Time
}

// CalendarService serves the calendar from the store and rebuilds it on a
// miss. Concurrent misses share one aggregation pass.
type CalendarService struct {
	tracer     trace.Tracer
	aggregator EventAggregator
	store      CalendarStore
	configured bool
	queries    []string
	ttl        time.Duration
	archive    EventArchive
	now        func() time.Time
	group      singleflight.Group
}

func NewCalendarService(tracer trace.Tracer, aggregator EventAggregator, store CalendarStore, opts CalendarOptions) *CalendarService {
	if opts.TTL <= 0 {
		opts.TTL = defaultCalendarTTL
	}
	return &CalendarService{
		tracer:     tracer,
		aggregator: aggregator,
		store:      store,
		configured: opts.Configured,
		queries:    opts.Queries,
		ttl:        opts.TTL,
		archive:    opts.Archive,
		now:        time.Now,
	}
}

// GetCalendar returns the cached calendar while it is valid, otherwise runs
// (or joins) a pass. A caller whose ctx ends stops waiting, but the pass keeps
// running and still populates the cache.
func (s *CalendarService) GetCalendar(ctx context.Context) (*CalendarResult, error) {
	ctx, span := s.tracer.Start(ctx, "calendar-service.get-calendar")
	defer span.End()

	if !s.configured {
		return nil, ErrNotConfigured
	}

	entry, err := s.store.Get(ctx, CalendarCacheKey)
	if err != nil {
		log.Printf("calendar cache read error: %v", err)
	}
	now := s.now()
	if entry.Valid(now) {
		metrics.CacheHit()
		span.SetAttributes(attribute.Bool("cached", true))
		return &CalendarResult{
			Events:    entry.Events,
			Cached:    true,
			CacheAge:  now.Sub(entry.CreatedAt),
			CreatedAt: entry.CreatedAt,
		}, nil
	}

	metrics.CacheMiss()
	span.SetAttributes(attribute.Bool("cached", false))
	res, err := s.build(ctx, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res, nil
}

// Refresh forces a pass regardless of the cached entry's age.
func (s *CalendarService) Refresh(ctx context.Context) (*CalendarResult, error) {
	ctx, span := s.tracer.Start(ctx, "calendar-service.refresh")
	defer span.End()

	if !s.configured {
		return nil, ErrNotConfigured
	}
	return s.build(ctx, true)
}

// build runs or joins the single in-flight pass. Unless force is set, the
// flight first re-reads the store: a caller that missed while an earlier pass
// was finishing gets that pass's entry instead of starting another.
func (s *CalendarService) build(ctx context.Context, force bool) (*CalendarResult, error) {
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(CalendarCacheKey, func() (interface{}, error) {
		if !force {
			if res := s.cached(detached); res != nil {
				return res, nil
			}
		}
		return s.rebuild(detached)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		res := *r.Val.(*CalendarResult)
		return &res, nil
	}
}

func (s *CalendarService) cached(ctx context.Context) *CalendarResult {
	entry, err := s.store.Get(ctx, CalendarCacheKey)
	if err != nil {
		log.Printf("calendar cache read error: %v", err)
		return nil
	}
	now := s.now()
	if !entry.Valid(now) {
		return nil
	}
	return &CalendarResult{
		Events:    entry.Events,
		Cached:    true,
		CacheAge:  now.Sub(entry.CreatedAt),
		CreatedAt: entry.CreatedAt,
	}
}

func (s *CalendarService) rebuild(ctx context.Context) (*CalendarResult, error) {
	start := s.now()
	events, err := s.aggregator.Aggregate(ctx, s.queries)
	if err != nil {
		return nil, err
	}

	createdAt := s.now()
	entry := &domain.CacheEntry{
		Events:    events,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(s.ttl),
	}
	if err := s.store.Set(ctx, CalendarCacheKey, entry); err != nil {
		log.Printf("calendar cache write error: %v", err)
	}
	if s.archive != nil {
		if err := s.archive.UpsertEvents(ctx, events, createdAt); err != nil {
			log.Printf("calendar archive write error: %v", err)
		}
	}

	log.Printf("Built economic calendar with %d events", len(events))
	return &CalendarResult{
		Events:    events,
		Duration:  createdAt.Sub(start),
		CreatedAt: createdAt,
	}, nil
}
