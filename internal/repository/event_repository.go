package repository

import (
	"context"
	"time"

	"macro-calendar/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const createMarketEventsTable = `
CREATE TABLE IF NOT EXISTS market_events (
    id           TEXT        PRIMARY KEY,
    event_date   DATE        NOT NULL,
    display_date TEXT        NOT NULL,
    title        TEXT        NOT NULL,
    description  TEXT        NOT NULL,
    category     TEXT        NOT NULL,
    impact       TEXT        NOT NULL,
    icon         TEXT        NOT NULL,
    sources      TEXT[]      NOT NULL,
    confidence   TEXT        NOT NULL,
    first_seen   TIMESTAMPTZ NOT NULL,
    last_seen    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_market_events_date
    ON market_events (event_date);
`

// Sources keep first-seen order and only grow. Verified is never downgraded.
const upsertMarketEvent = `
INSERT INTO market_events (id, event_date, display_date, title, description, category, impact, icon, sources, confidence, first_seen, last_seen)
VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
ON CONFLICT (id) DO UPDATE SET
    sources = market_events.sources || ARRAY(
        SELECT s FROM unnest(EXCLUDED.sources) WITH ORDINALITY AS x(s, n)
        WHERE s <> ALL(market_events.sources)
        ORDER BY n),
    confidence = CASE
        WHEN market_events.confidence = 'Verified' THEN market_events.confidence
        WHEN cardinality(market_events.sources) + cardinality(ARRAY(
            SELECT s FROM unnest(EXCLUDED.sources) s WHERE s <> ALL(market_events.sources))) >= 2 THEN 'Verified'
        ELSE EXCLUDED.confidence
    END,
    last_seen = EXCLUDED.last_seen`

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// EventRepository archives every event the calendar has ever shown so past
// weeks stay queryable after the cache entry expires.
type EventRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewEventRepository(pool PgxPool, tracer trace.Tracer) *EventRepository {
	return &EventRepository{pool: pool, tracer: tracer}
}

func (r *EventRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "event-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createMarketEventsTable)
	return err
}

func (r *EventRepository) UpsertEvents(ctx context.Context, events []domain.MarketEvent, seenAt time.Time) error {
	if len(events) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "event-repo.upsert-events")
	defer span.End()
	span.SetAttributes(attribute.Int("events", len(events)))

	batch := &pgx.Batch{}
	for _, e := range events {
		sources := e.Sources
		if sources == nil {
			sources = []string{}
		}
		batch.Queue(upsertMarketEvent,
			e.ID, e.Date, e.DisplayDate, e.Title, e.Description,
			string(e.Category), string(e.Impact), e.Icon, sources, string(e.Confidence),
			seenAt.UTC(),
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			span.RecordError(err)
			return err
		}
	}
	return nil
}

// ListEvents returns archived events dated within [from, to] (YYYY-MM-DD),
// in calendar order.
func (r *EventRepository) ListEvents(ctx context.Context, from, to string) ([]domain.MarketEvent, error) {
	_, span := r.tracer.Start(ctx, "event-repo.list-events")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, to_char(event_date, 'YYYY-MM-DD'), display_date, title, description,
		        category, impact, icon, sources, confidence
		 FROM market_events
		 WHERE event_date >= $1::date AND event_date <= $2::date
		 ORDER BY event_date, id`,
		from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.MarketEvent
	for rows.Next() {
		var (
			e                            domain.MarketEvent
			category, impact, confidence string
		)
		if err := rows.Scan(&e.ID, &e.Date, &e.DisplayDate, &e.Title, &e.Description,
			&category, &impact, &e.Icon, &e.Sources, &confidence); err != nil {
			return nil, err
		}
		e.Category = domain.Category(category)
		e.Impact = domain.Impact(impact)
		e.Confidence = domain.Confidence(confidence)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("events", len(events)))
	return events, nil
}
