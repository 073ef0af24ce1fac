package app

import (
	"context"
	"log"

	"macro-calendar/internal/config"
	"macro-calendar/internal/handler"
	"macro-calendar/internal/repository"
	"macro-calendar/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"
)

// Archive is the Postgres event history: written after each pass, read by
// /api/calendar/history.
type Archive interface {
	service.EventArchive
	handler.EventHistory
}

var openPool = func(ctx context.Context, dsn string) (repository.PgxPool, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pool, pool.Close, nil
}

// NewArchive connects to DATABASE_URL and ensures the schema. It returns a
// nil Archive when the database is unset or unreachable; the calendar works
// without it.
func NewArchive(ctx context.Context, cfg *config.Config, tracer trace.Tracer) (Archive, func()) {
	noop := func() {}
	if cfg.DatabaseURL == "" {
		return nil, noop
	}

	pool, closePool, err := openPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Printf("Warning: postgres unavailable (%v), event archive disabled", err)
		return nil, noop
	}

	repo := repository.NewEventRepository(pool, tracer)
	if err := repo.RunMigrations(ctx); err != nil {
		log.Printf("Warning: event archive migration failed (%v), archive disabled", err)
		closePool()
		return nil, noop
	}
	log.Println("Event archive enabled")
	return repo, closePool
}
