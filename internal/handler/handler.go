package handler

import (
	"context"

	"macro-calendar/internal/domain"
	"macro-calendar/internal/metrics"
	"macro-calendar/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type CalendarReader interface {
	GetCalendar(ctx context.Context) (*service.CalendarResult, error)
	Refresh(ctx context.Context) (*service.CalendarResult, error)
}

// EventHistory reads the archive of previously built calendars.
type EventHistory interface {
	ListEvents(ctx context.Context, from, to string) ([]domain.MarketEvent, error)
}

type Handler struct {
	tracer      trace.Tracer
	calendar    CalendarReader
	history     EventHistory
	adminAPIKey string
}

func New(tracer trace.Tracer, calendar CalendarReader, adminAPIKey string) *Handler {
	return &Handler{
		tracer:      tracer,
		calendar:    calendar,
		adminAPIKey: adminAPIKey,
	}
}

// WithHistory enables /api/calendar/history. Without it the route answers 503.
func (h *Handler) WithHistory(history EventHistory) *Handler {
	h.history = history
	return h
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/calendar", h.GetCalendar)

	api := r.Group("/api")
	api.GET("/calendar", h.GetCalendar)
	api.GET("/calendar/history", h.GetHistory)
	api.POST("/calendar/refresh", APIKeyAuth(h.adminAPIKey), h.RefreshCalendar)
}
