package handler

import (
	"errors"
	"net/http"
	"time"

	"macro-calendar/internal/domain"
	"macro-calendar/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const (
	calendarSource       = "NewsAPI"
	calendarCacheControl = "public, max-age=86400"
)

// CalendarResponse is the body of a successful calendar request. CacheAge is
// present only on cached responses and Duration only on fresh ones.
type CalendarResponse struct {
	Events    []domain.MarketEvent `json:"events"`
	Cached    bool                 `json:"cached"`
	CacheAge  *int64               `json:"cacheAge,omitempty"`
	Count     int                  `json:"count"`
	Breakdown domain.Breakdown     `json:"breakdown"`
	Timestamp string               `json:"timestamp"`
	Duration  *int64               `json:"duration,omitempty"`
	Source    string               `json:"source"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
}

// GetCalendar godoc
// @Summary      Get the economic calendar
// @Description  Returns upcoming market-moving events detected in recent financial news, served from cache when fresh
// @Tags         calendar
// @Produce      json
// @Success      200  {object}  CalendarResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /calendar [get]
// @Router       /api/calendar [get]
func (h *Handler) GetCalendar(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-calendar")
	defer span.End()

	res, err := h.calendar.GetCalendar(ctx)
	if err != nil {
		span.RecordError(err)
		writeCalendarError(c, err)
		return
	}
	span.SetAttributes(attribute.Bool("cached", res.Cached), attribute.Int("events", len(res.Events)))
	writeCalendar(c, res)
}

// RefreshCalendar godoc
// @Summary      Rebuild the economic calendar
// @Description  Forces a new aggregation pass and replaces the cached calendar
// @Tags         calendar
// @Produce      json
// @Param        X-API-Key  header  string  false  "Admin API key"
// @Success      200  {object}  CalendarResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      500  {object}  ErrorResponse
// @Router       /api/calendar/refresh [post]
func (h *Handler) RefreshCalendar(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.refresh-calendar")
	defer span.End()

	res, err := h.calendar.Refresh(ctx)
	if err != nil {
		span.RecordError(err)
		writeCalendarError(c, err)
		return
	}
	writeCalendar(c, res)
}

func writeCalendar(c *gin.Context, res *service.CalendarResult) {
	events := res.Events
	if events == nil {
		events = []domain.MarketEvent{}
	}

	body := CalendarResponse{
		Events:    events,
		Cached:    res.Cached,
		Count:     len(events),
		Breakdown: domain.NewBreakdown(events),
		Timestamp: timestamp(),
		Source:    calendarSource,
	}
	if res.Cached {
		age := int64(res.CacheAge / time.Second)
		body.CacheAge = &age
	} else {
		ms := res.Duration.Milliseconds()
		body.Duration = &ms
		c.Header("Cache-Control", calendarCacheControl)
	}
	c.JSON(http.StatusOK, body)
}

func writeCalendarError(c *gin.Context, err error) {
	body := ErrorResponse{Timestamp: timestamp()}
	if errors.Is(err, service.ErrNotConfigured) {
		body.Error = err.Error()
	} else {
		body.Error = "Failed to fetch economic calendar"
		body.Details = err.Error()
	}
	c.JSON(http.StatusInternalServerError, body)
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
