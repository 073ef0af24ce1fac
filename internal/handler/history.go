package handler

import (
	"net/http"
	"time"

	"macro-calendar/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const (
	historyDateLayout  = "2006-01-02"
	historyDefaultSpan = 30 * 24 * time.Hour
	historyMaxSpan     = 366 * 24 * time.Hour
)

type HistoryResponse struct {
	Events    []domain.MarketEvent `json:"events"`
	Count     int                  `json:"count"`
	From      string               `json:"from"`
	To        string               `json:"to"`
	Timestamp string               `json:"timestamp"`
}

// GetHistory godoc
// @Summary      Get archived calendar events
// @Description  Returns every event ever shown on the calendar with a date in [from, to]. Defaults to the last 30 days.
// @Tags         calendar
// @Produce      json
// @Param        from  query  string  false  "Start date (YYYY-MM-DD)"
// @Param        to    query  string  false  "End date (YYYY-MM-DD)"
// @Success      200  {object}  HistoryResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Failure      503  {object}  ErrorResponse
// @Router       /api/calendar/history [get]
func (h *Handler) GetHistory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-history")
	defer span.End()

	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:     "event archive is not configured",
			Timestamp: timestamp(),
		})
		return
	}

	from, to, msg := historyRange(c.Query("from"), c.Query("to"), time.Now().UTC())
	if msg != "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Timestamp: timestamp()})
		return
	}
	span.SetAttributes(attribute.String("from", from), attribute.String("to", to))

	events, err := h.history.ListEvents(ctx, from, to)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:     "Failed to read event archive",
			Details:   err.Error(),
			Timestamp: timestamp(),
		})
		return
	}
	if events == nil {
		events = []domain.MarketEvent{}
	}

	c.JSON(http.StatusOK, HistoryResponse{
		Events:    events,
		Count:     len(events),
		From:      from,
		To:        to,
		Timestamp: timestamp(),
	})
}

// historyRange resolves the query window. A non-empty message means the
// request is invalid.
func historyRange(rawFrom, rawTo string, now time.Time) (string, string, string) {
	to := now
	if rawTo != "" {
		t, err := time.Parse(historyDateLayout, rawTo)
		if err != nil {
			return "", "", "to must be a date in YYYY-MM-DD format"
		}
		to = t
	}

	from := to.Add(-historyDefaultSpan)
	if rawFrom != "" {
		f, err := time.Parse(historyDateLayout, rawFrom)
		if err != nil {
			return "", "", "from must be a date in YYYY-MM-DD format"
		}
		from = f
	}

	if from.After(to) {
		return "", "", "from must not be after to"
	}
	if to.Sub(from) > historyMaxSpan {
		return "", "", "range must not exceed 366 days"
	}
	return from.Format(historyDateLayout), to.Format(historyDateLayout), ""
}
