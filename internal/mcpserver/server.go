package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"macro-calendar/internal/domain"
	"macro-calendar/internal/service"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/trace"
)

const ToolName = "get_economic_calendar"

type CalendarReader interface {
	GetCalendar(ctx context.Context) (*service.CalendarResult, error)
}

type CalendarInput struct {
	MinImpact string `json:"min_impact,omitempty" jsonschema:"lowest impact to include: High, Medium or Low"`
	Category  string `json:"category,omitempty" jsonschema:"only events in this category: monetary, inflation, employment, consumer, growth or other"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of events to return"`
}

type CalendarOutput struct {
	Events    []domain.MarketEvent `json:"events"`
	Count     int                  `json:"count"`
	Cached    bool                 `json:"cached"`
	Breakdown domain.Breakdown     `json:"breakdown"`
}

// NewServer exposes the calendar as an MCP tool.
func NewServer(tracer trace.Tracer, calendar CalendarReader, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "macro-calendar", Version: version}, nil)
	tools := &calendarTools{tracer: tracer, calendar: calendar}
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolName,
		Description: "Upcoming market-moving economic events (FOMC, CPI, jobs data, GDP...) detected in recent financial news, sorted by date.",
	}, tools.getCalendar)
	return server
}

type calendarTools struct {
	tracer   trace.Tracer
	calendar CalendarReader
}

func (t *calendarTools) getCalendar(ctx context.Context, _ *mcp.CallToolRequest, in CalendarInput) (*mcp.CallToolResult, CalendarOutput, error) {
	ctx, span := t.tracer.Start(ctx, "mcp.get-economic-calendar")
	defer span.End()

	filter, err := parseFilter(in)
	if err != nil {
		return nil, CalendarOutput{}, err
	}

	res, err := t.calendar.GetCalendar(ctx)
	if err != nil {
		return nil, CalendarOutput{}, err
	}

	events := domain.FilterEvents(res.Events, filter)
	return nil, CalendarOutput{
		Events:    events,
		Count:     len(events),
		Cached:    res.Cached,
		Breakdown: domain.NewBreakdown(events),
	}, nil
}

func parseFilter(in CalendarInput) (domain.EventFilter, error) {
	var f domain.EventFilter
	if in.MinImpact != "" {
		impact, ok := domain.ParseImpact(in.MinImpact)
		if !ok {
			return f, fmt.Errorf("unknown min_impact %q: want High, Medium or Low", in.MinImpact)
		}
		f.MinImpact = impact
	}
	if in.Category != "" {
		category := domain.Category(strings.ToLower(strings.TrimSpace(in.Category)))
		known := false
		for _, c := range domain.SupportedCategories {
			if c == category {
				known = true
				break
			}
		}
		if !known {
			return f, fmt.Errorf("unknown category %q", in.Category)
		}
		f.Category = category
	}
	if in.Limit < 0 {
		return f, fmt.Errorf("limit must not be negative")
	}
	f.Limit = in.Limit
	return f, nil
}
