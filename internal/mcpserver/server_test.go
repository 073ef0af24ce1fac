package mcpserver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"macro-calendar/internal/domain"
	"macro-calendar/internal/service"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type stubCalendar struct {
	events []domain.MarketEvent
	err    error
}

func (s stubCalendar) GetCalendar(ctx context.Context) (*service.CalendarResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &service.CalendarResult{Events: s.events, Cached: true}, nil
}

var mcpEvents = []domain.MarketEvent{
	{ID: "FOMC Meeting-2025-11-05", Title: "🏦 FOMC Meeting", Category: domain.CategoryMonetary, Impact: domain.ImpactHigh, Confidence: domain.ConfidenceVerified},
	{ID: "Consumer Price Index (CPI)-2025-11-13", Title: "📊 Consumer Price Index (CPI)", Category: domain.CategoryInflation, Impact: domain.ImpactHigh, Confidence: domain.ConfidenceEstimated},
	{ID: "ISM Manufacturing Report-2025-12-01", Title: "⚙️ ISM Manufacturing Report", Category: domain.CategoryGrowth, Impact: domain.ImpactMedium, Confidence: domain.ConfidenceEstimated},
}

func TestGetCalendarToolFilters(t *testing.T) {
	tools := &calendarTools{tracer: testTracer, calendar: stubCalendar{events: mcpEvents}}

	_, out, err := tools.getCalendar(context.Background(), nil, CalendarInput{MinImpact: "high"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Count != 2 || out.Breakdown.High != 2 || !out.Cached {
		t.Fatalf("unexpected output: %+v", out)
	}

	_, out, err = tools.getCalendar(context.Background(), nil, CalendarInput{Category: "Inflation"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Count != 1 || out.Events[0].Category != domain.CategoryInflation {
		t.Fatalf("unexpected category output: %+v", out)
	}

	_, out, _ = tools.getCalendar(context.Background(), nil, CalendarInput{Limit: 1})
	if out.Count != 1 || out.Events[0].ID != "FOMC Meeting-2025-11-05" {
		t.Fatalf("expected the earliest event only, got %+v", out)
	}
}

func TestGetCalendarToolRejectsBadInput(t *testing.T) {
	tools := &calendarTools{tracer: testTracer, calendar: stubCalendar{events: mcpEvents}}

	for _, in := range []CalendarInput{{MinImpact: "extreme"}, {Category: "crypto"}, {Limit: -1}} {
		if _, _, err := tools.getCalendar(context.Background(), nil, in); err == nil {
			t.Fatalf("expected error for %+v", in)
		}
	}
}

func TestGetCalendarToolPropagatesServiceError(t *testing.T) {
	tools := &calendarTools{tracer: testTracer, calendar: stubCalendar{err: service.ErrNotConfigured}}
	if _, _, err := tools.getCalendar(context.Background(), nil, CalendarInput{}); !errors.Is(err, service.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestServerCallToolOverInMemoryTransport(t *testing.T) {
	ctx := context.Background()
	server := NewServer(testTracer, stubCalendar{events: mcpEvents}, "test")

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      ToolName,
		Arguments: map[string]any{"min_impact": "Medium", "category": "growth"},
	})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %+v", res.Content)
	}
	if len(res.Content) == 0 {
		t.Fatal("expected content")
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok || !strings.Contains(text.Text, "ISM Manufacturing Report") {
		t.Fatalf("unexpected content: %+v", res.Content[0])
	}
}
