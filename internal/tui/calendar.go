package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"macro-calendar/internal/domain"
	"macro-calendar/internal/service"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const loadTimeout = 2 * time.Minute

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	baseStyle   = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
)

// impactCycle is the order the "i" key steps through. Empty means all events.
var impactCycle = []domain.Impact{"", domain.ImpactMedium, domain.ImpactHigh}

type CalendarReader interface {
	GetCalendar(ctx context.Context) (*service.CalendarResult, error)
	Refresh(ctx context.Context) (*service.CalendarResult, error)
}

type calendarLoadedMsg struct {
	result *service.CalendarResult
	err    error
}

// Model renders the economic calendar as a table.
type Model struct {
	calendar  CalendarReader
	username  string
	table     table.Model
	events    []domain.MarketEvent
	impactIdx int
	loading   bool
	cached    bool
	updated   time.Time
	err       error
}

func NewModel(calendar CalendarReader, username string) Model {
	t := table.New(
		table.WithColumns(columns(100)),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240")).BorderBottom(true).Bold(true)
	s.Selected = s.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(s)

	return Model{calendar: calendar, username: username, table: t, loading: true}
}

func columns(width int) []table.Column {
	event := max(width-62, 24)
	return []table.Column{
		{Title: "Date", Width: 28},
		{Title: "Event", Width: event},
		{Title: "Impact", Width: 8},
		{Title: "Confidence", Width: 10},
		{Title: "Src", Width: 4},
	}
}

// SetSize fits the table to the terminal.
func (m *Model) SetSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	m.table.SetColumns(columns(width))
	m.table.SetWidth(width - 2)
	m.table.SetHeight(max(height-8, 3))
}

func (m Model) Init() tea.Cmd {
	return m.load(false)
}

func (m Model) load(force bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		var (
			res *service.CalendarResult
			err error
		)
		if force {
			res, err = m.calendar.Refresh(ctx)
		} else {
			res, err = m.calendar.GetCalendar(ctx)
		}
		return calendarLoadedMsg{result: res, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, m.load(true)
		case "i":
			m.impactIdx = (m.impactIdx + 1) % len(impactCycle)
			m.applyFilter()
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil
	case calendarLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.events = msg.result.Events
			m.cached = msg.result.Cached
			m.updated = msg.result.CreatedAt
			m.applyFilter()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) applyFilter() {
	events := domain.FilterEvents(m.events, domain.EventFilter{MinImpact: impactCycle[m.impactIdx]})
	rows := make([]table.Row, 0, len(events))
	for _, e := range events {
		rows = append(rows, table.Row{
			e.DisplayDate,
			e.Title,
			string(e.Impact),
			string(e.Confidence),
			fmt.Sprintf("%d", len(e.Sources)),
		})
	}
	m.table.SetRows(rows)
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Economic Calendar"))
	if m.username != "" {
		b.WriteString(statusStyle.Render("  · " + m.username))
	}
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(m.statusLine()))
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(baseStyle.Render(m.table.View()))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ move · r refresh · i impact filter · q quit"))
	return b.String()
}

func (m Model) statusLine() string {
	if m.loading {
		return "Loading calendar..."
	}
	filter := "all impacts"
	if impact := impactCycle[m.impactIdx]; impact != "" {
		filter = string(impact) + "+ impact"
	}
	source := "fresh"
	if m.cached {
		source = "cached"
	}
	parts := []string{fmt.Sprintf("%d events", len(m.table.Rows())), filter, source}
	if !m.updated.IsZero() {
		parts = append(parts, "built "+m.updated.UTC().Format("Jan 2 15:04 MST"))
	}
	return strings.Join(parts, " · ")
}
