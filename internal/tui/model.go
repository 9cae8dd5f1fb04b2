// Package tui renders the interactive calendar: month grid, upcoming
// events and the selected day's detail, with the controller supplying
// every piece of state.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sugarcal/internal/controller"
	"sugarcal/internal/event"
	"sugarcal/internal/view"
)

// Navigator handles the "view all events" affordance. The TUI only
// dispatches; what the target looks like is the caller's business.
type Navigator interface {
	NavigateTo(section string) error
}

// RefreshRequestMsg asks the model for a forced refresh. The cron
// scheduler sends it through Program.Send.
type RefreshRequestMsg struct{}

type fetchDoneMsg struct {
	req    *controller.FetchRequest
	events []event.Instance
	err    error
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F97316"))
	headerStyle   = lipgloss.NewStyle().Faint(true)
	todayStyle    = lipgloss.NewStyle().Bold(true).Reverse(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#38BDF8"))
	eventStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	helpStyle     = lipgloss.NewStyle().Faint(true)
	sectionStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

// Model is the Bubble Tea model. All calendar state lives in the
// controller; the model holds only presentation concerns.
type Model struct {
	ctrl      *controller.Controller
	nav       Navigator
	spin      spinner.Model
	width     int
	statusMsg string
}

// New builds the model around an activated or idle controller.
func New(ctrl *controller.Controller, nav Navigator) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = titleStyle
	return Model{ctrl: ctrl, nav: nav, spin: sp}
}

// Run starts the program. Callers that need Program.Send (the cron
// refresher) build the program themselves.
func Run(ctrl *controller.Controller, nav Navigator) error {
	prog := tea.NewProgram(New(ctrl, nav), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	req := m.ctrl.Activate()
	if req == nil {
		return nil
	}
	return tea.Batch(m.spin.Tick, m.fetchCmd(req))
}

func (m Model) fetchCmd(req *controller.FetchRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		events, err := m.ctrl.Fetch(ctx, req)
		return fetchDoneMsg{req: req, events: events, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case spinner.TickMsg:
		if m.ctrl.State() != controller.StateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case fetchDoneMsg:
		m.ctrl.ApplyFetch(msg.req, msg.events, msg.err)
		return m, nil
	case RefreshRequestMsg:
		return m.startFetch(m.ctrl.ForceRefresh())
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.statusMsg = ""
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "left", "h":
		return m.startFetch(m.ctrl.PrevMonth())
	case "right", "l":
		return m.startFetch(m.ctrl.NextMonth())
	case "t":
		return m.startFetch(m.ctrl.GoToToday())
	case "r":
		return m.startFetch(m.ctrl.ForceRefresh())
	case "[":
		return m.startFetch(m.ctrl.SelectOffset(-1))
	case "]":
		return m.startFetch(m.ctrl.SelectOffset(1))
	case "v":
		if m.nav != nil {
			if err := m.nav.NavigateTo("events"); err != nil {
				m.statusMsg = err.Error()
			}
		}
	}
	return m, nil
}

// startFetch handles the (request, ok) pair every controller
// transition returns.
func (m Model) startFetch(req *controller.FetchRequest, ok bool) (tea.Model, tea.Cmd) {
	if !ok {
		m.statusMsg = "busy loading, try again shortly"
		return m, nil
	}
	if req == nil {
		return m, nil
	}
	return m, tea.Batch(m.spin.Tick, m.fetchCmd(req))
}

func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.gridView())
	sb.WriteString("\n")
	sb.WriteString(m.dayView())
	sb.WriteString("\n")
	sb.WriteString(m.upcomingView())

	if m.ctrl.State() == controller.StateLoading {
		sb.WriteString("\n")
		sb.WriteString(m.spin.View())
		sb.WriteString(" loading events...")
	}
	if m.ctrl.State() == controller.StateError {
		sb.WriteString("\n")
		sb.WriteString(errorStyle.Render(view.LoadFailedMessage))
	}
	if m.statusMsg != "" {
		sb.WriteString("\n")
		sb.WriteString(errorStyle.Render(m.statusMsg))
	}
	sb.WriteString("\n\n")
	sb.WriteString(helpStyle.Render("h/l month  [/] day  t today  r refresh  v all events  q quit"))
	return sb.String()
}

func (m Model) gridView() string {
	grid := m.ctrl.Grid()
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(grid.Title))
	sb.WriteString("\n")
	sb.WriteString(headerStyle.Render(" Sun  Mon  Tue  Wed  Thu  Fri  Sat"))
	sb.WriteString("\n")
	for _, week := range grid.Weeks() {
		for _, cell := range week {
			if cell == nil {
				sb.WriteString("     ")
				continue
			}
			sb.WriteString(m.cellView(cell))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) cellView(cell *view.Cell) string {
	mark := " "
	if cell.HasEvents {
		mark = eventStyle.Render("*")
	}
	label := fmt.Sprintf("%3d", cell.Day)
	switch {
	case cell.Key == m.ctrl.Selected():
		label = selectedStyle.Render(label)
	case cell.IsToday:
		label = todayStyle.Render(label)
	}
	return label + mark + " "
}

func (m Model) dayView() string {
	detail := m.ctrl.DayDetail()
	var sb strings.Builder
	sb.WriteString(sectionStyle.Render(detail.Title))
	sb.WriteString("\n")
	if detail.Empty {
		sb.WriteString(headerStyle.Render(detail.EmptyMessage))
		sb.WriteString("\n")
		return sb.String()
	}
	for _, ev := range detail.Events {
		fmt.Fprintf(&sb, "  %-9s %s\n", ev.TimeRange, ev.Title)
		if ev.Location != "" {
			fmt.Fprintf(&sb, "            %s\n", headerStyle.Render(ev.Location))
		}
	}
	return sb.String()
}

func (m Model) upcomingView() string {
	items := m.ctrl.Upcoming()
	var sb strings.Builder
	sb.WriteString(sectionStyle.Render("Upcoming Events"))
	sb.WriteString("\n")
	if len(items) == 0 {
		sb.WriteString(headerStyle.Render(view.NoUpcomingMessage))
		sb.WriteString("\n")
		return sb.String()
	}
	for _, it := range items {
		label := it.DateLabel
		if it.IsToday {
			label = eventStyle.Render(label)
		}
		fmt.Fprintf(&sb, "  %-14s %-9s %s\n", label, it.TimeRange, it.Title)
	}
	return sb.String()
}
