// Package watch provides a live terminal view of a running procession.
package watch

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/comalice/procession/internal/primitives"
	"github.com/comalice/procession/internal/production"
	"github.com/comalice/procession/realtime"
)

// maxLog is the number of recent events kept on screen.
const maxLog = 8

// refreshInterval is how often the progress bar is polled.
const refreshInterval = 100 * time.Millisecond

// Status is a point-in-time view of the procession.
type Status struct {
	State     primitives.LifecycleState
	Progress  float64
	ElapsedMs float64
	Home      int
	Total     int
}

// Session is what the view drives.
type Session interface {
	Send(cmd realtime.Command) error
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#b8860b", Dark: "#ffd700"})
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#8a9199", Dark: "#6c7380"})
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}).Bold(true)
	stateStyle = map[primitives.LifecycleState]lipgloss.Style{
		primitives.StateActive:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		primitives.StatePaused:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		primitives.StateCompleted: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		primitives.StateCancelled: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
)

// Model is the bubbletea model for the watch view.
type Model struct {
	title   string
	session Session
	events  <-chan production.PublishedEvent
	poll    func() Status

	status Status
	log    []string
	err    error
	done   bool

	keys     KeyMap
	help     help.Model
	bar      progress.Model
	showHelp bool
	width    int
}

// New creates a watch model. events carries bus events; poll reads the
// current status.
func New(title string, session Session, events <-chan production.PublishedEvent, poll func() Status) Model {
	return Model{
		title:   title,
		session: session,
		events:  events,
		poll:    poll,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(48)),
	}
}

type eventMsg production.PublishedEvent

type eventsClosedMsg struct{}

type tickMsg time.Time

func (m Model) waitForEvent() tea.Msg {
	ev, ok := <-m.events
	if !ok {
		return eventsClosedMsg{}
	}
	return eventMsg(ev)
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init starts listening for events and polling status.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent, tick())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.bar.Width = min(max(msg.Width-4, 10), 80)
		return m, nil

	case tickMsg:
		m.status = m.poll()
		return m, tick()

	case eventMsg:
		m.push(describe(msg.Event))
		switch msg.Event.Name {
		case primitives.EventCompleted, primitives.EventCancelled:
			m.done = true
		}
		return m, m.waitForEvent

	case eventsClosedMsg:
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
		case key.Matches(msg, m.keys.Pause):
			m.err = m.session.Send(realtime.PauseCommand())
		case key.Matches(msg, m.keys.Cancel):
			m.err = m.session.Send(realtime.CancelCommand())
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) push(line string) {
	m.log = append(m.log, line)
	if len(m.log) > maxLog {
		m.log = m.log[len(m.log)-maxLog:]
	}
}

// View renders the model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(m.status.Progress))
	b.WriteString("\n")

	st, ok := stateStyle[m.status.State]
	if !ok {
		st = dimStyle
	}
	fmt.Fprintf(&b, "%s  %s  %s\n\n",
		st.Render(string(m.status.State)),
		dimStyle.Render(fmt.Sprintf("elapsed %s", (time.Duration(m.status.ElapsedMs)*time.Millisecond).Round(time.Second))),
		dimStyle.Render(fmt.Sprintf("home %d/%d", m.status.Home, m.status.Total)),
	)

	for _, line := range m.log {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	if m.done {
		b.WriteString(dimStyle.Render("procession finished, press q to quit"))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if m.showHelp {
		b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	} else {
		b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	return b.String()
}

// describe renders an event as one short line.
func describe(ev primitives.Event) string {
	switch p := ev.Payload.(type) {
	case primitives.Started:
		return fmt.Sprintf("%s  %d participants on %s", ev.Name, p.ParticipantCount, p.RouteID)
	case primitives.Progress:
		return fmt.Sprintf("%s  %.1f%%", ev.Name, p.Progress*100)
	case primitives.PauseChanged:
		if p.IsPaused {
			return fmt.Sprintf("%s  paused", ev.Name)
		}
		return fmt.Sprintf("%s  resumed", ev.Name)
	case primitives.Completed:
		return fmt.Sprintf("%s  everyone home after %s", ev.Name, (time.Duration(p.ElapsedMs) * time.Millisecond).Round(time.Second))
	case primitives.Error:
		return errStyle.Render(fmt.Sprintf("%s  %s", ev.Name, p.Reason))
	default:
		return string(ev.Name)
	}
}
