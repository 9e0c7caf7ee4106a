// Command planner-tui is an interactive, read-only viewer for a single
// session: venues, their running tallies, and the current itinerary,
// refreshed on a timer.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	gc "groupcore"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("228")).MarginTop(1)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

const refreshInterval = 3 * time.Second

type tickMsg time.Time

type stateMsg struct {
	state gc.SessionState
	err   error
}

type model struct {
	coordinator *gc.Coordinator
	sessionID   string
	state       gc.SessionState
	loaded      bool
	spinner     spinner.Model
	err         error
}

func newModel(coordinator *gc.Coordinator, sessionID string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = dimStyle
	return model{coordinator: coordinator, sessionID: sessionID, spinner: s}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(fetchState(m.coordinator, m.sessionID), scheduleTick(), m.spinner.Tick)
}

func scheduleTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func fetchState(c *gc.Coordinator, sessionID string) tea.Cmd {
	return func() tea.Msg {
		state, err := c.SessionState(sessionID)
		return stateMsg{state: state, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
	case tickMsg:
		return m, tea.Batch(fetchState(m.coordinator, m.sessionID), scheduleTick())
	case stateMsg:
		m.state = msg.state
		m.err = msg.err
		m.loaded = true
		return m, nil
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var b []byte
	write := func(s string) { b = append(b, []byte(s)...) }

	write(titleStyle.Render(fmt.Sprintf("session %s", m.sessionID)) + "\n")
	if !m.loaded {
		write(m.spinner.View() + dimStyle.Render(" loading...") + "\n")
		return string(b)
	}
	if m.err != nil {
		write(errStyle.Render(m.err.Error()) + "\n")
		return string(b)
	}

	write(dimStyle.Render("status: "+string(m.state.Status)) + "\n")

	write(sectionStyle.Render("venues") + "\n")
	for _, v := range m.state.Venues {
		t := m.state.Tallies[v.ID]
		write(fmt.Sprintf("  %-24s  +%d/-%d  net %d\n", v.Name, t.Upvotes, t.Downvotes, t.NetScore))
	}

	write(sectionStyle.Render("itinerary") + "\n")
	for _, item := range m.state.Itinerary {
		write(fmt.Sprintf("  %2d.  %s  @ %s\n", item.Order+1, item.VenueID, item.ScheduledTime.Format(time.RFC822)))
	}

	write(sectionStyle.Render("participants") + "\n")
	for _, p := range m.state.Participants {
		write(fmt.Sprintf("  %s%s\n", p.DisplayName, organizerTag(p)))
	}

	write("\n" + dimStyle.Render("q to quit") + "\n")
	return string(b)
}

func organizerTag(p gc.Participant) string {
	if p.IsOrganizer {
		return dimStyle.Render("  (organizer)")
	}
	return ""
}

func main() {
	dsn := flag.String("dsn", "file:groupcore.db?cache=shared&_fk=1", "SQLite DSN for the session store")
	sessionID := flag.String("session", "", "session id to watch")
	flag.Parse()

	if *sessionID == "" {
		fmt.Fprintln(os.Stderr, "usage: planner-tui --session <id> [--dsn <dsn>]")
		os.Exit(1)
	}

	store, err := gc.NewSQLStore(*dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	hub := gc.NewBroadcastHub()
	coordinator := gc.NewCoordinator(store, gc.SystemClock{}, gc.UUIDGenerator{}, gc.CryptoTokenGenerator{}, hub, "https://plan.example/s/")

	m := newModel(coordinator, *sessionID)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tui error: %v\n", err)
		os.Exit(1)
	}
}
