package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stblassitude/xpressnet/internal/monitor"
)

// tailSize is how many events the monitor keeps on screen.
const tailSize = 100

// eventMsg delivers one feed event into the bubbletea loop.
type eventMsg monitor.Event

// feedClosedMsg signals that the event feed has ended.
type feedClosedMsg struct{}

// keyMap defines the key bindings of the monitor screen.
type keyMap struct {
	Clear key.Binding
	Help  key.Binding
	Quit  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Clear, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Clear, k.Help, k.Quit},
	}
}

func newKeyMap() keyMap {
	return keyMap{
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Model is the live monitor screen.
type Model struct {
	link   string
	events <-chan monitor.Event

	spinner spinner.Model
	keys    keyMap
	help    help.Model

	width  int
	height int

	trackPower string
	tail       []monitor.Event
	total      int
	feedClosed bool
}

// NewModel creates a monitor model reading from the given event feed.
func NewModel(link string, events <-chan monitor.Event) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		link:       link,
		events:     events,
		spinner:    s,
		keys:       newKeyMap(),
		help:       help.New(),
		trackPower: "unknown",
	}
}

// Init starts the spinner and the first feed read.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForEvent())
}

// waitForEvent blocks on the feed and hands the next event to Update.
func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.events
		if !ok {
			return feedClosedMsg{}
		}
		return eventMsg(event)
	}
}

// Update handles key presses and incoming events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Clear):
			m.tail = nil
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		return m, nil

	case eventMsg:
		m.trackPower = msg.TrackPower
		m.total++
		m.tail = append(m.tail, monitor.Event(msg))
		if len(m.tail) > tailSize {
			m.tail = m.tail[len(m.tail)-tailSize:]
		}
		return m, m.waitForEvent()

	case feedClosedMsg:
		m.feedClosed = true
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the monitor screen.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("XpressNet Monitor"))
	b.WriteString("  ")
	b.WriteString(LinkStyle.Render(m.link))
	b.WriteString("\n\n")

	b.WriteString("Track power: ")
	b.WriteString(renderPower(m.trackPower))
	b.WriteString(LinkStyle.Render(fmt.Sprintf("   %d broadcasts", m.total)))
	b.WriteString("\n\n")

	switch {
	case m.feedClosed:
		b.WriteString(EmptyStyle.Render("Connection closed."))
		b.WriteString("\n")
	case len(m.tail) == 0:
		b.WriteString(m.spinner.View())
		b.WriteString(EmptyStyle.Render(" waiting for broadcasts..."))
		b.WriteString("\n")
	default:
		for _, event := range m.visibleTail() {
			b.WriteString(TimestampStyle.Render(event.Time.Format("15:04:05.000")))
			b.WriteString("  ")
			b.WriteString(KindStyle.Render(event.Kind))
			b.WriteString(SummaryStyle.Render(event.Summary))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// visibleTail trims the tail to the rows that fit the terminal, newest
// last.
func (m Model) visibleTail() []monitor.Event {
	// Header, power line, blank lines, and help take about 7 rows.
	rows := m.height - 7
	if m.height == 0 || rows >= len(m.tail) {
		return m.tail
	}
	if rows < 1 {
		rows = 1
	}
	return m.tail[len(m.tail)-rows:]
}

func renderPower(state string) string {
	switch state {
	case "on":
		return PowerOnStyle.Render("ON")
	case "off":
		return PowerOffStyle.Render("OFF")
	case "programming":
		return PowerProgStyle.Render("PROGRAMMING")
	default:
		return EmptyStyle.Render(state)
	}
}

// Run starts the interactive monitor and blocks until the user quits.
func Run(link string, events <-chan monitor.Event) error {
	program := tea.NewProgram(NewModel(link, events), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
