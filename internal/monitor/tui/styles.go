package tui

import "github.com/charmbracelet/lipgloss"

// Color palette for the monitor UI
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - power on
	ErrorColor   = lipgloss.Color("#FF5555") // Red - power off, errors
	WarningColor = lipgloss.Color("#FFA500") // Orange - programming mode
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

var (
	// TitleStyle is for the monitor header line
	TitleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true)

	// LinkStyle is for the connection link shown next to the title
	LinkStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// PowerOnStyle renders the track power badge when power is on
	PowerOnStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	// PowerOffStyle renders the track power badge when power is off
	PowerOffStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	// PowerProgStyle renders the badge in programming mode
	PowerProgStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	// TimestampStyle is for the time column of the event tail
	TimestampStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// KindStyle is for the message-kind column
	KindStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Width(18)

	// SummaryStyle is for the message text
	SummaryStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	// EmptyStyle is shown while no broadcast has arrived yet
	EmptyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)
)
