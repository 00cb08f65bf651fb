// Package styles defines the visual styling for the watch dashboard.
package styles

import "github.com/charmbracelet/lipgloss"

// Color definitions for the cogstats theme.
var (
	Primary = lipgloss.Color("39")  // Blue
	Subtle  = lipgloss.Color("240") // Gray

	// Status colors
	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Warning = lipgloss.Color("220") // Yellow

	// Text colors
	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")
)

// TitleStyle is used for the dashboard heading.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// CardStyle creates a bordered card container for one EdgeFlow.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(0, 2).
	MarginBottom(1)

// CardTitleStyle styles card headers.
var CardTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary)

// LabelStyle styles counter labels.
var LabelStyle = lipgloss.NewStyle().
	Foreground(TextSecondary)

// ValueStyle styles counter values.
var ValueStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(TextPrimary)

// ErrorStyle styles error lines.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(Error).
	Bold(true)

// HelpStyle styles the footer key help.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// StatusStyle styles the refresh status line.
var StatusStyle = lipgloss.NewStyle().
	Foreground(Success).
	Italic(true)

// NoticeStyle styles transient notices in the footer.
var NoticeStyle = lipgloss.NewStyle().
	Foreground(Warning)
