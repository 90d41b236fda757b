package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// styles holds the lipgloss styles for the viewer. Colors degrade on
// terminals without 256-color support.
type styles struct {
	title      lipgloss.Style
	pane       lipgloss.Style
	focused    lipgloss.Style
	fileItem   lipgloss.Style
	selected   lipgloss.Style
	stale      lipgloss.Style
	stats      lipgloss.Style
	errText    lipgloss.Style
	help       lipgloss.Style
	promptText lipgloss.Style
}

func newStyles(profile termenv.Profile) styles {
	var accent lipgloss.TerminalColor = lipgloss.Color("36")
	var dim lipgloss.TerminalColor = lipgloss.Color("242")
	if profile == termenv.Ascii {
		accent = lipgloss.NoColor{}
		dim = lipgloss.NoColor{}
	}

	border := lipgloss.RoundedBorder()

	return styles{
		title:      lipgloss.NewStyle().Bold(true).Foreground(accent),
		pane:       lipgloss.NewStyle().Border(border).BorderForeground(dim).Padding(0, 1),
		focused:    lipgloss.NewStyle().Border(border).BorderForeground(accent).Padding(0, 1),
		fileItem:   lipgloss.NewStyle(),
		selected:   lipgloss.NewStyle().Bold(true).Foreground(accent),
		stale:      lipgloss.NewStyle().Foreground(lipgloss.Color("178")),
		stats:      lipgloss.NewStyle().Foreground(dim),
		errText:    lipgloss.NewStyle().Foreground(lipgloss.Color("160")),
		help:       lipgloss.NewStyle().Foreground(dim),
		promptText: lipgloss.NewStyle().Foreground(accent),
	}
}
