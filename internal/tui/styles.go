package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/codetrek/workforce/internal/task"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	treeStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	feedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	feedTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
)

var statusStyles = map[task.Status]lipgloss.Style{
	task.StatusReady:      lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	task.StatusPending:    lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
	task.StatusProcessing: lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true),
	task.StatusSucceeded:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	task.StatusFailed:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	task.StatusCancelled:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Strikethrough(true),
}

var statusGlyphs = map[task.Status]string{
	task.StatusReady:      "·",
	task.StatusPending:    "◌",
	task.StatusProcessing: "▶",
	task.StatusSucceeded:  "✓",
	task.StatusFailed:     "✗",
	task.StatusCancelled:  "⊘",
}

func renderStatus(s task.Status) string {
	style, ok := statusStyles[s]
	if !ok {
		return string(s)
	}
	return style.Render(statusGlyphs[s] + " " + string(s))
}
