// Package tui renders a live dashboard for a running workforce: the task
// tree with per-task status on top, a tail of recent events below.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/codetrek/workforce/internal/task"
)

// maxFeedLines bounds the event tail kept in the model.
const maxFeedLines = 12

// Source is the read surface of the workforce the dashboard renders from.
type Source interface {
	GetTask(id string) (task.Task, error)
	GetChildTaskIDs(id string) ([]string, error)
	Counts() task.Counts
}

// eventMsg carries one formatted event line into the model.
type eventMsg struct {
	line string
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	src     Source
	spinner spinner.Model

	width  int
	height int
	feed   []string
}

// NewModel creates a dashboard model reading from src.
func NewModel(src Source) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		src:     src,
		spinner: sp,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case eventMsg:
		m.feed = append(m.feed, msg.line)
		if len(m.feed) > maxFeedLines {
			m.feed = m.feed[len(m.feed)-maxFeedLines:]
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	counts := m.src.Counts()

	var b strings.Builder
	b.WriteString(titleStyle.Render("workforce"))
	b.WriteString(" ")
	if counts.Total > 0 && counts.Terminal() == counts.Total {
		b.WriteString(doneStyle.Render("all tasks settled"))
	} else {
		b.WriteString(m.spinner.View())
	}
	b.WriteString(" ")
	b.WriteString(headerStyle.Render(fmt.Sprintf(
		"%d tasks · %d processing · %d ready · %d pending · %d done",
		counts.Total, counts.Processing, counts.Ready, counts.Pending, counts.Terminal())))
	b.WriteString("\n\n")

	b.WriteString(treeStyle.Render(m.renderTree()))
	b.WriteString("\n\n")

	b.WriteString(feedTitleStyle.Render("events"))
	b.WriteString("\n")
	if len(m.feed) == 0 {
		b.WriteString(feedStyle.Render("(none yet)"))
		b.WriteString("\n")
	}
	for _, line := range m.feed {
		b.WriteString(feedStyle.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("q to quit"))
	b.WriteString("\n")
	return b.String()
}

// renderTree renders the task forest depth-first with status badges.
func (m Model) renderTree() string {
	var b strings.Builder
	m.renderSubtree(&b, task.RootID, 0)
	if b.Len() == 0 {
		return "(no tasks)"
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderSubtree(b *strings.Builder, id string, depth int) {
	children, err := m.src.GetChildTaskIDs(id)
	if err != nil {
		return
	}
	for _, child := range children {
		t, err := m.src.GetTask(child)
		if err != nil {
			continue
		}
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(renderStatus(t.Status))
		b.WriteString("  ")
		b.WriteString(t.Title)
		b.WriteString("\n")
		m.renderSubtree(b, child, depth+1)
	}
}
