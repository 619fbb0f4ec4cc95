package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/codetrek/workforce/internal/event"
	"github.com/codetrek/workforce/internal/workforce"
)

// App wraps the bubbletea program and pumps workforce events into it.
type App struct {
	wf      *workforce.Workforce
	program *tea.Program
}

// New creates a dashboard for the given workforce.
func New(wf *workforce.Workforce) *App {
	return &App{wf: wf}
}

// Run blocks until the user quits the dashboard.
func (a *App) Run() error {
	a.program = tea.NewProgram(
		NewModel(a.wf),
		tea.WithAltScreen(),
	)

	unsubCoarse := a.wf.SubscribeTaskEvent(func(e event.TaskEvent) {
		a.program.Send(eventMsg{line: FormatTaskEvent(e)})
	})
	defer unsubCoarse()

	unsubDetail := a.wf.SubscribeTaskDetailEvent(func(e event.TaskDetailEvent) {
		if _, ok := e.(event.StreamChunkEvent); ok {
			return // too chatty for the feed
		}
		a.program.Send(eventMsg{line: FormatDetailEvent(e)})
	})
	defer unsubDetail()

	_, err := a.program.Run()
	return err
}

// FormatTaskEvent renders a coarse lifecycle event as one feed line.
func FormatTaskEvent(e event.TaskEvent) string {
	switch ev := e.(type) {
	case event.TaskCreatedEvent:
		return fmt.Sprintf("%s  %s  %q", ev.EventType(), ev.TaskID(), ev.Title)
	case event.TaskSucceededEvent:
		return fmt.Sprintf("%s  %s  %q", ev.EventType(), ev.TaskID(), ev.Result)
	case event.TaskFailedEvent:
		return fmt.Sprintf("%s  %s  %q", ev.EventType(), ev.TaskID(), ev.Reason)
	default:
		return fmt.Sprintf("%s  %s", e.EventType(), e.TaskID())
	}
}

// FormatDetailEvent renders a session activity event as one feed line.
func FormatDetailEvent(e event.TaskDetailEvent) string {
	switch ev := e.(type) {
	case event.ToolCallEvent:
		return fmt.Sprintf("%s  %s  %s", ev.EventType(), ev.TaskID(), ev.Name)
	case event.ToolResultEvent:
		status := "ok"
		if ev.IsErr {
			status = "error"
		}
		return fmt.Sprintf("%s  %s  %s", ev.EventType(), ev.TaskID(), status)
	default:
		return fmt.Sprintf("%s  %s", e.EventType(), e.TaskID())
	}
}
