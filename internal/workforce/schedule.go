package workforce

import (
	"fmt"

	"github.com/codetrek/workforce/internal/bridge"
	"github.com/codetrek/workforce/internal/errors"
	"github.com/codetrek/workforce/internal/event"
	"github.com/codetrek/workforce/internal/session"
	"github.com/codetrek/workforce/internal/task"
)

// schedulePass admits ready tasks until the pool is exhausted or no
// candidates remain. Candidates are ordered by global creation sequence, so
// admission is FIFO across the whole tree. The pass is idempotent and runs
// after every mutation that can change readiness or pool occupancy.
// Caller holds w.mu.
func (w *Workforce) schedulePass() {
	for _, id := range w.store.ReadyIDs() {
		h, err := w.pool.TryAcquire(id)
		if errors.IsPoolExhausted(err) {
			return
		}
		if err != nil {
			// Factory failure. The task stays ready; the next pass
			// retries once something else changes.
			w.logger.Error("session acquisition failed", "task_id", id, "error", err)
			return
		}
		w.admit(id, h.Session())
	}
}

// admit binds a fresh session to a ready task: marks it processing, attaches
// the bridge, flushes queued messages ahead of the admission prompt and
// emits task-started. Caller holds w.mu.
func (w *Workforce) admit(id string, sess session.Session) {
	if err := w.store.MarkProcessing(id); err != nil {
		w.logger.Error("admission lost task", "task_id", id, "error", err)
		w.releaseSession(id)
		return
	}

	w.bridge.Attach(id, sess)

	// Queued messages were appended while the task had no session. They
	// must reach the session before any scheduler-initiated traffic.
	for _, content := range w.store.DrainMessages(id) {
		if err := sess.Dispatch(session.Message{Content: content}); err != nil {
			w.logger.Warn("queued message dropped", "task_id", id, "error", err)
			continue
		}
		w.events = append(w.events, event.NewUserMessageEvent(id, content))
	}

	t, _ := w.store.Get(id)
	prompt := BuildTaskPrompt(t)
	if err := sess.Dispatch(session.Message{Content: prompt}); err != nil {
		w.logger.Warn("admission prompt dropped", "task_id", id, "error", err)
	} else {
		w.events = append(w.events, event.NewUserMessageEvent(id, prompt))
	}

	w.events = append(w.events, event.NewTaskStartedEvent(id, sess.ID()))
	w.logger.Info("task admitted", "task_id", id, "session_id", sess.ID())
}

// BuildTaskPrompt renders the admission prompt for a task: its title and
// goal plus the pseudo-tool contract the worker agent reports through.
func BuildTaskPrompt(t task.Task) string {
	return fmt.Sprintf(`You are working on the following task.

Title: %s
Goal: %s

When you are done, report the outcome with exactly one of these tools:
- %s with {"result": "<summary of what you accomplished>"} when the goal is met
- %s with {"reason": "<why the goal cannot be met>"} when it cannot be met
- %s with {"tasks": [{"title": "...", "goal": "..."}, ...]} to split the work
  into smaller child tasks; you will resume once they have all finished`,
		t.Title, t.Goal, bridge.ToolSucceed, bridge.ToolFail, bridge.ToolBreakdown)
}
