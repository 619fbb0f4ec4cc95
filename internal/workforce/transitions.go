package workforce

import (
	"github.com/codetrek/workforce/internal/errors"
	"github.com/codetrek/workforce/internal/event"
	"github.com/codetrek/workforce/internal/task"
)

// agentTransitions adapts the Workforce to the bridge's Transitions
// interface without widening the public facade. Every method re-validates
// the task's status under the mutex, so a signal from an already-released
// session degrades to a rejected transition the bridge logs and drops.
type agentTransitions struct {
	w *Workforce
}

func (a *agentTransitions) TaskSucceeded(taskID, result string) error {
	w := a.w
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return errors.ErrDestroyed
	}

	if err := w.store.MarkSucceeded(taskID, result); err != nil {
		w.mu.Unlock()
		return err
	}
	w.events = append(w.events, event.NewTaskSucceededEvent(taskID, result))
	w.releaseSession(taskID)
	w.reevaluateParent(taskID)
	w.schedulePass()
	w.unlockAndPublish()
	return nil
}

func (a *agentTransitions) TaskFailed(taskID, reason string) error {
	w := a.w
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return errors.ErrDestroyed
	}

	if err := w.store.MarkFailed(taskID, reason); err != nil {
		w.mu.Unlock()
		return err
	}
	w.events = append(w.events, event.NewTaskFailedEvent(taskID, reason))
	w.releaseSession(taskID)
	// A failed child is just a terminal outcome: the parent resumes ready
	// and reasons about it. Failure does not cascade.
	w.reevaluateParent(taskID)
	w.schedulePass()
	w.unlockAndPublish()
	return nil
}

func (a *agentTransitions) TaskDecomposed(taskID string, children []task.Spec) error {
	w := a.w
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return errors.ErrDestroyed
	}

	status, err := w.store.StatusOf(taskID)
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if status != task.StatusProcessing {
		w.mu.Unlock()
		return errors.NewTaskError("decompose requires a processing task", errors.ErrInvalidState).
			WithTaskID(taskID)
	}

	ids, err := w.store.CreateTasks(children)
	if err != nil {
		w.mu.Unlock()
		return err
	}
	for _, id := range ids {
		t, _ := w.store.Get(id)
		w.events = append(w.events, event.NewTaskCreatedEvent(id, t.ParentID, t.Title))
	}

	// The parent parks pending and hands its slot back: it is not
	// consumed by its own children.
	if err := w.store.MarkPending(taskID); err != nil {
		w.mu.Unlock()
		return err
	}
	w.releaseSession(taskID)
	w.schedulePass()
	w.unlockAndPublish()
	return nil
}
