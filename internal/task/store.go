package task

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codetrek/workforce/internal/errors"
)

// Store manages the in-memory task forest. All methods are safe for
// concurrent use via an internal mutex, though in practice the scheduler
// serializes every mutation.
type Store struct {
	mu       sync.Mutex
	tasks    map[string]*Task
	children map[string][]string // parent id -> child ids in creation order
	order    []string            // all task ids in creation order
	seq      uint64
}

// NewStore creates an empty store with only the implicit root registered.
func NewStore() *Store {
	return &Store{
		tasks:    make(map[string]*Task),
		children: make(map[string][]string),
	}
}

// CreateTasks validates and inserts the given specs as ready tasks, in
// order. A spec's parent must be RootID, an existing non-terminal task, or
// an earlier spec in the same batch. The call is atomic: either every spec
// is inserted or none are.
//
// Returns the ids of the created tasks, generating an id for every spec
// that did not supply one.
func (s *Store) CreateTasks(specs []Spec) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(specs) == 0 {
		return nil, nil
	}

	// Validation pass. staged tracks ids created earlier in this batch so
	// a spec may parent a sibling spec that precedes it.
	staged := make(map[string]bool, len(specs))
	ids := make([]string, len(specs))
	for i, spec := range specs {
		id := spec.ID
		if id == "" {
			id = uuid.NewString()
		}
		if id == RootID {
			return nil, errors.NewTaskError("id collides with the root sentinel", errors.ErrInvalidState).WithTaskID(id)
		}
		if _, exists := s.tasks[id]; exists || staged[id] {
			return nil, errors.NewTaskError("task already exists", errors.ErrInvalidState).WithTaskID(id)
		}

		parent := spec.ParentID
		if parent == "" {
			parent = RootID
		}
		if parent != RootID && !staged[parent] {
			pt, ok := s.tasks[parent]
			if !ok {
				return nil, errors.NewTaskError("parent does not exist", errors.ErrInvalidParent).WithTaskID(parent)
			}
			if pt.Status.IsTerminal() {
				return nil, errors.NewTaskError(
					fmt.Sprintf("parent is %s", pt.Status), errors.ErrInvalidParent).WithTaskID(parent)
			}
		}

		staged[id] = true
		ids[i] = id
	}

	// Insertion pass. Cannot fail after validation.
	now := time.Now()
	for i, spec := range specs {
		parent := spec.ParentID
		if parent == "" {
			parent = RootID
		}
		s.seq++
		t := &Task{
			ID:        ids[i],
			Title:     spec.Title,
			Goal:      spec.Goal,
			ParentID:  parent,
			Status:    StatusReady,
			Seq:       s.seq,
			CreatedAt: now,
		}
		s.tasks[t.ID] = t
		s.children[parent] = append(s.children[parent], t.ID)
		s.order = append(s.order, t.ID)
	}

	return ids, nil
}

// Get returns a copy of the task with the given id.
func (s *Store) Get(id string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return Task{}, errors.NewTaskError("lookup failed", errors.ErrTaskNotFound).WithTaskID(id)
	}
	return *t, nil
}

// StatusOf returns the status of the task with the given id.
func (s *Store) StatusOf(id string) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return "", errors.NewTaskError("lookup failed", errors.ErrTaskNotFound).WithTaskID(id)
	}
	return t.Status, nil
}

// ChildIDs returns the ids of the task's direct children in creation order.
// RootID is a valid argument and yields the top-level tasks.
func (s *Store) ChildIDs(id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != RootID {
		if _, ok := s.tasks[id]; !ok {
			return nil, errors.NewTaskError("lookup failed", errors.ErrTaskNotFound).WithTaskID(id)
		}
	}
	out := make([]string, len(s.children[id]))
	copy(out, s.children[id])
	return out, nil
}

// AllIDs returns every task id in creation order.
func (s *Store) AllIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// ReadyIDs returns the ids of all ready tasks in global creation order.
// This is the scheduler's FIFO candidate set.
func (s *Store) ReadyIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	for _, id := range s.order {
		if s.tasks[id].Status == StatusReady {
			out = append(out, id)
		}
	}
	return out
}

// Descendants returns every descendant of the given task, depth-first with
// children visited in creation order. The task itself is not included.
func (s *Store) Descendants(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []string
	var walk func(string)
	walk = func(cur string) {
		for _, child := range s.children[cur] {
			out = append(out, child)
			walk(child)
		}
	}
	walk(id)
	return out
}

// AllChildrenTerminal reports whether every direct child of the task has
// reached a terminal status. A task with no children is vacuously true.
func (s *Store) AllChildrenTerminal(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, child := range s.children[id] {
		if !s.tasks[child].Status.IsTerminal() {
			return false
		}
	}
	return true
}

// QueueMessage stores an appended message on a task that has no live
// session yet. The scheduler drains the queue on admission.
func (s *Store) QueueMessage(id, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return errors.NewTaskError("queue message", errors.ErrTaskNotFound).WithTaskID(id)
	}
	if t.Status.IsTerminal() {
		return errors.NewTaskError(
			fmt.Sprintf("cannot queue message on %s task", t.Status), errors.ErrInvalidState).WithTaskID(id)
	}
	t.queued = append(t.queued, content)
	return nil
}

// DrainMessages removes and returns the task's queued messages in append
// order. Unknown ids drain nothing.
func (s *Store) DrainMessages(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || len(t.queued) == 0 {
		return nil
	}
	out := t.queued
	t.queued = nil
	return out
}

// MarkProcessing transitions a ready task to processing.
func (s *Store) MarkProcessing(id string) error {
	return s.transition(id, StatusProcessing, StatusReady)
}

// MarkPending parks a task while its children run. Legal from ready (a
// child was attached externally) or processing (the task decomposed).
func (s *Store) MarkPending(id string) error {
	return s.transition(id, StatusPending, StatusReady, StatusProcessing)
}

// MarkReady returns a pending task to the scheduler's candidate set.
func (s *Store) MarkReady(id string) error {
	return s.transition(id, StatusReady, StatusPending)
}

// MarkSucceeded finalizes a processing task with its result summary.
func (s *Store) MarkSucceeded(id, result string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.checkTransition(id, StatusSucceeded, StatusProcessing)
	if err != nil {
		return err
	}
	t.Status = StatusSucceeded
	t.Result = result
	return nil
}

// MarkFailed finalizes a processing task with its failure reason.
func (s *Store) MarkFailed(id, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.checkTransition(id, StatusFailed, StatusProcessing)
	if err != nil {
		return err
	}
	t.Status = StatusFailed
	t.FailureReason = reason
	return nil
}

// MarkCancelled finalizes any non-terminal task as cancelled.
func (s *Store) MarkCancelled(id string) error {
	return s.transition(id, StatusCancelled,
		StatusReady, StatusPending, StatusProcessing)
}

// transition moves the task to the target status if its current status is
// one of the allowed source statuses.
func (s *Store) transition(id string, to Status, from ...Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.checkTransition(id, to, from...)
	if err != nil {
		return err
	}
	t.Status = to
	return nil
}

// checkTransition validates a status change. Callers hold s.mu.
func (s *Store) checkTransition(id string, to Status, from ...Status) (*Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, errors.NewTaskError("transition failed", errors.ErrTaskNotFound).WithTaskID(id)
	}
	for _, f := range from {
		if t.Status == f {
			return t, nil
		}
	}
	return nil, errors.NewTaskError(
		fmt.Sprintf("cannot transition from %s to %s", t.Status, to), errors.ErrInvalidState).WithTaskID(id)
}

// Counts returns a snapshot of the per-status totals.
func (s *Store) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()

	var c Counts
	c.Total = len(s.tasks)
	for _, t := range s.tasks {
		switch t.Status {
		case StatusReady:
			c.Ready++
		case StatusPending:
			c.Pending++
		case StatusProcessing:
			c.Processing++
		case StatusSucceeded:
			c.Succeeded++
		case StatusFailed:
			c.Failed++
		case StatusCancelled:
			c.Cancelled++
		}
	}
	return c
}

// Len returns the number of tasks in the store.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
