package task

import "time"

// RootID is the reserved sentinel identifier for the implicit root of the
// forest. No Task carries this id; it only ever appears as a ParentID.
const RootID = "wf-root"

// Status represents the current state of a task.
type Status string

const (
	// StatusReady indicates the task is waiting for a free agent slot.
	StatusReady Status = "ready"

	// StatusPending indicates the task is waiting for its children to
	// reach a terminal status.
	StatusPending Status = "pending"

	// StatusProcessing indicates the task currently occupies an agent
	// pool slot.
	StatusProcessing Status = "processing"

	// StatusSucceeded indicates the task's session reported success.
	StatusSucceeded Status = "succeeded"

	// StatusFailed indicates the task's session reported failure.
	StatusFailed Status = "failed"

	// StatusCancelled indicates the task was cancelled, directly or by a
	// cascade from an ancestor.
	StatusCancelled Status = "cancelled"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if this status represents a final state.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCancelled
}

// Spec describes a task to create. ID is optional; the store generates one
// when empty. ParentID defaults to RootID.
type Spec struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Goal     string `json:"goal"`
	ParentID string `json:"parent_id,omitempty"`
}

// Task is one unit of work in the tree.
type Task struct {
	// ID uniquely identifies the task.
	ID string `json:"id"`

	// Title is the short human-readable task name.
	Title string `json:"title"`

	// Goal describes what the task's agent should accomplish.
	Goal string `json:"goal"`

	// ParentID is the id of the parent task, or RootID for top-level tasks.
	ParentID string `json:"parent_id"`

	// Status is the current state.
	Status Status `json:"status"`

	// Seq is the global creation sequence number, used as the FIFO
	// tie-break across the whole tree.
	Seq uint64 `json:"seq"`

	// CreatedAt is when the task was inserted.
	CreatedAt time.Time `json:"created_at"`

	// Result holds the success summary once the task succeeds.
	Result string `json:"result,omitempty"`

	// FailureReason holds the failure reason once the task fails.
	FailureReason string `json:"failure_reason,omitempty"`

	// queued holds appended messages received before an agent session was
	// attached. The scheduler drains it on admission.
	queued []string
}

// IsTopLevel returns true if the task sits directly under the implicit root.
func (t *Task) IsTopLevel() bool {
	return t.ParentID == RootID
}

// Counts is a snapshot of the store's per-status totals.
type Counts struct {
	Total      int `json:"total"`
	Ready      int `json:"ready"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Succeeded  int `json:"succeeded"`
	Failed     int `json:"failed"`
	Cancelled  int `json:"cancelled"`
}

// Terminal returns the number of tasks in a terminal status.
func (c Counts) Terminal() int {
	return c.Succeeded + c.Failed + c.Cancelled
}
