package bridge

import "github.com/codetrek/workforce/internal/task"

// Reserved pseudo-tool names. These are part of the wire contract between a
// worker-agent session and the scheduler and are never dispatched to the
// external tool executor.
const (
	// ToolSucceed reports that the task is complete. Payload: {"result": "..."}.
	ToolSucceed = "wf-task-succeed"

	// ToolFail reports that the task cannot be completed. Payload: {"reason": "..."}.
	ToolFail = "wf-task-fail"

	// ToolBreakdown decomposes the task into child tasks.
	// Payload: {"tasks": [{"title": "...", "goal": "..."}, ...]}.
	ToolBreakdown = "wf-task-breakdown"
)

// IsReserved returns true if the tool name is a workforce pseudo-tool.
func IsReserved(name string) bool {
	switch name {
	case ToolSucceed, ToolFail, ToolBreakdown:
		return true
	}
	return false
}

// Transitions is the scheduler surface the bridge drives. Implementations
// re-validate task state on every call, so a late signal from a detached
// session degrades to a logged no-op instead of corrupting the tree.
type Transitions interface {
	// TaskSucceeded moves a processing task to succeeded with its result summary.
	TaskSucceeded(taskID, result string) error

	// TaskFailed moves a processing task to failed with its failure reason.
	TaskFailed(taskID, reason string) error

	// TaskDecomposed creates the declared children under a processing task
	// and parks it pending until they all terminate.
	TaskDecomposed(taskID string, children []task.Spec) error
}

// succeedPayload is the JSON body of a wf-task-succeed call.
type succeedPayload struct {
	Result string `json:"result"`
}

// failPayload is the JSON body of a wf-task-fail call.
type failPayload struct {
	Reason string `json:"reason"`
}

// breakdownPayload is the JSON body of a wf-task-breakdown call.
type breakdownPayload struct {
	Tasks []childSpec `json:"tasks"`
}

// childSpec is one declared child task in a breakdown payload.
type childSpec struct {
	Title string `json:"title"`
	Goal  string `json:"goal"`
}
