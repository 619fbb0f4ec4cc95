package event

import "time"

// Event is the interface that all events must implement.
// It provides a common way to identify and timestamp events.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "task.created", "detail.stream_chunk")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// TaskEvent is implemented by coarse task lifecycle events. The facade's
// task-event subscription delivers exactly this family.
type TaskEvent interface {
	Event

	// TaskID returns the id of the task the event describes.
	TaskID() string

	isTaskEvent()
}

// TaskDetailEvent is implemented by fine-grained session activity events.
// Detail events exist for UI-level observability and never influence
// scheduling decisions.
type TaskDetailEvent interface {
	Event

	// TaskID returns the id of the task whose session produced the event.
	TaskID() string

	isTaskDetailEvent()
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
	taskID    string
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }
func (e baseEvent) TaskID() string       { return e.taskID }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType, taskID string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
		taskID:    taskID,
	}
}

// taskEvent and taskDetailEvent tag the two event families so the facade
// can filter a shared bus by family.
type taskEvent struct{ baseEvent }

func (taskEvent) isTaskEvent() {}

type taskDetailEvent struct{ baseEvent }

func (taskDetailEvent) isTaskDetailEvent() {}

// -----------------------------------------------------------------------------
// Task Lifecycle Events
// -----------------------------------------------------------------------------

// TaskCreatedEvent is emitted when a task is inserted into the tree,
// whether by an external caller or by a decomposition.
type TaskCreatedEvent struct {
	taskEvent
	ParentID string // Parent task id (root sentinel for top-level tasks)
	Title    string // Task title
}

// NewTaskCreatedEvent creates a TaskCreatedEvent.
func NewTaskCreatedEvent(taskID, parentID, title string) TaskCreatedEvent {
	return TaskCreatedEvent{
		taskEvent: taskEvent{newBaseEvent("task.created", taskID)},
		ParentID:  parentID,
		Title:     title,
	}
}

// TaskStartedEvent is emitted when a ready task is admitted to the agent
// pool and begins processing.
type TaskStartedEvent struct {
	taskEvent
	SessionID string // Id of the agent session bound to the task
}

// NewTaskStartedEvent creates a TaskStartedEvent.
func NewTaskStartedEvent(taskID, sessionID string) TaskStartedEvent {
	return TaskStartedEvent{
		taskEvent: taskEvent{newBaseEvent("task.started", taskID)},
		SessionID: sessionID,
	}
}

// TaskMessageAppendedEvent is emitted when a supplementary message is
// appended to a task, whether delivered immediately or queued.
type TaskMessageAppendedEvent struct {
	taskEvent
	Content string // Appended message content
	Queued  bool   // True if no session was attached and the message was queued
}

// NewTaskMessageAppendedEvent creates a TaskMessageAppendedEvent.
func NewTaskMessageAppendedEvent(taskID, content string, queued bool) TaskMessageAppendedEvent {
	return TaskMessageAppendedEvent{
		taskEvent: taskEvent{newBaseEvent("task.message_appended", taskID)},
		Content:   content,
		Queued:    queued,
	}
}

// TaskSucceededEvent is emitted when a task's session reports success.
type TaskSucceededEvent struct {
	taskEvent
	Result string // Result summary supplied by the session
}

// NewTaskSucceededEvent creates a TaskSucceededEvent.
func NewTaskSucceededEvent(taskID, result string) TaskSucceededEvent {
	return TaskSucceededEvent{
		taskEvent: taskEvent{newBaseEvent("task.succeeded", taskID)},
		Result:    result,
	}
}

// TaskFailedEvent is emitted when a task's session reports failure.
type TaskFailedEvent struct {
	taskEvent
	Reason string // Failure reason supplied by the session
}

// NewTaskFailedEvent creates a TaskFailedEvent.
func NewTaskFailedEvent(taskID, reason string) TaskFailedEvent {
	return TaskFailedEvent{
		taskEvent: taskEvent{newBaseEvent("task.failed", taskID)},
		Reason:    reason,
	}
}

// TaskCancelledEvent is emitted for every task cancelled by a cascade,
// not just the cancellation roots.
type TaskCancelledEvent struct {
	taskEvent
}

// NewTaskCancelledEvent creates a TaskCancelledEvent.
func NewTaskCancelledEvent(taskID string) TaskCancelledEvent {
	return TaskCancelledEvent{
		taskEvent: taskEvent{newBaseEvent("task.cancelled", taskID)},
	}
}

// -----------------------------------------------------------------------------
// Task Detail Events
// -----------------------------------------------------------------------------

// UserMessageEvent is emitted when a user-visible message is delivered
// into a task's session conversation.
type UserMessageEvent struct {
	taskDetailEvent
	Content string // Message content
}

// NewUserMessageEvent creates a UserMessageEvent.
func NewUserMessageEvent(taskID, content string) UserMessageEvent {
	return UserMessageEvent{
		taskDetailEvent: taskDetailEvent{newBaseEvent("detail.user_message", taskID)},
		Content:         content,
	}
}

// StreamChunkEvent is emitted for each streaming chunk produced by a
// task's session.
type StreamChunkEvent struct {
	taskDetailEvent
	Text string // Chunk text
}

// NewStreamChunkEvent creates a StreamChunkEvent.
func NewStreamChunkEvent(taskID, text string) StreamChunkEvent {
	return StreamChunkEvent{
		taskDetailEvent: taskDetailEvent{newBaseEvent("detail.stream_chunk", taskID)},
		Text:            text,
	}
}

// StreamCompleteEvent is emitted when a session finishes streaming a message.
type StreamCompleteEvent struct {
	taskDetailEvent
	Text string // Full message text
}

// NewStreamCompleteEvent creates a StreamCompleteEvent.
func NewStreamCompleteEvent(taskID, text string) StreamCompleteEvent {
	return StreamCompleteEvent{
		taskDetailEvent: taskDetailEvent{newBaseEvent("detail.stream_complete", taskID)},
		Text:            text,
	}
}

// ToolCallEvent is emitted when a session requests a tool call, including
// reserved pseudo-tool calls intercepted by the scheduler.
type ToolCallEvent struct {
	taskDetailEvent
	CallID    string // Session-assigned call identifier
	Name      string // Tool name
	Arguments string // Raw JSON arguments
	Reserved  bool   // True if the name is a reserved pseudo-tool
}

// NewToolCallEvent creates a ToolCallEvent.
func NewToolCallEvent(taskID, callID, name, arguments string, reserved bool) ToolCallEvent {
	return ToolCallEvent{
		taskDetailEvent: taskDetailEvent{newBaseEvent("detail.tool_call", taskID)},
		CallID:          callID,
		Name:            name,
		Arguments:       arguments,
		Reserved:        reserved,
	}
}

// ToolResultEvent is emitted when a tool result is dispatched back into a
// session, whether from the real executor or synthesized by the scheduler.
type ToolResultEvent struct {
	taskDetailEvent
	CallID string // Call identifier the result answers
	Result string // Result payload
	IsErr  bool   // True if the result reports an error
}

// NewToolResultEvent creates a ToolResultEvent.
func NewToolResultEvent(taskID, callID, result string, isErr bool) ToolResultEvent {
	return ToolResultEvent{
		taskDetailEvent: taskDetailEvent{newBaseEvent("detail.tool_result", taskID)},
		CallID:          callID,
		Result:          result,
		IsErr:           isErr,
	}
}
