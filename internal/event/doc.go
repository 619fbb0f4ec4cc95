// Package event provides a pub-sub event bus for decoupled observation of
// the workforce scheduler.
//
// Components publish events without knowing who will receive them, and
// subscribers register without knowing who produces them. The scheduler is
// the only producer; UIs, loggers, and tests are the consumers.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Families
//
// Coarse task lifecycle events implement [TaskEvent]:
//   - [TaskCreatedEvent], [TaskStartedEvent], [TaskMessageAppendedEvent]
//   - [TaskSucceededEvent], [TaskFailedEvent], [TaskCancelledEvent]
//
// Fine-grained session activity events implement [TaskDetailEvent]:
//   - [UserMessageEvent], [StreamChunkEvent], [StreamCompleteEvent]
//   - [ToolCallEvent], [ToolResultEvent]
//
// Lifecycle events drive scheduling observability; detail events exist for
// UI-level observability only and carry no scheduling meaning. Subscribers
// pick a whole family with [Bus.SubscribeTask] or [Bus.SubscribeDetail], a
// single type with [Bus.Subscribe], or everything with [Bus.SubscribeAll].
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Handlers are called
// synchronously in registration order and are protected against panics: a
// panicking handler will not prevent other handlers from being called.
// There is no replay of history; a subscriber sees only events published
// after it registered.
//
// # Event Type Naming Convention
//
// Event types follow the pattern "category.action":
//   - task.created, task.started, task.message_appended
//   - task.succeeded, task.failed, task.cancelled
//   - detail.user_message, detail.stream_chunk, detail.stream_complete
//   - detail.tool_call, detail.tool_result
package event
