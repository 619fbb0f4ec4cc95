// Package session defines the boundary between the workforce scheduler and
// the external worker-agent sessions it coordinates. The interfaces abstract
// the conversational state machine that drives one agent's dialogue with a
// language model and tool layer, so the scheduler can be tested against
// scripted implementations and wired to real backends without changes.
package session

import "encoding/json"

// Message is a user-visible message fed into a session's conversation.
type Message struct {
	Content string
}

// Signal is a lifecycle signal produced by a session. The scheduler consumes
// signals as discrete messages; it never blocks waiting for one.
//
// Concrete variants: [StreamChunk], [MessageComplete], [ToolCallRequest].
type Signal interface {
	isSignal()
}

// StreamChunk reports a fragment of a streaming assistant message.
type StreamChunk struct {
	Text string
}

// MessageComplete reports that an assistant message finished streaming.
type MessageComplete struct {
	Text string
}

// ToolCallRequest reports that a session wants a tool executed. The caller
// must eventually answer it with a ToolCallResponse carrying the same CallID.
type ToolCallRequest struct {
	CallID    string
	Name      string
	Arguments json.RawMessage
}

func (StreamChunk) isSignal()     {}
func (MessageComplete) isSignal() {}
func (ToolCallRequest) isSignal() {}

// ToolCallResponse answers a ToolCallRequest. IsError marks results that
// report a failure back to the session's reasoning loop.
type ToolCallResponse struct {
	CallID  string
	Result  string
	IsError bool
}

// Session is one live worker-agent conversation. A session is bound to at
// most one task at a time and owns no knowledge of the task tree.
//
// Implementations must be safe for concurrent use. Signals are delivered
// asynchronously: a Dispatch or Respond call never produces a signal on the
// calling goroutine.
type Session interface {
	// ID returns the unique identifier for this session.
	ID() string

	// Dispatch feeds a new user-visible message into the conversation.
	// Returns an error if the session has been destroyed.
	Dispatch(msg Message) error

	// Respond delivers a tool result for a previously signalled
	// ToolCallRequest. Returns an error if the session has been destroyed.
	Respond(resp ToolCallResponse) error

	// Subscribe registers a handler for session signals and returns a
	// cancel function that removes it from future deliveries. A signal
	// whose delivery already began when cancel returned may still reach
	// the handler; consumers must tolerate one late signal.
	Subscribe(fn func(Signal)) (cancel func())

	// Destroy releases all resources held by the session. It is idempotent.
	// No signals are delivered after Destroy returns.
	Destroy()
}

// Factory produces fresh, independent sessions. Implementations close over
// the shared model-invocation and tool-execution configuration; sessions
// share no mutable state with each other.
type Factory interface {
	New() (Session, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func() (Session, error)

// New calls f.
func (f FactoryFunc) New() (Session, error) { return f() }

// ToolExecutor runs real (non-reserved) tool calls on behalf of sessions.
// The reserved workforce pseudo-tools are intercepted before reaching it.
type ToolExecutor interface {
	Execute(name string, args json.RawMessage) (result string, err error)
}

// ToolExecutorFunc adapts a function to the ToolExecutor interface.
type ToolExecutorFunc func(name string, args json.RawMessage) (string, error)

// Execute calls f.
func (f ToolExecutorFunc) Execute(name string, args json.RawMessage) (string, error) {
	return f(name, args)
}
