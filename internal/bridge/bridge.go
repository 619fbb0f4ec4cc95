package bridge

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/codetrek/workforce/internal/errors"
	"github.com/codetrek/workforce/internal/event"
	"github.com/codetrek/workforce/internal/logging"
	"github.com/codetrek/workforce/internal/session"
	"github.com/codetrek/workforce/internal/task"
)

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger sets the logger for the bridge.
func WithLogger(logger *logging.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Bridge routes session signals for every attached task: detail events to
// the bus, reserved pseudo-tools to the scheduler, and everything else to
// the real tool executor.
type Bridge struct {
	executor    session.ToolExecutor
	transitions Transitions
	bus         *event.Bus
	logger      *logging.Logger

	mu       sync.Mutex
	attached map[string]func() // task id -> subscription cancel
}

// New creates a Bridge.
//
// All arguments must be non-nil. Passing nil panics early to surface wiring
// bugs immediately.
func New(executor session.ToolExecutor, transitions Transitions, bus *event.Bus, opts ...Option) *Bridge {
	if executor == nil {
		panic("bridge: session.ToolExecutor must not be nil")
	}
	if transitions == nil {
		panic("bridge: Transitions must not be nil")
	}
	if bus == nil {
		panic("bridge: event.Bus must not be nil")
	}

	b := &Bridge{
		executor:    executor,
		transitions: transitions,
		bus:         bus,
		logger:      logging.NopLogger(),
		attached:    make(map[string]func()),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach subscribes the bridge to the session bound to the given task.
// Any existing attachment for the task is cancelled first.
func (b *Bridge) Attach(taskID string, sess session.Session) {
	cancel := sess.Subscribe(func(sig session.Signal) {
		b.handleSignal(taskID, sess, sig)
	})

	b.mu.Lock()
	prev := b.attached[taskID]
	b.attached[taskID] = cancel
	b.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// Detach cancels the subscription for the task's session. Detaching a task
// that was never attached is a no-op. Signals already in flight may still
// reach the scheduler; its transitions re-validate state, so they are safe.
func (b *Bridge) Detach(taskID string) {
	b.mu.Lock()
	cancel := b.attached[taskID]
	delete(b.attached, taskID)
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// DetachAll cancels every live subscription.
func (b *Bridge) DetachAll() {
	b.mu.Lock()
	cancels := make([]func(), 0, len(b.attached))
	for _, cancel := range b.attached {
		cancels = append(cancels, cancel)
	}
	b.attached = make(map[string]func())
	b.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// Attached returns the number of live attachments.
func (b *Bridge) Attached() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.attached)
}

// handleSignal dispatches one session signal. It runs on the session's
// signal goroutine, so long tool executions block only that session.
func (b *Bridge) handleSignal(taskID string, sess session.Session, sig session.Signal) {
	switch s := sig.(type) {
	case session.StreamChunk:
		b.bus.Publish(event.NewStreamChunkEvent(taskID, s.Text))
	case session.MessageComplete:
		b.bus.Publish(event.NewStreamCompleteEvent(taskID, s.Text))
	case session.ToolCallRequest:
		b.handleToolCall(taskID, sess, s)
	}
}

// handleToolCall answers a tool-call request, intercepting reserved names.
func (b *Bridge) handleToolCall(taskID string, sess session.Session, call session.ToolCallRequest) {
	reserved := IsReserved(call.Name)
	b.bus.Publish(event.NewToolCallEvent(taskID, call.CallID, call.Name, string(call.Arguments), reserved))

	if !reserved {
		b.executeReal(taskID, sess, call)
		return
	}

	result, transition, perr := b.parseReserved(taskID, call)
	if perr != nil {
		b.logger.Warn("pseudo-tool protocol violation",
			"task_id", taskID, "tool", call.Name, "call_id", call.CallID, "error", perr)
		b.respond(taskID, sess, call.CallID, perr.Error(), true)
		return
	}

	// Answer the call first so the session's own state machine completes
	// it normally, then apply the scheduler transition.
	b.respond(taskID, sess, call.CallID, result, false)

	if err := transition(); err != nil {
		// A transition can fail when the signal raced a cancellation or
		// teardown. The task's status is owned by the scheduler, so this
		// degrades to a logged no-op.
		b.logger.Warn("pseudo-tool transition rejected",
			"task_id", taskID, "tool", call.Name, "error", err)
	}
}

// parseReserved validates a reserved call's payload and returns the result
// text for the synthesized response plus the deferred scheduler transition.
func (b *Bridge) parseReserved(taskID string, call session.ToolCallRequest) (string, func() error, *errors.ProtocolError) {
	fail := func(msg string, cause error) (string, func() error, *errors.ProtocolError) {
		return "", nil, errors.NewProtocolError(msg, cause).
			WithTaskID(taskID).
			WithTool(call.Name, call.CallID)
	}

	switch call.Name {
	case ToolSucceed:
		var p succeedPayload
		if err := json.Unmarshal(call.Arguments, &p); err != nil {
			return fail("invalid succeed payload", err)
		}
		if p.Result == "" {
			return fail("succeed payload missing required field: result", nil)
		}
		return "task result recorded", func() error {
			return b.transitions.TaskSucceeded(taskID, p.Result)
		}, nil

	case ToolFail:
		var p failPayload
		if err := json.Unmarshal(call.Arguments, &p); err != nil {
			return fail("invalid fail payload", err)
		}
		if p.Reason == "" {
			return fail("fail payload missing required field: reason", nil)
		}
		return "task failure recorded", func() error {
			return b.transitions.TaskFailed(taskID, p.Reason)
		}, nil

	case ToolBreakdown:
		var p breakdownPayload
		if err := json.Unmarshal(call.Arguments, &p); err != nil {
			return fail("invalid breakdown payload", err)
		}
		if len(p.Tasks) == 0 {
			return fail("breakdown payload declares no child tasks", nil)
		}
		specs := make([]task.Spec, len(p.Tasks))
		for i, c := range p.Tasks {
			if c.Title == "" {
				return fail(fmt.Sprintf("breakdown child %d missing required field: title", i), nil)
			}
			specs[i] = task.Spec{Title: c.Title, Goal: c.Goal, ParentID: taskID}
		}
		return fmt.Sprintf("task decomposed into %d child tasks", len(specs)), func() error {
			return b.transitions.TaskDecomposed(taskID, specs)
		}, nil
	}

	return fail("unknown reserved tool", nil)
}

// executeReal forwards a non-reserved call to the tool executor and
// dispatches the result back into the session.
func (b *Bridge) executeReal(taskID string, sess session.Session, call session.ToolCallRequest) {
	result, err := b.executor.Execute(call.Name, call.Arguments)
	if err != nil {
		b.logger.Debug("tool execution failed",
			"task_id", taskID, "tool", call.Name, "error", err)
		b.respond(taskID, sess, call.CallID, err.Error(), true)
		return
	}
	b.respond(taskID, sess, call.CallID, result, false)
}

// respond dispatches a tool result into the session and publishes the
// matching detail event.
func (b *Bridge) respond(taskID string, sess session.Session, callID, result string, isErr bool) {
	if err := sess.Respond(session.ToolCallResponse{CallID: callID, Result: result, IsError: isErr}); err != nil {
		b.logger.Debug("tool response dropped",
			"task_id", taskID, "call_id", callID, "error", err)
		return
	}
	b.bus.Publish(event.NewToolResultEvent(taskID, callID, result, isErr))
}
