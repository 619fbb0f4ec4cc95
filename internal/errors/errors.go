// Package errors provides centralized error definitions and error handling
// utilities for the workforce codebase. It defines the scheduler's error
// taxonomy as sentinel errors, typed errors with context wrapping, and
// classification helpers.
//
// # Error Taxonomy
//
//   - ErrTaskNotFound: an unknown task id was referenced by a query or mutation
//   - ErrInvalidParent: a parent id is unknown, terminal, or would violate tree invariants
//   - ErrInvalidState: the operation is not legal for the task's current status
//   - ErrPoolExhausted: the agent pool is at capacity (transient, never surfaced to callers)
//   - ErrDestroyed: a mutating call was made after teardown
//   - ErrToolProtocol: a malformed pseudo-tool payload (absorbed and logged, never propagated)
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewTaskError("cannot append message", errors.ErrInvalidState).WithTaskID("t1")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrTaskNotFound) { ... }
//
//	var taskErr *errors.TaskError
//	if errors.As(err, &taskErr) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Task-related sentinel errors
var (
	// ErrTaskNotFound indicates that a task could not be found.
	ErrTaskNotFound = New("task not found")
	// ErrInvalidParent indicates that a parent task id is unknown, terminal,
	// or would violate the task tree invariants.
	ErrInvalidParent = New("invalid parent task")
	// ErrInvalidState indicates that an operation is not legal for the task's
	// current status (e.g. appending a message to a terminal task).
	ErrInvalidState = New("invalid task state")
)

// Pool and lifecycle sentinel errors
var (
	// ErrPoolExhausted indicates that the agent pool is at capacity.
	// It is transient: the candidate task simply stays ready until a slot frees.
	ErrPoolExhausted = New("agent pool exhausted")
	// ErrDestroyed indicates that the workforce has been torn down and no
	// further mutations are accepted.
	ErrDestroyed = New("workforce destroyed")
	// ErrSessionClosed indicates that a worker-agent session has been destroyed.
	ErrSessionClosed = New("session closed")
)

// Protocol sentinel errors
var (
	// ErrToolProtocol indicates a malformed pseudo-tool invocation from a
	// worker-agent session. It is recovered locally by feeding an error tool
	// result back to the session and is never propagated to facade callers.
	ErrToolProtocol = New("tool protocol violation")
)

// -----------------------------------------------------------------------------
// Typed Errors
// -----------------------------------------------------------------------------

// TaskError represents an error tied to a specific task.
//
// Example:
//
//	err := errors.NewTaskError("cannot cancel", errors.ErrInvalidState).WithTaskID("t-42")
//	fmt.Println(err) // "task error [task=t-42]: cannot cancel: invalid task state"
type TaskError struct {
	TaskID  string
	message string
	cause   error
}

// NewTaskError creates a new TaskError wrapping the given cause.
func NewTaskError(message string, cause error) *TaskError {
	return &TaskError{message: message, cause: cause}
}

// WithTaskID adds a task id to the error context.
func (e *TaskError) WithTaskID(id string) *TaskError {
	e.TaskID = id
	return e
}

// Error returns the formatted error message.
func (e *TaskError) Error() string {
	prefix := "task error"
	if e.TaskID != "" {
		prefix = fmt.Sprintf("task error [task=%s]", e.TaskID)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Unwrap returns the underlying error.
func (e *TaskError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *TaskError) Is(target error) bool {
	if _, ok := target.(*TaskError); ok {
		return true
	}
	return errors.Is(e.cause, target)
}

// ProtocolError represents a malformed pseudo-tool invocation from a
// worker-agent session. It carries enough context to log the violation
// without exposing it to facade callers.
type ProtocolError struct {
	TaskID   string
	ToolName string
	CallID   string
	message  string
	cause    error
}

// NewProtocolError creates a new ProtocolError wrapping ErrToolProtocol.
func NewProtocolError(message string, cause error) *ProtocolError {
	if cause == nil {
		cause = ErrToolProtocol
	}
	return &ProtocolError{message: message, cause: cause}
}

// WithTaskID adds a task id to the error context.
func (e *ProtocolError) WithTaskID(id string) *ProtocolError {
	e.TaskID = id
	return e
}

// WithTool adds the offending tool name and call id to the error context.
func (e *ProtocolError) WithTool(name, callID string) *ProtocolError {
	e.ToolName = name
	e.CallID = callID
	return e
}

// Error returns the formatted error message.
func (e *ProtocolError) Error() string {
	var parts []string
	if e.TaskID != "" {
		parts = append(parts, fmt.Sprintf("task=%s", e.TaskID))
	}
	if e.ToolName != "" {
		parts = append(parts, fmt.Sprintf("tool=%s", e.ToolName))
	}
	if e.CallID != "" {
		parts = append(parts, fmt.Sprintf("call=%s", e.CallID))
	}

	prefix := "protocol error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("protocol error [%s]", strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Unwrap returns the underlying error.
func (e *ProtocolError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *ProtocolError) Is(target error) bool {
	if _, ok := target.(*ProtocolError); ok {
		return true
	}
	if target == ErrToolProtocol {
		return true
	}
	return errors.Is(e.cause, target)
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsNotFound returns true if the error indicates an unknown task id.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound)
}

// IsInvalidParent returns true if the error indicates a bad parent reference.
func IsInvalidParent(err error) bool {
	return errors.Is(err, ErrInvalidParent)
}

// IsInvalidState returns true if the error indicates an illegal status
// for the attempted operation.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsPoolExhausted returns true if the error indicates the agent pool is full.
// Pool exhaustion is transient and is handled internally by the scheduler.
func IsPoolExhausted(err error) bool {
	return errors.Is(err, ErrPoolExhausted)
}

// IsDestroyed returns true if the error indicates the workforce was torn down.
func IsDestroyed(err error) bool {
	return errors.Is(err, ErrDestroyed)
}
