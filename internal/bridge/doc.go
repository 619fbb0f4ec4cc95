// Package bridge intercepts the reserved workforce pseudo-tools on their way
// from a worker-agent session to the tool executor.
//
// A session signals task lifecycle outcomes by invoking one of three
// reserved tool names: wf-task-succeed, wf-task-fail, or wf-task-breakdown.
// The bridge observes every outgoing tool-call request from an attached
// session; reserved calls are answered internally (so the session's own
// state machine completes the call normally) and translated into scheduler
// transitions, while all other calls are forwarded to the real
// [session.ToolExecutor].
//
// Malformed pseudo-tool payloads are answered with an error tool result and
// logged as non-fatal protocol violations. They never reach the scheduler
// and never leave the task in an inconsistent status: the session simply
// continues reasoning with the error in its context.
//
// The bridge uses a narrow [Transitions] interface so the concrete
// scheduler type stays encapsulated and tests can substitute a recorder.
package bridge
