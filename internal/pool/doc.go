// Package pool maintains the bounded set of live worker-agent sessions.
//
// A Pool owns session creation and destruction through an injected
// [session.Factory] and binds each live session 1:1 to exactly one
// processing task. The pool guarantees that the number of live sessions
// never exceeds its capacity and that a task id maps to at most one live
// session at a time.
//
// Exhaustion is not an error condition for callers: TryAcquire reports it
// with [errors.ErrPoolExhausted] and the scheduler simply leaves the
// candidate task ready until a slot frees.
package pool
