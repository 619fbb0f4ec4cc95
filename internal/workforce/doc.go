// Package workforce is the public surface of the task-tree scheduler.
//
// A Workforce owns the task store, the bounded agent pool, the pseudo-tool
// bridge and the event bus, and serializes every mutation behind a single
// mutex: external API calls and signals arriving from worker-agent sessions
// all funnel through the same decision point, so there are no lost updates
// or double admissions. The mutex is never held while waiting on a session,
// so long-running model calls inside one session cannot stall admission of
// other ready tasks.
//
// Events are collected during each mutation and published after the mutex
// is released, in mutation order, so subscribers can call read methods from
// their handlers without deadlocking.
package workforce
