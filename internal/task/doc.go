// Package task provides the in-memory task tree owned by the workforce
// scheduler: a forest of tasks keyed by id, their parent/child structure,
// and the status state machine every task moves through.
//
// The package is pure data plus structural invariants. It performs no
// scheduling and knows nothing about agent sessions; the scheduler drives
// every transition through the Store's methods.
//
// Status model:
//
//	ready ──────→ processing ──→ succeeded | failed
//	  ↑               │
//	  │               ↓ (decompose)
//	  └─────────── pending
//
//	any non-terminal ──→ cancelled
//
// Terminal statuses (succeeded, failed, cancelled) are absorbing. A task is
// pending exactly while it waits on at least one non-terminal child and
// becomes ready again the moment the last child terminates.
package task
