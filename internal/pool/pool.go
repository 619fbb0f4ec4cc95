package pool

import (
	"fmt"
	"sync"

	"github.com/codetrek/workforce/internal/errors"
	"github.com/codetrek/workforce/internal/logging"
	"github.com/codetrek/workforce/internal/session"
)

// Handle binds one live session to the task occupying its slot. A handle
// exists from admission to release and is never shared across tasks.
type Handle struct {
	taskID string
	sess   session.Session
}

// TaskID returns the id of the task bound to this slot.
func (h *Handle) TaskID() string { return h.taskID }

// Session returns the live session bound to this slot.
func (h *Handle) Session() session.Session { return h.sess }

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger for the pool.
func WithLogger(logger *logging.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Pool is the bounded set of live worker-agent sessions.
// All methods are safe for concurrent use.
type Pool struct {
	mu       sync.Mutex
	capacity int
	factory  session.Factory
	live     map[string]*Handle // task id -> handle
	logger   *logging.Logger
}

// New creates a Pool with the given capacity and session factory.
//
// Capacity must be positive and the factory non-nil. Invalid wiring panics
// early to surface configuration bugs immediately.
func New(capacity int, factory session.Factory, opts ...Option) *Pool {
	if capacity < 1 {
		panic(fmt.Sprintf("pool: capacity must be positive, got %d", capacity))
	}
	if factory == nil {
		panic("pool: session.Factory must not be nil")
	}

	p := &Pool{
		capacity: capacity,
		factory:  factory,
		live:     make(map[string]*Handle),
		logger:   logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TryAcquire creates a fresh session for the task and binds it to a free
// slot. Returns ErrPoolExhausted when every slot is occupied; this is
// transient and the caller should retry after a release. Returns
// ErrInvalidState if the task already holds a slot.
func (p *Pool) TryAcquire(taskID string) (*Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.live[taskID]; exists {
		return nil, errors.NewTaskError("task already holds a session", errors.ErrInvalidState).WithTaskID(taskID)
	}
	if len(p.live) >= p.capacity {
		return nil, errors.ErrPoolExhausted
	}

	sess, err := p.factory.New()
	if err != nil {
		return nil, fmt.Errorf("pool: create session for task %s: %w", taskID, err)
	}

	h := &Handle{taskID: taskID, sess: sess}
	p.live[taskID] = h

	p.logger.Debug("session acquired",
		"task_id", taskID, "session_id", sess.ID(),
		"live", len(p.live), "capacity", p.capacity)
	return h, nil
}

// Release destroys the session bound to the task and frees its slot.
// Releasing a task with no live session is a no-op.
func (p *Pool) Release(taskID string) {
	p.mu.Lock()
	h, ok := p.live[taskID]
	if ok {
		delete(p.live, taskID)
	}
	live := len(p.live)
	p.mu.Unlock()

	if !ok {
		return
	}

	// Destroy outside the lock: session teardown may block briefly and
	// must not stall acquisition of freed slots.
	h.sess.Destroy()
	p.logger.Debug("session released",
		"task_id", taskID, "session_id", h.sess.ID(), "live", live)
}

// ReleaseAll destroys every live session and empties the pool.
func (p *Pool) ReleaseAll() {
	p.mu.Lock()
	handles := make([]*Handle, 0, len(p.live))
	for _, h := range p.live {
		handles = append(handles, h)
	}
	p.live = make(map[string]*Handle)
	p.mu.Unlock()

	for _, h := range handles {
		h.sess.Destroy()
	}
}

// HandleFor returns the live handle for the task, if any.
func (p *Pool) HandleFor(taskID string) (*Handle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.live[taskID]
	return h, ok
}

// Live returns the number of currently occupied slots.
func (p *Pool) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}

// Capacity returns the configured slot limit.
func (p *Pool) Capacity() int {
	return p.capacity
}
