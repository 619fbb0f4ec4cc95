package workforce

import (
	"sync"

	"github.com/codetrek/workforce/internal/bridge"
	"github.com/codetrek/workforce/internal/errors"
	"github.com/codetrek/workforce/internal/event"
	"github.com/codetrek/workforce/internal/logging"
	"github.com/codetrek/workforce/internal/pool"
	"github.com/codetrek/workforce/internal/session"
	"github.com/codetrek/workforce/internal/task"
)

// Option configures a Workforce.
type Option func(*Workforce)

// WithLogger sets the logger for the workforce and its components.
func WithLogger(logger *logging.Logger) Option {
	return func(w *Workforce) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// Workforce coordinates a bounded pool of worker-agent sessions executing a
// dynamically growing task tree.
//
// All mutating methods fail with ErrDestroyed after Destroy. Read methods
// keep working and return the frozen last-known state of the tree.
type Workforce struct {
	store  *task.Store
	pool   *pool.Pool
	bridge *bridge.Bridge
	bus    *event.Bus
	logger *logging.Logger

	// mu serializes every mutation of store, pool and bridge state.
	// Event batches collected during a mutation are published after mu is
	// released, in mutation order: each non-empty batch takes a ticket
	// while mu is still held, and publishers wait their turn on pubCond
	// without holding mu, so handlers are free to call read methods.
	mu        sync.Mutex
	events    []event.Event
	destroyed bool

	pubMu   sync.Mutex
	pubCond *sync.Cond
	pubSeq  uint64 // next ticket to hand out
	pubNext uint64 // next ticket allowed to publish
}

// New creates a Workforce with the given pool capacity, session factory and
// tool executor. All three must be valid; invalid arguments panic to surface
// wiring bugs at construction.
func New(maxAgents int, factory session.Factory, executor session.ToolExecutor, opts ...Option) *Workforce {
	if maxAgents < 1 {
		panic("workforce: maxAgents must be at least 1")
	}
	if factory == nil {
		panic("workforce: session.Factory must not be nil")
	}
	if executor == nil {
		panic("workforce: session.ToolExecutor must not be nil")
	}

	w := &Workforce{
		store:  task.NewStore(),
		bus:    event.NewBus(),
		logger: logging.NopLogger(),
	}
	w.pubCond = sync.NewCond(&w.pubMu)
	for _, opt := range opts {
		opt(w)
	}

	w.pool = pool.New(maxAgents, factory, pool.WithLogger(w.logger))
	w.bridge = bridge.New(executor, &agentTransitions{w: w}, w.bus, bridge.WithLogger(w.logger))
	return w
}

// CreateTasks inserts the given specs as ready tasks and runs a scheduling
// pass. The batch is atomic: on any invalid spec nothing is created. The
// returned ids are in spec order.
func (w *Workforce) CreateTasks(specs []task.Spec) ([]string, error) {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return nil, errors.ErrDestroyed
	}

	ids, err := w.store.CreateTasks(specs)
	if err != nil {
		w.mu.Unlock()
		return nil, err
	}

	for _, id := range ids {
		t, _ := w.store.Get(id)
		w.events = append(w.events, event.NewTaskCreatedEvent(id, t.ParentID, t.Title))
		w.reevaluateParentOfNew(t.ParentID)
	}

	w.schedulePass()
	w.unlockAndPublish()
	return ids, nil
}

// CancelTasks cancels the given tasks and, depth-first, every non-terminal
// descendant. Processing tasks have their sessions released immediately;
// in-flight calls are abandoned, not waited on. Ids referencing tasks that
// are already terminal are no-ops. Unknown ids fail with ErrTaskNotFound
// before anything is cancelled.
func (w *Workforce) CancelTasks(ids []string) error {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return errors.ErrDestroyed
	}

	for _, id := range ids {
		if _, err := w.store.StatusOf(id); err != nil {
			w.mu.Unlock()
			return err
		}
	}

	for _, id := range ids {
		w.cancelSubtree(id)
		w.reevaluateParent(id)
	}

	w.schedulePass()
	w.unlockAndPublish()
	return nil
}

// AppendMessage feeds a supplementary message to a task. If the task has a
// live session the message is dispatched immediately; otherwise it is queued
// and flushed to the session the moment one is attached. Terminal tasks fail
// with ErrInvalidState.
func (w *Workforce) AppendMessage(taskID, content string) error {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return errors.ErrDestroyed
	}

	status, err := w.store.StatusOf(taskID)
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if status.IsTerminal() {
		w.mu.Unlock()
		return errors.NewTaskError("cannot append message to terminal task", errors.ErrInvalidState).
			WithTaskID(taskID)
	}

	if h, ok := w.pool.HandleFor(taskID); ok {
		if err := h.Session().Dispatch(session.Message{Content: content}); err != nil {
			w.mu.Unlock()
			return errors.NewTaskError("message dispatch failed", err).WithTaskID(taskID)
		}
		w.events = append(w.events,
			event.NewTaskMessageAppendedEvent(taskID, content, false),
			event.NewUserMessageEvent(taskID, content))
		w.unlockAndPublish()
		return nil
	}

	if err := w.store.QueueMessage(taskID, content); err != nil {
		w.mu.Unlock()
		return err
	}
	w.events = append(w.events, event.NewTaskMessageAppendedEvent(taskID, content, true))
	w.unlockAndPublish()
	return nil
}

// GetTask returns a snapshot of the task. Works after Destroy.
func (w *Workforce) GetTask(id string) (task.Task, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Get(id)
}

// GetTaskStatus returns the task's current status. Works after Destroy.
func (w *Workforce) GetTaskStatus(id string) (task.Status, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.StatusOf(id)
}

// GetAllTaskIDs returns every task id in creation order. Works after Destroy.
func (w *Workforce) GetAllTaskIDs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.AllIDs()
}

// GetChildTaskIDs returns the task's direct children in creation order.
// task.RootID lists the top-level tasks. Works after Destroy.
func (w *Workforce) GetChildTaskIDs(id string) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.ChildIDs(id)
}

// Counts returns a status census of the whole tree. Works after Destroy.
func (w *Workforce) Counts() task.Counts {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Counts()
}

// SubscribeTaskEvent registers a handler for coarse task lifecycle events.
// Handlers run synchronously in subscription order, starting from the
// moment of subscription; there is no history replay. The returned function
// unsubscribes.
//
// Handlers may call read methods but must not call mutating methods; run
// those on another goroutine.
func (w *Workforce) SubscribeTaskEvent(handler func(event.TaskEvent)) (unsubscribe func()) {
	id := w.bus.SubscribeTask(handler)
	return func() { w.bus.Unsubscribe(id) }
}

// SubscribeTaskDetailEvent registers a handler for fine-grained session
// activity events. Same delivery contract as SubscribeTaskEvent.
func (w *Workforce) SubscribeTaskDetailEvent(handler func(event.TaskDetailEvent)) (unsubscribe func()) {
	id := w.bus.SubscribeDetail(handler)
	return func() { w.bus.Unsubscribe(id) }
}

// Destroy releases every live session and marks the workforce destroyed.
// Subsequent mutating calls fail with ErrDestroyed; reads return the frozen
// last-known state. Idempotent.
func (w *Workforce) Destroy() {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return
	}
	w.destroyed = true
	w.bridge.DetachAll()
	w.pool.ReleaseAll()
	w.mu.Unlock()

	w.logger.Info("workforce destroyed")
}

// cancelSubtree cancels the task and every non-terminal descendant,
// depth-first, releasing sessions as it goes. Caller holds w.mu.
func (w *Workforce) cancelSubtree(id string) {
	for _, d := range append([]string{id}, w.store.Descendants(id)...) {
		status, err := w.store.StatusOf(d)
		if err != nil || status.IsTerminal() {
			continue
		}
		if status == task.StatusProcessing {
			w.releaseSession(d)
		}
		if err := w.store.MarkCancelled(d); err != nil {
			continue
		}
		w.events = append(w.events, event.NewTaskCancelledEvent(d))
	}
}

// releaseSession detaches the bridge and frees the pool slot for a task.
// Caller holds w.mu.
func (w *Workforce) releaseSession(taskID string) {
	w.bridge.Detach(taskID)
	w.pool.Release(taskID)
}

// reevaluateParent moves the task's parent from pending back to ready when
// its last non-terminal child has terminated. Caller holds w.mu.
func (w *Workforce) reevaluateParent(childID string) {
	t, err := w.store.Get(childID)
	if err != nil || t.ParentID == task.RootID {
		return
	}
	status, err := w.store.StatusOf(t.ParentID)
	if err != nil || status != task.StatusPending {
		return
	}
	if !w.store.AllChildrenTerminal(t.ParentID) {
		return
	}
	if err := w.store.MarkReady(t.ParentID); err != nil {
		return
	}
	w.logger.Debug("pending task resumed", "task_id", t.ParentID)
}

// reevaluateParentOfNew parks a ready parent as pending when a child is
// attached under it from outside. A processing parent keeps its session;
// it only decomposes through its own breakdown call. Caller holds w.mu.
func (w *Workforce) reevaluateParentOfNew(parentID string) {
	if parentID == task.RootID {
		return
	}
	status, err := w.store.StatusOf(parentID)
	if err != nil || status != task.StatusReady {
		return
	}
	_ = w.store.MarkPending(parentID)
}

// unlockAndPublish releases w.mu and publishes the events collected by the
// current mutation. The batch's ticket is taken while w.mu is still held,
// fixing the publish order to the mutation order; the wait for that turn
// happens after w.mu is released, so a slow subscriber never blocks other
// mutations and handlers can take w.mu through the read methods.
func (w *Workforce) unlockAndPublish() {
	events := w.events
	w.events = nil
	if len(events) == 0 {
		w.mu.Unlock()
		return
	}

	ticket := w.pubSeq
	w.pubSeq++
	w.mu.Unlock()

	w.pubMu.Lock()
	for w.pubNext != ticket {
		w.pubCond.Wait()
	}
	w.pubMu.Unlock()

	for _, e := range events {
		w.bus.Publish(e)
	}

	w.pubMu.Lock()
	w.pubNext++
	w.pubMu.Unlock()
	w.pubCond.Broadcast()
}
