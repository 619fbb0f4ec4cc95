package event

import (
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Handler is a function that handles an event.
type Handler func(Event)

// subscription pairs a handler with the predicate deciding which events
// it receives.
type subscription struct {
	id      string
	match   func(Event) bool
	handler Handler
}

// Bus is the synchronous pub-sub spine of the event stream. Handlers run
// on the publishing goroutine in registration order, so a subscriber sees
// events exactly as the scheduler ordered them.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID atomic.Uint64
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{}
}

// subscribe registers a handler behind a match predicate and returns its
// subscription ID.
func (b *Bus) subscribe(match func(Event) bool, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := fmt.Sprintf("sub-%d", b.nextID.Add(1))
	b.subs = append(b.subs, subscription{id: id, match: match, handler: handler})
	return id
}

// Subscribe registers a handler for a specific event type.
// Returns a subscription ID that can be used to unsubscribe.
func (b *Bus) Subscribe(eventType string, handler Handler) string {
	return b.subscribe(func(e Event) bool { return e.EventType() == eventType }, handler)
}

// SubscribeAll registers a handler for every published event.
// Returns a subscription ID that can be used to unsubscribe.
func (b *Bus) SubscribeAll(handler Handler) string {
	return b.subscribe(func(Event) bool { return true }, handler)
}

// SubscribeTask registers a handler for the coarse task lifecycle family.
// Returns a subscription ID that can be used to unsubscribe.
func (b *Bus) SubscribeTask(handler func(TaskEvent)) string {
	return b.subscribe(
		func(e Event) bool { _, ok := e.(TaskEvent); return ok },
		func(e Event) { handler(e.(TaskEvent)) },
	)
}

// SubscribeDetail registers a handler for the fine-grained session activity
// family. Returns a subscription ID that can be used to unsubscribe.
func (b *Bus) SubscribeDetail(handler func(TaskDetailEvent)) string {
	return b.subscribe(
		func(e Event) bool { _, ok := e.(TaskDetailEvent); return ok },
		func(e Event) { handler(e.(TaskDetailEvent)) },
	)
}

// Unsubscribe removes a subscription by ID.
// Returns true if the subscription was found and removed.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subs {
		if sub.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Publish dispatches an event to every handler whose predicate matches it,
// in registration order. If a handler panics, the panic is logged,
// recovered, and publishing continues to the remaining handlers.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	matched := make([]Handler, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.match(event) {
			matched = append(matched, sub.handler)
		}
	}
	b.mu.RUnlock()

	for _, handler := range matched {
		b.safeCall(handler, event)
	}
}

// safeCall invokes a handler and recovers from any panics.
// Panics are logged with stack traces to aid debugging while ensuring
// one misbehaving handler cannot block event delivery to other handlers.
func (b *Bus) safeCall(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: event handler panicked for event %s: %v\n%s",
				event.EventType(), r, debug.Stack())
		}
	}()
	handler(event)
}

// Clear removes all subscriptions.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = nil
}

// SubscriptionCount returns the total number of active subscriptions.
func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
