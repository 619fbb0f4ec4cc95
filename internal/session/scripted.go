package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/codetrek/workforce/internal/errors"
)

// Step is one action in a scripted session's playback.
//
// Concrete variants: [EmitChunk], [CompleteMessage], [CallTool].
type Step interface {
	isStep()
}

// EmitChunk streams a chunk of assistant text.
type EmitChunk struct {
	Text string
}

// CompleteMessage finishes the current assistant message.
type CompleteMessage struct {
	Text string
}

// CallTool requests a tool call and blocks playback until the matching
// ToolCallResponse arrives via Respond.
type CallTool struct {
	Name      string
	Arguments string // raw JSON
}

func (EmitChunk) isStep()       {}
func (CompleteMessage) isStep() {}
func (CallTool) isStep()        {}

// Script is an ordered sequence of steps a scripted session plays back.
type Script []Step

// sessionSeq numbers scripted sessions for stable ids in logs and tests.
var sessionSeq atomic.Uint64

// Scripted is a deterministic in-memory Session used by tests and the demo
// CLI. Playback starts when the first message is dispatched and runs on its
// own goroutine, so signals are always delivered asynchronously, matching
// the contract real sessions have.
type Scripted struct {
	id        string
	script    Script
	scriptFor func(first Message) Script

	mu        sync.Mutex
	subs      map[int]func(Signal)
	subOrder  []int
	nextSub   int
	received  []Message
	responses []ToolCallResponse
	started   bool
	destroyed bool
	callSeq   int

	respCh chan ToolCallResponse
	quit   chan struct{}
	done   chan struct{}
}

// NewScripted creates a scripted session that plays the given script.
func NewScripted(script Script) *Scripted {
	return newScripted(script, nil)
}

// NewScriptedFor creates a scripted session whose script is chosen from the
// first dispatched message. Useful when the factory cannot know which task
// the session will be bound to.
func NewScriptedFor(resolve func(first Message) Script) *Scripted {
	return newScripted(nil, resolve)
}

func newScripted(script Script, resolve func(Message) Script) *Scripted {
	return &Scripted{
		id:        fmt.Sprintf("scripted-%d", sessionSeq.Add(1)),
		script:    script,
		scriptFor: resolve,
		subs:      make(map[int]func(Signal)),
		respCh:    make(chan ToolCallResponse, 1),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// ID returns the session identifier.
func (s *Scripted) ID() string { return s.id }

// Dispatch records the message and starts playback on the first call.
func (s *Scripted) Dispatch(msg Message) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return errors.ErrSessionClosed
	}
	s.received = append(s.received, msg)

	start := !s.started
	if start {
		s.started = true
		if s.scriptFor != nil {
			s.script = s.scriptFor(msg)
		}
	}
	script := s.script
	s.mu.Unlock()

	if start {
		go s.play(script)
	}
	return nil
}

// Respond records the response and unblocks a pending CallTool step.
func (s *Scripted) Respond(resp ToolCallResponse) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return errors.ErrSessionClosed
	}
	s.responses = append(s.responses, resp)
	s.mu.Unlock()

	select {
	case s.respCh <- resp:
	case <-s.quit:
	}
	return nil
}

// Subscribe registers a signal handler and returns its cancel function.
// emit snapshots live handlers before invoking them, so a delivery that
// started before cancel returned can still invoke the handler once.
func (s *Scripted) Subscribe(fn func(Signal)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subOrder = append(s.subOrder, id)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Destroy stops playback and drops all subscribers. It is idempotent.
func (s *Scripted) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	s.subs = make(map[int]func(Signal))
	s.subOrder = nil
	s.mu.Unlock()

	close(s.quit)
}

// Destroyed reports whether Destroy has been called.
func (s *Scripted) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// Received returns a copy of every message dispatched into the session,
// in delivery order.
func (s *Scripted) Received() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.received))
	copy(out, s.received)
	return out
}

// Responses returns a copy of every tool response delivered to the session.
func (s *Scripted) Responses() []ToolCallResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ToolCallResponse, len(s.responses))
	copy(out, s.responses)
	return out
}

// Done is closed when script playback has finished or the session was
// destroyed mid-playback. Sessions that never started playback do not
// close it.
func (s *Scripted) Done() <-chan struct{} {
	return s.done
}

// play executes the script steps in order on the playback goroutine.
func (s *Scripted) play(script Script) {
	defer close(s.done)

	for _, step := range script {
		select {
		case <-s.quit:
			return
		default:
		}

		switch st := step.(type) {
		case EmitChunk:
			s.emit(StreamChunk{Text: st.Text})
		case CompleteMessage:
			s.emit(MessageComplete{Text: st.Text})
		case CallTool:
			s.mu.Lock()
			s.callSeq++
			callID := fmt.Sprintf("%s-call-%d", s.id, s.callSeq)
			s.mu.Unlock()

			s.emit(ToolCallRequest{
				CallID:    callID,
				Name:      st.Name,
				Arguments: json.RawMessage(st.Arguments),
			})

			// Block until the call is answered. Responses for stale
			// call ids are discarded so a mismatched Respond cannot
			// wedge playback.
			answered := false
			for !answered {
				select {
				case resp := <-s.respCh:
					answered = resp.CallID == callID
				case <-s.quit:
					return
				}
			}
		}
	}
}

// emit delivers a signal to every live subscriber in registration order.
func (s *Scripted) emit(sig Signal) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	handlers := make([]func(Signal), 0, len(s.subOrder))
	for _, id := range s.subOrder {
		if fn, ok := s.subs[id]; ok {
			handlers = append(handlers, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range handlers {
		fn(sig)
	}
}

// ScriptedFactory hands out scripted sessions in creation order. Once the
// configured scripts are exhausted, further sessions receive the Default
// script (empty when unset, meaning the session stays idle).
type ScriptedFactory struct {
	mu      sync.Mutex
	scripts []Script
	next    int

	// Default is used when the per-session scripts run out.
	Default Script

	sessions []*Scripted
}

// NewScriptedFactory creates a factory that plays the given scripts in order.
func NewScriptedFactory(scripts ...Script) *ScriptedFactory {
	return &ScriptedFactory{scripts: scripts}
}

// New creates the next scripted session.
func (f *ScriptedFactory) New() (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	script := f.Default
	if f.next < len(f.scripts) {
		script = f.scripts[f.next]
		f.next++
	}

	s := NewScripted(script)
	f.sessions = append(f.sessions, s)
	return s, nil
}

// Sessions returns every session the factory has created, in order.
func (f *ScriptedFactory) Sessions() []*Scripted {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Scripted, len(f.sessions))
	copy(out, f.sessions)
	return out
}
