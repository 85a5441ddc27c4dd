// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/jeranaias/council-tui/internal/council"
	"github.com/jeranaias/council-tui/internal/model"
)

// =============================================================================
// SESSION STATE
// =============================================================================

// State is the session's position in its lifecycle.
type State int

const (
	StateIdle       State = iota // No request submitted yet
	StateRequesting              // Optimistic append done, awaiting transport
	StateStreaming               // Transport delivering frames
	StateCompleted               // Terminal: complete event received
	StateFailed                  // Terminal: transport or backend error
	StateCancelled               // Terminal: caller cancelled
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends the session.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	}
	return false
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrSessionActive is returned when Start is called on a session that
	// already left Idle. One session per conversation at a time.
	ErrSessionActive = errors.New("stream session already started")

	// ErrStreamClosed marks a transport that closed before a complete
	// event arrived. Deliberately treated like a backend-reported error:
	// in both cases the backend, not the client, knows what was actually
	// persisted, so the reconciler re-fetches either way.
	ErrStreamClosed = errors.New("stream closed before completion")
)

// BackendError is an explicit error event from the backend. Its message is
// surfaced to the user verbatim.
type BackendError struct {
	Message string
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	if e.Message == "" {
		return "backend reported an error"
	}
	return e.Message
}

// =============================================================================
// SESSION
// =============================================================================

// Session drives one streamed council exchange: it submits the message,
// decodes the event stream, and applies each event to the conversation's
// trailing assistant message in arrival order.
//
// A Session is single-use. Create one per submission and discard it after
// its terminal condition has been reconciled.
type Session struct {
	conv   *model.Conversation
	client *council.Client

	mu              sync.Mutex
	state           State
	err             error
	titleDirty      bool
	cancelRequested bool

	cancelMgr cancelManager
	done      chan struct{}

	// onEvent observes every applied event, on the streaming goroutine.
	onEvent func(council.Event)

	// onDiagnostic receives non-fatal protocol errors (undecodable
	// frames). The stream continues after each one.
	onDiagnostic func(error)
}

// NewSession creates a session for one submission on the conversation.
func NewSession(client *council.Client, conv *model.Conversation) *Session {
	return &Session{
		conv:   conv,
		client: client,
		state:  StateIdle,
		done:   make(chan struct{}),
		onDiagnostic: func(err error) {
			log.Printf("stream: dropping frame: %v", err)
		},
	}
}

// OnEvent registers the event observer. Must be set before Start.
func (s *Session) OnEvent(fn func(council.Event)) *Session {
	s.onEvent = fn
	return s
}

// OnDiagnostic registers the protocol-error side channel. Must be set
// before Start.
func (s *Session) OnDiagnostic(fn func(error)) *Session {
	s.onDiagnostic = fn
	return s
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Start appends the optimistic user message and an empty assistant
// placeholder, then opens the backend stream and consumes it on a
// dedicated goroutine. The optimistic append happens before any network
// activity so the UI has something to render immediately.
func (s *Session) Start(ctx context.Context, req council.SendMessageRequest) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrSessionActive
	}
	s.state = StateRequesting
	s.mu.Unlock()

	s.conv.Append(model.NewUserMessage(req.Content, req.Attachments, req.CaseSettings))
	s.conv.Append(model.NewAssistantPlaceholder())

	ctx, cancel := context.WithCancel(ctx)
	s.cancelMgr.set(cancel)

	go s.run(ctx, req)
	return nil
}

// run consumes the stream until a terminal condition. It is the only
// goroutine that applies events, which guarantees arrival-order
// application without locking the conversation.
func (s *Session) run(ctx context.Context, req council.SendMessageRequest) {
	body, err := s.client.SendMessageStream(ctx, s.conv.ID, req)
	if err != nil {
		s.finish(StateFailed, err)
		return
	}
	defer body.Close()

	s.setState(StateStreaming)

	frames := council.NewFrameReader(body)
	for {
		frame, err := frames.ReadFrame()
		if err != nil {
			if err == io.EOF {
				// Closed mid-flight with no complete event: treated as
				// an error even though the server reported none.
				s.finish(StateFailed, ErrStreamClosed)
			} else {
				s.finish(StateFailed, fmt.Errorf("stream read failed: %w", err))
			}
			return
		}

		ev, err := council.ParseEvent(frame)
		if err != nil {
			// Protocol error: skip the frame and continue.
			if s.onDiagnostic != nil {
				s.onDiagnostic(err)
			}
			continue
		}

		s.apply(ev)

		switch ev.Kind {
		case council.EventComplete:
			s.finish(StateCompleted, nil)
			return
		case council.EventError:
			s.finish(StateFailed, &BackendError{Message: ev.Message})
			return
		}
	}
}

// apply folds one event into the trailing assistant message and notifies
// the observer.
func (s *Session) apply(ev council.Event) {
	if ev.Kind == council.EventTitleComplete {
		s.mu.Lock()
		s.titleDirty = true
		s.mu.Unlock()
	}

	Apply(s.conv.LastAssistant(), ev)

	if s.onEvent != nil {
		s.onEvent(ev)
	}
}

// Cancel interrupts the transport. If the interruption races with an
// in-flight terminal event, cancellation wins only if the session had not
// already reached Completed.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.cancelRequested = true
	s.mu.Unlock()

	s.cancelMgr.cancel()
}

// finish records the terminal condition exactly once and releases the
// completion signal. A requested cancellation overrides any terminal
// state other than Completed.
func (s *Session) finish(state State, err error) {
	s.cancelMgr.clear()

	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	if s.cancelRequested && state != StateCompleted {
		state = StateCancelled
		err = nil
	}
	s.state = state
	s.err = err
	s.mu.Unlock()

	close(s.done)
}

// setState advances a non-terminal state transition.
func (s *Session) setState(state State) {
	s.mu.Lock()
	if !s.state.Terminal() {
		s.state = state
	}
	s.mu.Unlock()
}

// =============================================================================
// OBSERVATION
// =============================================================================

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsActive reports whether the session occupies its conversation. Callers
// must reject new submissions while a session is active.
func (s *Session) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateRequesting || s.state == StateStreaming
}

// Done returns the completion signal: closed when the transport closes,
// fails, or is cancelled.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the terminal error, if any. Nil for Completed and Cancelled.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// TitleDirty reports whether a title_complete event arrived, meaning
// conversation titles changed server-side and listings should refresh.
func (s *Session) TitleDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.titleDirty
}

// Reply returns the observable in-progress reply: the conversation's
// trailing assistant message.
func (s *Session) Reply() *model.Message {
	return s.conv.LastAssistant()
}
