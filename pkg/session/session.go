// Package session owns the id -> browser tab mapping and the
// per-session mutable state shared between the receive loop and the
// frame loop.
package session

import (
	"context"
	"sync"

	"github.com/browserdesk/browserdesk/pkg/browser"
)

// Session is one remote-control relationship between a client and one
// browser tab.
//
// lastFrameHash and mouseDown are deliberately unguarded: each has
// exactly one writer (the frame loop and the receive loop respectively)
// and stale reads are harmless.
type Session struct {
	id  string
	tab browser.Tab

	// fingerprint of the last transmitted frame, frame loop only
	lastFrameHash uint64
	// pressed-button state, input translator only
	mouseDown bool

	// loopMu guards the loop handle: viewers attach loops while
	// Destroy stops them, possibly from another goroutine
	loopMu     sync.Mutex
	cancelLoop context.CancelFunc
	loopDone   chan struct{}
	stopped    bool
}

func (s *Session) Id() string       { return s.id }
func (s *Session) Tab() browser.Tab { return s.tab }

func (s *Session) LastFrameHash() uint64     { return s.lastFrameHash }
func (s *Session) SetLastFrameHash(h uint64) { s.lastFrameHash = h }

func (s *Session) MouseDown() bool     { return s.mouseDown }
func (s *Session) SetMouseDown(v bool) { s.mouseDown = v }

// AttachLoop registers the running frame loop, so Destroy can cancel it
// and await its exit before the tab is released. A newer viewer takes
// the loop over, the previous one is wound down first. Returns false
// when the session was already stopped, the caller must not start its
// loop then.
func (s *Session) AttachLoop(cancel context.CancelFunc, done chan struct{}) bool {
	s.loopMu.Lock()
	if s.stopped {
		s.loopMu.Unlock()
		return false
	}
	prevCancel, prevDone := s.cancelLoop, s.loopDone
	s.cancelLoop, s.loopDone = cancel, done
	s.loopMu.Unlock()
	stopLoop(prevCancel, prevDone)
	return true
}

// StopLoop cancels the frame loop and blocks until it has fully exited.
// Safe to call when no loop was ever attached. The session accepts no
// new loop afterwards.
func (s *Session) StopLoop() {
	s.loopMu.Lock()
	s.stopped = true
	cancel, done := s.cancelLoop, s.loopDone
	s.cancelLoop, s.loopDone = nil, nil
	s.loopMu.Unlock()
	stopLoop(cancel, done)
}

func stopLoop(cancel context.CancelFunc, done chan struct{}) {
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}
