// Package capture polls the browser tab for still frames at a target
// cadence and suppresses frames whose content did not change.
package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/browserdesk/browserdesk/pkg/logger"
	"github.com/browserdesk/browserdesk/pkg/session"
	"github.com/cespare/xxhash/v2"
)

// ErrCapture marks a transient screenshot failure. The loop logs it and
// retries on the next tick, it is never fatal to the session.
var ErrCapture = errors.New("frame capture failed")

// Frame is one captured still of the tab's viewport.
type Frame struct {
	// encoded JPEG bytes as produced by the engine
	Data []byte
	// capture order, monotonically increasing per source
	Seq uint64
	// content fingerprint of Data
	Hash uint64
}

// OnFrame consumes a forwarded frame. Returning false stops the loop
// (the downstream channel is gone).
type OnFrame func(Frame) bool

type Source struct {
	sess     *session.Session
	interval time.Duration
	seq      uint64
	log      *logger.Logger

	// OnError, when set, observes every failed capture tick.
	OnError func(error)
}

func NewSource(sess *session.Session, interval time.Duration, log *logger.Logger) *Source {
	return &Source{sess: sess, interval: interval, log: log}
}

// CaptureOnce grabs a single frame from the tab. An engine error or an
// empty payload is an ErrCapture.
func (s *Source) CaptureOnce(ctx context.Context) (Frame, error) {
	data, err := s.sess.Tab().Capture(ctx)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrCapture, err)
	}
	if len(data) == 0 {
		return Frame{}, fmt.Errorf("%w: empty payload", ErrCapture)
	}
	s.seq++
	return Frame{Data: data, Seq: s.seq, Hash: xxhash.Sum64(data)}, nil
}

// Run captures frames until ctx is cancelled or onFrame reports the
// consumer is gone. Each iteration sleeps max(0, interval-elapsed), so
// captures never exceed the target rate and the loop never busy-spins.
// A frame reaches onFrame only when its fingerprint differs from the
// last forwarded one; the first frame always goes through.
func (s *Source) Run(ctx context.Context, onFrame OnFrame) {
	first := true
	for {
		started := time.Now()

		frame, err := s.CaptureOnce(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			s.log.Warn().Err(err).Msg("capture tick")
			if s.OnError != nil {
				s.OnError(err)
			}
		case first || frame.Hash != s.sess.LastFrameHash():
			if !onFrame(frame) {
				return
			}
			s.sess.SetLastFrameHash(frame.Hash)
			first = false
		}

		elapsed := time.Since(started)
		pause := s.interval - elapsed
		if pause < 0 {
			pause = 0
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(pause):
		}
	}
}
