package capture

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/browserdesk/browserdesk/pkg/browser"
	"github.com/browserdesk/browserdesk/pkg/logger"
	"github.com/browserdesk/browserdesk/pkg/session"
)

// fakeTab serves canned screenshot payloads.
type fakeTab struct {
	browser.Tab

	frames   [][]byte
	errEvery int
	calls    atomic.Int64
}

func (f *fakeTab) Capture(context.Context) ([]byte, error) {
	n := int(f.calls.Add(1))
	if f.errEvery > 0 && n%f.errEvery == 0 {
		return nil, errors.New("screenshot broke")
	}
	if len(f.frames) == 0 {
		return nil, nil
	}
	i := n - 1
	if i >= len(f.frames) {
		i = len(f.frames) - 1
	}
	return f.frames[i], nil
}

func (f *fakeTab) Close() error { return nil }

func newTestSession(t *testing.T, tab browser.Tab) *session.Session {
	t.Helper()
	log := logger.New(false)
	reg := session.NewRegistry(func(context.Context, string) (browser.Tab, error) {
		return tab, nil
	}, log)
	s, err := reg.GetOrCreate(context.Background(), "test")
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestCaptureOnceEmptyPayload(t *testing.T) {
	s := newTestSession(t, &fakeTab{})
	src := NewSource(s, time.Millisecond, logger.New(false))
	if _, err := src.CaptureOnce(context.Background()); !errors.Is(err, ErrCapture) {
		t.Errorf("expected ErrCapture, got %v", err)
	}
}

func TestRunForwardsOnlyChangedFrames(t *testing.T) {
	tab := &fakeTab{frames: [][]byte{
		[]byte("aa"), []byte("aa"), []byte("bb"), []byte("bb"), []byte("cc"),
	}}
	s := newTestSession(t, tab)
	src := NewSource(s, time.Millisecond, logger.New(false))

	var got [][]byte
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		src.Run(ctx, func(f Frame) bool {
			got = append(got, f.Data)
			return len(got) < 3
		})
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
	cancel()

	want := []string{"aa", "bb", "cc"}
	if len(got) != len(want) {
		t.Fatalf("forwarded %d frames, want %d", len(got), len(want))
	}
	for i := range want {
		if string(got[i]) != want[i] {
			t.Errorf("frame %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRunFirstFrameAlwaysForwarded(t *testing.T) {
	tab := &fakeTab{frames: [][]byte{[]byte("same")}}
	s := newTestSession(t, tab)
	src := NewSource(s, time.Millisecond, logger.New(false))

	forwarded := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		src.Run(context.Background(), func(Frame) bool {
			forwarded++
			return false
		})
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
	if forwarded != 1 {
		t.Errorf("forwarded = %d, want 1", forwarded)
	}
}

func TestRunPacesCaptures(t *testing.T) {
	tab := &fakeTab{frames: [][]byte{[]byte("x")}}
	s := newTestSession(t, tab)
	const interval = 20 * time.Millisecond
	src := NewSource(s, interval, logger.New(false))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	src.Run(ctx, func(Frame) bool { return true })

	// 200ms at one capture per 20ms tops out around 10,
	// with generous slack for slow CI
	if calls := tab.calls.Load(); calls > 13 {
		t.Errorf("captured %d times in 200ms, pacing is off", calls)
	}
}

func TestRunSurvivesCaptureErrors(t *testing.T) {
	tab := &fakeTab{frames: [][]byte{[]byte("a"), []byte("b"), []byte("c")}, errEvery: 2}
	s := newTestSession(t, tab)
	src := NewSource(s, time.Millisecond, logger.New(false))

	var got int
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	src.Run(ctx, func(Frame) bool {
		got++
		return got < 2
	})
	if got != 2 {
		t.Errorf("forwarded %d frames across errors, want 2", got)
	}
}
