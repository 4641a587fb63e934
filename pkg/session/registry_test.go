package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/browserdesk/browserdesk/pkg/browser"
	"github.com/browserdesk/browserdesk/pkg/logger"
)

type stubTab struct {
	browser.Tab

	closed     atomic.Bool
	loopExited *atomic.Bool
}

func (s *stubTab) Close() error {
	if s.loopExited != nil && !s.loopExited.Load() {
		panic("tab released while the frame loop was still running")
	}
	s.closed.Store(true)
	return nil
}

func newTestRegistry(calls *atomic.Int32) (*Registry, *stubTab) {
	tab := &stubTab{}
	r := NewRegistry(func(context.Context, string) (browser.Tab, error) {
		if calls != nil {
			calls.Add(1)
		}
		return tab, nil
	}, logger.New(false))
	return r, tab
}

func TestGetOrCreateIdempotent(t *testing.T) {
	var calls atomic.Int32
	r, _ := newTestRegistry(&calls)
	a, err := r.GetOrCreate(context.Background(), "s1")
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.GetOrCreate(context.Background(), "s1")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("same id produced distinct sessions")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("tab factory called %d times, want 1", n)
	}
}

func TestDestroyReleasesSession(t *testing.T) {
	var calls atomic.Int32
	r, tab := newTestRegistry(&calls)
	a, _ := r.GetOrCreate(context.Background(), "s1")
	r.Destroy("s1")
	if !tab.closed.Load() {
		t.Error("tab was not released")
	}
	b, _ := r.GetOrCreate(context.Background(), "s1")
	if a == b {
		t.Error("destroyed session was reused")
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("tab factory called %d times, want 2", n)
	}
}

func TestDestroyUnknownIdNoop(t *testing.T) {
	r, _ := newTestRegistry(nil)
	r.Destroy("nope")
}

func TestConcurrentGetOrCreateSingleConstruction(t *testing.T) {
	var calls atomic.Int32
	r, _ := newTestRegistry(&calls)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.GetOrCreate(context.Background(), "s1"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if n := calls.Load(); n != 1 {
		t.Errorf("tab factory called %d times, want 1", n)
	}
}

func TestDestroyAwaitsFrameLoop(t *testing.T) {
	r, tab := newTestRegistry(nil)
	var exited atomic.Bool
	tab.loopExited = &exited

	s, _ := r.GetOrCreate(context.Background(), "s1")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	if !s.AttachLoop(cancel, done) {
		t.Fatal("loop attach rejected on a live session")
	}
	go func() {
		<-ctx.Done()
		// the tab must stay alive until this loop has wound down
		time.Sleep(20 * time.Millisecond)
		exited.Store(true)
		close(done)
	}()

	r.Destroy("s1")
	if !exited.Load() {
		t.Error("destroy returned before the frame loop exited")
	}
	if !tab.closed.Load() {
		t.Error("tab was not released")
	}
}

// Two viewers can share one client-chosen session id: the second
// viewer's loop attach races the first viewer's disconnect teardown.
// Whatever the interleaving, no loop may be left running afterwards.
func TestSecondViewerAttachVsDestroy(t *testing.T) {
	for i := 0; i < 50; i++ {
		r, _ := newTestRegistry(nil)
		s, _ := r.GetOrCreate(context.Background(), "s1")

		ctx1, cancel1 := context.WithCancel(context.Background())
		done1 := make(chan struct{})
		if !s.AttachLoop(cancel1, done1) {
			t.Fatal("loop attach rejected on a live session")
		}
		go func() { <-ctx1.Done(); close(done1) }()

		ctx2, cancel2 := context.WithCancel(context.Background())
		done2 := make(chan struct{})
		attached := make(chan bool, 1)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			ok := s.AttachLoop(cancel2, done2)
			if ok {
				go func() { <-ctx2.Done(); close(done2) }()
			}
			attached <- ok
		}()
		go func() {
			defer wg.Done()
			r.Destroy("s1")
		}()
		wg.Wait()

		if <-attached {
			// the attach made it in before the teardown, so the
			// teardown must have stopped this loop as well
			select {
			case <-done2:
			default:
				t.Fatal("second viewer's loop left running after destroy")
			}
		}
		if s.AttachLoop(cancel2, done2) {
			t.Fatal("loop attach accepted on a destroyed session")
		}
	}
}

func TestCloseDestroysAll(t *testing.T) {
	tabs := make([]*stubTab, 0, 3)
	r := NewRegistry(func(context.Context, string) (browser.Tab, error) {
		tab := &stubTab{}
		tabs = append(tabs, tab)
		return tab, nil
	}, logger.New(false))
	for _, id := range []string{"a", "b", "c"} {
		if _, err := r.GetOrCreate(context.Background(), id); err != nil {
			t.Fatal(err)
		}
	}
	r.Close()
	for i, tab := range tabs {
		if !tab.closed.Load() {
			t.Errorf("tab %d was not released", i)
		}
	}
}
