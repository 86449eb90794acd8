package eventloop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/codeGROOVE-dev/zipTZ/pkg/refresh"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()
	l := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := l.Run(ctx); err != nil {
			t.Errorf("Run: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l
}

// drain waits until every callback posted so far has run.
func drain(t *testing.T, l *Loop) {
	t.Helper()
	ch := make(chan struct{})
	if !l.Post(func() { close(ch) }) {
		t.Fatal("loop stopped")
	}
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for loop")
	}
}

func TestPostRunsInOrder(t *testing.T) {
	l := startLoop(t)

	var got []int
	for i := range 10 {
		l.Post(func() { got = append(got, i) })
	}
	drain(t, l)

	for i, v := range got {
		if v != i {
			t.Fatalf("callbacks ran out of order: %v", got)
		}
	}
	if len(got) != 10 {
		t.Errorf("ran %d callbacks, want 10", len(got))
	}
}

func TestAfterFuncRunsOnLoop(t *testing.T) {
	l := startLoop(t)

	fired := make(chan struct{})
	var busy atomic.Bool
	var overlapped atomic.Bool
	l.Post(func() {
		l.AfterFunc(5*time.Millisecond, func() {
			overlapped.Store(busy.Load())
			close(fired)
		})
	})
	l.Post(func() {
		busy.Store(true)
		time.Sleep(20 * time.Millisecond)
		busy.Store(false)
	})

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("timer never fired")
	}
	if overlapped.Load() {
		t.Error("timer callback overlapped another callback")
	}
}

func TestStopDiscardsQueuedWakeup(t *testing.T) {
	l := startLoop(t)

	var fired atomic.Bool
	l.Post(func() {
		tm := l.AfterFunc(time.Millisecond, func() { fired.Store(true) })
		// Block the loop so the wake-up is queued behind this callback.
		time.Sleep(30 * time.Millisecond)
		if !tm.Stop() {
			t.Error("Stop reported the timer had already run")
		}
	})
	drain(t, l)
	time.Sleep(10 * time.Millisecond)
	drain(t, l)

	if fired.Load() {
		t.Error("stopped timer fired")
	}
}

func TestDrivesRefreshTask(t *testing.T) {
	l := startLoop(t)

	ticks := make(chan struct{}, 10)
	var task *refresh.Task
	l.Post(func() {
		task = refresh.NewTask(l, 5*time.Millisecond)
		task.Arm(func() { ticks <- struct{}{} })
	})

	for range 3 {
		select {
		case <-ticks:
		case <-time.After(5 * time.Second):
			t.Fatal("refresh task did not tick")
		}
	}
	l.Post(func() { task.Cancel() })
	drain(t, l)
}

func TestPostAfterStop(t *testing.T) {
	l := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = l.Run(ctx) }() //nolint:errcheck // returns nil on cancel
	cancel()
	<-l.Done()

	if l.Post(func() {}) {
		t.Error("Post succeeded on a stopped loop")
	}
}
