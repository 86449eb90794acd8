// Package eventloop runs callbacks one at a time on a single goroutine.
//
// State owned by code running on the loop needs no locking: posted
// callbacks and timer callbacks never overlap.
package eventloop

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/codeGROOVE-dev/zipTZ/pkg/refresh"
)

const queueSize = 256

// Loop is a single-threaded callback queue.
type Loop struct {
	logger  *slog.Logger
	queue   chan func()
	done    chan struct{}
	running atomic.Bool
}

// New creates a loop. Call Run to start processing.
func New(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		logger: logger,
		queue:  make(chan func(), queueSize),
		done:   make(chan struct{}),
	}
}

// Post queues f to run on the loop. It reports false once the loop has stopped.
// Post blocks while the queue is full, so callbacks on the loop should not
// post large batches.
func (l *Loop) Post(f func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.queue <- f:
		return true
	case <-l.done:
		return false
	}
}

// Run processes callbacks until ctx is done. It returns nil on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		panic("eventloop: Run called twice")
	}
	defer close(l.done)

	l.logger.Debug("event loop started")
	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("event loop stopped", "reason", context.Cause(ctx))
			return nil
		case f := <-l.queue:
			f()
		}
	}
}

// Timer is a deferred loop callback.
type Timer struct {
	t       *time.Timer
	stopped atomic.Bool
	ran     atomic.Bool
}

// Stop prevents the callback from running. When called on the loop goroutine
// it is final: a wake-up already sitting in the queue is discarded.
func (t *Timer) Stop() bool {
	if t.stopped.Swap(true) {
		return false
	}
	t.t.Stop()
	return !t.ran.Load()
}

// AfterFunc runs f on the loop once d has elapsed.
func (l *Loop) AfterFunc(d time.Duration, f func()) refresh.Timer {
	tm := &Timer{}
	tm.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if tm.stopped.Load() {
				return
			}
			tm.ran.Store(true)
			f()
		})
	})
	return tm
}

// Done is closed after Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
