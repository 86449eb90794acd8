// Package refresh runs a callback on a fixed interval through a single,
// explicitly cancellable timer.
package refresh

import "time"

// Interval is the clock refresh period.
const Interval = time.Second

// Timer is a pending callback.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the
	// call stopped the timer.
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Task re-arms itself after every tick until cancelled. At most one timer
// is outstanding at any time.
//
// A Task is not safe for concurrent use; it is meant to be driven from the
// same goroutine that runs the scheduler's callbacks.
type Task struct {
	scheduler Scheduler
	timer     Timer
	tick      func()
	interval  time.Duration
	gen       uint64
	ticks     uint64
}

// NewTask creates an idle task.
func NewTask(scheduler Scheduler, interval time.Duration) *Task {
	if interval <= 0 {
		interval = Interval
	}
	return &Task{scheduler: scheduler, interval: interval}
}

// Arm cancels any outstanding timer and schedules tick to run every interval.
// The first tick fires one interval from now.
func (t *Task) Arm(tick func()) {
	t.Cancel()
	t.tick = tick
	t.schedule()
}

// Cancel stops the outstanding timer. No tick from an earlier Arm runs after
// Cancel returns.
func (t *Task) Cancel() {
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.tick = nil
}

// Active reports whether a tick is scheduled.
func (t *Task) Active() bool {
	return t.timer != nil
}

// Ticks returns how many ticks have run since the task was created.
func (t *Task) Ticks() uint64 {
	return t.ticks
}

func (t *Task) schedule() {
	gen := t.gen
	t.timer = t.scheduler.AfterFunc(t.interval, func() {
		if gen != t.gen {
			return
		}
		t.timer = nil
		t.ticks++
		t.tick()
		// tick may have cancelled or re-armed the task.
		if gen == t.gen && t.timer == nil {
			t.schedule()
		}
	})
}
