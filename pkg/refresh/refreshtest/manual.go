// Package refreshtest provides a manually advanced scheduler for tests.
package refreshtest

import (
	"sort"
	"time"

	"github.com/codeGROOVE-dev/zipTZ/pkg/refresh"
)

// Manual is a refresh.Scheduler driven by Advance. It is not safe for
// concurrent use.
type Manual struct {
	now    time.Time
	timers []*timer
	seq    int
}

type timer struct {
	at      time.Time
	f       func()
	seq     int
	stopped bool
	fired   bool
}

func (t *timer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// NewManual creates a scheduler whose clock starts at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the scheduler's current time.
func (m *Manual) Now() time.Time {
	return m.now
}

// AfterFunc implements refresh.Scheduler.
func (m *Manual) AfterFunc(d time.Duration, f func()) refresh.Timer {
	m.seq++
	t := &timer{at: m.now.Add(d), f: f, seq: m.seq}
	m.timers = append(m.timers, t)
	return t
}

// Pending returns the number of timers that have neither fired nor been stopped.
func (m *Manual) Pending() int {
	n := 0
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, firing due timers in deadline order.
// Timers scheduled by callbacks fire too if they fall within the window.
func (m *Manual) Advance(d time.Duration) {
	end := m.now.Add(d)
	for {
		next := m.nextDue(end)
		if next == nil {
			break
		}
		m.now = next.at
		next.fired = true
		next.f()
	}
	m.now = end
	m.compact()
}

func (m *Manual) nextDue(end time.Time) *timer {
	var due []*timer
	for _, t := range m.timers {
		if !t.stopped && !t.fired && !t.at.After(end) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].seq < due[j].seq
		}
		return due[i].at.Before(due[j].at)
	})
	return due[0]
}

func (m *Manual) compact() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	m.timers = live
}
