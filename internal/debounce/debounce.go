// Package debounce schedules deferred callbacks that can be cancelled before
// they run.
package debounce

import (
	"sync"
	"time"
)

// afterFunc is swapped in tests to fire callbacks by hand.
var afterFunc = time.AfterFunc

// Debouncer coalesces bursts of Trigger calls into a single call of fn,
// delay after the last trigger.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	seq   uint64
	fn    func()
}

func New(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = afterFunc(d.delay, func() {
		d.mu.Lock()
		current := d.seq == seq && d.timer != nil
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		if current {
			d.fn()
		}
	})
}

func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Timer runs fn once after a delay unless Stop is called first.
//
// Unlike time.Timer, a Timer never runs fn after Stop has returned, even when
// the underlying timer already fired and its goroutine is waiting to run.
type Timer struct {
	mu    sync.Mutex
	timer *time.Timer
	done  bool
}

func AfterFunc(delay time.Duration, fn func()) *Timer {
	t := &Timer{}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timer = afterFunc(delay, func() {
		t.mu.Lock()
		if t.done {
			t.mu.Unlock()
			return
		}
		t.done = true
		t.mu.Unlock()
		fn()
	})
	return t
}

// Stop cancels the callback. It reports whether the call prevented fn from
// running; Stop on an already fired or stopped Timer returns false.
func (t *Timer) Stop() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	if t.timer != nil {
		t.timer.Stop()
	}
	return true
}
