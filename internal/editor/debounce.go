package editor

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period between the last edit and its validation.
const DefaultDebounce = 300 * time.Millisecond

// Timer is the subset of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// Scheduler starts timers. Tests substitute a manual implementation.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemScheduler struct{}

func (systemScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemScheduler returns a Scheduler backed by time.AfterFunc.
func SystemScheduler() Scheduler {
	return systemScheduler{}
}

// Debouncer runs only the last function scheduled within a quiet window.
// A timer that already fired but lost the race with a newer Debounce call is
// recognized by its generation and dropped, so at most one call is ever pending.
type Debouncer struct {
	mu        sync.Mutex
	timer     Timer
	duration  time.Duration
	scheduler Scheduler
	gen       uint64
}

// NewDebouncer creates a debouncer. A nil scheduler means the system clock.
func NewDebouncer(duration time.Duration, scheduler Scheduler) *Debouncer {
	if scheduler == nil {
		scheduler = SystemScheduler()
	}
	return &Debouncer{
		duration:  duration,
		scheduler: scheduler,
	}
}

// Debounce executes fn after the quiet period elapses without another call.
// Rapid successive calls reset the timer.
func (d *Debouncer) Debounce(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	d.gen++
	gen := d.gen
	d.timer = d.scheduler.AfterFunc(d.duration, func() {
		d.mu.Lock()
		if gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		fn()
	})
}

// Cancel cancels any pending debounced call.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Immediate cancels any pending call and runs fn on the caller's goroutine.
func (d *Debouncer) Immediate(fn func()) {
	d.Cancel()
	fn()
}
