package editor

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_SingleCall(t *testing.T) {
	var called int32
	debouncer := NewDebouncer(50*time.Millisecond, nil)

	debouncer.Debounce(func() {
		atomic.AddInt32(&called, 1)
	})

	time.Sleep(100 * time.Millisecond)

	if atomic.LoadInt32(&called) != 1 {
		t.Errorf("Expected 1 call, got %d", called)
	}
}

func TestDebouncer_RapidCalls(t *testing.T) {
	var called int32
	var lastValue int32
	debouncer := NewDebouncer(50*time.Millisecond, nil)

	for i := 1; i <= 10; i++ {
		value := int32(i)
		debouncer.Debounce(func() {
			atomic.StoreInt32(&lastValue, value)
			atomic.AddInt32(&called, 1)
		})
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)

	if atomic.LoadInt32(&called) != 1 {
		t.Errorf("Expected 1 call for rapid succession, got %d", called)
	}
	if atomic.LoadInt32(&lastValue) != 10 {
		t.Errorf("Expected last value 10, got %d", lastValue)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	var called int32
	debouncer := NewDebouncer(50*time.Millisecond, nil)

	debouncer.Debounce(func() {
		atomic.AddInt32(&called, 1)
	})

	time.Sleep(10 * time.Millisecond)
	debouncer.Cancel()

	time.Sleep(100 * time.Millisecond)

	if atomic.LoadInt32(&called) != 0 {
		t.Errorf("Expected 0 calls after cancel, got %d", called)
	}
}

func TestDebouncer_Immediate(t *testing.T) {
	var called int32
	debouncer := NewDebouncer(50*time.Millisecond, nil)

	debouncer.Debounce(func() {
		atomic.AddInt32(&called, 1)
	})
	debouncer.Immediate(func() {
		atomic.AddInt32(&called, 10)
	})

	time.Sleep(100 * time.Millisecond)

	if atomic.LoadInt32(&called) != 10 {
		t.Errorf("Expected 10 (immediate only), got %d", called)
	}
}

func TestDebouncer_ManualClock(t *testing.T) {
	clock := &manualScheduler{}
	d := NewDebouncer(DefaultDebounce, clock)
	var called int32

	d.Debounce(func() { atomic.AddInt32(&called, 1) })

	clock.Advance(DefaultDebounce - time.Millisecond)
	if atomic.LoadInt32(&called) != 0 {
		t.Fatalf("fired before the quiet period elapsed")
	}

	clock.Advance(time.Millisecond)
	if atomic.LoadInt32(&called) != 1 {
		t.Fatalf("Expected 1 call, got %d", called)
	}

	clock.Advance(DefaultDebounce)
	if atomic.LoadInt32(&called) != 1 {
		t.Errorf("fired twice, got %d", called)
	}
}

func TestDebouncer_StaleTimerDropped(t *testing.T) {
	clock := &manualScheduler{}
	d := NewDebouncer(DefaultDebounce, clock)
	var first, second int32

	d.Debounce(func() { atomic.AddInt32(&first, 1) })

	// Capture the first timer so it can be fired after it was superseded.
	clock.mu.Lock()
	stale := clock.timers[0]
	clock.mu.Unlock()

	d.Debounce(func() { atomic.AddInt32(&second, 1) })
	stale.fn()

	if atomic.LoadInt32(&first) != 0 {
		t.Error("superseded call ran")
	}

	clock.Advance(DefaultDebounce)
	if atomic.LoadInt32(&second) != 1 {
		t.Errorf("Expected latest call once, got %d", second)
	}
}

func BenchmarkDebouncer_RapidCalls(b *testing.B) {
	debouncer := NewDebouncer(10*time.Millisecond, nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		debouncer.Debounce(func() {})
	}

	debouncer.Cancel()
}
