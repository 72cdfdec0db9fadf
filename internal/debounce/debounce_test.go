package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	calls []int
}

func (r *recorder) record(v int) {
	r.mu.Lock()
	r.calls = append(r.calls, v)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.calls...)
}

func TestBurstRunsOnceWithLastArgument(t *testing.T) {
	rec := &recorder{}
	d := New(rec.record, 60*time.Millisecond)

	for i := 1; i <= 10; i++ {
		d.Call(i)
		time.Sleep(2 * time.Millisecond)
	}
	if !d.Pending() {
		t.Fatal("expected pending execution during burst")
	}

	time.Sleep(200 * time.Millisecond)

	calls := rec.snapshot()
	if len(calls) != 1 || calls[0] != 10 {
		t.Fatalf("calls = %v, want [10]", calls)
	}
	if d.Pending() {
		t.Fatal("nothing should be pending after execution")
	}
}

func TestSeparateBurstsRunSeparately(t *testing.T) {
	rec := &recorder{}
	call := New(rec.record, 20*time.Millisecond).Func()

	call(1)
	time.Sleep(80 * time.Millisecond)
	call(2)
	call(3)
	time.Sleep(80 * time.Millisecond)

	calls := rec.snapshot()
	if len(calls) != 2 || calls[0] != 1 || calls[1] != 3 {
		t.Fatalf("calls = %v, want [1 3]", calls)
	}
}

func TestStopCancelsPending(t *testing.T) {
	rec := &recorder{}
	d := New(rec.record, 20*time.Millisecond)

	d.Call(1)
	if !d.Stop() {
		t.Fatal("Stop should report a pending execution")
	}
	time.Sleep(60 * time.Millisecond)

	if calls := rec.snapshot(); len(calls) != 0 {
		t.Fatalf("calls = %v, want none", calls)
	}
	if d.Stop() {
		t.Fatal("second Stop should report nothing pending")
	}
}

func TestFlushRunsImmediately(t *testing.T) {
	rec := &recorder{}
	d := New(rec.record, time.Hour)

	if d.Flush() {
		t.Fatal("Flush without pending call should do nothing")
	}
	d.Call(4)
	d.Call(5)
	if !d.Flush() {
		t.Fatal("Flush should run the pending call")
	}
	if calls := rec.snapshot(); len(calls) != 1 || calls[0] != 5 {
		t.Fatalf("calls = %v, want [5]", calls)
	}
}

func TestActionNeverRunsConcurrently(t *testing.T) {
	var running, overlaps atomic.Int32
	var runs atomic.Int32
	d := New(func(struct{}) {
		if running.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(15 * time.Millisecond)
		running.Add(-1)
		runs.Add(1)
	}, time.Millisecond)

	for i := 0; i < 20; i++ {
		d.Call(struct{}{})
		time.Sleep(3 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)

	if overlaps.Load() != 0 {
		t.Fatalf("action overlapped %d times", overlaps.Load())
	}
	if runs.Load() == 0 {
		t.Fatal("action never ran")
	}
}
