package utils

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCollapsesBurst(t *testing.T) {
	var runs int32
	d := NewDebouncer(50*time.Millisecond, func() {
		atomic.AddInt32(&runs, 1)
	})

	// Five rapid triggers within the settle period collapse into one run.
	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)
	if got := atomic.LoadInt32(&runs); got != 1 {
		t.Errorf("runs = %d, want 1", got)
	}
}

func TestDebouncerSeparatedTriggersRunEach(t *testing.T) {
	var runs int32
	d := NewDebouncer(20*time.Millisecond, func() {
		atomic.AddInt32(&runs, 1)
	})

	d.Trigger()
	time.Sleep(60 * time.Millisecond)
	d.Trigger()
	time.Sleep(60 * time.Millisecond)

	if got := atomic.LoadInt32(&runs); got != 2 {
		t.Errorf("runs = %d, want 2", got)
	}
}

func TestDebouncerCancel(t *testing.T) {
	var runs int32
	d := NewDebouncer(30*time.Millisecond, func() {
		atomic.AddInt32(&runs, 1)
	})

	d.Trigger()
	d.Cancel()
	time.Sleep(80 * time.Millisecond)

	if got := atomic.LoadInt32(&runs); got != 0 {
		t.Errorf("runs = %d, want 0 after cancel", got)
	}
}

func TestDebouncerFlush(t *testing.T) {
	var runs int32
	d := NewDebouncer(time.Hour, func() {
		atomic.AddInt32(&runs, 1)
	})

	d.Flush()
	if got := atomic.LoadInt32(&runs); got != 0 {
		t.Errorf("flush with nothing pending ran %d times", got)
	}

	d.Trigger()
	d.Flush()
	if got := atomic.LoadInt32(&runs); got != 1 {
		t.Errorf("runs = %d, want 1 after flush", got)
	}
}
