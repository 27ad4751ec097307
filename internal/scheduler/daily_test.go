package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestStartRejectsBadSpec(t *testing.T) {
	d := NewDaily("not a cron spec", func(context.Context) {})
	if err := d.Start(context.Background()); err == nil {
		t.Fatal("expected invalid cron spec to fail")
	}
	if d.Running() {
		t.Fatal("failed Start must not leave the scheduler running")
	}
}

func TestStartStopLifecycle(t *testing.T) {
	d := NewDaily("0 14 * * *", func(context.Context) {})

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !d.Running() {
		t.Fatal("expected running after Start")
	}

	// Second Start is a no-op, not an error.
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("re-Start: %v", err)
	}

	d.Stop()
	if d.Running() {
		t.Fatal("expected stopped after Stop")
	}
	d.Stop() // idempotent
}

func TestScheduleFires(t *testing.T) {
	var fired atomic.Int32
	// Every-second spec keeps the test fast.
	d := NewDaily("@every 1s", func(context.Context) { fired.Add(1) })

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	deadline := time.After(3 * time.Second)
	for fired.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("schedule never fired")
		case <-time.After(50 * time.Millisecond):
		}
	}
	t.Logf("fired %d time(s)", fired.Load())
}
