package http

import (
	"context"
	"testing"
	"time"
)

// TestInFlightTracker_Counting verifies increments and decrements balance.
func TestInFlightTracker_Counting(t *testing.T) {
	tr := &inFlightTracker{}
	tr.Increment()
	tr.Increment()
	if got := tr.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
	tr.Decrement()
	tr.Decrement()
	if got := tr.Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
}

// TestInFlightTracker_WaitForZero verifies the drain unblocks once the count
// reaches zero and respects context cancellation otherwise.
func TestInFlightTracker_WaitForZero(t *testing.T) {
	tr := &inFlightTracker{}
	tr.Increment()

	go func() {
		time.Sleep(20 * time.Millisecond)
		tr.Decrement()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := tr.waitForZero(ctx, time.Millisecond); err != nil {
		t.Errorf("waitForZero() error = %v, want nil", err)
	}
}

func TestInFlightTracker_WaitForZero_ContextCancelled(t *testing.T) {
	tr := &inFlightTracker{}
	tr.Increment()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := tr.waitForZero(ctx, time.Millisecond); err == nil {
		t.Error("waitForZero() error = nil with nonzero count, want context error")
	}
}
